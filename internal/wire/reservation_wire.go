package wire

import (
	"parking-reservation/internal/adaptor"
	"parking-reservation/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(r chi.Router, handler *adaptor.Handler, log *zap.Logger) {
	// ==================== CLIENT ROUTES (require requester ref) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequesterRef(log))

		// POST /api/reservations - Create reservation (first phase, not durable)
		r.Post("/api/reservations", handler.Reservation.CreateReservation)

		// POST /api/reservations/{code}/confirm - Client "I paid" confirmation
		r.Post("/api/reservations/{code}/confirm", handler.Reservation.ConfirmReservation)

		// POST /api/reservations/{code}/cancel - Cancel a non-terminal reservation
		r.Post("/api/reservations/{code}/cancel", handler.Reservation.CancelReservation)
	})

	// ==================== OPERATOR ROUTES ====================
	// GET /api/reservations - List reservations (paginated)
	r.Get("/api/reservations", handler.Reservation.ListReservations)

	// GET /api/reservations/{code} - Reservation details
	r.Get("/api/reservations/{code}", handler.Reservation.GetReservation)

	// POST /api/reservations/{code}/activate - Vehicle arrived
	r.Post("/api/reservations/{code}/activate", handler.Reservation.ActivateReservation)

	// ==================== GATEWAY ROUTES ====================
	// POST /api/webhooks/pasarela - Processor-initiated confirmation
	r.Post("/api/webhooks/pasarela", handler.Webhook.GatewayNotification)
}
