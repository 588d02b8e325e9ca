package wire

import (
	"parking-reservation/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireSlot(r chi.Router, handler *adaptor.Handler) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/lots/{lotId}/slots - Slot inventory with operational state
	r.Get("/api/lots/{lotId}/slots", handler.Slot.ListSlots)

	// GET /api/lots/{lotId}/tariffs - Tariff schedule for a lot
	r.Get("/api/lots/{lotId}/tariffs", handler.Slot.ListTariffs)

	// ==================== OPERATOR ROUTES ====================
	r.Route("/api/slots/{id}/maintenance", func(r chi.Router) {
		// PUT - take slot out of service
		r.Put("/", handler.Slot.SetMaintenance)

		// DELETE - return slot to service
		r.Delete("/", handler.Slot.ClearMaintenance)
	})
}
