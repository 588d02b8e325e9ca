package adaptor

import (
	"encoding/json"
	"net/http"

	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/usecase"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ReservationHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewReservationHandler(service usecase.ReservationService, log *zap.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log.With(zap.String("handler", "reservation")),
	}
}

// CreateReservation handles POST /api/reservations
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	requesterRef, ok := utils.GetRequesterRefFromContext(r.Context())
	if !ok {
		utils.ResponseBadRequest(w, "Requester reference is required", nil)
		return
	}

	var req request.CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	reservation, err := h.service.Create(r.Context(), requesterRef, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "create reservation")
		return
	}

	utils.ResponseCreated(w, "success", reservation)
}

// ConfirmReservation handles POST /api/reservations/{code}/confirm. This is
// the client-initiated "I paid" path; the gateway webhook is the other one.
func (h *ReservationHandler) ConfirmReservation(w http.ResponseWriter, r *http.Request) {
	requesterRef, ok := utils.GetRequesterRefFromContext(r.Context())
	if !ok {
		utils.ResponseBadRequest(w, "Requester reference is required", nil)
		return
	}

	code := chi.URLParam(r, "code")
	if code == "" {
		utils.ResponseBadRequest(w, "Reservation code is required", nil)
		return
	}

	var req request.ConfirmReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	snapshot, err := usecase.SnapshotFromRequest(requesterRef, &req)
	if err != nil {
		respondServiceError(w, h.log, err, "confirm reservation")
		return
	}

	reservation, err := h.service.Confirm(r.Context(), code, snapshot)
	if err != nil {
		respondServiceError(w, h.log, err, "confirm reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// ActivateReservation handles POST /api/reservations/{code}/activate
func (h *ReservationHandler) ActivateReservation(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.ResponseBadRequest(w, "Reservation code is required", nil)
		return
	}

	reservation, err := h.service.Activate(r.Context(), code)
	if err != nil {
		respondServiceError(w, h.log, err, "activate reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// CancelReservation handles POST /api/reservations/{code}/cancel
func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.ResponseBadRequest(w, "Reservation code is required", nil)
		return
	}

	reservation, err := h.service.Cancel(r.Context(), code)
	if err != nil {
		respondServiceError(w, h.log, err, "cancel reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// GetReservation handles GET /api/reservations/{code}
func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		utils.ResponseBadRequest(w, "Reservation code is required", nil)
		return
	}

	reservation, err := h.service.GetByCode(r.Context(), code)
	if err != nil {
		respondServiceError(w, h.log, err, "get reservation")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}

// ListReservations handles GET /api/reservations
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	req := &request.PaginatedRequest{
		Page:    1,
		PerPage: 10,
	}

	query := r.URL.Query()
	req.Page = utils.ParseInt(query.Get("page"), 1)
	req.PerPage = utils.ParseInt(query.Get("per_page"), 10)

	reservations, err := h.service.List(r.Context(), req)
	if err != nil {
		respondServiceError(w, h.log, err, "list reservations")
		return
	}

	utils.ResponseSuccess(w, "success", reservations)
}
