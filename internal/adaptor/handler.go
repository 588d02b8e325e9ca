package adaptor

import (
	"errors"
	"net/http"

	"parking-reservation/internal/usecase"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Reservation *ReservationHandler
	Slot        *SlotHandler
	Webhook     *WebhookHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Reservation: NewReservationHandler(service.Reservation, log),
		Slot:        NewSlotHandler(service.Slot, service.Tariff, log),
		Webhook:     NewWebhookHandler(service.Reservation, log),
	}
}

// respondServiceError maps the error taxonomy to HTTP responses. Retryable
// conditions get 409/502 so callers can distinguish them from inputs that
// can never succeed.
func respondServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		log.Warn(operation+" failed - invalid input", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrSlotUnavailable):
		log.Warn(operation+" failed - slot unavailable", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrCodeConflict):
		log.Error(operation+" failed - code conflict", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidState):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error())

	case errors.Is(err, usecase.ErrTariffNotFound):
		log.Error(operation+" failed - tariff missing", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error())

	case errors.Is(err, usecase.ErrPaymentGateway):
		log.Error(operation+" failed - payment gateway", zap.Error(err))
		utils.ResponseBadGateway(w, err.Error())

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
