package adaptor

import (
	"errors"
	"net/http"

	"parking-reservation/internal/gateway"
	"parking-reservation/internal/usecase"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

type WebhookHandler struct {
	service usecase.ReservationService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.ReservationService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// GatewayNotification handles POST /api/webhooks/pasarela. The processor may
// deliver the same notification more than once; Confirm absorbs replays, so
// every delivery is answered 200 once processed.
func (h *WebhookHandler) GatewayNotification(w http.ResponseWriter, r *http.Request) {
	notification, err := gateway.ParseNotification(r.Body)
	if err != nil {
		h.log.Warn("Malformed gateway notification", zap.Error(err))
		utils.ResponseBadRequest(w, "Invalid notification body", nil)
		return
	}

	if notification.Event != gateway.EventPaymentSucceeded {
		h.log.Info("Gateway notification ignored",
			zap.String("event", notification.Event),
			zap.String("external_ref", notification.ExternalReference),
		)
		utils.ResponseSuccess(w, "ignored", nil)
		return
	}

	snapshot, err := usecase.SnapshotFromMetadata(notification.Metadata, notification.IntentID)
	if err != nil {
		h.log.Error("Gateway notification with unusable metadata",
			zap.Error(err),
			zap.String("external_ref", notification.ExternalReference),
		)
		utils.ResponseBadRequest(w, "Invalid notification metadata", nil)
		return
	}

	reservation, err := h.service.Confirm(r.Context(), notification.ExternalReference, snapshot)
	if err != nil {
		// A code conflict must not be retried by the gateway; answer 409 so
		// it lands in their dead-letter queue and pages an operator.
		if errors.Is(err, usecase.ErrCodeConflict) {
			h.log.Error("Webhook confirm hit code conflict",
				zap.Error(err),
				zap.String("external_ref", notification.ExternalReference),
			)
			utils.ResponseConflict(w, err.Error())
			return
		}
		respondServiceError(w, h.log, err, "confirm reservation from webhook")
		return
	}

	utils.ResponseSuccess(w, "success", reservation)
}
