package adaptor

import (
	"net/http"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/dto/response"
	"parking-reservation/internal/usecase"
	"parking-reservation/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SlotHandler struct {
	slots   usecase.SlotService
	tariffs usecase.TariffService
	log     *zap.Logger
}

func NewSlotHandler(slots usecase.SlotService, tariffs usecase.TariffService, log *zap.Logger) *SlotHandler {
	return &SlotHandler{
		slots:   slots,
		tariffs: tariffs,
		log:     log.With(zap.String("handler", "slot")),
	}
}

// ListSlots handles GET /api/lots/{lotId}/slots. With start_time and
// duration_hours query parameters it lists only the slots free for that
// interval; without them it returns the full inventory.
func (h *SlotHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid lot ID", nil)
		return
	}

	var slots []*entity.ParkingSlot
	query := r.URL.Query()
	if startRaw := query.Get("start_time"); startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			utils.ResponseBadRequest(w, "Invalid start_time, expected RFC3339", nil)
			return
		}
		hours := utils.ParseInt(query.Get("duration_hours"), 0)
		if hours < 1 {
			utils.ResponseBadRequest(w, "duration_hours must be at least 1", nil)
			return
		}

		slots, err = h.slots.ListAvailable(r.Context(), lotID, start, start.Add(time.Duration(hours)*time.Hour))
		if err != nil {
			respondServiceError(w, h.log, err, "list available slots")
			return
		}
	} else {
		slots, err = h.slots.ListByLot(r.Context(), lotID)
		if err != nil {
			respondServiceError(w, h.log, err, "list slots")
			return
		}
	}

	items := make([]response.SlotResponse, len(slots))
	for i, slot := range slots {
		items[i] = response.SlotToResponse(slot)
	}

	utils.ResponseSuccess(w, "success", items)
}

// ListTariffs handles GET /api/lots/{lotId}/tariffs
func (h *SlotHandler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	lotID, err := uuid.Parse(chi.URLParam(r, "lotId"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid lot ID", nil)
		return
	}

	tariffs, err := h.tariffs.ListByLot(r.Context(), lotID)
	if err != nil {
		respondServiceError(w, h.log, err, "list tariffs")
		return
	}

	items := make([]response.TariffResponse, len(tariffs))
	for i, tariff := range tariffs {
		items[i] = response.TariffToResponse(tariff)
	}

	utils.ResponseSuccess(w, "success", items)
}

// SetMaintenance handles PUT /api/slots/{id}/maintenance
func (h *SlotHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid slot ID", nil)
		return
	}

	if err := h.slots.SetMaintenance(r.Context(), slotID); err != nil {
		respondServiceError(w, h.log, err, "set slot maintenance")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}

// ClearMaintenance handles DELETE /api/slots/{id}/maintenance
func (h *SlotHandler) ClearMaintenance(w http.ResponseWriter, r *http.Request) {
	slotID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid slot ID", nil)
		return
	}

	if err := h.slots.ClearMaintenance(r.Context(), slotID); err != nil {
		respondServiceError(w, h.log, err, "clear slot maintenance")
		return
	}

	utils.ResponseSuccess(w, "success", nil)
}
