package response

import (
	"time"

	"parking-reservation/internal/data/entity"
)

// CreateReservationResponse is what the create phase hands back. For online
// payment methods nothing is persisted yet; the client pays against the
// returned payment info and confirms afterwards.
type CreateReservationResponse struct {
	Code        string             `json:"code"`
	Amount      float64            `json:"amount"`
	PaymentInfo entity.PaymentInfo `json:"payment_info"`
}

type ReservationResponse struct {
	Code         string                   `json:"code"`
	LotID        string                   `json:"lot_id"`
	SlotID       string                   `json:"slot_id"`
	VehiclePlate string                   `json:"vehicle_plate"`
	RequesterRef string                   `json:"requester_ref"`
	StartTime    time.Time                `json:"start_time"`
	EndTime      time.Time                `json:"end_time"`
	Amount       float64                  `json:"amount"`
	Method       entity.PaymentMethod     `json:"payment_method"`
	PaymentInfo  entity.PaymentInfo       `json:"payment_info"`
	Status       entity.ReservationStatus `json:"status"`
	Payment      *PaymentResponse         `json:"payment,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

type PaymentResponse struct {
	ID          string               `json:"id"`
	Amount      float64              `json:"amount"`
	Method      entity.PaymentMethod `json:"method"`
	Status      entity.PaymentStatus `json:"status"`
	ExternalRef string               `json:"external_ref,omitempty"`
	OccurredAt  time.Time            `json:"occurred_at"`
}

type SlotResponse struct {
	ID              string           `json:"id"`
	LotID           string           `json:"lot_id"`
	Number          string           `json:"number"`
	VehicleCategory string           `json:"vehicle_category"`
	State           entity.SlotState `json:"state"`
}

type TariffResponse struct {
	ID              string    `json:"id"`
	LotID           string    `json:"lot_id"`
	VehicleCategory string    `json:"vehicle_category"`
	UnitPrice       float64   `json:"unit_price"`
	EffectiveFrom   time.Time `json:"effective_from"`
}

// Helper converters

func ReservationToResponse(r *entity.Reservation, payment *entity.Payment) ReservationResponse {
	resp := ReservationResponse{
		Code:         r.Code,
		LotID:        r.LotID.String(),
		SlotID:       r.SlotID.String(),
		VehiclePlate: r.VehiclePlate,
		RequesterRef: r.RequesterRef,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Amount:       r.Amount,
		Method:       r.Method,
		PaymentInfo:  r.PaymentInfo,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}

	if payment != nil {
		p := PaymentToResponse(payment)
		resp.Payment = &p
	}

	return resp
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:          p.ID.String(),
		Amount:      p.Amount,
		Method:      p.Method,
		Status:      p.Status,
		ExternalRef: p.ExternalRef,
		OccurredAt:  p.OccurredAt,
	}
}

func SlotToResponse(s *entity.ParkingSlot) SlotResponse {
	return SlotResponse{
		ID:              s.ID.String(),
		LotID:           s.LotID.String(),
		Number:          s.Number,
		VehicleCategory: s.VehicleCategory,
		State:           s.State,
	}
}

func TariffToResponse(t *entity.Tariff) TariffResponse {
	return TariffResponse{
		ID:              t.ID.String(),
		LotID:           t.LotID.String(),
		VehicleCategory: t.VehicleCategory,
		UnitPrice:       t.UnitPrice,
		EffectiveFrom:   t.EffectiveFrom,
	}
}
