package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPendingPayment ReservationStatus = "pendiente_pago"
	ReservationStatusConfirmed      ReservationStatus = "confirmada"
	ReservationStatusActive         ReservationStatus = "activa"
	ReservationStatusCompleted      ReservationStatus = "completada"
	ReservationStatusCancelled      ReservationStatus = "cancelada"
	ReservationStatusExpired        ReservationStatus = "expirada"
	ReservationStatusNoShow         ReservationStatus = "no_show"
)

// IsTerminal reports whether status admits no further transitions. The
// non-terminal statuses are the ones that block a slot for overlap checks.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusCompleted, ReservationStatusCancelled,
		ReservationStatusExpired, ReservationStatusNoShow:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodRedirectLink PaymentMethod = "redirect_link"
	PaymentMethodScanCode     PaymentMethod = "scan_code"
)

// PaymentInfo accumulates gateway references for a reservation. Fields are
// only ever filled in, never cleared.
type PaymentInfo struct {
	ExternalID  string `db:"external_id" json:"external_id,omitempty"`
	RedirectURL string `db:"redirect_url" json:"redirect_url,omitempty"`
	ScanPayload string `db:"scan_payload" json:"scan_payload,omitempty"`
}

type Reservation struct {
	BaseNoDelete
	Code         string            `db:"code"`
	LotID        uuid.UUID         `db:"lot_id"`
	SlotID       uuid.UUID         `db:"slot_id"`
	VehiclePlate string            `db:"vehicle_plate"`
	RequesterRef string            `db:"requester_ref"`
	StartTime    time.Time         `db:"start_time"`
	EndTime      time.Time         `db:"end_time"`
	Amount       float64           `db:"amount"`
	Method       PaymentMethod     `db:"payment_method"`
	PaymentInfo  PaymentInfo       `db:"-"`
	Status       ReservationStatus `db:"status"`
	PaymentID    *uuid.UUID        `db:"payment_id"`
}

// SameIdentity reports whether the reservation was minted for the same
// logical request: identical slot coordinates, vehicle and start instant.
func (r *Reservation) SameIdentity(lotID, slotID uuid.UUID, plate string, start time.Time) bool {
	return r.LotID == lotID &&
		r.SlotID == slotID &&
		r.VehiclePlate == plate &&
		r.StartTime.Equal(start)
}
