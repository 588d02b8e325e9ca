package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type Payment struct {
	BaseSimple
	ReservationID uuid.UUID     `db:"reservation_id"`
	Amount        float64       `db:"amount"`
	Method        PaymentMethod `db:"method"`
	Status        PaymentStatus `db:"status"`
	ExternalRef   string        `db:"external_ref"`
	OccurredAt    time.Time     `db:"occurred_at"`
}
