package repository

import "errors"

var (
	// ErrDuplicateCode is returned when an insert hits the unique
	// constraint on reservations.code.
	ErrDuplicateCode = errors.New("reservation code already exists")

	// ErrSlotTaken is returned when the in-transaction overlap re-check
	// finds a competing non-terminal reservation.
	ErrSlotTaken = errors.New("slot already reserved for interval")

	// ErrPaymentExists is returned when a reservation already references
	// a payment record.
	ErrPaymentExists = errors.New("payment already registered")
)
