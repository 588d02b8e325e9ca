package usecase

import "errors"

// Error taxonomy surfaced to callers. Handlers map these with errors.Is;
// anything not wrapped in one of them is treated as an internal failure.
var (
	// ErrValidation marks input the same request can never make valid.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing reservation, slot or lot.
	ErrNotFound = errors.New("not found")

	// ErrSlotUnavailable marks an interval collision; retryable with a
	// different slot or time.
	ErrSlotUnavailable = errors.New("slot unavailable for requested interval")

	// ErrTariffNotFound marks a configuration gap: no price exists for the
	// lot and vehicle category. Never papered over with a default price.
	ErrTariffNotFound = errors.New("no tariff configured")

	// ErrPaymentGateway marks a processor failure before any state was
	// mutated; safe to retry.
	ErrPaymentGateway = errors.New("payment gateway error")

	// ErrCodeConflict marks a confirm whose snapshot does not match the
	// persisted reservation under the same code. Either a hash collision
	// or a logic defect; never auto-resolved.
	ErrCodeConflict = errors.New("reservation code conflict")

	// ErrInvalidState marks a transition the state machine forbids.
	ErrInvalidState = errors.New("invalid reservation state")
)
