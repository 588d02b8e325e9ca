package request

type CreateReservationRequest struct {
	LotID         string `json:"lot_id" validate:"required,uuid4"`
	SlotID        string `json:"slot_id" validate:"required,uuid4"`
	VehiclePlate  string `json:"vehicle_plate" validate:"required,min=5,max=10"`
	StartTime     string `json:"start_time" validate:"required"`
	DurationHours int    `json:"duration_hours" validate:"required,min=1"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=redirect_link scan_code"`
}

// ConfirmReservationRequest carries the original reservation fields so the
// engine can materialize the row when the create phase never persisted it,
// and detect code collisions when it did.
type ConfirmReservationRequest struct {
	LotID         string `json:"lot_id" validate:"required,uuid4"`
	SlotID        string `json:"slot_id" validate:"required,uuid4"`
	VehiclePlate  string `json:"vehicle_plate" validate:"required,min=5,max=10"`
	StartTime     string `json:"start_time" validate:"required"`
	DurationHours int    `json:"duration_hours" validate:"required,min=1"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=redirect_link scan_code"`
	ExternalID    string `json:"external_id,omitempty"`
}
