package entity

import (
	"github.com/google/uuid"
)

type SlotState string

const (
	SlotStateFree        SlotState = "free"
	SlotStateReserved    SlotState = "reserved"
	SlotStateOccupied    SlotState = "occupied"
	SlotStateMaintenance SlotState = "maintenance"
	SlotStateSubscribed  SlotState = "subscribed"
)

type ParkingSlot struct {
	BaseNoDelete
	LotID           uuid.UUID `db:"lot_id"`
	Number          string    `db:"number"`
	VehicleCategory string    `db:"vehicle_category"`
	State           SlotState `db:"state"`
}
