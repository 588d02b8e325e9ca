package entity

import (
	"time"

	"github.com/google/uuid"
)

type Tariff struct {
	BaseNoDelete
	LotID           uuid.UUID `db:"lot_id"`
	VehicleCategory string    `db:"vehicle_category"`
	UnitPrice       float64   `db:"unit_price"`
	EffectiveFrom   time.Time `db:"effective_from"`
}
