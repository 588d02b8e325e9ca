package repository

import (
	"parking-reservation/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Reservation ReservationRepository
	Payment     PaymentRepository
	Slot        SlotRepository
	Tariff      TariffRepository
	CodeSeq     CodeSeqRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Reservation: NewReservationRepository(db, log),
		Payment:     NewPaymentRepository(db, log),
		Slot:        NewSlotRepository(db, log),
		Tariff:      NewTariffRepository(db, log),
		CodeSeq:     NewCodeSeqRepository(db, log),
	}
}
