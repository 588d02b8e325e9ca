package usecase

import (
	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Reservation ReservationService
	Tariff      TariffService
	Slot        SlotService
}

func NewService(repo *repository.Repository, gw PaymentGateway, config *utils.Config, log *zap.Logger) *Service {
	tariffs := NewTariffService(repo.Tariff, log)
	slots := NewSlotService(repo.Slot, repo.Reservation, log)
	codes := NewCodeGenerator(config.Reservation.CodePrefix, repo.CodeSeq)

	return &Service{
		Reservation: NewReservationService(repo, tariffs, slots, codes, gw, config.Reservation, log),
		Tariff:      tariffs,
		Slot:        slots,
	}
}
