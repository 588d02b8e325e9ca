package usecase

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TariffService interface {
	// Resolve returns the unit price applicable at the given instant.
	// Fails with ErrTariffNotFound when no tariff covers the category;
	// reservation creation treats that as fatal.
	Resolve(ctx context.Context, lotID uuid.UUID, category string, at time.Time) (*entity.Tariff, error)

	// PriceFor computes unit price times the caller's whole-hour duration.
	// No proration.
	PriceFor(ctx context.Context, lotID uuid.UUID, category string, at time.Time, durationHours int) (float64, error)

	ListByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.Tariff, error)
}

type tariffService struct {
	tariffs repository.TariffRepository
	log     *zap.Logger
}

func NewTariffService(tariffs repository.TariffRepository, log *zap.Logger) TariffService {
	return &tariffService{
		tariffs: tariffs,
		log:     log.With(zap.String("service", "tariff")),
	}
}

func (s *tariffService) Resolve(ctx context.Context, lotID uuid.UUID, category string, at time.Time) (*entity.Tariff, error) {
	tariff, err := s.tariffs.ResolveAt(ctx, lotID, category, at)
	if err != nil {
		return nil, fmt.Errorf("resolve tariff: %w", err)
	}
	if tariff == nil {
		s.log.Warn("No tariff configured",
			zap.String("lot_id", lotID.String()),
			zap.String("vehicle_category", category),
			zap.Time("at", at),
		)
		return nil, fmt.Errorf("%w for lot %s category %s", ErrTariffNotFound, lotID.String(), category)
	}

	return tariff, nil
}

func (s *tariffService) PriceFor(ctx context.Context, lotID uuid.UUID, category string, at time.Time, durationHours int) (float64, error) {
	tariff, err := s.Resolve(ctx, lotID, category, at)
	if err != nil {
		return 0, err
	}

	return tariff.UnitPrice * float64(durationHours), nil
}

func (s *tariffService) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.Tariff, error) {
	tariffs, err := s.tariffs.FindByLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("list tariffs: %w", err)
	}

	return tariffs, nil
}
