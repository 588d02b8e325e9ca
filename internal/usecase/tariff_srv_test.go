package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"parking-reservation/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func tariffFixture(lotID uuid.UUID, tariffs ...*entity.Tariff) TariffService {
	s := newStore()
	s.tariffs = tariffs
	return NewTariffService(&stubTariffRepo{s: s}, zap.NewNop())
}

func autoTariff(lotID uuid.UUID, unitPrice float64, effectiveFrom time.Time) *entity.Tariff {
	return &entity.Tariff{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New()},
		LotID:           lotID,
		VehicleCategory: "AUTO",
		UnitPrice:       unitPrice,
		EffectiveFrom:   effectiveFrom,
	}
}

func TestResolvePicksLatestEffectiveTariff(t *testing.T) {
	t.Parallel()
	lotID := uuid.New()
	now := time.Now()
	svc := tariffFixture(lotID,
		autoTariff(lotID, 4.0, now.Add(-30*24*time.Hour)),
		autoTariff(lotID, 5.5, now.Add(-24*time.Hour)),
		autoTariff(lotID, 7.0, now.Add(24*time.Hour)), // future, must not apply yet
	)

	tariff, err := svc.Resolve(context.Background(), lotID, "AUTO", now)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tariff.UnitPrice != 5.5 {
		t.Errorf("unit price = %v, want 5.5", tariff.UnitPrice)
	}
}

func TestResolveUnknownCategory(t *testing.T) {
	t.Parallel()
	lotID := uuid.New()
	svc := tariffFixture(lotID, autoTariff(lotID, 5.0, time.Now().Add(-24*time.Hour)))

	_, err := svc.Resolve(context.Background(), lotID, "MOTO", time.Now())
	if !errors.Is(err, ErrTariffNotFound) {
		t.Errorf("Resolve = %v, want ErrTariffNotFound", err)
	}
}

func TestPriceForMultipliesWholeHours(t *testing.T) {
	t.Parallel()
	lotID := uuid.New()
	svc := tariffFixture(lotID, autoTariff(lotID, 5.5, time.Now().Add(-24*time.Hour)))

	price, err := svc.PriceFor(context.Background(), lotID, "AUTO", time.Now(), 3)
	if err != nil {
		t.Fatalf("PriceFor: %v", err)
	}
	if price != 16.5 {
		t.Errorf("price = %v, want 16.5", price)
	}
}
