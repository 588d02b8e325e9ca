package repository

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TariffRepository interface {
	// ResolveAt picks the tariff with the most recent effective date at or
	// before at for the lot and vehicle category. Returns nil when no
	// tariff applies.
	ResolveAt(ctx context.Context, lotID uuid.UUID, category string, at time.Time) (*entity.Tariff, error)
	FindByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.Tariff, error)
}

type tariffRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTariffRepository(db database.PgxIface, log *zap.Logger) TariffRepository {
	return &tariffRepository{
		db:  db,
		log: log.With(zap.String("repository", "tariff")),
	}
}

const tariffColumns = `id, lot_id, vehicle_category, unit_price, effective_from, created_at, updated_at`

func scanTariff(row pgx.Row) (*entity.Tariff, error) {
	var t entity.Tariff
	err := row.Scan(
		&t.ID,
		&t.LotID,
		&t.VehicleCategory,
		&t.UnitPrice,
		&t.EffectiveFrom,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tariffRepository) ResolveAt(ctx context.Context, lotID uuid.UUID, category string, at time.Time) (*entity.Tariff, error) {
	query := `
		SELECT ` + tariffColumns + `
		FROM tariffs
		WHERE lot_id = $1 AND vehicle_category = $2 AND effective_from <= $3
		ORDER BY effective_from DESC
		LIMIT 1
	`

	tariff, err := scanTariff(r.db.QueryRow(ctx, query, lotID, category, at))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to resolve tariff",
			zap.Error(err),
			zap.String("lot_id", lotID.String()),
			zap.String("vehicle_category", category),
		)
		return nil, fmt.Errorf("resolve tariff for lot %s category %s: %w", lotID.String(), category, err)
	}

	return tariff, nil
}

func (r *tariffRepository) FindByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.Tariff, error) {
	query := `SELECT ` + tariffColumns + ` FROM tariffs WHERE lot_id = $1 ORDER BY vehicle_category, effective_from DESC`

	rows, err := r.db.Query(ctx, query, lotID)
	if err != nil {
		r.log.Error("Failed to find tariffs by lot",
			zap.Error(err),
			zap.String("lot_id", lotID.String()),
		)
		return nil, fmt.Errorf("find tariffs by lot %s: %w", lotID.String(), err)
	}
	defer rows.Close()

	var tariffs []*entity.Tariff
	for rows.Next() {
		tariff, err := scanTariff(rows)
		if err != nil {
			r.log.Error("Failed to scan tariff row", zap.Error(err))
			return nil, fmt.Errorf("scan tariff row: %w", err)
		}
		tariffs = append(tariffs, tariff)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate tariff rows", zap.Error(err))
		return nil, fmt.Errorf("iterate tariff rows: %w", err)
	}

	return tariffs, nil
}
