package repository

import (
	"context"
	"fmt"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type SlotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.ParkingSlot, error)
	FindByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.ParkingSlot, error)

	// SetStateFrom flips the operational state only when the current state
	// is one of from. Returns false when nothing matched, which includes
	// the slot already being in the target state.
	SetStateFrom(ctx context.Context, id uuid.UUID, to entity.SlotState, from ...entity.SlotState) (bool, error)
}

type slotRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSlotRepository(db database.PgxIface, log *zap.Logger) SlotRepository {
	return &slotRepository{
		db:  db,
		log: log.With(zap.String("repository", "slot")),
	}
}

const slotColumns = `id, lot_id, number, vehicle_category, state, created_at, updated_at`

func scanSlot(row pgx.Row) (*entity.ParkingSlot, error) {
	var s entity.ParkingSlot
	err := row.Scan(
		&s.ID,
		&s.LotID,
		&s.Number,
		&s.VehicleCategory,
		&s.State,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *slotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE id = $1`

	slot, err := scanSlot(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find slot by ID",
			zap.Error(err),
			zap.String("slot_id", id.String()),
		)
		return nil, fmt.Errorf("find slot by ID %s: %w", id.String(), err)
	}

	return slot, nil
}

func (r *slotRepository) FindByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.ParkingSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM parking_slots WHERE lot_id = $1 ORDER BY number`

	rows, err := r.db.Query(ctx, query, lotID)
	if err != nil {
		r.log.Error("Failed to find slots by lot",
			zap.Error(err),
			zap.String("lot_id", lotID.String()),
		)
		return nil, fmt.Errorf("find slots by lot %s: %w", lotID.String(), err)
	}
	defer rows.Close()

	var slots []*entity.ParkingSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			r.log.Error("Failed to scan slot row", zap.Error(err))
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate slot rows", zap.Error(err))
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}

	return slots, nil
}

func (r *slotRepository) SetStateFrom(ctx context.Context, id uuid.UUID, to entity.SlotState, from ...entity.SlotState) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	query := `UPDATE parking_slots SET state = $2, updated_at = NOW() WHERE id = $1 AND state = ANY($3)`

	result, err := r.db.Exec(ctx, query, id, to, states)
	if err != nil {
		r.log.Error("Failed to update slot state",
			zap.Error(err),
			zap.String("slot_id", id.String()),
			zap.String("state", string(to)),
		)
		return false, fmt.Errorf("update slot %s state to %s: %w", id.String(), string(to), err)
	}

	return result.RowsAffected() > 0, nil
}
