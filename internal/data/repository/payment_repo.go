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

type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error)
	CountByReservationID(ctx context.Context, reservationID uuid.UUID) (int64, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `id, reservation_id, amount, method, status, external_ref, occurred_at, created_at`

func scanPayment(row pgx.Row) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(
		&p.ID,
		&p.ReservationID,
		&p.Amount,
		&p.Method,
		&p.Status,
		&p.ExternalRef,
		&p.OccurredAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE reservation_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.QueryRow(ctx, query, reservationID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by reservation ID",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
		)
		return nil, fmt.Errorf("find payment by reservation ID %s: %w", reservationID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) CountByReservationID(ctx context.Context, reservationID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM payments WHERE reservation_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, reservationID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count payments by reservation ID",
			zap.Error(err),
			zap.String("reservation_id", reservationID.String()),
		)
		return 0, fmt.Errorf("count payments by reservation ID %s: %w", reservationID.String(), err)
	}

	return count, nil
}
