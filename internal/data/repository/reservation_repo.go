package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.Reservation, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Reservation, error)
	Count(ctx context.Context) (int64, error)

	// IsSlotAvailable runs the overlap test against all non-terminal
	// reservations for the slot. Advisory only; the binding check happens
	// again inside CreateConfirmed.
	IsSlotAvailable(ctx context.Context, slotID uuid.UUID, start, end time.Time) (bool, error)

	// CreateConfirmed inserts a reservation inside a transaction that holds
	// a per-slot advisory lock and re-runs the overlap check. Returns
	// ErrSlotTaken when the interval is no longer free and ErrDuplicateCode
	// when the code was inserted by a competing confirm.
	CreateConfirmed(ctx context.Context, reservation *entity.Reservation) error

	// UpdateStatusIf performs the conditional transition "set status = to
	// where status = from". Returns false when no row matched.
	UpdateStatusIf(ctx context.Context, code string, from, to entity.ReservationStatus) (bool, error)

	// AttachPayment inserts the payment record and links it to the
	// reservation in one transaction. Returns ErrPaymentExists when the
	// reservation already references a payment.
	AttachPayment(ctx context.Context, code string, payment *entity.Payment) error

	// Sweep queries. Each returns the transitioned rows so the caller can
	// release the affected slots.
	ExpirePending(ctx context.Context, olderThan time.Time) ([]*entity.Reservation, error)
	MarkNoShows(ctx context.Context, now time.Time) ([]*entity.Reservation, error)
	CompleteElapsed(ctx context.Context, now time.Time) ([]*entity.Reservation, error)
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `id, code, lot_id, slot_id, vehicle_plate, requester_ref,
	start_time, end_time, amount, payment_method, external_id, redirect_url,
	scan_payload, status, payment_id, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var r entity.Reservation
	err := row.Scan(
		&r.ID,
		&r.Code,
		&r.LotID,
		&r.SlotID,
		&r.VehiclePlate,
		&r.RequesterRef,
		&r.StartTime,
		&r.EndTime,
		&r.Amount,
		&r.Method,
		&r.PaymentInfo.ExternalID,
		&r.PaymentInfo.RedirectURL,
		&r.PaymentInfo.ScanPayload,
		&r.Status,
		&r.PaymentID,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *reservationRepository) FindByCode(ctx context.Context, code string) (*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE code = $1
	`

	reservation, err := scanReservation(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find reservation by code %s: %w", code, err)
	}

	return reservation, nil
}

func (r *reservationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list reservations",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate reservation rows", zap.Error(err))
		return nil, fmt.Errorf("iterate reservation rows: %w", err)
	}

	return reservations, nil
}

func (r *reservationRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reservations`).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations: %w", err)
	}

	return count, nil
}

// overlapCondition matches reservations whose [start_time, end_time) interval
// intersects [$2, $3) while the reservation still blocks the slot.
const overlapCondition = `
	slot_id = $1
	AND status IN ('pendiente_pago', 'confirmada', 'activa')
	AND start_time < $3
	AND end_time > $2
`

func (r *reservationRepository) IsSlotAvailable(ctx context.Context, slotID uuid.UUID, start, end time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reservations WHERE ` + overlapCondition + `)`

	var taken bool
	err := r.db.QueryRow(ctx, query, slotID, start, end).Scan(&taken)
	if err != nil {
		r.log.Error("Failed to check slot availability",
			zap.Error(err),
			zap.String("slot_id", slotID.String()),
		)
		return false, fmt.Errorf("check availability for slot %s: %w", slotID.String(), err)
	}

	return !taken, nil
}

func (r *reservationRepository) CreateConfirmed(ctx context.Context, reservation *entity.Reservation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin confirm transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Serialize all writers for this slot. hashtext gives a stable int key
	// for the advisory lock; the lock is released at commit/rollback.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, reservation.SlotID.String()); err != nil {
		return fmt.Errorf("acquire slot lock %s: %w", reservation.SlotID.String(), err)
	}

	// Rows carrying the same code are excluded from the overlap re-check:
	// a competing confirm that already committed this code must fall
	// through to the unique violation below and be replayed, not be
	// reported as a slot conflict with itself.
	var taken bool
	recheck := `SELECT EXISTS (SELECT 1 FROM reservations WHERE ` + overlapCondition + ` AND code <> $4)`
	if err := tx.QueryRow(ctx, recheck, reservation.SlotID, reservation.StartTime, reservation.EndTime, reservation.Code).Scan(&taken); err != nil {
		return fmt.Errorf("recheck availability for slot %s: %w", reservation.SlotID.String(), err)
	}
	if taken {
		return ErrSlotTaken
	}

	insert := `
		INSERT INTO reservations (id, code, lot_id, slot_id, vehicle_plate, requester_ref,
			start_time, end_time, amount, payment_method, external_id, redirect_url,
			scan_payload, status, payment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = tx.Exec(ctx, insert,
		reservation.ID,
		reservation.Code,
		reservation.LotID,
		reservation.SlotID,
		reservation.VehiclePlate,
		reservation.RequesterRef,
		reservation.StartTime,
		reservation.EndTime,
		reservation.Amount,
		reservation.Method,
		reservation.PaymentInfo.ExternalID,
		reservation.PaymentInfo.RedirectURL,
		reservation.PaymentInfo.ScanPayload,
		reservation.Status,
		reservation.PaymentID,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCode
		}
		r.log.Error("Failed to insert confirmed reservation",
			zap.Error(err),
			zap.String("code", reservation.Code),
		)
		return fmt.Errorf("insert reservation %s: %w", reservation.Code, err)
	}

	return tx.Commit(ctx)
}

func (r *reservationRepository) UpdateStatusIf(ctx context.Context, code string, from, to entity.ReservationStatus) (bool, error) {
	query := `UPDATE reservations SET status = $3, updated_at = NOW() WHERE code = $1 AND status = $2`

	result, err := r.db.Exec(ctx, query, code, from, to)
	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("code", code),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("update reservation %s status to %s: %w", code, string(to), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reservationRepository) AttachPayment(ctx context.Context, code string, payment *entity.Payment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin payment transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The conditional update is the idempotency guard: it only matches while
	// payment_id is still NULL, so a second registration finds zero rows.
	link := `
		UPDATE reservations
		SET payment_id = $2, updated_at = NOW()
		WHERE code = $1 AND payment_id IS NULL
		RETURNING id
	`

	var reservationID string
	err = tx.QueryRow(ctx, link, code, payment.ID).Scan(&reservationID)
	if err == pgx.ErrNoRows {
		return ErrPaymentExists
	}
	if err != nil {
		return fmt.Errorf("link payment to reservation %s: %w", code, err)
	}

	insert := `
		INSERT INTO payments (id, reservation_id, amount, method, status, external_ref, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, insert,
		payment.ID,
		reservationID,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.ExternalRef,
		payment.OccurredAt,
		payment.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPaymentExists
		}
		r.log.Error("Failed to insert payment",
			zap.Error(err),
			zap.String("code", code),
		)
		return fmt.Errorf("insert payment for reservation %s: %w", code, err)
	}

	return tx.Commit(ctx)
}

func (r *reservationRepository) ExpirePending(ctx context.Context, olderThan time.Time) ([]*entity.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = 'expirada', updated_at = NOW()
		WHERE status = 'pendiente_pago' AND created_at < $1
		RETURNING ` + reservationColumns

	return r.sweep(ctx, query, "expire pending reservations", olderThan)
}

func (r *reservationRepository) MarkNoShows(ctx context.Context, now time.Time) ([]*entity.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = 'no_show', updated_at = NOW()
		WHERE status = 'confirmada' AND end_time <= $1
		RETURNING ` + reservationColumns

	return r.sweep(ctx, query, "mark no-show reservations", now)
}

func (r *reservationRepository) CompleteElapsed(ctx context.Context, now time.Time) ([]*entity.Reservation, error) {
	query := `
		UPDATE reservations
		SET status = 'completada', updated_at = NOW()
		WHERE status = 'activa' AND end_time <= $1
		RETURNING ` + reservationColumns

	return r.sweep(ctx, query, "complete elapsed reservations", now)
}

func (r *reservationRepository) sweep(ctx context.Context, query, operation string, cutoff time.Time) ([]*entity.Reservation, error) {
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to "+operation, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("Failed to iterate reservation rows", zap.Error(err))
		return nil, fmt.Errorf("%s: iterate rows: %w", operation, err)
	}

	return reservations, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
