package repository

import (
	"context"
	"fmt"

	"parking-reservation/pkg/database"

	"go.uber.org/zap"
)

type CodeSeqRepository interface {
	// Next returns the next sequence number for the given date key
	// (yyyymmdd). The increment is a single atomic statement, so two
	// concurrent callers can never receive the same number.
	Next(ctx context.Context, dateKey string) (int, error)
}

type codeSeqRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCodeSeqRepository(db database.PgxIface, log *zap.Logger) CodeSeqRepository {
	return &codeSeqRepository{
		db:  db,
		log: log.With(zap.String("repository", "code_seq")),
	}
}

func (r *codeSeqRepository) Next(ctx context.Context, dateKey string) (int, error) {
	query := `
		INSERT INTO reservation_code_seqs (seq_date, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (seq_date)
		DO UPDATE SET last_seq = reservation_code_seqs.last_seq + 1
		RETURNING last_seq
	`

	var seq int
	err := r.db.QueryRow(ctx, query, dateKey).Scan(&seq)
	if err != nil {
		r.log.Error("Failed to advance code sequence",
			zap.Error(err),
			zap.String("seq_date", dateKey),
		)
		return 0, fmt.Errorf("advance code sequence for %s: %w", dateKey, err)
	}

	return seq, nil
}
