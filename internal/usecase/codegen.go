package usecase

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/repository"
	"parking-reservation/pkg/utils"

	"github.com/google/uuid"
)

// CodeGenerator mints reservation codes. Deterministic mode is used for
// flows where the same logical request may be sent more than once (the
// scan-code flow polls and retries); sequential mode for flows without
// retry risk.
type CodeGenerator struct {
	prefix string
	seq    repository.CodeSeqRepository
}

func NewCodeGenerator(prefix string, seq repository.CodeSeqRepository) *CodeGenerator {
	return &CodeGenerator{prefix: prefix, seq: seq}
}

// Deterministic hashes the defining fields of the reservation, so retrying
// the identical request yields the identical code.
func (g *CodeGenerator) Deterministic(lotID, slotID uuid.UUID, plate string, start time.Time) string {
	return utils.DeterministicReservationCode(g.prefix, lotID.String(), slotID.String(), plate, start)
}

// Sequential draws the next number from the date-scoped counter. The counter
// advance is atomic at the database, so concurrent callers never collide.
func (g *CodeGenerator) Sequential(ctx context.Context, start time.Time) (string, error) {
	seq, err := g.seq.Next(ctx, utils.CodeDateKey(start))
	if err != nil {
		return "", fmt.Errorf("next sequential code: %w", err)
	}

	return utils.SequentialReservationCode(g.prefix, start, seq), nil
}
