package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// ==================== RESERVATION CODES ====================

// CodeDateKey returns the yyyymmdd key that scopes reservation codes.
func CodeDateKey(t time.Time) string {
	return t.Format("20060102")
}

// DeterministicReservationCode derives a code from the fields that define a
// reservation. Identical inputs always produce the identical code, which is
// what makes re-sending the same create request idempotent.
//
// Format: PREFIX-YYYYMMDD-{first 8 hex of sha256(lot|slot|plate|startUnix)}
func DeterministicReservationCode(prefix string, lotID, slotID, plate string, start time.Time) string {
	seed := fmt.Sprintf("%s|%s|%s|%d", lotID, slotID, plate, start.Unix())
	sum := sha256.Sum256([]byte(seed))
	return fmt.Sprintf("%s-%s-%s", prefix, CodeDateKey(start), hex.EncodeToString(sum[:])[:8])
}

// SequentialReservationCode formats a date-scoped sequence number.
//
// Format: PREFIX-YYYYMMDD-NNNN
func SequentialReservationCode(prefix string, start time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, CodeDateKey(start), seq)
}
