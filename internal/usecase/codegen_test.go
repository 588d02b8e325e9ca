package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDeterministicCodeIsStable(t *testing.T) {
	t.Parallel()
	gen := NewCodeGenerator("RES", nil)
	lotID := uuid.New()
	slotID := uuid.New()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	first := gen.Deterministic(lotID, slotID, "ABC-123", start)
	second := gen.Deterministic(lotID, slotID, "ABC-123", start)
	if first != second {
		t.Errorf("identical inputs produced different codes: %s vs %s", first, second)
	}

	if !strings.HasPrefix(first, "RES-20260901-") {
		t.Errorf("code %s does not carry the date key", first)
	}
	if len(first) != len("RES-20260901-")+8 {
		t.Errorf("code %s suffix is not 8 hex characters", first)
	}
}

func TestDeterministicCodeVariesWithInputs(t *testing.T) {
	t.Parallel()
	gen := NewCodeGenerator("RES", nil)
	lotID := uuid.New()
	slotID := uuid.New()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	base := gen.Deterministic(lotID, slotID, "ABC-123", start)

	variants := map[string]string{
		"different plate": gen.Deterministic(lotID, slotID, "XYZ-999", start),
		"different slot":  gen.Deterministic(lotID, uuid.New(), "ABC-123", start),
		"different start": gen.Deterministic(lotID, slotID, "ABC-123", start.Add(time.Hour)),
	}
	for name, code := range variants {
		if code == base {
			t.Errorf("%s produced the same code %s", name, base)
		}
	}
}

func TestSequentialCodesNeverCollide(t *testing.T) {
	t.Parallel()
	gen := NewCodeGenerator("RES", &stubSeqRepo{s: newStore()})
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	const n = 50
	codes := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := gen.Sequential(context.Background(), start)
			if err != nil {
				t.Errorf("Sequential: %v", err)
				return
			}
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		if seen[code] {
			t.Errorf("duplicate sequential code %s", code)
		}
		seen[code] = true
	}
}

func TestSequentialCodeFormat(t *testing.T) {
	t.Parallel()
	gen := NewCodeGenerator("RES", &stubSeqRepo{s: newStore()})
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		code, err := gen.Sequential(context.Background(), start)
		if err != nil {
			t.Fatalf("Sequential: %v", err)
		}
		if want := fmt.Sprintf("RES-20260901-%04d", i); code != want {
			t.Errorf("code = %s, want %s", code, want)
		}
	}
}
