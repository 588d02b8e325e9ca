package usecase

import (
	"context"
	"sync"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/gateway"
	"parking-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// store is the shared in-memory backing of all stub repositories. It mimics
// the semantics the SQL layer provides: unique code, conditional updates,
// at-most-one payment per reservation.
type store struct {
	mu           sync.Mutex
	reservations map[string]*entity.Reservation
	payments     map[uuid.UUID]*entity.Payment
	slots        map[uuid.UUID]*entity.ParkingSlot
	tariffs      []*entity.Tariff
	seqs         map[string]int
}

func newStore() *store {
	return &store{
		reservations: make(map[string]*entity.Reservation),
		payments:     make(map[uuid.UUID]*entity.Payment),
		slots:        make(map[uuid.UUID]*entity.ParkingSlot),
		seqs:         make(map[string]int),
	}
}

func overlaps(r *entity.Reservation, slotID uuid.UUID, start, end time.Time) bool {
	if r.SlotID != slotID || r.Status.IsTerminal() {
		return false
	}
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

// ---------- reservation repository ----------

// The before* seams run ahead of the guarded section of their method, which
// lets a test interleave a competing writer at the exact point the SQL
// transaction would race.
type stubReservationRepo struct {
	s *store

	beforeCreateConfirmed func()
	beforeAttachPayment   func()
	beforeUpdateStatus    func()
}

func (r *stubReservationRepo) FindByCode(_ context.Context, code string) (*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[code]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (r *stubReservationRepo) List(_ context.Context, limit, offset int) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		cp := *res
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubReservationRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.reservations)), nil
}

func (r *stubReservationRepo) IsSlotAvailable(_ context.Context, slotID uuid.UUID, start, end time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, res := range r.s.reservations {
		if overlaps(res, slotID, start, end) {
			return false, nil
		}
	}
	return true, nil
}

func (r *stubReservationRepo) CreateConfirmed(_ context.Context, reservation *entity.Reservation) error {
	if r.beforeCreateConfirmed != nil {
		r.beforeCreateConfirmed()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// Same order as the SQL transaction: the overlap check runs first and
	// skips rows carrying the same code, so a competing confirm that
	// already committed this code surfaces as ErrDuplicateCode, not as a
	// slot conflict with itself.
	for _, res := range r.s.reservations {
		if res.Code != reservation.Code && overlaps(res, reservation.SlotID, reservation.StartTime, reservation.EndTime) {
			return repository.ErrSlotTaken
		}
	}
	if _, exists := r.s.reservations[reservation.Code]; exists {
		return repository.ErrDuplicateCode
	}
	cp := *reservation
	r.s.reservations[reservation.Code] = &cp
	return nil
}

func (r *stubReservationRepo) UpdateStatusIf(_ context.Context, code string, from, to entity.ReservationStatus) (bool, error) {
	if r.beforeUpdateStatus != nil {
		r.beforeUpdateStatus()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[code]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	return true, nil
}

func (r *stubReservationRepo) AttachPayment(_ context.Context, code string, payment *entity.Payment) error {
	if r.beforeAttachPayment != nil {
		r.beforeAttachPayment()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[code]
	if !ok {
		return repository.ErrPaymentExists
	}
	if res.PaymentID != nil {
		return repository.ErrPaymentExists
	}
	cp := *payment
	cp.ReservationID = res.ID
	r.s.payments[payment.ID] = &cp
	id := payment.ID
	res.PaymentID = &id
	return nil
}

func (r *stubReservationRepo) ExpirePending(_ context.Context, olderThan time.Time) ([]*entity.Reservation, error) {
	return r.transition(entity.ReservationStatusPendingPayment, entity.ReservationStatusExpired,
		func(res *entity.Reservation) bool { return res.CreatedAt.Before(olderThan) })
}

func (r *stubReservationRepo) MarkNoShows(_ context.Context, now time.Time) ([]*entity.Reservation, error) {
	return r.transition(entity.ReservationStatusConfirmed, entity.ReservationStatusNoShow,
		func(res *entity.Reservation) bool { return !res.EndTime.After(now) })
}

func (r *stubReservationRepo) CompleteElapsed(_ context.Context, now time.Time) ([]*entity.Reservation, error) {
	return r.transition(entity.ReservationStatusActive, entity.ReservationStatusCompleted,
		func(res *entity.Reservation) bool { return !res.EndTime.After(now) })
}

func (r *stubReservationRepo) transition(from, to entity.ReservationStatus, match func(*entity.Reservation) bool) ([]*entity.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.Status == from && match(res) {
			res.Status = to
			cp := *res
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---------- payment repository ----------

type stubPaymentRepo struct{ s *store }

func (r *stubPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *stubPaymentRepo) FindByReservationID(_ context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.ReservationID == reservationID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubPaymentRepo) CountByReservationID(_ context.Context, reservationID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, p := range r.s.payments {
		if p.ReservationID == reservationID {
			n++
		}
	}
	return n, nil
}

// ---------- slot repository ----------

type stubSlotRepo struct{ s *store }

func (r *stubSlotRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, nil
	}
	cp := *slot
	return &cp, nil
}

func (r *stubSlotRepo) FindByLot(_ context.Context, lotID uuid.UUID) ([]*entity.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ParkingSlot
	for _, slot := range r.s.slots {
		if slot.LotID == lotID {
			cp := *slot
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *stubSlotRepo) SetStateFrom(_ context.Context, id uuid.UUID, to entity.SlotState, from ...entity.SlotState) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if slot.State == f {
			slot.State = to
			return true, nil
		}
	}
	return false, nil
}

// ---------- tariff repository ----------

type stubTariffRepo struct{ s *store }

func (r *stubTariffRepo) ResolveAt(_ context.Context, lotID uuid.UUID, category string, at time.Time) (*entity.Tariff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var best *entity.Tariff
	for _, t := range r.s.tariffs {
		if t.LotID != lotID || t.VehicleCategory != category || t.EffectiveFrom.After(at) {
			continue
		}
		if best == nil || t.EffectiveFrom.After(best.EffectiveFrom) {
			best = t
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (r *stubTariffRepo) FindByLot(_ context.Context, lotID uuid.UUID) ([]*entity.Tariff, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Tariff
	for _, t := range r.s.tariffs {
		if t.LotID == lotID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---------- code sequence repository ----------

type stubSeqRepo struct{ s *store }

func (r *stubSeqRepo) Next(_ context.Context, dateKey string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seqs[dateKey]++
	return r.s.seqs[dateKey], nil
}

// ---------- payment gateway ----------

type stubGateway struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (g *stubGateway) CreateIntent(_ context.Context, req gateway.IntentRequest) (gateway.Intent, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.fail {
		return nil, context.DeadlineExceeded
	}
	if req.Method == entity.PaymentMethodScanCode {
		return gateway.ScanCodeIntent{ID: "intent-" + req.ExternalRef, ScanPayload: "qr://" + req.ExternalRef}, nil
	}
	return gateway.RedirectLinkIntent{ID: "intent-" + req.ExternalRef, RedirectURL: "https://pay.example/" + req.ExternalRef}, nil
}

func (g *stubGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// ---------- fixture ----------

type fixture struct {
	store    *store
	gateway  *stubGateway
	resRepo  *stubReservationRepo
	repo     *repository.Repository
	service  ReservationService

	lotID  uuid.UUID
	slotID uuid.UUID
}

func newFixture() *fixture {
	s := newStore()
	gw := &stubGateway{}
	resRepo := &stubReservationRepo{s: s}

	repo := &repository.Repository{
		Reservation: resRepo,
		Payment:     &stubPaymentRepo{s: s},
		Slot:        &stubSlotRepo{s: s},
		Tariff:      &stubTariffRepo{s: s},
		CodeSeq:     &stubSeqRepo{s: s},
	}

	log := zap.NewNop()
	tariffs := NewTariffService(repo.Tariff, log)
	slots := NewSlotService(repo.Slot, repo.Reservation, log)
	codes := NewCodeGenerator("RES", repo.CodeSeq)
	cfg := utils.ReservationConfig{
		CodePrefix:       "RES",
		MaxDurationHours: 24,
		PaymentGrace:     30 * time.Minute,
	}

	f := &fixture{
		store:   s,
		gateway: gw,
		resRepo: resRepo,
		repo:    repo,
		service: NewReservationService(repo, tariffs, slots, codes, gw, cfg, log),
		lotID:   uuid.New(),
		slotID:  uuid.New(),
	}

	now := time.Now()
	s.slots[f.slotID] = &entity.ParkingSlot{
		BaseNoDelete:    entity.BaseNoDelete{ID: f.slotID, CreatedAt: now, UpdatedAt: now},
		LotID:           f.lotID,
		Number:          "A-12",
		VehicleCategory: "AUTO",
		State:           entity.SlotStateFree,
	}
	s.tariffs = append(s.tariffs, &entity.Tariff{
		BaseNoDelete:    entity.BaseNoDelete{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		LotID:           f.lotID,
		VehicleCategory: "AUTO",
		UnitPrice:       5.0,
		EffectiveFrom:   now.Add(-24 * time.Hour),
	})

	return f
}

func (f *fixture) addSlot(number, category string) uuid.UUID {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	id := uuid.New()
	now := time.Now()
	f.store.slots[id] = &entity.ParkingSlot{
		BaseNoDelete:    entity.BaseNoDelete{ID: id, CreatedAt: now, UpdatedAt: now},
		LotID:           f.lotID,
		Number:          number,
		VehicleCategory: category,
		State:           entity.SlotStateFree,
	}
	return id
}

func (f *fixture) slotState(id uuid.UUID) entity.SlotState {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.slots[id].State
}

func (f *fixture) paymentCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.payments)
}

func (f *fixture) reservationCount() int {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return len(f.store.reservations)
}
