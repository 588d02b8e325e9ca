package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"
	"parking-reservation/internal/dto/request"
	"parking-reservation/internal/dto/response"
	"parking-reservation/internal/gateway"
	"parking-reservation/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the slice of the processor client the orchestrator
// needs.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req gateway.IntentRequest) (gateway.Intent, error)
}

// Snapshot carries the defining fields of a reservation through the confirm
// path. It is what the client (or the gateway webhook, via intent metadata)
// presents as evidence of which reservation was paid.
type Snapshot struct {
	LotID         uuid.UUID
	SlotID        uuid.UUID
	VehiclePlate  string
	RequesterRef  string
	StartTime     time.Time
	DurationHours int
	Method        entity.PaymentMethod
	ExternalID    string
}

// SnapshotFromRequest parses the confirm request body into a Snapshot.
// requesterRef comes from the request context, not the body; the caller
// cannot claim an identity the middleware did not establish.
func SnapshotFromRequest(requesterRef string, req *request.ConfirmReservationRequest) (Snapshot, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: invalid lot ID %s", ErrValidation, req.LotID)
	}

	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: invalid slot ID %s", ErrValidation, req.SlotID)
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: invalid start time %s", ErrValidation, req.StartTime)
	}

	return Snapshot{
		LotID:         lotID,
		SlotID:        slotID,
		VehiclePlate:  req.VehiclePlate,
		RequesterRef:  requesterRef,
		StartTime:     start,
		DurationHours: req.DurationHours,
		Method:        entity.PaymentMethod(req.PaymentMethod),
		ExternalID:    req.ExternalID,
	}, nil
}

// SnapshotFromMetadata rebuilds a Snapshot from the intent metadata echoed
// back by a gateway notification.
func SnapshotFromMetadata(md gateway.IntentMetadata, intentID string) (Snapshot, error) {
	lotID, err := uuid.Parse(md.LotID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: invalid lot ID in metadata", ErrValidation)
	}

	slotID, err := uuid.Parse(md.SlotID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: invalid slot ID in metadata", ErrValidation)
	}

	if md.VehiclePlate == "" || md.DurationHours < 1 {
		return Snapshot{}, fmt.Errorf("%w: incomplete metadata", ErrValidation)
	}

	return Snapshot{
		LotID:         lotID,
		SlotID:        slotID,
		VehiclePlate:  md.VehiclePlate,
		RequesterRef:  md.RequesterRef,
		StartTime:     time.Unix(md.StartUnix, 0).UTC(),
		DurationHours: md.DurationHours,
		Method:        entity.PaymentMethod(md.Method),
		ExternalID:    intentID,
	}, nil
}

type ReservationService interface {
	// Create runs the first phase: validate, check availability, price,
	// mint a code and open a payment intent. For the online methods handled
	// here nothing is persisted; an abandoned payment leaves no orphan row.
	Create(ctx context.Context, requesterRef string, req *request.CreateReservationRequest) (*response.CreateReservationResponse, error)

	// Confirm advances (or materializes) the reservation once payment
	// evidence is presented. Safe to call any number of times with the same
	// snapshot.
	Confirm(ctx context.Context, code string, snap Snapshot) (*response.ReservationResponse, error)

	Activate(ctx context.Context, code string) (*response.ReservationResponse, error)
	Cancel(ctx context.Context, code string) (*response.ReservationResponse, error)
	GetByCode(ctx context.Context, code string) (*response.ReservationResponse, error)
	List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)

	// Time-driven sweeps. Both return how many rows transitioned.
	ExpireStale(ctx context.Context) (int, error)
	SweepElapsed(ctx context.Context) (int, error)
}

type reservationService struct {
	repo    *repository.Repository
	tariffs TariffService
	slots   SlotService
	codes   *CodeGenerator
	gateway PaymentGateway
	cfg     utils.ReservationConfig
	log     *zap.Logger
}

func NewReservationService(
	repo *repository.Repository,
	tariffs TariffService,
	slots SlotService,
	codes *CodeGenerator,
	gw PaymentGateway,
	cfg utils.ReservationConfig,
	log *zap.Logger,
) ReservationService {
	return &reservationService{
		repo:    repo,
		tariffs: tariffs,
		slots:   slots,
		codes:   codes,
		gateway: gw,
		cfg:     cfg,
		log:     log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) Create(ctx context.Context, requesterRef string, req *request.CreateReservationRequest) (*response.CreateReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create reservation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	if requesterRef == "" {
		return nil, fmt.Errorf("%w: requester reference is required", ErrValidation)
	}

	if req.DurationHours > s.cfg.MaxDurationHours {
		return nil, fmt.Errorf("%w: duration exceeds %d hours", ErrValidation, s.cfg.MaxDurationHours)
	}

	lotID, err := uuid.Parse(req.LotID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid lot ID %s", ErrValidation, req.LotID)
	}

	slotID, err := uuid.Parse(req.SlotID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid slot ID %s", ErrValidation, req.SlotID)
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid start time %s", ErrValidation, req.StartTime)
	}

	if start.Before(time.Now().Add(-5 * time.Minute)) {
		return nil, fmt.Errorf("%w: start time is in the past", ErrValidation)
	}

	end := start.Add(time.Duration(req.DurationHours) * time.Hour)
	method := entity.PaymentMethod(req.PaymentMethod)

	// Slot must exist, belong to the lot and be operable.
	slot, err := s.repo.Slot.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, req.SlotID)
	}
	if slot.LotID != lotID {
		return nil, fmt.Errorf("%w: slot %s does not belong to lot %s", ErrValidation, req.SlotID, req.LotID)
	}
	if slot.State == entity.SlotStateMaintenance || slot.State == entity.SlotStateSubscribed {
		return nil, fmt.Errorf("%w: slot %s is %s", ErrSlotUnavailable, req.SlotID, slot.State)
	}

	available, err := s.repo.Reservation.IsSlotAvailable(ctx, slotID, start, end)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !available {
		return nil, fmt.Errorf("%w: slot %s between %s and %s", ErrSlotUnavailable,
			req.SlotID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	amount, err := s.tariffs.PriceFor(ctx, lotID, slot.VehicleCategory, start, req.DurationHours)
	if err != nil {
		return nil, err
	}

	// Scan-code creates can be retried by polling clients, so their code is
	// derived from the request itself. Redirect-link creates get the next
	// date-scoped sequence number.
	var code string
	if method == entity.PaymentMethodScanCode {
		code = s.codes.Deterministic(lotID, slotID, req.VehiclePlate, start)
	} else {
		code, err = s.codes.Sequential(ctx, start)
		if err != nil {
			return nil, err
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, gateway.IntentRequest{
		ExternalRef: code,
		Amount:      amount,
		Method:      method,
		Metadata: gateway.IntentMetadata{
			LotID:         lotID.String(),
			SlotID:        slotID.String(),
			VehiclePlate:  req.VehiclePlate,
			RequesterRef:  requesterRef,
			StartUnix:     start.Unix(),
			DurationHours: req.DurationHours,
			Method:        string(method),
		},
	})
	if err != nil {
		s.log.Error("Payment intent creation failed",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	s.log.Info("Reservation created, awaiting payment",
		zap.String("code", code),
		zap.String("slot_id", req.SlotID),
		zap.String("vehicle_plate", req.VehiclePlate),
		zap.Float64("amount", amount),
		zap.String("method", string(method)),
	)

	// Deliberately no persistence here: the reservation only becomes
	// durable on confirm.
	return &response.CreateReservationResponse{
		Code:        code,
		Amount:      amount,
		PaymentInfo: intent.Info(),
	}, nil
}

func (s *reservationService) Confirm(ctx context.Context, code string, snap Snapshot) (*response.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if reservation == nil {
		// The create phase never persisted the reservation; materialize it
		// directly as confirmed.
		reservation, err = s.materialize(ctx, code, snap)
		if err != nil {
			return nil, err
		}
	}

	// A persisted reservation under this code whose defining fields differ
	// from the snapshot means two distinct logical reservations collided on
	// one code. Fatal; never resolved by minting a replacement.
	if !reservation.SameIdentity(snap.LotID, snap.SlotID, snap.VehiclePlate, snap.StartTime) {
		s.log.Error("Reservation code conflict",
			zap.String("code", code),
			zap.String("existing_slot", reservation.SlotID.String()),
			zap.String("snapshot_slot", snap.SlotID.String()),
			zap.String("existing_plate", reservation.VehiclePlate),
			zap.String("snapshot_plate", snap.VehiclePlate),
		)
		return nil, fmt.Errorf("%w: code %s", ErrCodeConflict, code)
	}

	if reservation.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %s is %s", ErrInvalidState, code, reservation.Status)
	}

	// Replayed confirmation for a persisted pending reservation. Already
	// confirmed (or activated) is a no-op.
	if reservation.Status == entity.ReservationStatusPendingPayment {
		updated, err := s.repo.Reservation.UpdateStatusIf(ctx, code,
			entity.ReservationStatusPendingPayment, entity.ReservationStatusConfirmed)
		if err != nil {
			return nil, err
		}
		if !updated {
			// The row moved underneath us, by a competing confirm or by
			// the expiry sweep. Re-read and only proceed when the new
			// state still admits confirmation.
			reservation, err = s.repo.Reservation.FindByCode(ctx, code)
			if err != nil {
				return nil, err
			}
			if reservation == nil {
				return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, code)
			}
			if reservation.Status.IsTerminal() {
				return nil, fmt.Errorf("%w: reservation %s is %s", ErrInvalidState, code, reservation.Status)
			}
		} else {
			reservation.Status = entity.ReservationStatusConfirmed
		}
	}

	payment, err := s.registerPayment(ctx, reservation, snap)
	if err != nil {
		return nil, err
	}

	// Best-effort display state; the reservation row is authoritative.
	if err := s.slots.MarkReserved(ctx, reservation.SlotID); err != nil {
		s.log.Warn("Slot sync failed after confirm",
			zap.Error(err),
			zap.String("code", code),
			zap.String("slot_id", reservation.SlotID.String()),
		)
	}

	s.log.Info("Reservation confirmed",
		zap.String("code", code),
		zap.String("slot_id", reservation.SlotID.String()),
		zap.Float64("amount", reservation.Amount),
	)

	resp := response.ReservationToResponse(reservation, payment)
	return &resp, nil
}

// materialize inserts the reservation from the snapshot with status
// confirmed, under the slot's advisory lock. When a competing confirm wins
// the insert race the persisted row is loaded and treated as a replay.
func (s *reservationService) materialize(ctx context.Context, code string, snap Snapshot) (*entity.Reservation, error) {
	slot, err := s.repo.Slot.FindByID(ctx, snap.SlotID)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, snap.SlotID.String())
	}
	if slot.LotID != snap.LotID {
		return nil, fmt.Errorf("%w: slot %s does not belong to lot %s", ErrValidation,
			snap.SlotID.String(), snap.LotID.String())
	}

	amount, err := s.tariffs.PriceFor(ctx, snap.LotID, slot.VehicleCategory, snap.StartTime, snap.DurationHours)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	reservation := &entity.Reservation{
		BaseNoDelete: entity.BaseNoDelete{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Code:         code,
		LotID:        snap.LotID,
		SlotID:       snap.SlotID,
		VehiclePlate: snap.VehiclePlate,
		RequesterRef: snap.RequesterRef,
		StartTime:    snap.StartTime,
		EndTime:      snap.StartTime.Add(time.Duration(snap.DurationHours) * time.Hour),
		Amount:       amount,
		Method:       snap.Method,
		PaymentInfo:  entity.PaymentInfo{ExternalID: snap.ExternalID},
		Status:       entity.ReservationStatusConfirmed,
	}

	err = s.repo.Reservation.CreateConfirmed(ctx, reservation)
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return nil, fmt.Errorf("%w: slot %s", ErrSlotUnavailable, snap.SlotID.String())
	case errors.Is(err, repository.ErrDuplicateCode):
		existing, ferr := s.repo.Reservation.FindByCode(ctx, code)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, fmt.Errorf("reservation %s vanished after duplicate insert", code)
		}
		return existing, nil
	case err != nil:
		return nil, err
	}

	return reservation, nil
}

// registerPayment creates the payment record once per reservation. A lost
// race against another confirm shows up as ErrPaymentExists and counts as
// success-already-done.
func (s *reservationService) registerPayment(ctx context.Context, reservation *entity.Reservation, snap Snapshot) (*entity.Payment, error) {
	if reservation.PaymentID != nil {
		return s.repo.Payment.FindByID(ctx, *reservation.PaymentID)
	}

	externalRef := snap.ExternalID
	if externalRef == "" {
		externalRef = reservation.PaymentInfo.ExternalID
	}

	now := time.Now()
	payment := &entity.Payment{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		ReservationID: reservation.ID,
		Amount:        reservation.Amount,
		Method:        reservation.Method,
		Status:        entity.PaymentStatusCompleted,
		ExternalRef:   externalRef,
		OccurredAt:    now,
	}

	err := s.repo.Reservation.AttachPayment(ctx, reservation.Code, payment)
	if errors.Is(err, repository.ErrPaymentExists) {
		return s.repo.Payment.FindByReservationID(ctx, reservation.ID)
	}
	if err != nil {
		return nil, err
	}

	reservation.PaymentID = &payment.ID
	return payment, nil
}

func (s *reservationService) Activate(ctx context.Context, code string) (*response.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, code)
	}

	if reservation.Status == entity.ReservationStatusActive {
		resp := response.ReservationToResponse(reservation, nil)
		return &resp, nil
	}

	updated, err := s.repo.Reservation.UpdateStatusIf(ctx, code,
		entity.ReservationStatusConfirmed, entity.ReservationStatusActive)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: reservation %s is %s, cannot activate", ErrInvalidState, code, reservation.Status)
	}
	reservation.Status = entity.ReservationStatusActive

	if err := s.slots.MarkOccupied(ctx, reservation.SlotID); err != nil {
		s.log.Warn("Slot sync failed after activate",
			zap.Error(err),
			zap.String("code", code),
		)
	}

	s.log.Info("Reservation activated", zap.String("code", code))

	resp := response.ReservationToResponse(reservation, nil)
	return &resp, nil
}

func (s *reservationService) Cancel(ctx context.Context, code string) (*response.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, code)
	}

	if reservation.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: reservation %s is %s, cannot cancel", ErrInvalidState, code, reservation.Status)
	}

	priorStatus := reservation.Status
	updated, err := s.repo.Reservation.UpdateStatusIf(ctx, code, priorStatus, entity.ReservationStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, fmt.Errorf("%w: reservation %s changed state, cannot cancel", ErrInvalidState, code)
	}
	reservation.Status = entity.ReservationStatusCancelled

	if priorStatus == entity.ReservationStatusConfirmed || priorStatus == entity.ReservationStatusActive {
		if err := s.slots.Release(ctx, reservation.SlotID); err != nil {
			s.log.Warn("Slot sync failed after cancel",
				zap.Error(err),
				zap.String("code", code),
			)
		}
	}

	s.log.Info("Reservation cancelled",
		zap.String("code", code),
		zap.String("prior_status", string(priorStatus)),
	)

	resp := response.ReservationToResponse(reservation, nil)
	return &resp, nil
}

func (s *reservationService) GetByCode(ctx context.Context, code string) (*response.ReservationResponse, error) {
	reservation, err := s.repo.Reservation.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, fmt.Errorf("%w: reservation %s", ErrNotFound, code)
	}

	var payment *entity.Payment
	if reservation.PaymentID != nil {
		payment, _ = s.repo.Payment.FindByID(ctx, *reservation.PaymentID)
	}

	resp := response.ReservationToResponse(reservation, payment)
	return &resp, nil
}

func (s *reservationService) List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	reservations, err := s.repo.Reservation.List(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Reservation.Count(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]response.ReservationResponse, len(reservations))
	for i, reservation := range reservations {
		var payment *entity.Payment
		if reservation.PaymentID != nil {
			payment, _ = s.repo.Payment.FindByID(ctx, *reservation.PaymentID)
		}
		items[i] = response.ReservationToResponse(reservation, payment)
	}

	return response.NewPaginatedResponse(items, req.Page, req.PerPage, total), nil
}

// ExpireStale moves pending reservations past the payment grace window to
// expired. Pending rows never reserved their slot, so no release is needed.
func (s *reservationService) ExpireStale(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.PaymentGrace)
	expired, err := s.repo.Reservation.ExpirePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	for _, reservation := range expired {
		s.log.Info("Reservation expired",
			zap.String("code", reservation.Code),
			zap.Time("created_at", reservation.CreatedAt),
		)
	}

	return len(expired), nil
}

// SweepElapsed handles the time-based terminal transitions: confirmed
// reservations whose paid interval passed without arrival become no-shows,
// active ones complete. Both free their slot.
func (s *reservationService) SweepElapsed(ctx context.Context) (int, error) {
	now := time.Now()

	noShows, err := s.repo.Reservation.MarkNoShows(ctx, now)
	if err != nil {
		return 0, err
	}

	completed, err := s.repo.Reservation.CompleteElapsed(ctx, now)
	if err != nil {
		return len(noShows), err
	}

	for _, reservation := range noShows {
		s.log.Info("Reservation marked no-show", zap.String("code", reservation.Code))
		if err := s.slots.Release(ctx, reservation.SlotID); err != nil {
			s.log.Warn("Slot release failed after no-show",
				zap.Error(err),
				zap.String("code", reservation.Code),
			)
		}
	}

	for _, reservation := range completed {
		s.log.Info("Reservation completed", zap.String("code", reservation.Code))
		if err := s.slots.Release(ctx, reservation.SlotID); err != nil {
			s.log.Warn("Slot release failed after completion",
				zap.Error(err),
				zap.String("code", reservation.Code),
			)
		}
	}

	return len(noShows) + len(completed), nil
}
