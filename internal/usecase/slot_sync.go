package usecase

import (
	"context"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/internal/data/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotService keeps the slot's operational state in step with reservation
// transitions. Every call is idempotent: flipping to a state the slot is
// already in matches zero rows and is not an error. The reservation record
// stays authoritative; this state is a display cache.
type SlotService interface {
	MarkReserved(ctx context.Context, slotID uuid.UUID) error
	MarkOccupied(ctx context.Context, slotID uuid.UUID) error
	Release(ctx context.Context, slotID uuid.UUID) error

	// Operator actions
	SetMaintenance(ctx context.Context, slotID uuid.UUID) error
	ClearMaintenance(ctx context.Context, slotID uuid.UUID) error

	FindByID(ctx context.Context, slotID uuid.UUID) (*entity.ParkingSlot, error)
	ListByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.ParkingSlot, error)

	// ListAvailable filters the lot's slots down to the ones that can take
	// a reservation for the interval: operable state and no overlapping
	// non-terminal reservation.
	ListAvailable(ctx context.Context, lotID uuid.UUID, start, end time.Time) ([]*entity.ParkingSlot, error)
}

type slotService struct {
	slots        repository.SlotRepository
	reservations repository.ReservationRepository
	log          *zap.Logger
}

func NewSlotService(slots repository.SlotRepository, reservations repository.ReservationRepository, log *zap.Logger) SlotService {
	return &slotService{
		slots:        slots,
		reservations: reservations,
		log:          log.With(zap.String("service", "slot")),
	}
}

// MarkReserved flips free -> reserved. Any other current state (occupied,
// maintenance, already reserved) leaves the slot untouched; the mismatch is
// logged and the reservation remains the source of truth.
func (s *slotService) MarkReserved(ctx context.Context, slotID uuid.UUID) error {
	return s.flip(ctx, slotID, entity.SlotStateReserved, entity.SlotStateFree)
}

func (s *slotService) MarkOccupied(ctx context.Context, slotID uuid.UUID) error {
	return s.flip(ctx, slotID, entity.SlotStateOccupied, entity.SlotStateFree, entity.SlotStateReserved)
}

func (s *slotService) Release(ctx context.Context, slotID uuid.UUID) error {
	return s.flip(ctx, slotID, entity.SlotStateFree, entity.SlotStateReserved, entity.SlotStateOccupied)
}

func (s *slotService) SetMaintenance(ctx context.Context, slotID uuid.UUID) error {
	return s.flip(ctx, slotID, entity.SlotStateMaintenance, entity.SlotStateFree, entity.SlotStateReserved, entity.SlotStateOccupied)
}

func (s *slotService) ClearMaintenance(ctx context.Context, slotID uuid.UUID) error {
	return s.flip(ctx, slotID, entity.SlotStateFree, entity.SlotStateMaintenance)
}

func (s *slotService) flip(ctx context.Context, slotID uuid.UUID, to entity.SlotState, from ...entity.SlotState) error {
	updated, err := s.slots.SetStateFrom(ctx, slotID, to, from...)
	if err != nil {
		return fmt.Errorf("sync slot %s to %s: %w", slotID.String(), string(to), err)
	}

	if !updated {
		s.log.Info("Slot state sync skipped",
			zap.String("slot_id", slotID.String()),
			zap.String("target_state", string(to)),
		)
		return nil
	}

	s.log.Info("Slot state updated",
		zap.String("slot_id", slotID.String()),
		zap.String("state", string(to)),
	)
	return nil
}

func (s *slotService) FindByID(ctx context.Context, slotID uuid.UUID) (*entity.ParkingSlot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("find slot: %w", err)
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: slot %s", ErrNotFound, slotID.String())
	}

	return slot, nil
}

func (s *slotService) ListByLot(ctx context.Context, lotID uuid.UUID) ([]*entity.ParkingSlot, error) {
	slots, err := s.slots.FindByLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	return slots, nil
}

func (s *slotService) ListAvailable(ctx context.Context, lotID uuid.UUID, start, end time.Time) ([]*entity.ParkingSlot, error) {
	slots, err := s.slots.FindByLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}

	available := make([]*entity.ParkingSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.State == entity.SlotStateMaintenance || slot.State == entity.SlotStateSubscribed {
			continue
		}

		free, err := s.reservations.IsSlotAvailable(ctx, slot.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("check availability for slot %s: %w", slot.ID.String(), err)
		}
		if free {
			available = append(available, slot)
		}
	}

	return available, nil
}
