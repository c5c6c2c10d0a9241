package service

import (
	"context"
	"errors"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
)

// AvailabilityLedger is the single source of truth for "is equipment X
// free for [start, end)?". Reservations and releases are only issued by
// the booking state machine, inside the transaction that moves the
// booking, so the interval commitment and the booking status are always
// durable together.
type AvailabilityLedger struct {
	equipment repository.EquipmentRepository
	schedule  repository.ScheduleRepository
}

func NewAvailabilityLedger(equipment repository.EquipmentRepository, schedule repository.ScheduleRepository) *AvailabilityLedger {
	return &AvailabilityLedger{equipment: equipment, schedule: schedule}
}

// IsAvailable reports whether the equipment's availability flag is set and
// no committed interval overlaps [start, end). Overlapping bookings by the
// same renter are not excluded; the overlap test is interval-only.
func (l *AvailabilityLedger) IsAvailable(ctx context.Context, equipmentID int32, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, domain.ErrInvalidInterval
	}

	eq, err := l.equipment.GetByID(ctx, equipmentID)
	if err != nil {
		return false, err
	}
	if !eq.IsAvailable || eq.Status != domain.EquipmentStatusActive {
		return false, nil
	}

	overlapping, err := l.schedule.CountOverlapping(ctx, equipmentID, start, end)
	if err != nil {
		return false, err
	}
	return overlapping == 0, nil
}

// Reserve commits [start, end) for the booking. The availability check is
// re-run under the equipment row lock, never taken from an earlier read,
// so two concurrent reservations for overlapping intervals cannot both
// succeed.
func (l *AvailabilityLedger) Reserve(ctx context.Context, equipmentID, bookingID int32, start, end time.Time) error {
	if !end.After(start) {
		return domain.ErrInvalidInterval
	}

	eq, err := l.equipment.GetByIDForUpdate(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	if !eq.IsAvailable || eq.Status != domain.EquipmentStatusActive {
		return domain.ErrEquipmentUnavailable
	}

	overlapping, err := l.schedule.CountOverlapping(ctx, equipmentID, start, end)
	if err != nil {
		return err
	}
	if overlapping > 0 {
		return domain.ErrEquipmentUnavailable
	}

	return l.schedule.Insert(ctx, &domain.ScheduleEntry{
		EquipmentID: equipmentID,
		BookingID:   bookingID,
		StartTime:   start,
		EndTime:     end,
	})
}

// Release frees the interval held by the booking, making it reservable
// again.
func (l *AvailabilityLedger) Release(ctx context.Context, bookingID int32) error {
	return l.schedule.DeleteByBooking(ctx, bookingID)
}
