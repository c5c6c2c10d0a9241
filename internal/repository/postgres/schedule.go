package postgres

import (
	"context"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
)

type scheduleRepository struct {
	db DBTX
}

func NewScheduleRepository(db DBTX) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Insert(ctx context.Context, e *domain.ScheduleEntry) error {
	query := `INSERT INTO equipment_schedule (equipment_id, booking_id, start_time, end_time)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRowContext(ctx, query, e.EquipmentID, e.BookingID, e.StartTime, e.EndTime).Scan(&e.ID)
	return mapError(err)
}

func (r *scheduleRepository) DeleteByBooking(ctx context.Context, bookingID int32) error {
	query := `DELETE FROM equipment_schedule WHERE booking_id = $1`
	_, err := r.db.ExecContext(ctx, query, bookingID)
	return mapError(err)
}

func (r *scheduleRepository) CountOverlapping(ctx context.Context, equipmentID int32, start, end time.Time) (int32, error) {
	query := `SELECT count(*) FROM equipment_schedule
	          WHERE equipment_id = $1 AND start_time < $2 AND end_time > $3`
	var count int32
	if err := r.db.QueryRowContext(ctx, query, equipmentID, end, start).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}
