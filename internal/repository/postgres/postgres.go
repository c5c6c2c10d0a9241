package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"

	"github.com/lib/pq"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories use, so the
// same repository code serves both transactional and plain access.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	db   *sql.DB // nil when the store is bound to a transaction
	dbtx DBTX

	bookings      repository.BookingRepository
	equipment     repository.EquipmentRepository
	schedule      repository.ScheduleRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return newStore(db, db)
}

func newStore(db *sql.DB, dbtx DBTX) *Store {
	return &Store{
		db:            db,
		dbtx:          dbtx,
		bookings:      NewBookingRepository(dbtx),
		equipment:     NewEquipmentRepository(dbtx),
		schedule:      NewScheduleRepository(dbtx),
		users:         NewUserRepository(dbtx),
		notifications: NewNotificationRepository(dbtx),
	}
}

func (s *Store) Bookings() repository.BookingRepository          { return s.bookings }
func (s *Store) Equipment() repository.EquipmentRepository       { return s.equipment }
func (s *Store) Schedule() repository.ScheduleRepository         { return s.schedule }
func (s *Store) Users() repository.UserRepository                { return s.users }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }

// WithinTx runs fn against a transaction-bound store. A nested call reuses
// the enclosing transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	txStore := newStore(nil, tx)
	if err := fn(txStore); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy. Lock and
// serialization failures become Conflict/Timeout so callers can retry the
// whole operation; anything else is a StorageFailure.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return domain.ErrConflict
		case "55P03": // lock_not_available
			return domain.ErrTimeout
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageFailure, err)
}
