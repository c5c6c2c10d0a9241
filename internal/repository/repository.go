package repository

import (
	"context"
	"time"

	"agrirent-backend/internal/domain"
)

// BookingFilter narrows List results. Role scoping is expressed by setting
// RenterID or ProviderID; admins leave both nil.
type BookingFilter struct {
	RenterID   *int32
	ProviderID *int32
	Status     *domain.BookingStatus
	From       *time.Time
	To         *time.Time
}

type BookingRepository interface {
	// Create inserts the booking and its initial history entries, filling
	// in the generated ID.
	Create(ctx context.Context, b *domain.Booking) error
	GetByID(ctx context.Context, id int32) (*domain.Booking, error)
	// GetByIDForUpdate loads the booking under a row lock; it must be
	// called inside a transaction.
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Booking, error)
	// AppendStatus persists the booking's status, payment and cancellation
	// fields and appends one history entry in the same statement batch.
	AppendStatus(ctx context.Context, b *domain.Booking, change domain.StatusChange) error
	UpdateTracking(ctx context.Context, b *domain.Booking) error
	SetRating(ctx context.Context, b *domain.Booking) error
	List(ctx context.Context, f BookingFilter) ([]domain.Booking, error)
}

type EquipmentFilter struct {
	Category      *domain.EquipmentCategory
	OwnerID       *int32
	OnlyAvailable bool
}

type EquipmentRepository interface {
	Create(ctx context.Context, e *domain.Equipment) error
	GetByID(ctx context.Context, id int32) (*domain.Equipment, error)
	GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error)
	Update(ctx context.Context, e *domain.Equipment) error
	SetAvailability(ctx context.Context, id int32, available bool) error
	UpdateRatingAggregate(ctx context.Context, id int32, average float64, count int32) error
	List(ctx context.Context, f EquipmentFilter) ([]domain.Equipment, error)
	// ListNearby delegates proximity ordering to the datastore's index.
	ListNearby(ctx context.Context, lat, lng, radiusKm float64, limit int32) ([]domain.Equipment, error)

	AddReview(ctx context.Context, r *domain.Review) error
	GetReviewByRenter(ctx context.Context, equipmentID, renterID int32) (*domain.Review, error)
	ListReviews(ctx context.Context, equipmentID int32) ([]domain.Review, error)
}

type ScheduleRepository interface {
	Insert(ctx context.Context, e *domain.ScheduleEntry) error
	DeleteByBooking(ctx context.Context, bookingID int32) error
	// CountOverlapping counts committed intervals with
	// existing.start < end AND existing.end > start.
	CountOverlapping(ctx context.Context, equipmentID int32, start, end time.Time) (int32, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
}

// Store aggregates the repositories and provides transactional composition.
// WithinTx runs fn against a Store whose repositories share one database
// transaction; fn returning an error rolls everything back.
type Store interface {
	Bookings() BookingRepository
	Equipment() EquipmentRepository
	Schedule() ScheduleRepository
	Users() UserRepository
	Notifications() NotificationRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}
