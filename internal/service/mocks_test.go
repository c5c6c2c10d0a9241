package service_test

import (
	"context"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepo) AppendStatus(ctx context.Context, b *domain.Booking, change domain.StatusChange) error {
	args := m.Called(ctx, b, change)
	return args.Error(0)
}

func (m *MockBookingRepo) UpdateTracking(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepo) SetRating(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepo) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockEquipmentRepo struct {
	mock.Mock
}

func (m *MockEquipmentRepo) Create(ctx context.Context, e *domain.Equipment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEquipmentRepo) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepo) GetByIDForUpdate(ctx context.Context, id int32) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepo) Update(ctx context.Context, e *domain.Equipment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEquipmentRepo) SetAvailability(ctx context.Context, id int32, available bool) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}

func (m *MockEquipmentRepo) UpdateRatingAggregate(ctx context.Context, id int32, average float64, count int32) error {
	args := m.Called(ctx, id, average, count)
	return args.Error(0)
}

func (m *MockEquipmentRepo) List(ctx context.Context, f repository.EquipmentFilter) ([]domain.Equipment, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepo) ListNearby(ctx context.Context, lat, lng, radiusKm float64, limit int32) ([]domain.Equipment, error) {
	args := m.Called(ctx, lat, lng, radiusKm, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Equipment), args.Error(1)
}

func (m *MockEquipmentRepo) AddReview(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockEquipmentRepo) GetReviewByRenter(ctx context.Context, equipmentID, renterID int32) (*domain.Review, error) {
	args := m.Called(ctx, equipmentID, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockEquipmentRepo) ListReviews(ctx context.Context, equipmentID int32) ([]domain.Review, error) {
	args := m.Called(ctx, equipmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

type MockScheduleRepo struct {
	mock.Mock
}

func (m *MockScheduleRepo) Insert(ctx context.Context, e *domain.ScheduleEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockScheduleRepo) DeleteByBooking(ctx context.Context, bookingID int32) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func (m *MockScheduleRepo) CountOverlapping(ctx context.Context, equipmentID int32, start, end time.Time) (int32, error) {
	args := m.Called(ctx, equipmentID, start, end)
	return args.Get(0).(int32), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int32), args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendBookingRequested(ctx context.Context, providerEmail, renterName, equipmentName, bookingNumber string) error {
	args := m.Called(ctx, providerEmail, renterName, equipmentName, bookingNumber)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingConfirmed(ctx context.Context, renterEmail, equipmentName, bookingNumber string) error {
	args := m.Called(ctx, renterEmail, equipmentName, bookingNumber)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingRejected(ctx context.Context, renterEmail, equipmentName, bookingNumber string) error {
	args := m.Called(ctx, renterEmail, equipmentName, bookingNumber)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingCancelled(ctx context.Context, providerEmail, renterName, equipmentName, bookingNumber, reason string) error {
	args := m.Called(ctx, providerEmail, renterName, equipmentName, bookingNumber, reason)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingCompleted(ctx context.Context, email, equipmentName, bookingNumber string, totalCents int32) error {
	args := m.Called(ctx, email, equipmentName, bookingNumber, totalCents)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingOverdue(ctx context.Context, email, equipmentName, bookingNumber string) error {
	args := m.Called(ctx, email, equipmentName, bookingNumber)
	return args.Error(0)
}

func (m *MockEmailService) SendBookingStartReminder(ctx context.Context, email, equipmentName, bookingNumber string, startTime time.Time) error {
	args := m.Called(ctx, email, equipmentName, bookingNumber, startTime)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTracking(ctx context.Context, bookingNumber string, lat, lng float64, eta *time.Time) error {
	args := m.Called(ctx, bookingNumber, lat, lng, eta)
	return args.Error(0)
}

// mockStore wires the mock repositories behind the Store interface.
// WithinTx runs the callback against the same store, which is exactly the
// nested-transaction behavior of the real implementation.
type mockStore struct {
	bookings      *MockBookingRepo
	equipment     *MockEquipmentRepo
	schedule      *MockScheduleRepo
	users         *MockUserRepo
	notifications *MockNotificationRepo
}

func newMockStore() *mockStore {
	return &mockStore{
		bookings:      new(MockBookingRepo),
		equipment:     new(MockEquipmentRepo),
		schedule:      new(MockScheduleRepo),
		users:         new(MockUserRepo),
		notifications: new(MockNotificationRepo),
	}
}

func (s *mockStore) Bookings() repository.BookingRepository           { return s.bookings }
func (s *mockStore) Equipment() repository.EquipmentRepository        { return s.equipment }
func (s *mockStore) Schedule() repository.ScheduleRepository          { return s.schedule }
func (s *mockStore) Users() repository.UserRepository                 { return s.users }
func (s *mockStore) Notifications() repository.NotificationRepository { return s.notifications }

func (s *mockStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}
