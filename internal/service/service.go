package service

import (
	"context"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
)

type CreateBookingInput struct {
	EquipmentID       int32
	StartTime         time.Time
	EndTime           time.Time
	Type              domain.BookingType
	PaymentMethod     domain.PaymentMethod
	DeliveryRequested bool
	OperatorIncluded  bool
	Notes             string
}

type ListBookingsInput struct {
	Status *domain.BookingStatus
	From   *time.Time
	To     *time.Time
}

type RatingInput struct {
	EquipmentRating int32
	EquipmentReview string
	OperatorRating  *int32
	OperatorReview  string
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor domain.Actor, in CreateBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, actor domain.Actor, id int32) (*domain.Booking, error)
	ListBookings(ctx context.Context, actor domain.Actor, in ListBookingsInput) ([]domain.Booking, error)
	TransitionBooking(ctx context.Context, actor domain.Actor, id int32, target domain.BookingStatus, note string) (*domain.Booking, error)
	UpdateTracking(ctx context.Context, actor domain.Actor, id int32, lat, lng float64, eta *time.Time) (*domain.Booking, error)
	AddRating(ctx context.Context, actor domain.Actor, id int32, in RatingInput) (*domain.Booking, error)
}

type EquipmentService interface {
	AddEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) error
	UpdateEquipment(ctx context.Context, actor domain.Actor, e *domain.Equipment) (*domain.Equipment, error)
	GetEquipment(ctx context.Context, id int32) (*domain.Equipment, error)
	ListEquipment(ctx context.Context, f repository.EquipmentFilter) ([]domain.Equipment, error)
	NearbyEquipment(ctx context.Context, lat, lng, radiusKm float64, limit int32) ([]domain.Equipment, error)
	SetAvailability(ctx context.Context, actor domain.Actor, id int32, available bool) (*domain.Equipment, error)
	ListReviews(ctx context.Context, equipmentID int32) ([]domain.Review, error)
}

// RatingAggregator keeps an equipment's rating average/count consistent
// with its append-only review log.
type RatingAggregator interface {
	AttachReview(ctx context.Context, equipmentID, reviewerID, rating int32, comment string) (*domain.Review, error)
}

type NotificationService interface {
	GetNotifications(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
}

// EmailService sends lifecycle notifications. Failures are logged by the
// callers and never fail the underlying transition.
type EmailService interface {
	SendBookingRequested(ctx context.Context, providerEmail, renterName, equipmentName, bookingNumber string) error
	SendBookingConfirmed(ctx context.Context, renterEmail, equipmentName, bookingNumber string) error
	SendBookingRejected(ctx context.Context, renterEmail, equipmentName, bookingNumber string) error
	SendBookingCancelled(ctx context.Context, providerEmail, renterName, equipmentName, bookingNumber, reason string) error
	SendBookingCompleted(ctx context.Context, email, equipmentName, bookingNumber string, totalCents int32) error
	SendBookingOverdue(ctx context.Context, email, equipmentName, bookingNumber string) error
	SendBookingStartReminder(ctx context.Context, email, equipmentName, bookingNumber string, startTime time.Time) error
}
