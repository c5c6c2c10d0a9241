package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
	"agrirent-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func activeTractor() *domain.Equipment {
	return &domain.Equipment{
		ID:                 7,
		OwnerID:            9,
		Name:               "John Deere 5050D",
		Category:           domain.EquipmentCategoryTractor,
		RatePerHourCents:   50000,
		MinimumRentalHours: 1,
		IsAvailable:        true,
		Status:             domain.EquipmentStatusActive,
	}
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	input := service.CreateBookingInput{
		EquipmentID: 7,
		StartTime:   start,
		EndTime:     end,
		Type:        domain.BookingTypeHourly,
	}
	farmer := domain.Actor{ID: 5, Role: domain.RoleFarmer}

	t.Run("Success", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		eq := activeTractor()
		store.equipment.On("GetByID", ctx, int32(7)).Return(eq, nil).Once()
		store.bookings.On("Create", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.Status == domain.BookingStatusPending &&
				b.RenterID == 5 && b.ProviderID == 9 &&
				b.Pricing.BasePriceCents == 100000 &&
				b.Pricing.TotalCents == 100000 &&
				b.Payment.Status == domain.PaymentStatusPending &&
				b.Payment.Method == domain.PaymentMethodCash &&
				len(b.StatusHistory) == 1
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Booking).ID = 42
		}).Return(nil).Once()
		store.equipment.On("GetByIDForUpdate", ctx, int32(7)).Return(eq, nil).Once()
		store.schedule.On("CountOverlapping", ctx, int32(7), start, end).Return(int32(0), nil).Once()
		store.schedule.On("Insert", ctx, mock.MatchedBy(func(e *domain.ScheduleEntry) bool {
			return e.BookingID == 42 && e.EquipmentID == 7 && e.StartTime.Equal(start) && e.EndTime.Equal(end)
		})).Return(nil).Once()
		store.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		b, err := svc.CreateBooking(ctx, farmer, input)
		assert.NoError(t, err)
		assert.Equal(t, int32(42), b.ID)
		assert.True(t, strings.HasPrefix(b.BookingNumber, "BK-2603-"))
		assert.Equal(t, domain.BookingStatusPending, b.Status)

		store.bookings.AssertExpectations(t)
		store.schedule.AssertExpectations(t)
	})

	t.Run("OverlappingInterval", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		eq := activeTractor()
		store.equipment.On("GetByID", ctx, int32(7)).Return(eq, nil).Once()
		store.bookings.On("Create", ctx, mock.Anything).Return(nil).Once()
		store.equipment.On("GetByIDForUpdate", ctx, int32(7)).Return(eq, nil).Once()
		store.schedule.On("CountOverlapping", ctx, int32(7), start, end).Return(int32(1), nil).Once()

		b, err := svc.CreateBooking(ctx, farmer, input)
		assert.ErrorIs(t, err, domain.ErrEquipmentUnavailable)
		assert.Nil(t, b)
		store.schedule.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
		store.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("AvailabilityFlagOff", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		eq := activeTractor()
		offline := activeTractor()
		offline.IsAvailable = false
		store.equipment.On("GetByID", ctx, int32(7)).Return(eq, nil).Once()
		store.bookings.On("Create", ctx, mock.Anything).Return(nil).Once()
		store.equipment.On("GetByIDForUpdate", ctx, int32(7)).Return(offline, nil).Once()

		_, err := svc.CreateBooking(ctx, farmer, input)
		assert.ErrorIs(t, err, domain.ErrEquipmentUnavailable)
	})

	t.Run("InvalidInterval", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		store.equipment.On("GetByID", ctx, int32(7)).Return(activeTractor(), nil).Once()

		bad := input
		bad.EndTime = bad.StartTime
		_, err := svc.CreateBooking(ctx, farmer, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidInterval)
		store.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("EquipmentNotFound", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		store.equipment.On("GetByID", ctx, int32(7)).Return(nil, domain.ErrNotFound).Once()

		_, err := svc.CreateBooking(ctx, farmer, input)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingService_TransitionBooking(t *testing.T) {
	ctx := context.Background()
	provider := domain.Actor{ID: 9, Role: domain.RoleProvider}
	farmer := domain.Actor{ID: 5, Role: domain.RoleFarmer}

	base := func(status domain.BookingStatus) *domain.Booking {
		return &domain.Booking{
			ID:            42,
			BookingNumber: "BK-2603-A1B2C3",
			RenterID:      5,
			ProviderID:    9,
			EquipmentID:   7,
			Status:        status,
			Pricing:       domain.PricingDetail{TotalCents: 118000},
			Payment: domain.PaymentDetail{
				Status: domain.PaymentStatusPending,
				Method: domain.PaymentMethodCash,
			},
		}
	}

	t.Run("CashSettlesOnCompletion", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := base(domain.BookingStatusInProgress)
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()
		store.schedule.On("DeleteByBooking", ctx, int32(42)).Return(nil).Once()
		store.bookings.On("AppendStatus", ctx, b, mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.BookingStatusCompleted && c.UpdatedBy == 9
		})).Return(nil).Once()
		store.equipment.On("GetByID", ctx, int32(7)).Return(activeTractor(), nil).Once()
		store.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		got, err := svc.TransitionBooking(ctx, provider, 42, domain.BookingStatusCompleted, "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCompleted, got.Status)
		assert.Equal(t, domain.PaymentStatusPaid, got.Payment.Status)
		assert.Equal(t, int32(118000), got.Payment.PaidAmountCents)
		assert.NotNil(t, got.Payment.PaidAt)
		store.bookings.AssertExpectations(t)
	})

	t.Run("EarlyCompletionFreesInterval", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		// Completed well before end_time: the remaining window must not
		// keep blocking the equipment.
		b := base(domain.BookingStatusWorking)
		b.StartTime = time.Now().Add(-2 * time.Hour)
		b.EndTime = time.Now().Add(6 * time.Hour)
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()
		store.schedule.On("DeleteByBooking", ctx, int32(42)).Return(nil).Once()
		store.bookings.On("AppendStatus", ctx, b, mock.Anything).Return(nil).Once()
		store.equipment.On("GetByID", ctx, int32(7)).Return(activeTractor(), nil).Once()
		store.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.TransitionBooking(ctx, provider, 42, domain.BookingStatusCompleted, "")
		assert.NoError(t, err)
		store.schedule.AssertExpectations(t)

		// With the entry gone, the freed window reserves cleanly again.
		store.equipment.On("GetByIDForUpdate", ctx, int32(7)).Return(activeTractor(), nil).Once()
		store.schedule.On("CountOverlapping", ctx, int32(7), b.StartTime, b.EndTime).Return(int32(0), nil).Once()
		store.schedule.On("Insert", ctx, mock.Anything).Return(nil).Once()

		ledger := service.NewAvailabilityLedger(store.Equipment(), store.Schedule())
		assert.NoError(t, ledger.Reserve(ctx, 7, 43, b.StartTime, b.EndTime))
	})

	t.Run("RenterCancelReleasesInterval", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := base(domain.BookingStatusConfirmed)
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()
		store.schedule.On("DeleteByBooking", ctx, int32(42)).Return(nil).Once()
		store.bookings.On("AppendStatus", ctx, b, mock.MatchedBy(func(c domain.StatusChange) bool {
			return c.Status == domain.BookingStatusCancelled && c.Note == "rains came early"
		})).Return(nil).Once()
		store.equipment.On("GetByID", ctx, int32(7)).Return(activeTractor(), nil).Once()
		store.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		got, err := svc.TransitionBooking(ctx, farmer, 42, domain.BookingStatusCancelled, "rains came early")
		assert.NoError(t, err)
		assert.NotNil(t, got.Cancellation)
		assert.Equal(t, int32(5), got.Cancellation.CancelledBy)
		assert.Equal(t, domain.RefundStatusNotApplicable, got.Cancellation.RefundStatus)
		store.schedule.AssertExpectations(t)
	})

	t.Run("PaidCancelQueuesRefund", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := base(domain.BookingStatusConfirmed)
		b.Payment.Status = domain.PaymentStatusPaid
		b.Payment.PaidAmountCents = 118000
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()
		store.schedule.On("DeleteByBooking", ctx, int32(42)).Return(nil).Once()
		store.bookings.On("AppendStatus", ctx, b, mock.Anything).Return(nil).Once()
		store.equipment.On("GetByID", ctx, int32(7)).Return(activeTractor(), nil).Once()
		store.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		got, err := svc.TransitionBooking(ctx, farmer, 42, domain.BookingStatusCancelled, "")
		assert.NoError(t, err)
		assert.Equal(t, domain.RefundStatusPending, got.Cancellation.RefundStatus)
		assert.Equal(t, int32(118000), got.Cancellation.RefundAmountCents)
	})

	t.Run("RejectReleasesInterval", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := base(domain.BookingStatusPending)
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()
		store.schedule.On("DeleteByBooking", ctx, int32(42)).Return(nil).Once()
		store.bookings.On("AppendStatus", ctx, b, mock.Anything).Return(nil).Once()
		store.equipment.On("GetByID", ctx, int32(7)).Return(activeTractor(), nil).Once()
		store.notifications.On("Create", ctx, mock.Anything).Return(nil).Once()

		got, err := svc.TransitionBooking(ctx, provider, 42, domain.BookingStatusRejected, "")
		assert.NoError(t, err)
		assert.Equal(t, domain.BookingStatusRejected, got.Status)
		store.schedule.AssertExpectations(t)
	})

	t.Run("RenterCannotComplete", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := base(domain.BookingStatusInProgress)
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()

		_, err := svc.TransitionBooking(ctx, farmer, 42, domain.BookingStatusCompleted, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		store.bookings.AssertNotCalled(t, "AppendStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("TerminalStatusRefusesTransition", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := base(domain.BookingStatusCompleted)
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()

		_, err := svc.TransitionBooking(ctx, provider, 42, domain.BookingStatusConfirmed, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("NotFound", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(nil, domain.ErrNotFound).Once()

		_, err := svc.TransitionBooking(ctx, provider, 42, domain.BookingStatusConfirmed, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingService_ListBookings(t *testing.T) {
	ctx := context.Background()

	t.Run("FarmerScopedToOwnBookings", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		store.bookings.On("List", ctx, mock.MatchedBy(func(f repository.BookingFilter) bool {
			return f.RenterID != nil && *f.RenterID == 5 && f.ProviderID == nil
		})).Return([]domain.Booking{{ID: 1}}, nil).Once()

		got, err := svc.ListBookings(ctx, domain.Actor{ID: 5, Role: domain.RoleFarmer}, service.ListBookingsInput{})
		assert.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("ProviderScopedToOwnEquipment", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		store.bookings.On("List", ctx, mock.MatchedBy(func(f repository.BookingFilter) bool {
			return f.ProviderID != nil && *f.ProviderID == 9 && f.RenterID == nil
		})).Return([]domain.Booking{}, nil).Once()

		_, err := svc.ListBookings(ctx, domain.Actor{ID: 9, Role: domain.RoleProvider}, service.ListBookingsInput{})
		assert.NoError(t, err)
	})

	t.Run("AdminUnscoped", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		store.bookings.On("List", ctx, mock.MatchedBy(func(f repository.BookingFilter) bool {
			return f.RenterID == nil && f.ProviderID == nil
		})).Return([]domain.Booking{}, nil).Once()

		_, err := svc.ListBookings(ctx, domain.Actor{ID: 1, Role: domain.RoleAdmin}, service.ListBookingsInput{})
		assert.NoError(t, err)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	svc := service.NewBookingService(store, nil, nil, 0)

	b := &domain.Booking{ID: 42, RenterID: 5, ProviderID: 9}
	store.bookings.On("GetByID", ctx, int32(42)).Return(b, nil)

	t.Run("RenterCanView", func(t *testing.T) {
		got, err := svc.GetBooking(ctx, domain.Actor{ID: 5, Role: domain.RoleFarmer}, 42)
		assert.NoError(t, err)
		assert.Equal(t, int32(42), got.ID)
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		_, err := svc.GetBooking(ctx, domain.Actor{ID: 77, Role: domain.RoleFarmer}, 42)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestBookingService_UpdateTracking(t *testing.T) {
	ctx := context.Background()
	provider := domain.Actor{ID: 9, Role: domain.RoleProvider}

	t.Run("ProviderPublishesPosition", func(t *testing.T) {
		store := newMockStore()
		pub := new(MockPublisher)
		svc := service.NewBookingService(store, nil, pub, 0)

		b := &domain.Booking{ID: 42, BookingNumber: "BK-2603-A1B2C3", RenterID: 5, ProviderID: 9, Status: domain.BookingStatusOnTheWay}
		store.bookings.On("GetByID", ctx, int32(42)).Return(b, nil).Once()
		store.bookings.On("UpdateTracking", ctx, b).Return(nil).Once()
		pub.On("PublishTracking", ctx, "BK-2603-A1B2C3", 12.97, 77.59, (*time.Time)(nil)).Return(nil).Once()

		got, err := svc.UpdateTracking(ctx, provider, 42, 12.97, 77.59, nil)
		assert.NoError(t, err)
		assert.NotNil(t, got.Tracking)
		assert.Equal(t, 12.97, got.Tracking.Latitude)
		pub.AssertExpectations(t)
	})

	t.Run("RenterForbidden", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := &domain.Booking{ID: 42, RenterID: 5, ProviderID: 9}
		store.bookings.On("GetByID", ctx, int32(42)).Return(b, nil).Once()

		_, err := svc.UpdateTracking(ctx, domain.Actor{ID: 5, Role: domain.RoleFarmer}, 42, 1, 2, nil)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		store.bookings.AssertNotCalled(t, "UpdateTracking", mock.Anything, mock.Anything)
	})
}

func TestBookingService_AddRating(t *testing.T) {
	ctx := context.Background()
	farmer := domain.Actor{ID: 5, Role: domain.RoleFarmer}

	completed := func() *domain.Booking {
		return &domain.Booking{
			ID:          42,
			RenterID:    5,
			ProviderID:  9,
			EquipmentID: 7,
			Status:      domain.BookingStatusCompleted,
		}
	}

	t.Run("Success", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := completed()
		eq := activeTractor()
		eq.RatingAverage = 4.0
		eq.RatingCount = 1

		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()
		store.bookings.On("SetRating", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
			return b.Rating != nil && b.Rating.EquipmentRating == 5
		})).Return(nil).Once()
		store.equipment.On("GetByIDForUpdate", ctx, int32(7)).Return(eq, nil).Once()
		store.equipment.On("GetReviewByRenter", ctx, int32(7), int32(5)).Return(nil, nil).Once()
		store.equipment.On("AddReview", ctx, mock.MatchedBy(func(r *domain.Review) bool {
			return r.EquipmentID == 7 && r.RenterID == 5 && r.Rating == 5
		})).Return(nil).Once()
		store.equipment.On("UpdateRatingAggregate", ctx, int32(7), 4.5, int32(2)).Return(nil).Once()

		got, err := svc.AddRating(ctx, farmer, 42, service.RatingInput{EquipmentRating: 5, EquipmentReview: "smooth"})
		assert.NoError(t, err)
		assert.NotNil(t, got.Rating)
		store.equipment.AssertExpectations(t)
	})

	t.Run("SecondRatingRejected", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := completed()
		b.Rating = &domain.BookingRating{EquipmentRating: 4}
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()

		_, err := svc.AddRating(ctx, farmer, 42, service.RatingInput{EquipmentRating: 5})
		assert.ErrorIs(t, err, domain.ErrAlreadyRated)
		store.bookings.AssertNotCalled(t, "SetRating", mock.Anything, mock.Anything)
	})

	t.Run("OnlyCompletedBookings", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		b := completed()
		b.Status = domain.BookingStatusConfirmed
		store.bookings.On("GetByIDForUpdate", ctx, int32(42)).Return(b, nil).Once()

		_, err := svc.AddRating(ctx, farmer, 42, service.RatingInput{EquipmentRating: 5})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		store := newMockStore()
		svc := service.NewBookingService(store, nil, nil, 0)

		_, err := svc.AddRating(ctx, farmer, 42, service.RatingInput{EquipmentRating: 6})
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
		store.bookings.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
	})
}
