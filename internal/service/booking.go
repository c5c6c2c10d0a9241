package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/logger"
	"agrirent-backend/internal/notify"
	"agrirent-backend/internal/policy"
	"agrirent-backend/internal/repository"
	"agrirent-backend/internal/utils"

	"github.com/google/uuid"
)

type bookingService struct {
	store          repository.Store
	emailSvc       EmailService
	tracking       notify.Publisher
	taxRatePercent float64
}

func NewBookingService(store repository.Store, emailSvc EmailService, tracking notify.Publisher, taxRatePercent float64) BookingService {
	return &bookingService{
		store:          store,
		emailSvc:       emailSvc,
		tracking:       tracking,
		taxRatePercent: taxRatePercent,
	}
}

// CreateBooking prices the request, reserves the interval and persists the
// new booking in pending state, all in one transaction. A failed
// reservation rolls the whole creation back.
func (s *bookingService) CreateBooking(ctx context.Context, actor domain.Actor, in CreateBookingInput) (*domain.Booking, error) {
	eq, err := s.store.Equipment().GetByID(ctx, in.EquipmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	breakdown, err := utils.CalculateBookingCost(eq, in.StartTime, in.EndTime, now, utils.PricingOptions{
		Type:              in.Type,
		OperatorIncluded:  in.OperatorIncluded,
		DeliveryRequested: in.DeliveryRequested,
		TaxRatePercent:    s.taxRatePercent,
	})
	if err != nil {
		return nil, err
	}

	method := in.PaymentMethod
	if method == "" {
		method = domain.PaymentMethodCash
	}

	b := &domain.Booking{
		BookingNumber: generateBookingNumber(now),
		RenterID:      actor.ID,
		ProviderID:    eq.OwnerID,
		EquipmentID:   eq.ID,
		Type:          in.Type,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		DurationHours: breakdown.DurationHours,
		DurationDays:  breakdown.DurationDays,
		Pricing: domain.PricingDetail{
			BasePriceCents:   breakdown.BasePriceCents,
			DeliveryFeeCents: breakdown.DeliveryFeeCents,
			OperatorFeeCents: breakdown.OperatorFeeCents,
			DiscountCents:    breakdown.DiscountCents,
			TaxCents:         breakdown.TaxCents,
			TotalCents:       breakdown.TotalCents,
			DepositCents:     breakdown.DepositCents,
		},
		Payment: domain.PaymentDetail{
			Status: domain.PaymentStatusPending,
			Method: method,
		},
		Status: domain.BookingStatusPending,
		StatusHistory: []domain.StatusChange{{
			Status:    domain.BookingStatusPending,
			Timestamp: now,
			UpdatedBy: actor.ID,
		}},
		Notes: in.Notes,
	}

	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.Bookings().Create(ctx, b); err != nil {
			return err
		}
		ledger := NewAvailabilityLedger(tx.Equipment(), tx.Schedule())
		return ledger.Reserve(ctx, eq.ID, b.ID, in.StartTime, in.EndTime)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking created", "booking_number", b.BookingNumber, "equipment_id", eq.ID, "renter_id", actor.ID)
	s.notifyProvider(ctx, b, eq, "New Booking Request",
		fmt.Sprintf("New booking request %s for %s", b.BookingNumber, eq.Name))
	return b, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor domain.Actor, id int32) (*domain.Booking, error) {
	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewBooking(actor, b) {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

// ListBookings scopes results by role: renters see their own bookings,
// providers see bookings against their equipment, admins see everything.
func (s *bookingService) ListBookings(ctx context.Context, actor domain.Actor, in ListBookingsInput) ([]domain.Booking, error) {
	f := repository.BookingFilter{
		Status: in.Status,
		From:   in.From,
		To:     in.To,
	}
	switch actor.Role {
	case domain.RoleFarmer:
		f.RenterID = &actor.ID
	case domain.RoleProvider:
		f.ProviderID = &actor.ID
	case domain.RoleAdmin:
		// unscoped
	default:
		return nil, domain.ErrForbidden
	}
	return s.store.Bookings().List(ctx, f)
}

// TransitionBooking applies one step of the lifecycle graph. Status write,
// history append and the transition's side effect (interval release,
// cash payment settlement) commit in the same transaction or not at all.
func (s *bookingService) TransitionBooking(ctx context.Context, actor domain.Actor, id int32, target domain.BookingStatus, note string) (*domain.Booking, error) {
	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		b, err = tx.Bookings().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.CanTransitionBooking(actor, b, target) {
			return domain.ErrForbidden
		}
		if !b.Status.CanTransitionTo(target) {
			return domain.ErrInvalidTransition
		}

		now := time.Now()
		b.Status = target
		change := domain.StatusChange{
			Status:    target,
			Timestamp: now,
			UpdatedBy: actor.ID,
			Note:      note,
		}
		b.StatusHistory = append(b.StatusHistory, change)

		switch target {
		case domain.BookingStatusCancelled:
			b.Cancellation = &domain.CancellationDetail{
				Reason:       note,
				CancelledBy:  actor.ID,
				CancelledAt:  now,
				RefundStatus: refundStatusFor(b),
			}
			if b.Cancellation.RefundStatus == domain.RefundStatusPending {
				b.Cancellation.RefundAmountCents = b.Payment.PaidAmountCents
			}
		case domain.BookingStatusCompleted:
			if b.Payment.Method == domain.PaymentMethodCash {
				b.Payment.Status = domain.PaymentStatusPaid
				b.Payment.PaidAmountCents = b.Pricing.TotalCents
				b.Payment.PaidAt = &now
			}
		}

		// Only non-terminal bookings commit their interval: an early
		// completion frees the remaining window for rebooking, same as a
		// cancellation or rejection does.
		if target.IsTerminal() {
			ledger := NewAvailabilityLedger(tx.Equipment(), tx.Schedule())
			if err := ledger.Release(ctx, b.ID); err != nil {
				return err
			}
		}

		return tx.Bookings().AppendStatus(ctx, b, change)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking transitioned", "booking_number", b.BookingNumber, "status", b.Status, "actor_id", actor.ID)
	s.notifyTransition(ctx, b, note)
	return b, nil
}

func (s *bookingService) UpdateTracking(ctx context.Context, actor domain.Actor, id int32, lat, lng float64, eta *time.Time) (*domain.Booking, error) {
	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanUpdateTracking(actor, b) {
		return nil, domain.ErrForbidden
	}

	b.Tracking = &domain.TrackingInfo{
		Latitude:         lat,
		Longitude:        lng,
		LastUpdated:      time.Now(),
		EstimatedArrival: eta,
	}
	if err := s.store.Bookings().UpdateTracking(ctx, b); err != nil {
		return nil, err
	}

	// Live broadcast is best-effort; persistence above is the source of truth.
	if s.tracking != nil {
		if err := s.tracking.PublishTracking(ctx, b.BookingNumber, lat, lng, eta); err != nil {
			logger.Warn("tracking broadcast failed", "booking_number", b.BookingNumber, "error", err)
		}
	}
	return b, nil
}

// AddRating records the renter's post-completion rating on the booking and
// feeds the equipment rating into the aggregate, once.
func (s *bookingService) AddRating(ctx context.Context, actor domain.Actor, id int32, in RatingInput) (*domain.Booking, error) {
	if in.EquipmentRating < 1 || in.EquipmentRating > 5 {
		return nil, domain.ErrInvalidRating
	}
	if in.OperatorRating != nil && (*in.OperatorRating < 1 || *in.OperatorRating > 5) {
		return nil, domain.ErrInvalidRating
	}

	var b *domain.Booking
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		b, err = tx.Bookings().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !policy.CanRateBooking(actor, b) {
			return domain.ErrForbidden
		}
		if b.Rating != nil {
			return domain.ErrAlreadyRated
		}

		b.Rating = &domain.BookingRating{
			EquipmentRating: in.EquipmentRating,
			EquipmentReview: in.EquipmentReview,
			OperatorRating:  in.OperatorRating,
			OperatorReview:  in.OperatorReview,
			CreatedAt:       time.Now(),
		}
		if err := tx.Bookings().SetRating(ctx, b); err != nil {
			return err
		}

		_, err = attachReview(ctx, tx, b.EquipmentID, b.RenterID, in.EquipmentRating, in.EquipmentReview)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking rated", "booking_number", b.BookingNumber, "rating", in.EquipmentRating)
	return b, nil
}

// refundStatusFor decides the refund bucket recorded on cancellation. Any
// money already taken goes to a pending refund; otherwise no refund is due.
func refundStatusFor(b *domain.Booking) domain.RefundStatus {
	switch b.Payment.Status {
	case domain.PaymentStatusPaid, domain.PaymentStatusPartiallyPaid:
		return domain.RefundStatusPending
	}
	return domain.RefundStatusNotApplicable
}

// generateBookingNumber builds the human-readable BK-YYMM-XXXXXX number.
func generateBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("BK-%s-%s", now.Format("0601"), suffix)
}

func (s *bookingService) notifyProvider(ctx context.Context, b *domain.Booking, eq *domain.Equipment, title, message string) {
	note := &domain.Notification{
		UserID:  b.ProviderID,
		Title:   title,
		Message: message,
		Attributes: map[string]string{
			"type":           "BOOKING_REQUEST",
			"booking_number": b.BookingNumber,
		},
	}
	if err := s.store.Notifications().Create(ctx, note); err != nil {
		logger.Warn("failed to create notification", "booking_number", b.BookingNumber, "error", err)
	}

	if s.emailSvc == nil {
		return
	}
	provider, err := s.store.Users().GetByID(ctx, b.ProviderID)
	if err != nil {
		return
	}
	renter, err := s.store.Users().GetByID(ctx, b.RenterID)
	if err != nil {
		return
	}
	if err := s.emailSvc.SendBookingRequested(ctx, provider.Email, renter.Name, eq.Name, b.BookingNumber); err != nil {
		logger.Warn("failed to send booking request email", "booking_number", b.BookingNumber, "error", err)
	}
}

func (s *bookingService) notifyTransition(ctx context.Context, b *domain.Booking, note string) {
	eq, err := s.store.Equipment().GetByID(ctx, b.EquipmentID)
	if err != nil {
		logger.Warn("failed to load equipment for notification", "booking_number", b.BookingNumber, "error", err)
		return
	}

	var userID int32
	var title, message string
	switch b.Status {
	case domain.BookingStatusConfirmed:
		userID = b.RenterID
		title = "Booking Confirmed"
		message = fmt.Sprintf("Your booking %s for %s was confirmed", b.BookingNumber, eq.Name)
	case domain.BookingStatusRejected:
		userID = b.RenterID
		title = "Booking Rejected"
		message = fmt.Sprintf("Your booking %s for %s was rejected", b.BookingNumber, eq.Name)
	case domain.BookingStatusCancelled:
		userID = b.ProviderID
		title = "Booking Cancelled"
		message = fmt.Sprintf("Booking %s for %s was cancelled", b.BookingNumber, eq.Name)
	case domain.BookingStatusCompleted:
		userID = b.RenterID
		title = "Booking Completed"
		message = fmt.Sprintf("Booking %s for %s was completed", b.BookingNumber, eq.Name)
	default:
		return
	}

	n := &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Attributes: map[string]string{
			"type":           "BOOKING_" + strings.ToUpper(string(b.Status)),
			"booking_number": b.BookingNumber,
		},
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		logger.Warn("failed to create notification", "booking_number", b.BookingNumber, "error", err)
	}

	if s.emailSvc == nil {
		return
	}
	renter, rErr := s.store.Users().GetByID(ctx, b.RenterID)
	provider, pErr := s.store.Users().GetByID(ctx, b.ProviderID)
	if rErr != nil || pErr != nil {
		return
	}

	switch b.Status {
	case domain.BookingStatusConfirmed:
		err = s.emailSvc.SendBookingConfirmed(ctx, renter.Email, eq.Name, b.BookingNumber)
	case domain.BookingStatusRejected:
		err = s.emailSvc.SendBookingRejected(ctx, renter.Email, eq.Name, b.BookingNumber)
	case domain.BookingStatusCancelled:
		err = s.emailSvc.SendBookingCancelled(ctx, provider.Email, renter.Name, eq.Name, b.BookingNumber, note)
	case domain.BookingStatusCompleted:
		if err = s.emailSvc.SendBookingCompleted(ctx, renter.Email, eq.Name, b.BookingNumber, b.Pricing.TotalCents); err == nil {
			err = s.emailSvc.SendBookingCompleted(ctx, provider.Email, eq.Name, b.BookingNumber, b.Pricing.TotalCents)
		}
	}
	if err != nil {
		logger.Warn("failed to send transition email", "booking_number", b.BookingNumber, "status", b.Status, "error", err)
	}
}
