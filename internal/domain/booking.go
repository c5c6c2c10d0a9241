package domain

import (
	"fmt"
	"time"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusOnTheWay   BookingStatus = "on_the_way"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusWorking    BookingStatus = "working"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusRejected   BookingStatus = "rejected"
)

// statusSuccessors is the closed transition graph. on_the_way and working
// are provider-visible phases of an in-progress rental; they keep the same
// terminal structure.
var statusSuccessors = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusRejected},
	BookingStatusConfirmed:  {BookingStatusOnTheWay, BookingStatusInProgress, BookingStatusCancelled},
	BookingStatusOnTheWay:   {BookingStatusWorking, BookingStatusInProgress, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusInProgress: {BookingStatusWorking, BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusWorking:    {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted:  {},
	BookingStatusCancelled:  {},
	BookingStatusRejected:   {},
}

// ParseBookingStatus rejects any value outside the known set.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if _, ok := statusSuccessors[st]; !ok {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return st, nil
}

// CanTransitionTo reports whether t is a legal successor of s. Self
// transitions are never legal.
func (s BookingStatus) CanTransitionTo(t BookingStatus) bool {
	for _, next := range statusSuccessors[s] {
		if next == t {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(statusSuccessors[s]) == 0 && s != ""
}

// IsInProgressPhase reports whether s is one of the active-rental phases.
func (s BookingStatus) IsInProgressPhase() bool {
	return s == BookingStatusOnTheWay || s == BookingStatusInProgress || s == BookingStatusWorking
}

// NonTerminalStatuses lists every status that still commits the equipment's
// interval; availability overlap checks consider exactly these.
func NonTerminalStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusConfirmed,
		BookingStatusOnTheWay,
		BookingStatusInProgress,
		BookingStatusWorking,
	}
}

type BookingType string

const (
	BookingTypeHourly BookingType = "hourly"
	BookingTypeDaily  BookingType = "daily"
)

func ParseBookingType(s string) (BookingType, error) {
	switch BookingType(s) {
	case BookingTypeHourly, BookingTypeDaily:
		return BookingType(s), nil
	}
	return "", fmt.Errorf("unknown booking type %q", s)
}

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusFailed        PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard   PaymentMethod = "credit_card"
	PaymentMethodDebitCard    PaymentMethod = "debit_card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodOther        PaymentMethod = "other"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(s) {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodUPI,
		PaymentMethodBankTransfer, PaymentMethodCash, PaymentMethodOther:
		return PaymentMethod(s), nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

type RefundStatus string

const (
	RefundStatusPending       RefundStatus = "pending"
	RefundStatusProcessed     RefundStatus = "processed"
	RefundStatusRejected      RefundStatus = "rejected"
	RefundStatusNotApplicable RefundStatus = "not_applicable"
)

// PricingDetail is the itemized price snapshot captured at creation time.
// Total = base + delivery + operator + tax - discount. The deposit is
// tracked separately and never folded into the total.
type PricingDetail struct {
	BasePriceCents   int32 `json:"base_price_cents"`
	DeliveryFeeCents int32 `json:"delivery_fee_cents"`
	OperatorFeeCents int32 `json:"operator_fee_cents"`
	DiscountCents    int32 `json:"discount_cents"`
	TaxCents         int32 `json:"tax_cents"`
	TotalCents       int32 `json:"total_cents"`
	DepositCents     int32 `json:"deposit_cents"`
}

type PaymentDetail struct {
	Status          PaymentStatus `json:"status"`
	Method          PaymentMethod `json:"method"`
	PaidAmountCents int32         `json:"paid_amount_cents"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
}

// StatusChange is one append-only history entry. History is never edited
// in place.
type StatusChange struct {
	Status    BookingStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	UpdatedBy int32         `json:"updated_by"`
	Note      string        `json:"note,omitempty"`
}

type TrackingInfo struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	LastUpdated      time.Time  `json:"last_updated"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
}

// BookingRating holds the renter's post-completion ratings. The equipment
// rating feeds the equipment aggregate; the operator rating stays on the
// booking.
type BookingRating struct {
	EquipmentRating int32     `json:"equipment_rating"`
	EquipmentReview string    `json:"equipment_review,omitempty"`
	OperatorRating  *int32    `json:"operator_rating,omitempty"`
	OperatorReview  string    `json:"operator_review,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type CancellationDetail struct {
	Reason            string       `json:"reason,omitempty"`
	CancelledBy       int32        `json:"cancelled_by"`
	CancelledAt       time.Time    `json:"cancelled_at"`
	RefundAmountCents int32        `json:"refund_amount_cents"`
	RefundStatus      RefundStatus `json:"refund_status"`
}

type Booking struct {
	ID            int32  `json:"id"`
	BookingNumber string `json:"booking_number"`
	RenterID      int32  `json:"renter_id"`
	ProviderID    int32  `json:"provider_id"`
	EquipmentID   int32  `json:"equipment_id"`

	Type      BookingType `json:"type"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	// Derived duration: hours for hourly bookings, whole days for daily.
	DurationHours float64 `json:"duration_hours"`
	DurationDays  int32   `json:"duration_days"`

	Pricing PricingDetail `json:"pricing"`
	Payment PaymentDetail `json:"payment"`

	Status        BookingStatus  `json:"status"`
	StatusHistory []StatusChange `json:"status_history"`

	Tracking     *TrackingInfo       `json:"tracking,omitempty"`
	Rating       *BookingRating      `json:"rating,omitempty"`
	Cancellation *CancellationDetail `json:"cancellation,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}
