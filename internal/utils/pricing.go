package utils

import (
	"math"
	"time"

	"agrirent-backend/internal/domain"
)

// BookingCostBreakdown provides the itemized price of a booking request.
// Total = base + delivery + operator + tax - discount. The deposit comes
// from the rate card and is tracked separately from the total.
type BookingCostBreakdown struct {
	DurationHours    float64
	DurationDays     int32
	BasePriceCents   int32
	DeliveryFeeCents int32
	OperatorFeeCents int32
	DiscountCents    int32
	TaxCents         int32
	TotalCents       int32
	DepositCents     int32
}

// PricingOptions carries the request-side flags of a price calculation.
type PricingOptions struct {
	Type              domain.BookingType
	OperatorIncluded  bool
	DeliveryRequested bool
	TaxRatePercent    float64
}

const hoursPerDay = 8 // fallback day rate when no daily rate is configured

// CalculateBookingCost computes the itemized cost of renting the equipment
// for [start, end). It is deterministic: identical inputs, including the
// evaluation time `at` used for discount windows, produce identical output.
//
// Hourly bookings charge fractional hours at the hourly rate. Daily
// bookings charge ceil(days) at the daily rate, falling back to eight
// hourly units per day when no daily rate is configured.
func CalculateBookingCost(eq *domain.Equipment, start, end, at time.Time, opts PricingOptions) (BookingCostBreakdown, error) {
	if !end.After(start) {
		return BookingCostBreakdown{}, domain.ErrInvalidInterval
	}

	hours := end.Sub(start).Hours()
	if hours < float64(eq.MinimumRentalHours) {
		return BookingCostBreakdown{}, domain.ErrInvalidInterval
	}

	var breakdown BookingCostBreakdown
	breakdown.DurationHours = hours

	switch opts.Type {
	case domain.BookingTypeHourly:
		breakdown.BasePriceCents = roundCents(hours * float64(eq.RatePerHourCents))
	case domain.BookingTypeDaily:
		days := int32(math.Ceil(hours / 24))
		dayRate := eq.RatePerDayCents
		if dayRate == 0 {
			dayRate = eq.RatePerHourCents * hoursPerDay
		}
		breakdown.DurationDays = days
		breakdown.BasePriceCents = days * dayRate
	default:
		return BookingCostBreakdown{}, domain.ErrInvalidInterval
	}

	if opts.DeliveryRequested && eq.DeliveryAvailable {
		breakdown.DeliveryFeeCents = eq.DeliveryFeeCents
	}

	if opts.OperatorIncluded && eq.OperatorIncluded {
		if eq.OperatorFeeHourly {
			breakdown.OperatorFeeCents = roundCents(hours * float64(eq.OperatorFeeCents))
		} else {
			breakdown.OperatorFeeCents = eq.OperatorFeeCents
		}
	}

	breakdown.DiscountCents = discountFor(eq.Discounts, breakdown.BasePriceCents, hours, at)

	taxable := breakdown.BasePriceCents + breakdown.DeliveryFeeCents + breakdown.OperatorFeeCents - breakdown.DiscountCents
	breakdown.TaxCents = roundCents(float64(taxable) * opts.TaxRatePercent / 100)

	breakdown.TotalCents = breakdown.BasePriceCents +
		breakdown.DeliveryFeeCents +
		breakdown.OperatorFeeCents +
		breakdown.TaxCents -
		breakdown.DiscountCents
	breakdown.DepositCents = eq.DepositCents

	return breakdown, nil
}

// discountFor picks the best applicable time-boxed rule. Rules apply when
// `at` falls inside the rule window and the requested duration meets the
// rule's minimum.
func discountFor(rules []domain.DiscountRule, baseCents int32, hours float64, at time.Time) int32 {
	var best int32
	for _, r := range rules {
		if at.Before(r.StartDate) || at.After(r.EndDate) {
			continue
		}
		if hours < float64(r.MinRentalHours) {
			continue
		}
		d := roundCents(float64(baseCents) * float64(r.Percentage) / 100)
		if d > best {
			best = d
		}
	}
	return best
}

func roundCents(v float64) int32 {
	return int32(math.Round(v))
}
