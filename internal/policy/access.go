// Package policy holds the pure role/ownership predicates consulted before
// any booking or equipment mutation. Every denial surfaces as the same
// Forbidden error at the call site, regardless of which rule failed.
package policy

import "agrirent-backend/internal/domain"

// CanViewBooking allows the booking's renter, the owning provider, or an
// admin.
func CanViewBooking(actor domain.Actor, b *domain.Booking) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.ID == b.RenterID || actor.ID == b.ProviderID
}

// CanTransitionBooking decides who may move a booking to target.
// Cancellation belongs to the renter; every provider-driven status
// (confirm, reject, the in-progress phases, completion) belongs to the
// owning provider. Admins may do either.
func CanTransitionBooking(actor domain.Actor, b *domain.Booking, target domain.BookingStatus) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	switch target {
	case domain.BookingStatusCancelled:
		return actor.ID == b.RenterID
	case domain.BookingStatusConfirmed, domain.BookingStatusRejected,
		domain.BookingStatusOnTheWay, domain.BookingStatusInProgress,
		domain.BookingStatusWorking, domain.BookingStatusCompleted:
		return actor.ID == b.ProviderID
	}
	return false
}

// CanUpdateTracking allows the owning provider or an admin.
func CanUpdateTracking(actor domain.Actor, b *domain.Booking) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.ID == b.ProviderID
}

// CanRateBooking allows only the renter who made the booking, and only
// once it has completed.
func CanRateBooking(actor domain.Actor, b *domain.Booking) bool {
	return actor.ID == b.RenterID && b.Status == domain.BookingStatusCompleted
}

// CanManageEquipment allows the owning provider or an admin.
func CanManageEquipment(actor domain.Actor, e *domain.Equipment) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	return actor.ID == e.OwnerID
}
