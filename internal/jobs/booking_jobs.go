package jobs

import (
	"context"
	"fmt"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/logger"
)

// MarkOverdueBookings flags active bookings past their end time. Only the
// provider and renter are notified; status never changes on a timer, a
// human closes the booking out.
func (jr *JobRunner) MarkOverdueBookings() {
	jr.runWithRecovery("MarkOverdueBookings", func() {
		ctx := context.Background()

		query := `
			SELECT b.id, b.booking_number, b.renter_id, b.provider_id, b.end_time,
			       e.name, ru.email, pu.email
			FROM bookings b
			JOIN equipment e ON e.id = b.equipment_id
			JOIN users ru ON ru.id = b.renter_id
			JOIN users pu ON pu.id = b.provider_id
			WHERE b.status IN ('on_the_way', 'in_progress', 'working')
			  AND b.end_time < $1
		`

		rows, err := jr.db.QueryContext(ctx, query, time.Now())
		if err != nil {
			logger.Error("Failed to query overdue bookings", "error", err)
			return
		}
		defer rows.Close()

		type overdue struct {
			ID            int32
			BookingNumber string
			RenterID      int32
			ProviderID    int32
			EndTime       time.Time
			EquipmentName string
			RenterEmail   string
			ProviderEmail string
		}
		var found []overdue
		for rows.Next() {
			var o overdue
			if err := rows.Scan(&o.ID, &o.BookingNumber, &o.RenterID, &o.ProviderID, &o.EndTime,
				&o.EquipmentName, &o.RenterEmail, &o.ProviderEmail); err != nil {
				logger.Error("Failed to scan overdue booking", "error", err)
				continue
			}
			found = append(found, o)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating overdue bookings", "error", err)
			return
		}

		for _, o := range found {
			message := fmt.Sprintf("Booking %s ran past its scheduled end time", o.BookingNumber)
			jr.createNotification(ctx, o.ProviderID, "Booking Overdue", message, o.BookingNumber)
			jr.createNotification(ctx, o.RenterID, "Booking Overdue", message, o.BookingNumber)

			for _, email := range []string{o.ProviderEmail, o.RenterEmail} {
				if err := jr.services.Email.SendBookingOverdue(ctx, email, o.EquipmentName, o.BookingNumber); err != nil {
					logger.Error("Failed to send overdue email", "booking_number", o.BookingNumber, "error", err)
				}
			}
		}

		logger.Info("Overdue bookings flagged", "count", len(found))
	})
}

// SendStartReminders notifies both parties of confirmed bookings that
// start within the next 24 hours.
func (jr *JobRunner) SendStartReminders() {
	jr.runWithRecovery("SendStartReminders", func() {
		ctx := context.Background()
		now := time.Now()

		query := `
			SELECT b.id, b.booking_number, b.renter_id, b.provider_id, b.start_time,
			       e.name, ru.email, pu.email
			FROM bookings b
			JOIN equipment e ON e.id = b.equipment_id
			JOIN users ru ON ru.id = b.renter_id
			JOIN users pu ON pu.id = b.provider_id
			WHERE b.status = 'confirmed'
			  AND b.start_time >= $1
			  AND b.start_time < $2
		`

		rows, err := jr.db.QueryContext(ctx, query, now, now.Add(24*time.Hour))
		if err != nil {
			logger.Error("Failed to query upcoming bookings", "error", err)
			return
		}
		defer rows.Close()

		type upcoming struct {
			ID            int32
			BookingNumber string
			RenterID      int32
			ProviderID    int32
			StartTime     time.Time
			EquipmentName string
			RenterEmail   string
			ProviderEmail string
		}
		var found []upcoming
		for rows.Next() {
			var u upcoming
			if err := rows.Scan(&u.ID, &u.BookingNumber, &u.RenterID, &u.ProviderID, &u.StartTime,
				&u.EquipmentName, &u.RenterEmail, &u.ProviderEmail); err != nil {
				logger.Error("Failed to scan upcoming booking", "error", err)
				continue
			}
			found = append(found, u)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating upcoming bookings", "error", err)
			return
		}

		for _, u := range found {
			message := fmt.Sprintf("Booking %s starts at %s", u.BookingNumber, u.StartTime.Format(time.RFC1123))
			jr.createNotification(ctx, u.RenterID, "Upcoming Booking", message, u.BookingNumber)
			jr.createNotification(ctx, u.ProviderID, "Upcoming Booking", message, u.BookingNumber)

			for _, email := range []string{u.RenterEmail, u.ProviderEmail} {
				if err := jr.services.Email.SendBookingStartReminder(ctx, email, u.EquipmentName, u.BookingNumber, u.StartTime); err != nil {
					logger.Error("Failed to send start reminder email", "booking_number", u.BookingNumber, "error", err)
				}
			}
		}

		logger.Info("Start reminders sent", "count", len(found))
	})
}

func (jr *JobRunner) createNotification(ctx context.Context, userID int32, title, message, bookingNumber string) {
	n := &domain.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Attributes: map[string]string{
			"type":           "BOOKING_REMINDER",
			"booking_number": bookingNumber,
		},
	}
	if err := jr.store.Notifications().Create(ctx, n); err != nil {
		logger.Error("Failed to create notification", "user_id", userID, "error", err)
	}
}
