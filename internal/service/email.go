package service

import (
	"context"
	"fmt"
	"time"

	sendgrid "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendgridEmailService struct {
	apiKey    string
	fromEmail string
	fromName  string
}

// NewSendGridEmailService builds the production email sender. Pass an
// empty API key to disable sending, e.g. in dev environments.
func NewSendGridEmailService(apiKey, fromEmail, fromName string) EmailService {
	if apiKey == "" {
		return noopEmailService{}
	}
	return &sendgridEmailService{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *sendgridEmailService) send(ctx context.Context, to, subject, plainText, htmlContent string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, plainText, htmlContent)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	return nil
}

func (s *sendgridEmailService) SendBookingRequested(ctx context.Context, providerEmail, renterName, equipmentName, bookingNumber string) error {
	subject := fmt.Sprintf("New Booking Request: %s", equipmentName)
	plainText := fmt.Sprintf("%s has requested to book your %s (booking %s).", renterName, equipmentName, bookingNumber)
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>New Booking Request</h2>
		<p><strong>%s</strong> has requested to book your <strong>%s</strong>.</p>
		<p>Booking number: %s</p>
	</body></html>`, renterName, equipmentName, bookingNumber)
	return s.send(ctx, providerEmail, subject, plainText, htmlContent)
}

func (s *sendgridEmailService) SendBookingConfirmed(ctx context.Context, renterEmail, equipmentName, bookingNumber string) error {
	subject := fmt.Sprintf("Booking Confirmed: %s", equipmentName)
	plainText := fmt.Sprintf("Your booking %s for %s has been confirmed.", bookingNumber, equipmentName)
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>Booking Confirmed</h2>
		<p>Your booking <strong>%s</strong> for <strong>%s</strong> has been confirmed.</p>
	</body></html>`, bookingNumber, equipmentName)
	return s.send(ctx, renterEmail, subject, plainText, htmlContent)
}

func (s *sendgridEmailService) SendBookingRejected(ctx context.Context, renterEmail, equipmentName, bookingNumber string) error {
	subject := fmt.Sprintf("Booking Rejected: %s", equipmentName)
	plainText := fmt.Sprintf("Your booking %s for %s has been rejected by the provider.", bookingNumber, equipmentName)
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>Booking Rejected</h2>
		<p>Your booking <strong>%s</strong> for <strong>%s</strong> has been rejected by the provider.</p>
	</body></html>`, bookingNumber, equipmentName)
	return s.send(ctx, renterEmail, subject, plainText, htmlContent)
}

func (s *sendgridEmailService) SendBookingCancelled(ctx context.Context, providerEmail, renterName, equipmentName, bookingNumber, reason string) error {
	subject := fmt.Sprintf("Booking Cancelled: %s", equipmentName)
	plainText := fmt.Sprintf("%s cancelled booking %s for %s. Reason: %s", renterName, bookingNumber, equipmentName, reason)
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>Booking Cancelled</h2>
		<p><strong>%s</strong> cancelled booking <strong>%s</strong> for <strong>%s</strong>.</p>
		<p>Reason: %s</p>
	</body></html>`, renterName, bookingNumber, equipmentName, reason)
	return s.send(ctx, providerEmail, subject, plainText, htmlContent)
}

func (s *sendgridEmailService) SendBookingCompleted(ctx context.Context, email, equipmentName, bookingNumber string, totalCents int32) error {
	subject := fmt.Sprintf("Booking Completed: %s", equipmentName)
	plainText := fmt.Sprintf("Booking %s for %s is complete. Total: %.2f", bookingNumber, equipmentName, float64(totalCents)/100)
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>Booking Completed</h2>
		<p>Booking <strong>%s</strong> for <strong>%s</strong> is complete.</p>
		<p>Total: %.2f</p>
	</body></html>`, bookingNumber, equipmentName, float64(totalCents)/100)
	return s.send(ctx, email, subject, plainText, htmlContent)
}

func (s *sendgridEmailService) SendBookingOverdue(ctx context.Context, email, equipmentName, bookingNumber string) error {
	subject := fmt.Sprintf("Booking Overdue: %s", equipmentName)
	plainText := fmt.Sprintf("Booking %s for %s ran past its scheduled end time.", bookingNumber, equipmentName)
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>Booking Overdue</h2>
		<p>Booking <strong>%s</strong> for <strong>%s</strong> ran past its scheduled end time.</p>
		<p>Please complete or extend the booking.</p>
	</body></html>`, bookingNumber, equipmentName)
	return s.send(ctx, email, subject, plainText, htmlContent)
}

func (s *sendgridEmailService) SendBookingStartReminder(ctx context.Context, email, equipmentName, bookingNumber string, startTime time.Time) error {
	subject := fmt.Sprintf("Upcoming Booking: %s", equipmentName)
	plainText := fmt.Sprintf("Booking %s for %s starts at %s.", bookingNumber, equipmentName, startTime.Format(time.RFC1123))
	htmlContent := fmt.Sprintf(`<html><body>
		<h2>Upcoming Booking</h2>
		<p>Booking <strong>%s</strong> for <strong>%s</strong> starts at %s.</p>
	</body></html>`, bookingNumber, equipmentName, startTime.Format(time.RFC1123))
	return s.send(ctx, email, subject, plainText, htmlContent)
}

// noopEmailService is used when no SendGrid API key is configured.
type noopEmailService struct{}

func (noopEmailService) SendBookingRequested(context.Context, string, string, string, string) error {
	return nil
}
func (noopEmailService) SendBookingConfirmed(context.Context, string, string, string) error {
	return nil
}
func (noopEmailService) SendBookingRejected(context.Context, string, string, string) error {
	return nil
}
func (noopEmailService) SendBookingCancelled(context.Context, string, string, string, string, string) error {
	return nil
}
func (noopEmailService) SendBookingCompleted(context.Context, string, string, string, int32) error {
	return nil
}
func (noopEmailService) SendBookingOverdue(context.Context, string, string, string) error {
	return nil
}
func (noopEmailService) SendBookingStartReminder(context.Context, string, string, string, time.Time) error {
	return nil
}
