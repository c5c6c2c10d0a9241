// Package notify relays live booking tracking updates to subscribed
// mobile clients over Firebase Cloud Messaging.
package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Publisher broadcasts tracking positions for an active booking. Clients
// subscribe to the per-booking topic to follow the equipment in transit.
type Publisher interface {
	PublishTracking(ctx context.Context, bookingNumber string, lat, lng float64, eta *time.Time) error
}

type fcmPublisher struct {
	client *messaging.Client
}

// NewFCMPublisher initializes a Firebase app from the given service
// account credentials file and returns a topic-based tracking publisher.
func NewFCMPublisher(ctx context.Context, credentialsFile string) (Publisher, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &fcmPublisher{client: client}, nil
}

func (p *fcmPublisher) PublishTracking(ctx context.Context, bookingNumber string, lat, lng float64, eta *time.Time) error {
	data := map[string]string{
		"type":           "TRACKING_UPDATE",
		"booking_number": bookingNumber,
		"latitude":       strconv.FormatFloat(lat, 'f', -1, 64),
		"longitude":      strconv.FormatFloat(lng, 'f', -1, 64),
		"updated_at":     time.Now().UTC().Format(time.RFC3339),
	}
	if eta != nil {
		data["estimated_arrival"] = eta.UTC().Format(time.RFC3339)
	}

	_, err := p.client.Send(ctx, &messaging.Message{
		Topic: "booking-" + bookingNumber,
		Data:  data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish tracking update: %w", err)
	}
	return nil
}

// NewNoopPublisher returns a publisher that drops every update. Used when
// Firebase credentials are not configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

type noopPublisher struct{}

func (noopPublisher) PublishTracking(context.Context, string, float64, float64, *time.Time) error {
	return nil
}
