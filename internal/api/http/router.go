// Package http wires the REST API: routing, auth middleware and the JSON
// response envelope.
package http

import (
	"net/http"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/security"
	"agrirent-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services groups everything the router needs.
type Services struct {
	Bookings      service.BookingService
	Equipment     service.EquipmentService
	Ratings       service.RatingAggregator
	Notifications service.NotificationService
}

// NewRouter builds the API route table. All /api routes require a
// valid access token.
func NewRouter(svcs Services, tokens security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondMessage(w, http.StatusOK, "ok")
	}).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))

	bookings := NewBookingHandler(svcs.Bookings)
	api.HandleFunc("/bookings", bookings.Create).Methods("POST")
	api.HandleFunc("/bookings", bookings.List).Methods("GET")
	api.HandleFunc("/bookings/{id:[0-9]+}", bookings.Get).Methods("GET")
	api.HandleFunc("/bookings/{id:[0-9]+}/status", bookings.Transition).Methods("PUT")
	api.HandleFunc("/bookings/{id:[0-9]+}/tracking", bookings.UpdateTracking).Methods("PUT")
	api.HandleFunc("/bookings/{id:[0-9]+}/rating", bookings.AddRating).Methods("POST")

	equipment := NewEquipmentHandler(svcs.Equipment, svcs.Ratings)
	api.HandleFunc("/equipment", equipment.List).Methods("GET")
	api.HandleFunc("/equipment/nearby", equipment.Nearby).Methods("GET")
	api.HandleFunc("/equipment/{id:[0-9]+}", equipment.Get).Methods("GET")
	api.HandleFunc("/equipment/{id:[0-9]+}/reviews", equipment.ListReviews).Methods("GET")
	api.HandleFunc("/equipment/{id:[0-9]+}/reviews", equipment.AddReview).Methods("POST")

	providerOnly := api.NewRoute().Subrouter()
	providerOnly.Use(RequireRole(domain.RoleProvider, domain.RoleAdmin))
	providerOnly.HandleFunc("/equipment", equipment.Create).Methods("POST")
	providerOnly.HandleFunc("/equipment/{id:[0-9]+}", equipment.Update).Methods("PUT")
	providerOnly.HandleFunc("/equipment/{id:[0-9]+}/availability", equipment.SetAvailability).Methods("PUT")

	notifications := NewNotificationHandler(svcs.Notifications)
	api.HandleFunc("/notifications", notifications.List).Methods("GET")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", notifications.MarkAsRead).Methods("PUT")

	return router
}
