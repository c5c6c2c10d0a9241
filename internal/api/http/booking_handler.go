package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/service"

	"github.com/gorilla/mux"
)

// BookingHandler exposes the booking lifecycle over REST.
type BookingHandler struct {
	bookings service.BookingService
}

func NewBookingHandler(bookings service.BookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type createBookingRequest struct {
	EquipmentID       int32     `json:"equipment_id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	Type              string    `json:"type"`
	PaymentMethod     string    `json:"payment_method,omitempty"`
	DeliveryRequested bool      `json:"delivery_requested"`
	OperatorIncluded  bool      `json:"operator_included"`
	Notes             string    `json:"notes,omitempty"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.EquipmentID == 0 {
		respondBadRequest(w, "equipment_id is required")
		return
	}

	bookingType, err := domain.ParseBookingType(req.Type)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	in := service.CreateBookingInput{
		EquipmentID:       req.EquipmentID,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Type:              bookingType,
		DeliveryRequested: req.DeliveryRequested,
		OperatorIncluded:  req.OperatorIncluded,
		Notes:             req.Notes,
	}
	if req.PaymentMethod != "" {
		method, err := domain.ParsePaymentMethod(req.PaymentMethod)
		if err != nil {
			respondBadRequest(w, err.Error())
			return
		}
		in.PaymentMethod = method
	}

	booking, err := h.bookings.CreateBooking(r.Context(), actorFrom(r), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booking)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid booking id")
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), actorFrom(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	var in service.ListBookingsInput

	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseBookingStatus(s)
		if err != nil {
			respondBadRequest(w, err.Error())
			return
		}
		in.Status = &status
	}
	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondBadRequest(w, "invalid from timestamp")
			return
		}
		in.From = &t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			respondBadRequest(w, "invalid to timestamp")
			return
		}
		in.To = &t
	}

	bookings, err := h.bookings.ListBookings(r.Context(), actorFrom(r), in)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, http.StatusOK, bookings, len(bookings))
}

type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid booking id")
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	target, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	booking, err := h.bookings.TransitionBooking(r.Context(), actorFrom(r), id, target, req.Note)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

type trackingRequest struct {
	Latitude         float64    `json:"latitude"`
	Longitude        float64    `json:"longitude"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
}

func (h *BookingHandler) UpdateTracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid booking id")
		return
	}

	var req trackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		respondBadRequest(w, "invalid coordinates")
		return
	}

	booking, err := h.bookings.UpdateTracking(r.Context(), actorFrom(r), id, req.Latitude, req.Longitude, req.EstimatedArrival)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

type ratingRequest struct {
	EquipmentRating int32  `json:"equipment_rating"`
	EquipmentReview string `json:"equipment_review,omitempty"`
	OperatorRating  *int32 `json:"operator_rating,omitempty"`
	OperatorReview  string `json:"operator_review,omitempty"`
}

func (h *BookingHandler) AddRating(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid booking id")
		return
	}

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	booking, err := h.bookings.AddRating(r.Context(), actorFrom(r), id, service.RatingInput{
		EquipmentRating: req.EquipmentRating,
		EquipmentReview: req.EquipmentReview,
		OperatorRating:  req.OperatorRating,
		OperatorReview:  req.OperatorReview,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return int32(id), nil
}
