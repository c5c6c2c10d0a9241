package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"agrirent-backend/internal/domain"
	"agrirent-backend/internal/repository"
	"agrirent-backend/internal/service"
)

// EquipmentHandler exposes the equipment catalog over REST.
type EquipmentHandler struct {
	equipment service.EquipmentService
	ratings   service.RatingAggregator
}

func NewEquipmentHandler(equipment service.EquipmentService, ratings service.RatingAggregator) *EquipmentHandler {
	return &EquipmentHandler{equipment: equipment, ratings: ratings}
}

func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var eq domain.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if eq.Name == "" {
		respondBadRequest(w, "name is required")
		return
	}
	if _, err := domain.ParseEquipmentCategory(string(eq.Category)); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if eq.RatePerHourCents <= 0 {
		respondBadRequest(w, "rate_per_hour_cents must be positive")
		return
	}

	if err := h.equipment.AddEquipment(r.Context(), actorFrom(r), &eq); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, eq)
}

func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid equipment id")
		return
	}

	var eq domain.Equipment
	if err := json.NewDecoder(r.Body).Decode(&eq); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if eq.Name == "" {
		respondBadRequest(w, "name is required")
		return
	}
	if _, err := domain.ParseEquipmentCategory(string(eq.Category)); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if eq.RatePerHourCents <= 0 {
		respondBadRequest(w, "rate_per_hour_cents must be positive")
		return
	}
	eq.ID = id

	updated, err := h.equipment.UpdateEquipment(r.Context(), actorFrom(r), &eq)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid equipment id")
		return
	}

	eq, err := h.equipment.GetEquipment(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eq)
}

func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	var f repository.EquipmentFilter

	if s := r.URL.Query().Get("category"); s != "" {
		category, err := domain.ParseEquipmentCategory(s)
		if err != nil {
			respondBadRequest(w, err.Error())
			return
		}
		f.Category = &category
	}
	if s := r.URL.Query().Get("owner_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			respondBadRequest(w, "invalid owner_id")
			return
		}
		ownerID := int32(id)
		f.OwnerID = &ownerID
	}
	f.OnlyAvailable = r.URL.Query().Get("available") == "true"

	items, err := h.equipment.ListEquipment(r.Context(), f)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, http.StatusOK, items, len(items))
}

func (h *EquipmentHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		respondBadRequest(w, "lat and lng are required")
		return
	}

	radiusKm := 50.0
	if s := r.URL.Query().Get("radius_km"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v <= 0 {
			respondBadRequest(w, "invalid radius_km")
			return
		}
		radiusKm = v
	}
	limit := int32(20)
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil || v <= 0 {
			respondBadRequest(w, "invalid limit")
			return
		}
		limit = int32(v)
	}

	items, err := h.equipment.NearbyEquipment(r.Context(), lat, lng, radiusKm, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, http.StatusOK, items, len(items))
}

type availabilityRequest struct {
	IsAvailable bool `json:"is_available"`
}

func (h *EquipmentHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid equipment id")
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	eq, err := h.equipment.SetAvailability(r.Context(), actorFrom(r), id, req.IsAvailable)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eq)
}

func (h *EquipmentHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid equipment id")
		return
	}

	reviews, err := h.equipment.ListReviews(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondList(w, http.StatusOK, reviews, len(reviews))
}

type reviewRequest struct {
	Rating  int32  `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// AddReview attaches a standalone review, outside the booking rating flow.
func (h *EquipmentHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondBadRequest(w, "invalid equipment id")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	review, err := h.ratings.AttachReview(r.Context(), id, actorFrom(r).ID, req.Rating, req.Comment)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}
