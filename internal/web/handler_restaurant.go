package web

import (
	"net/http"
	"strconv"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

type restaurantPayload struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	WorkingHours string   `json:"workingHours"`
	Phone        string   `json:"phone"`
	PriceRange   int      `json:"priceRange"`
	Atmosphere   []string `json:"atmosphere"`
}

func (p restaurantPayload) toDomain(id int64) *domain.Restaurant {
	return &domain.Restaurant{
		ID:           id,
		Name:         p.Name,
		Address:      p.Address,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		WorkingHours: p.WorkingHours,
		Phone:        p.Phone,
		PriceRange:   p.PriceRange,
		Atmosphere:   p.Atmosphere,
	}
}

func (s *Server) handleCreateRestaurant(w http.ResponseWriter, r *http.Request) {
	var payload restaurantPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.restaurants.Create(r.Context(), payload.toDomain(0))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListRestaurants(w http.ResponseWriter, r *http.Request) {
	restaurants, err := s.restaurants.List(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (s *Server) handleGetRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	restaurant, err := s.restaurants.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurant)
}

func (s *Server) handleFindRestaurantsByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}

	restaurants, err := s.restaurants.FindByName(r.Context(), name)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (s *Server) handleFindRestaurantsByPriceRange(w http.ResponseWriter, r *http.Request) {
	priceRange, err := strconv.Atoi(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "range query parameter must be an integer")
		return
	}

	restaurants, err := s.restaurants.FindByPriceRange(r.Context(), priceRange)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (s *Server) handleFindRestaurantsByLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, latErr := strconv.ParseFloat(q.Get("latitude"), 64)
	lon, lonErr := strconv.ParseFloat(q.Get("longitude"), 64)
	if latErr != nil || lonErr != nil {
		writeError(w, http.StatusBadRequest, "latitude and longitude query parameters are required")
		return
	}
	radius, err := strconv.ParseFloat(q.Get("radius"), 64)
	if err != nil {
		radius = 1
	}

	restaurants, err := s.restaurants.FindByLocation(r.Context(), lat, lon, radius)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, restaurants)
}

func (s *Server) handleUpdateRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	var payload restaurantPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.restaurants.Update(r.Context(), payload.toDomain(id))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	if err := s.restaurants.Delete(r.Context(), id); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
