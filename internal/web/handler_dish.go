package web

import (
	"io"
	"net/http"
	"strconv"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

type dishPayload struct {
	RestaurantID int64    `json:"restaurantId"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Price        float64  `json:"price"`
	Ingredients  []string `json:"ingredients"`
	Tags         []string `json:"tags"`
	Allergens    []string `json:"allergens"`
}

func (p dishPayload) toDomain(id int64) *domain.Dish {
	return &domain.Dish{
		ID:           id,
		RestaurantID: p.RestaurantID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Ingredients:  p.Ingredients,
		Tags:         p.Tags,
		Allergens:    p.Allergens,
	}
}

func (s *Server) handleCreateDish(w http.ResponseWriter, r *http.Request) {
	var payload dishPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.dishes.Create(r.Context(), payload.toDomain(0))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListDishes(w http.ResponseWriter, r *http.Request) {
	dishes, err := s.dishes.List(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleListDishesByRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	dishes, err := s.dishes.ListByRestaurant(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleGetDish(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish id")
		return
	}

	dish, err := s.dishes.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

func (s *Server) handleFindDishesByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "name query parameter is required")
		return
	}

	dishes, err := s.dishes.FindByName(r.Context(), name)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleFindDishesByTags(w http.ResponseWriter, r *http.Request) {
	tags := r.URL.Query()["tags"]
	if len(tags) == 0 {
		writeError(w, http.StatusBadRequest, "tags query parameter is required")
		return
	}

	dishes, err := s.dishes.FindByTags(r.Context(), tags)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleFindDishesWithoutAllergens(w http.ResponseWriter, r *http.Request) {
	allergens := r.URL.Query()["allergens"]
	if len(allergens) == 0 {
		writeError(w, http.StatusBadRequest, "allergens query parameter is required")
		return
	}

	dishes, err := s.dishes.FindWithoutAllergens(r.Context(), allergens)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleFindDishesByPrice(w http.ResponseWriter, r *http.Request) {
	maxPrice, err := strconv.ParseFloat(r.URL.Query().Get("max"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "max query parameter must be a number")
		return
	}

	dishes, err := s.dishes.FindByPriceBelow(r.Context(), maxPrice)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func (s *Server) handleUpdateDish(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish id")
		return
	}

	var payload dishPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.dishes.Update(r.Context(), payload.toDomain(id))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDish(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish id")
		return
	}

	if err := s.dishes.Delete(r.Context(), id); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDishesByRestaurant(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant id")
		return
	}

	if err := s.dishes.DeleteByRestaurant(r.Context(), id); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUploadDishImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish id")
		return
	}

	file, mimeType, ok := formImage(w, r, s.logger)
	if !ok {
		return
	}

	dish, err := s.dishes.UploadImage(r.Context(), id, file, mimeType)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

func (s *Server) handleGetDishImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dish id")
		return
	}

	reader, mimeType, err := s.dishes.GetImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.Error("failed to close image reader", "error", err)
		}
	}()

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("failed to write image response", "dish_id", id, "error", err)
	}
}
