package web

import (
	"net/http"

	"github.com/ngelashvili/supra-backend/internal/domain"
)

type preferencePayload struct {
	UserID     int64  `json:"userId"`
	Tag        string `json:"tag"`
	Atmosphere string `json:"atmosphere"`
	Allergen   string `json:"allergen"`
}

func (p preferencePayload) toDomain(id int64) *domain.UserPreference {
	return &domain.UserPreference{
		ID:         id,
		UserID:     p.UserID,
		Tag:        p.Tag,
		Atmosphere: p.Atmosphere,
		Allergen:   p.Allergen,
	}
}

func (s *Server) handleCreatePreference(w http.ResponseWriter, r *http.Request) {
	var payload preferencePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref, err := s.preferences.Create(r.Context(), payload.toDomain(0))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pref)
}

func (s *Server) handleListPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := s.preferences.List(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleListPreferencesByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	prefs, err := s.preferences.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleDeletePreferencesByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := s.preferences.DeleteByUser(r.Context(), userID); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid preference id")
		return
	}

	pref, err := s.preferences.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

func (s *Server) handleUpdatePreference(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid preference id")
		return
	}

	var payload preferencePayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pref, err := s.preferences.Update(r.Context(), payload.toDomain(id))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pref)
}

func (s *Server) handleDeletePreference(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid preference id")
		return
	}

	if err := s.preferences.Delete(r.Context(), id); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
