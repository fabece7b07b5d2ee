package web

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ngelashvili/supra-backend/internal/search"
	"github.com/ngelashvili/supra-backend/internal/service"
)

// maxUploadSize caps the multipart form, comfortably above the 20 MiB image
// limit enforced at ingestion.
const maxUploadSize = 24 << 20

type aiSearchPayload struct {
	Text        string            `json:"text"`
	Preferences string            `json:"preferences"`
	Limit       int               `json:"limit"`
	Selection   *search.Selection `json:"selection"`
}

// parseSearchInput accepts either a JSON body or a multipart form with an
// optional image part named "image".
func parseSearchInput(r *http.Request) (service.SearchInput, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			return service.SearchInput{}, fmt.Errorf("failed to parse form: %w", err)
		}

		in := service.SearchInput{
			Text:        r.FormValue("text"),
			Preferences: r.FormValue("preferences"),
		}
		in.Limit, _ = strconv.Atoi(r.FormValue("limit"))
		if sel := r.FormValue("selection"); sel != "" {
			var selection search.Selection
			if err := json.Unmarshal([]byte(sel), &selection); err != nil {
				return service.SearchInput{}, fmt.Errorf("invalid selection context: %w", err)
			}
			in.Prior = &selection
		}

		file, header, err := r.FormFile("image")
		if err == nil {
			defer func() { _ = file.Close() }()
			data, err := io.ReadAll(file)
			if err != nil {
				return service.SearchInput{}, fmt.Errorf("failed to read image: %w", err)
			}
			in.ImageData = data
			in.ImageName = header.Filename
		}
		return in, nil
	}

	var payload aiSearchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return service.SearchInput{}, fmt.Errorf("invalid request body: %w", err)
	}
	return service.SearchInput{
		Text:        payload.Text,
		Preferences: payload.Preferences,
		Limit:       payload.Limit,
		Prior:       payload.Selection,
	}, nil
}

func (s *Server) handleAISearch(w http.ResponseWriter, r *http.Request) {
	in, err := parseSearchInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.searches.Search(r.Context(), in)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAISearchStream responds with an SSE stream of raw backend fragments.
// Each event carries {"text": "..."}; the stream ends with a "done" event.
func (s *Server) handleAISearchStream(w http.ResponseWriter, r *http.Request) {
	in, err := parseSearchInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, err := s.searches.SearchStream(r.Context(), in)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for chunk := range ch {
		if chunk.Err != nil {
			s.logger.Error("stream failed", "error", chunk.Err)
			writeSSE(w, flusher, "error", map[string]string{"message": chunk.Err.Error()})
			return
		}
		writeSSE(w, flusher, "", map[string]string{"text": chunk.Text})
	}

	writeSSE(w, flusher, "done", map[string]string{})
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to encode sse payload", "error", err)
		return
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}

// formImage pulls the uploaded image part out of a multipart request. The
// MIME type comes from the filename extension, matching the ingestion rules.
func formImage(w http.ResponseWriter, r *http.Request, logger *slog.Logger) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse form")
		return nil, "", false
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return nil, "", false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error("failed to read uploaded image", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return nil, "", false
	}

	mimeType := mime.TypeByExtension(filepath.Ext(header.Filename))
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/jpeg"
	}
	return data, mimeType, true
}
