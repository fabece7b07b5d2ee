package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/ngelashvili/supra-backend/internal/service"
)

type Server struct {
	restaurants *service.RestaurantService
	dishes      *service.DishService
	users       *service.UserService
	preferences *service.PreferenceService
	searches    *service.SearchService
	mux         *http.ServeMux
	cors        *cors.Cors
	logger      *slog.Logger
}

func NewServer(
	restaurants *service.RestaurantService,
	dishes *service.DishService,
	users *service.UserService,
	preferences *service.PreferenceService,
	searches *service.SearchService,
	allowedOrigins []string,
	logger *slog.Logger,
) *Server {
	s := &Server{
		restaurants: restaurants,
		dishes:      dishes,
		users:       users,
		preferences: preferences,
		searches:    searches,
		mux:         http.NewServeMux(),
		logger:      logger,
		cors: cors.New(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Authorization"},
			AllowCredentials: true,
		}),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /restaurants", s.handleCreateRestaurant)
	s.mux.HandleFunc("GET /restaurants", s.handleListRestaurants)
	s.mux.HandleFunc("GET /restaurants/search/name", s.handleFindRestaurantsByName)
	s.mux.HandleFunc("GET /restaurants/search/price-range", s.handleFindRestaurantsByPriceRange)
	s.mux.HandleFunc("GET /restaurants/search/location", s.handleFindRestaurantsByLocation)
	s.mux.HandleFunc("POST /restaurants/search-ai", s.handleAISearch)
	s.mux.HandleFunc("POST /restaurants/search-ai/stream", s.handleAISearchStream)
	s.mux.HandleFunc("GET /restaurants/{id}", s.handleGetRestaurant)
	s.mux.HandleFunc("PUT /restaurants/{id}", s.handleUpdateRestaurant)
	s.mux.HandleFunc("DELETE /restaurants/{id}", s.handleDeleteRestaurant)
	s.mux.HandleFunc("GET /restaurants/{id}/dishes", s.handleListDishesByRestaurant)
	s.mux.HandleFunc("DELETE /restaurants/{id}/dishes", s.handleDeleteDishesByRestaurant)

	s.mux.HandleFunc("POST /dishes", s.handleCreateDish)
	s.mux.HandleFunc("GET /dishes", s.handleListDishes)
	s.mux.HandleFunc("GET /dishes/search/name", s.handleFindDishesByName)
	s.mux.HandleFunc("GET /dishes/search/tags", s.handleFindDishesByTags)
	s.mux.HandleFunc("GET /dishes/search/allergens", s.handleFindDishesWithoutAllergens)
	s.mux.HandleFunc("GET /dishes/search/price", s.handleFindDishesByPrice)
	s.mux.HandleFunc("GET /dishes/{id}", s.handleGetDish)
	s.mux.HandleFunc("PUT /dishes/{id}", s.handleUpdateDish)
	s.mux.HandleFunc("DELETE /dishes/{id}", s.handleDeleteDish)
	s.mux.HandleFunc("POST /dishes/{id}/image", s.handleUploadDishImage)
	s.mux.HandleFunc("GET /dishes/{id}/image", s.handleGetDishImage)

	s.mux.HandleFunc("POST /users", s.handleCreateUser)
	s.mux.HandleFunc("GET /users", s.handleListUsers)
	s.mux.HandleFunc("GET /users/email/{email}", s.handleFindUserByEmail)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	s.mux.HandleFunc("PUT /users/{id}", s.handleUpdateUser)
	s.mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)
	s.mux.HandleFunc("GET /users/{id}/preferences", s.handleListPreferencesByUser)
	s.mux.HandleFunc("DELETE /users/{id}/preferences", s.handleDeletePreferencesByUser)

	s.mux.HandleFunc("POST /preferences", s.handleCreatePreference)
	s.mux.HandleFunc("GET /preferences", s.handleListPreferences)
	s.mux.HandleFunc("GET /preferences/{id}", s.handleGetPreference)
	s.mux.HandleFunc("PUT /preferences/{id}", s.handleUpdatePreference)
	s.mux.HandleFunc("DELETE /preferences/{id}", s.handleDeletePreference)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush passes through so SSE streaming keeps working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.cors.Handler(securityHeaders(s.mux))).ServeHTTP(w, r)
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return srv.ListenAndServe()
}
