package main

import (
	"log"
	"log/slog"
	"net/http"

	"github.com/joho/godotenv"
	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ngelashvili/supra-backend/internal/config"
	"github.com/ngelashvili/supra-backend/internal/db"
	"github.com/ngelashvili/supra-backend/internal/imagestore/local"
	"github.com/ngelashvili/supra-backend/internal/logging"
	"github.com/ngelashvili/supra-backend/internal/search"
	claudegen "github.com/ngelashvili/supra-backend/internal/search/claude"
	geminigen "github.com/ngelashvili/supra-backend/internal/search/gemini"
	"github.com/ngelashvili/supra-backend/internal/service"
	"github.com/ngelashvili/supra-backend/internal/store"
	"github.com/ngelashvili/supra-backend/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	restaurantStore := store.NewRestaurantStore(database)
	dishStore := store.NewDishStore(database)
	userStore := store.NewUserStore(database)
	preferenceStore := store.NewPreferenceStore(database)

	generator := newGenerator(cfg, logger)
	if generator == nil {
		return
	}

	images, err := local.NewLocalImageStore(cfg.ImagePath)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return
	}

	engine := search.NewEngine(generator, logger)

	restaurantService := service.NewRestaurantService(restaurantStore, logger)
	dishService := service.NewDishService(dishStore, restaurantStore, images, logger)
	userService := service.NewUserService(userStore, logger)
	preferenceService := service.NewPreferenceService(preferenceStore, userStore, logger)
	searchService := service.NewSearchService(restaurantStore, engine, logger)

	server := web.NewServer(restaurantService, dishService, userService, preferenceService,
		searchService, cfg.AllowedOrigins, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}

func newGenerator(cfg *config.Config, logger *slog.Logger) search.Generator {
	switch cfg.GenBackend {
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			logger.Error("CLAUDE_API_KEY is required when GEN_BACKEND=claude")
			return nil
		}
		logger.Info("using Claude generation backend", "model", cfg.ClaudeModel)
		return claudegen.NewClient(cfg.ClaudeAPIKey, cfg.ClaudeModel,
			anthropic.WithHTTPClient(&http.Client{Timeout: cfg.GenTimeout}))
	default:
		if cfg.GeminiAPIKey == "" {
			logger.Error("GOOGLE_API_KEY is required when GEN_BACKEND=gemini")
			return nil
		}
		logger.Info("using Gemini generation backend", "model", cfg.GeminiModel)
		return geminigen.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenTimeout)
	}
}
