package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/http/handlers"
	httpapi "server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/providers/genai"
	"server/internal/providers/image"
	"server/internal/regen"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY missing, generation calls will fail")
	}
	geminiClient := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
		Timeout: cfg.GenerationTimeout,
	})
	gateway := image.NewGateway(
		geminiClient,
		image.DefaultPolicy(cfg.GeminiModelPro, cfg.GeminiModelFlash, cfg.GenerationRetries),
		cfg.GenerationRPS,
		logger,
	)

	uploader, staticDir, err := buildUploader(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure uploader")
	}

	orchestrator := regen.New(regen.Deps{
		Ledger:          repo.NewCreditLedger(dbpool),
		Revisions:       repo.NewRevisionRepository(dbpool),
		Logos:           repo.NewLogoRepository(dbpool),
		Gateway:         gateway,
		Uploader:        uploader,
		FallbackEnabled: cfg.GenerationFallback,
		UploadPreset:    cfg.UploadPreset,
		Logger:          logger,
	})

	runner := infra.NewSQLRunner(dbpool, logger)
	app := handlers.NewApp(runner, orchestrator, logger)
	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       staticDir,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

// buildUploader selects the upload service client when one is configured, and
// otherwise falls back to the local file store served under /static.
func buildUploader(cfg *infra.Config) (storage.Uploader, string, error) {
	if cfg.UploadBaseURL != "" {
		return storage.NewHTTPUploader(storage.HTTPUploaderOptions{
			BaseURL: cfg.UploadBaseURL,
			APIKey:  cfg.UploadAPIKey,
		}), "", nil
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath)
	if err != nil {
		return nil, "", err
	}
	return storage.NewLocalUploader(store, "http://localhost:"+cfg.Port+"/static", nil), storagePath, nil
}
