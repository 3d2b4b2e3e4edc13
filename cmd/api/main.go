package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	jsonhandler "github.com/apex/log/handlers/json"
	texthandler "github.com/apex/log/handlers/text"

	"github.com/bryanwahyu/photo-critic/internal/application"
	appphotos "github.com/bryanwahyu/photo-critic/internal/application/photos"
	appusers "github.com/bryanwahyu/photo-critic/internal/application/users"
	"github.com/bryanwahyu/photo-critic/internal/config"
	"github.com/bryanwahyu/photo-critic/internal/domain/ai"
	"github.com/bryanwahyu/photo-critic/internal/domain/photos"
	"github.com/bryanwahyu/photo-critic/internal/domain/users"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/claude"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/deepseek"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/openai"
	"github.com/bryanwahyu/photo-critic/internal/infra/ai/providers"
	"github.com/bryanwahyu/photo-critic/internal/infra/auth"
	"github.com/bryanwahyu/photo-critic/internal/infra/db/migrations"
	mysqlp "github.com/bryanwahyu/photo-critic/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/photo-critic/internal/infra/db/postgres"
	"github.com/bryanwahyu/photo-critic/internal/infra/httpserver"
	"github.com/bryanwahyu/photo-critic/internal/infra/imaging"
	minioStore "github.com/bryanwahyu/photo-critic/internal/infra/storage"
	"github.com/bryanwahyu/photo-critic/internal/metrics"
	"github.com/bryanwahyu/photo-critic/internal/middleware"
)

func main() {
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	setupLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	metrics.Register()
	ctx := context.Background()

	db, photoRepo, userRepo, err := openDatabase(ctx, cfg)
	if err != nil {
		log.Fatalf("%s connect error: %v", cfg.Database.Driver, err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db, cfg.Database.Driver); err != nil {
			log.Fatalf("migration error: %v", err)
		}
	}

	health := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}

	var images photos.ImageStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		images = store
		health["minio"] = store
	}

	fallback, err := ai.ParseProvider(cfg.AI.DefaultModel)
	if err != nil {
		log.Fatalf("default model: %v", err)
	}
	registry := newRegistry(cfg, fallback)

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.JWTTTL())

	photoSvc := &appphotos.Service{
		Repo: photoRepo,
		Normalizer: imaging.New(imaging.Options{
			TargetBytes:      cfg.Image.TargetBytes,
			InitialQuality:   cfg.Image.InitialQuality,
			QualityStep:      cfg.Image.QualityStep,
			MinQuality:       cfg.Image.MinQuality,
			ThumbnailSize:    cfg.Image.ThumbnailSize,
			ThumbnailQuality: cfg.Image.ThumbnailQuality,
			SkipOrientation:  cfg.Image.SkipOrientation,
		}),
		Providers: registry,
		Images:    images,
		Clock:     application.SystemClock{},
		TempDir:   cfg.Server.UploadDir,
	}
	userSvc := &appusers.Service{
		Repo:   userRepo,
		Tokens: tokens,
		Clock:  application.SystemClock{},
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			limiter.Cleanup(now)
		}
	}()

	available := make([]string, 0, len(ai.Providers))
	for _, p := range registry.Available() {
		available = append(available, p.String())
	}

	handler := httpserver.NewRouter(httpserver.Options{
		Photos:         photoSvc,
		Users:          userSvc,
		Verifier:       tokens,
		Limiter:        limiter,
		Health:         health,
		Providers:      available,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		// provider calls can take a while
		WriteTimeout: cfg.AITimeout() + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"addr":     addr,
			"driver":   cfg.Database.Driver,
			"default":  fallback,
			"minio":    cfg.Minio.Enabled,
			"provider": available,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.WithError(err).Error("shutdown error")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Log.Format == "json" {
		log.SetHandler(jsonhandler.New(os.Stderr))
	} else {
		log.SetHandler(texthandler.New(os.Stderr))
	}
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, photos.Repository, users.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, pgp.NewPhotoRepository(db), pgp.NewUserRepository(db), nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		return db, mysqlp.NewPhotoRepository(db), mysqlp.NewUserRepository(db), nil
	}
}

// newRegistry registers every provider; a missing key surfaces as a
// provider error on first use rather than at start-up.
func newRegistry(cfg *config.Config, fallback ai.Provider) *providers.Registry {
	httpClient := &http.Client{Timeout: cfg.AITimeout()}
	for name, key := range map[ai.Provider]string{
		ai.ProviderDeepSeek: cfg.AI.DeepSeek.APIKey,
		ai.ProviderOpenAI:   cfg.AI.OpenAI.APIKey,
		ai.ProviderClaude:   cfg.AI.Claude.APIKey,
	} {
		if key == "" {
			log.WithField("provider", name).Warn("no api key configured")
		}
	}
	return providers.NewRegistry(fallback,
		providers.Instrument(deepseek.NewClient(cfg.AI.DeepSeek.APIKey, cfg.AI.DeepSeek.BaseURL, cfg.AI.DeepSeek.Model, httpClient)),
		providers.Instrument(openai.NewCompatibleClient(ai.ProviderOpenAI, cfg.AI.OpenAI.APIKey, cfg.AI.OpenAI.BaseURL, cfg.AI.OpenAI.Model, httpClient)),
		providers.Instrument(claude.NewClient(cfg.AI.Claude.APIKey, cfg.AI.Claude.BaseURL, cfg.AI.Claude.Model, httpClient)),
	)
}
