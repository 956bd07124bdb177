// Package main runs the commerce service layer HTTP server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap/zapcore"

	"github.com/commercekit/service-layer/internal/app"
	"github.com/commercekit/service-layer/internal/app/httpapi"
	"github.com/commercekit/service-layer/internal/app/storage/postgres"
	"github.com/commercekit/service-layer/internal/config"
	"github.com/commercekit/service-layer/internal/crypto"
	"github.com/commercekit/service-layer/internal/middleware"
	"github.com/commercekit/service-layer/internal/platform/migrations"
	"github.com/commercekit/service-layer/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/server.yaml", "Path to config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("server").WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	log := logger.New("server", level)
	defer log.Sync()

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.WithError(err).Error("failed to open database")
			os.Exit(1)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(ctx, db); err != nil {
			cancel()
			log.WithError(err).Error("failed to apply migrations")
			os.Exit(1)
		}
		cancel()

		store := postgres.New(db)
		stores = app.Stores{
			Users:           store,
			Customers:       store,
			Products:        store,
			Orders:          store,
			PaymentProfiles: store,
		}
		log.Info("using postgres stores")
	} else {
		log.Warn("no database configured, using in-memory stores")
	}

	hasher := crypto.NewBcryptHasher(cfg.Auth.BcryptCost)
	application := app.New(stores, hasher, log)

	router := httpapi.NewRouter(application, log)
	auth := middleware.NewAuth(cfg.Auth.Secret, log)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, log)
	cors := middleware.NewCORSMiddleware(cfg.CORS.Origins)

	handler := cors.Handler(rateLimiter.Handler(auth.Handler(router)))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown error")
	}
}
