// cmd/membership/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/lib/pq"

	"membershipd/internal/auth"
	"membershipd/internal/config"
	"membershipd/internal/logging"
	"membershipd/internal/membership"
	"membershipd/internal/server"
	"membershipd/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", "err", err)
	}

	logger, err := logging.New(os.Stderr, cfg.Log)
	if err != nil {
		log.Fatal("Failed to build logger", "err", err)
	}
	log.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Membership service stopped", "err", err)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx, logger)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.OTLPEndpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Failed to flush traces", "err", err)
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	limiter := membership.NewCreateLimiter(cfg.CreateRatePerMinute, cfg.CreateBurst)
	svc := membership.NewService(store, limiter)
	handler := membership.NewHandler(svc, membership.WithStrictStatus(cfg.StrictStatus))

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      server.NewRouter(logger, verifier, handler, store.Ping),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting Membership Service", "addr", cfg.HTTP.Addr, "config", cfg.String())
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (membership.Store, func(), error) {
	if cfg.UseMemoryStore() {
		log.FromContext(ctx).Warn("Using in-memory store; data is lost on exit")
		return membership.NewMemoryStore(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	if cfg.Database.BootstrapSchema {
		if err := membership.Bootstrap(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return membership.NewPostgresStore(db), func() { db.Close() }, nil
}
