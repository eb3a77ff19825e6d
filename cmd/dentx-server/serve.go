package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomotos141/dental-x-ray-navigatar/internal/config"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imaging"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/imagingrequest"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/operator"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/patient"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/domain/stats"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/auth"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/changefeed"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/db"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/middleware"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/telemetry"
	"github.com/tomotos141/dental-x-ray-navigatar/internal/platform/websocket"
	"github.com/tomotos141/dental-x-ray-navigatar/migrations"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	bodyLimit       = "1M"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending PostgreSQL migrations before serving")
	return cmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer(migrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if cfg.IsDev() {
		logger.Warn().Msg("development mode: X-Clinic-ID / X-Staff-Name headers are trusted")
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	policy, err := stats.ParseAttribution(cfg.StatsOperatorAttribution)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open record store")
		return err
	}
	defer store.close(context.Background())

	if migrate {
		if store.pool == nil {
			return errors.New("--migrate requires STORE_BACKEND=postgres")
		}
		n, err := db.NewMigrator(store.pool, migrations.Files).Up(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info().Int("applied", n).Msg("migrations applied")
	}

	// Change feed
	feed := changefeed.New(logger)
	hub := websocket.NewHub(logger)
	feed.AddPublisher(changefeed.NewHubPublisher(hub))

	healthComponents := []db.Component{store.health}
	if cfg.NATSURL != "" {
		nc, err := changefeed.ConnectNATS(cfg.NATSURL, logger)
		if err != nil {
			return err
		}
		defer drain(nc, logger)
		feed.AddPublisher(changefeed.NewNATSPublisher(nc, cfg.NATSSubjectPrefix))
		healthComponents = append(healthComponents, changefeed.NATSHealth(nc))
		logger.Info().Str("url", cfg.NATSURL).Msg("publishing changes to nats")
	}

	// Services
	patientSvc := patient.NewService(store.patients, feed)
	operatorSvc := operator.NewService(store.operators)
	requestSvc := imagingrequest.NewService(store.requests, store.patients, operatorSvc, feed)
	requestSvc.SetClock(time.Now, loc)
	if store.tx != nil {
		requestSvc.SetTransactor(store.tx)
	}

	feed.Register(patient.Collection, changefeed.TypedLoader(patientSvc.List))
	feed.Register(imagingrequest.Collection, changefeed.TypedLoader(func(ctx context.Context) ([]*imagingrequest.ImagingRequest, error) {
		return store.requests.List(ctx, imagingrequest.ListFilter{})
	}))
	var requestCache changefeed.Cache[*imagingrequest.ImagingRequest]
	if err := changefeed.Bind(feed, imagingrequest.Collection, &requestCache); err != nil {
		return err
	}
	requestSvc.SetCache(&requestCache)

	statsSvc := stats.NewService(requestSvc, policy, requestSvc.Now)

	// Metrics
	tp := telemetry.NewProvider(version)
	requestSvc.SetRecorder(imagingrequest.NewMetrics(tp.Registerer()))
	tp.Gauge("websocket_clients", "Connected websocket clients.", func() float64 {
		return float64(hub.ClientCount())
	})
	if store.pool != nil {
		tp.Gauge("db_pool_acquired_conns", "PostgreSQL connections in use.", func() float64 {
			return float64(db.GetPoolStats(store.pool).AcquiredConns)
		})
		tp.Gauge("db_pool_idle_conns", "Idle PostgreSQL connections.", func() float64 {
			return float64(db.GetPoolStats(store.pool).IdleConns)
		})
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(tp.Middleware())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader, "X-Clinic-ID", "X-Staff-Name"},
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	e.GET("/health", db.HealthHandler(healthComponents...))
	e.GET("/health/db", db.HealthHandler(store.health))
	e.GET(telemetry.MetricsPath, tp.Handler())

	authCfg := auth.Config{
		SigningKey:   []byte(cfg.SessionSigningKey),
		TTL:          cfg.SessionTTL,
		Issuer:       "dentx-server",
		AllowHeaders: cfg.IsDev(),
	}

	apiV1 := e.Group("/api/v1")
	apiV1.Use(auth.Middleware(authCfg))
	apiV1.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	apiV1.Use(middleware.RequestTimeout(requestTimeout))

	auth.NewSessionHandler(authCfg).RegisterRoutes(apiV1)
	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	operator.NewHandler(operatorSvc).RegisterRoutes(apiV1)
	imagingrequest.NewHandler(requestSvc).RegisterRoutes(apiV1)
	stats.NewHandler(statsSvc).RegisterRoutes(apiV1)
	imaging.NewHandler(requestSvc.Now).RegisterRoutes(apiV1)
	websocket.NewHandler(hub, feed, patient.Collection, imagingrequest.Collection).RegisterRoutes(apiV1)

	feed.Prime(ctx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("backend", cfg.StoreBackend).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func drain(nc *nats.Conn, logger zerolog.Logger) {
	if err := nc.Drain(); err != nil {
		logger.Warn().Err(err).Msg("nats drain")
	}
}
