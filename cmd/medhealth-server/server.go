package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/medhealth/medhealth/internal/config"
	"github.com/medhealth/medhealth/internal/domain/medication"
	"github.com/medhealth/medhealth/internal/domain/vitals"
	"github.com/medhealth/medhealth/internal/platform/auth"
	"github.com/medhealth/medhealth/internal/platform/db"
	"github.com/medhealth/medhealth/internal/platform/fhir"
	"github.com/medhealth/medhealth/internal/platform/metrics"
	"github.com/medhealth/medhealth/internal/platform/middleware"
	"github.com/medhealth/medhealth/internal/platform/openapi"
	"github.com/medhealth/medhealth/internal/platform/websocket"
)

// app holds everything the router needs. dbHealth is nil when the server runs
// without a pool (tests).
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	collector *metrics.Collector
	medSvc    *medication.Service
	vitalsSvc *vitals.Service
	hub       *websocket.Hub
	dbHealth  echo.HandlerFunc
}

func newApp(cfg *config.Config, logger zerolog.Logger, collector *metrics.Collector,
	meds medication.MedicationRepository, logs medication.LogRepository, vitalsRepo vitals.Repository,
	mapper *fhir.Mapper) *app {
	return &app{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		medSvc:    medication.NewService(meds, logs, mapper, collector),
		vitalsSvc: vitals.NewService(vitalsRepo, mapper, collector),
		hub:       websocket.NewHub(),
	}
}

// router builds the echo instance with middleware and every route.
func (a *app) router() *echo.Echo {
	cfg := a.cfg

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = fhir.ErrorHandler(a.logger)

	e.Use(middleware.Recovery(a.logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Metrics(a.collector))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	e.Use(auth.Middleware(auth.Config{
		APIKey:      cfg.APIKey,
		JWTSecret:   []byte(cfg.JWTSecret),
		Issuer:      cfg.JWTIssuer,
		Development: cfg.IsDev(),
		Skipper:     auth.AuthSkipper,
	}, a.logger))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))

	e.GET("/api/health", db.ServiceHealthHandler(serviceName, version))
	if a.dbHealth != nil {
		e.GET("/health/db", a.dbHealth)
	}
	e.GET("/metrics", echo.WrapHandler(a.collector.Handler()))

	api := e.Group("/api")
	medication.NewHandler(a.medSvc).RegisterRoutes(api)
	vitals.NewHandler(a.vitalsSvc).RegisterRoutes(api)
	openapi.NewGenerator(openapi.Operations, version, "").RegisterRoutes(api)

	wsh := websocket.NewHandler(a.hub, websocket.Config{
		HeartbeatInterval: cfg.HeartbeatInterval,
		ClientTimeout:     cfg.ClientTimeout,
		PushInterval:      cfg.PushInterval,
		AllowedOrigins:    cfg.CORSOrigins,
	}, retryPolicy(cfg), a.collector, a.logger)
	e.GET("/ws/medications", wsh.Serve(medication.NewFeed(a.medSvc, cfg.PushBatchSize)))
	e.GET("/ws/vitals", wsh.Serve(vitals.NewFeed(a.vitalsSvc, cfg.PushBatchSize)))

	return e
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	a := newApp(cfg, logger, collector,
		medication.NewMedicationRepoPG(pool), medication.NewLogRepoPG(pool), vitals.NewRepoPG(pool),
		fhir.NewMapper())
	a.dbHealth = db.HealthHandler(pool, logger)
	e := a.router()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr()).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down server")
	a.hub.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
