package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/postop/postop/internal/config"
	"github.com/postop/postop/internal/domain/dashboard"
	"github.com/postop/postop/internal/domain/followup"
	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/platform/db"
	"github.com/postop/postop/internal/platform/middleware"
)

const version = "0.1.0"

func runServer() error {
	logger := newLogger(os.Getenv("ENV"), os.Stdout)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger = newLogger(cfg.Env, os.Stdout)

	ctx := context.Background()
	pool, err := openPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Str("schema", cfg.DBSchema).Msg("connected to database")

	e, err := newServer(cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// newServer wires repositories, services and routes onto a new echo instance.
func newServer(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*echo.Echo, error) {
	bodyLimit, err := cfg.BodyLimitBytes()
	if err != nil {
		return nil, err
	}
	links, err := intake.NewLinkBuilder(cfg.PublicBaseURL, cfg.FollowUpPath)
	if err != nil {
		return nil, fmt.Errorf("follow-up links: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderContentType, middleware.RequestIDHeader},
	}))

	patients := intake.NewPatientRepoPG(pool)
	responses := followup.NewResponseRepoPG(pool)

	intakeSvc := intake.NewService(patients, links, logger.With().Str("component", "intake").Logger())
	followupSvc := followup.NewService(responses, patients, logger.With().Str("component", "followup").Logger())
	dashboardSvc := dashboard.NewService(responses, patients, dashboard.NewDeletionStorePG(pool),
		logger.With().Str("component", "dashboard").Logger())

	apiV1 := e.Group("/api/v1")
	intake.NewHandler(intakeSvc).RegisterRoutes(apiV1)
	followupHandler := followup.NewHandler(followupSvc)
	followupHandler.RegisterRoutes(apiV1)
	dashboard.NewHandler(dashboardSvc).RegisterRoutes(apiV1)

	public := e.Group(cfg.FollowUpPath, middleware.LinkThrottle(middleware.LinkThrottleConfig{
		PerMinute: cfg.FollowUpRatePerMinute,
		Burst:     cfg.FollowUpBurst,
		IdleTTL:   10 * time.Minute,
	}))
	followupHandler.RegisterPublicRoutes(public)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, cfg.DBSchema))

	return e, nil
}
