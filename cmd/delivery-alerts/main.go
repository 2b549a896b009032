package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hzamorano/delivery-weather-alerts/internal/alert"
	httpapi "github.com/hzamorano/delivery-weather-alerts/internal/api/http"
	"github.com/hzamorano/delivery-weather-alerts/internal/config"
	"github.com/hzamorano/delivery-weather-alerts/internal/forecast"
	"github.com/hzamorano/delivery-weather-alerts/internal/notify"
	"github.com/hzamorano/delivery-weather-alerts/internal/observability"
	"github.com/hzamorano/delivery-weather-alerts/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	slogger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Forecast client against WeatherAPI.com.
	forecaster := forecast.NewClient(httpClient, cfg.WeatherAPIKey, cfg.WeatherBaseURL, slogger)

	// SMTP notifier for buyer delay alerts.
	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, slogger)

	// SQLite-backed notification ledger.
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open notification store: %v", err)
	}
	ledger := store.NewLedger(db, clockwork.NewRealClock())

	// Core service orchestrating forecast, notification and persistence.
	service := alert.NewService(forecaster, mailer, ledger, slogger, metrics)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "delivery-weather-alerts",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "delivery-weather-alerts",
		})
	})

	// Prometheus scrape endpoint.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, ledger)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
