package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hzamorano/delivery-weather-alerts/internal/forecast"
	"github.com/hzamorano/delivery-weather-alerts/internal/notify"
	"github.com/hzamorano/delivery-weather-alerts/internal/observability"
	"github.com/hzamorano/delivery-weather-alerts/internal/store"
)

var (
	// ErrInvalidInput is returned before any network or storage access when
	// the request is missing a usable email or location.
	ErrInvalidInput = errors.New("email and location are required")

	// ErrForecastUnavailable collapses every forecast client failure at the
	// pipeline boundary. No ledger record exists for these requests.
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// Forecaster abstracts the weather provider client.
type Forecaster interface {
	FetchForecast(ctx context.Context, location string) (forecast.Forecast, error)
}

// Recorder abstracts the notification ledger's write side.
type Recorder interface {
	Append(ctx context.Context, in store.Input) (store.Notification, error)
}

// Result summarizes one evaluated alert request.
type Result struct {
	ForecastCode        int
	ForecastDescription string
	Notified            bool
}

// Service runs the alert pipeline for one request: validate, fetch forecast,
// classify, notify when adverse, persist.
type Service struct {
	forecaster Forecaster
	sender     notify.Sender
	ledger     Recorder
	logger     *slog.Logger
	metrics    *observability.Metrics
}

func NewService(f Forecaster, s notify.Sender, r Recorder, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		forecaster: f,
		sender:     s,
		ledger:     r,
		logger:     logger,
		metrics:    metrics,
	}
}

// HandleAlert evaluates one request end to end. Every request that produced a
// forecast leaves exactly one ledger record; forecast failures leave no trace
// beyond logs. The returned Result is never populated unless the record was
// persisted, keeping the ledger authoritative.
func (s *Service) HandleAlert(ctx context.Context, email, location string) (Result, error) {
	email = strings.TrimSpace(email)
	location = strings.TrimSpace(location)
	if email == "" || location == "" || !strings.Contains(email, "@") {
		s.metrics.AlertRequests.WithLabelValues(observability.OutcomeInvalidInput).Inc()
		return Result{}, ErrInvalidInput
	}

	fc, err := s.forecaster.FetchForecast(ctx, location)
	if err != nil {
		s.logger.Error("forecast fetch failed", "location", location, "error", err)
		s.metrics.ProviderFailures.Inc()
		s.metrics.AlertRequests.WithLabelValues(observability.OutcomeForecastFailed).Inc()
		return Result{}, fmt.Errorf("%w: %v", ErrForecastUnavailable, err)
	}

	notified := false
	if forecast.IsAdverse(fc.Code) {
		// The record reports intent to notify: a failed send on an adverse
		// forecast still counts as notified, and the request completes.
		notified = true
		if err := s.sender.SendAlert(email, location, fc); err != nil {
			s.logger.Error("alert delivery failed", "recipient", email, "location", location, "error", err)
			s.metrics.NotificationsFailed.Inc()
		} else {
			s.metrics.NotificationsSent.Inc()
		}
	}

	_, err = s.ledger.Append(ctx, store.Input{
		Email:    email,
		Location: location,
		Forecast: fc.Description,
		Notified: notified,
	})
	if err != nil {
		s.logger.Error("ledger append failed", "recipient", email, "error", err)
		s.metrics.AlertRequests.WithLabelValues(observability.OutcomePersistFailed).Inc()
		return Result{}, err
	}

	s.metrics.AlertRequests.WithLabelValues(observability.OutcomeOK).Inc()
	s.logger.Info("alert request evaluated",
		"location", location, "code", fc.Code, "notified", notified)

	return Result{
		ForecastCode:        fc.Code,
		ForecastDescription: fc.Description,
		Notified:            notified,
	}, nil
}
