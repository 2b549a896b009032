package forecast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrProviderUnreachable indicates the provider could not be reached at
	// all: transport failure or an open circuit.
	ErrProviderUnreachable = errors.New("weather provider unreachable")

	// ErrProviderFailed indicates the provider answered with a non-2xx status.
	ErrProviderFailed = errors.New("weather provider error")

	// ErrMalformedResponse indicates a 2xx response missing the expected
	// condition fields.
	ErrMalformedResponse = errors.New("malformed weather provider response")
)

// StatusError carries the provider's HTTP status code. It matches
// ErrProviderFailed under errors.Is.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather provider error: status %d", e.Status)
}

func (e *StatusError) Is(target error) bool { return target == ErrProviderFailed }

// Client fetches day-level forecasts from WeatherAPI.com.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a WeatherAPI client. baseURL overrides the production
// endpoint; pass "" outside of tests.
func NewClient(client *http.Client, apiKey, baseURL string, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherapi",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if baseURL == "" {
		baseURL = "https://api.weatherapi.com/v1/forecast.json"
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: client,
		circuit:    cb,
		logger:     logger,
	}
}

// payload mirrors the subset of the WeatherAPI forecast response we consume.
// The condition object is optional on the wire; its absence is a malformed
// response, not a crash.
type payload struct {
	Forecast struct {
		ForecastDay []struct {
			Day struct {
				Condition *struct {
					Code int    `json:"code"`
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// FetchForecast issues a single request for today's forecast at the given
// location. Location passes through verbatim; WeatherAPI accepts place names
// and "lat,lon" pairs. No retries: the circuit breaker only fails fast while
// the provider is known to be down.
func (c *Client) FetchForecast(ctx context.Context, location string) (Forecast, error) {
	if c.apiKey == "" {
		return Forecast{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("q", location)
	values.Set("days", "2")
	values.Set("aqi", "no")
	values.Set("alerts", "no")
	values.Set("lang", "es")

	u := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Forecast{}, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrProviderUnreachable, doErr)
		}
		// Server-side failures count against the breaker.
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, &StatusError{Status: resp.StatusCode}
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Forecast{}, fmt.Errorf("%w: circuit open", ErrProviderUnreachable)
		}
		return Forecast{}, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return Forecast{}, fmt.Errorf("unexpected result type from circuit breaker")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("weatherapi returned non-2xx", "status", resp.StatusCode, "location", location)
		return Forecast{}, &StatusError{Status: resp.StatusCode}
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Forecast{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if len(p.Forecast.ForecastDay) == 0 || p.Forecast.ForecastDay[0].Day.Condition == nil {
		c.logger.Warn("weatherapi response missing condition", "location", location)
		return Forecast{}, fmt.Errorf("%w: missing condition for first forecast day", ErrMalformedResponse)
	}

	cond := p.Forecast.ForecastDay[0].Day.Condition
	return Forecast{
		Code:        cond.Code,
		Description: cond.Text,
		Location:    location,
	}, nil
}
