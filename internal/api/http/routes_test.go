package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jonboulle/clockwork"

	"github.com/hzamorano/delivery-weather-alerts/internal/alert"
	"github.com/hzamorano/delivery-weather-alerts/internal/forecast"
	"github.com/hzamorano/delivery-weather-alerts/internal/observability"
	"github.com/hzamorano/delivery-weather-alerts/internal/store"
)

type fakeForecaster struct {
	fc  forecast.Forecast
	err error
}

func (f *fakeForecaster) FetchForecast(context.Context, string) (forecast.Forecast, error) {
	return f.fc, f.err
}

type fakeSender struct {
	sent int
}

func (f *fakeSender) SendAlert(string, string, forecast.Forecast) error {
	f.sent++
	return nil
}

// newTestApp wires a fiber app with a real ledger over in-memory SQLite and
// stubbed outbound collaborators.
func newTestApp(t *testing.T, f *fakeForecaster, snd *fakeSender) (*fiber.App, *store.Ledger) {
	t.Helper()

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	ledger := store.NewLedger(db, clockwork.NewFakeClock())

	svc := alert.NewService(f, snd, ledger, observability.NewTestLogger(), observability.NewMetricsForTesting())

	app := fiber.New()
	RegisterRoutes(app, svc, ledger)
	return app, ledger
}

func postAlert(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/alert", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

// TestAlertAdverseForecast verifies the full happy path: adverse code, one
// email sent, record persisted, contract-shaped response body.
func TestAlertAdverseForecast(t *testing.T) {
	f := &fakeForecaster{fc: forecast.Forecast{Code: 1186, Description: "Lluvia moderada a intervalos"}}
	snd := &fakeSender{}
	app, ledger := newTestApp(t, f, snd)

	resp := postAlert(t, app, `{"email":"a@b.com","location":"Bogota"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		ForecastCode        int    `json:"forecast_code"`
		ForecastDescription string `json:"forecast_description"`
		BuyerNotification   bool   `json:"buyer_notification"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ForecastCode != 1186 || !body.BuyerNotification {
		t.Fatalf("unexpected body: %+v", body)
	}
	if snd.sent != 1 {
		t.Fatalf("expected 1 email sent, got %d", snd.sent)
	}

	records, err := ledger.FindByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("find records: %v", err)
	}
	if len(records) != 1 || !records[0].Notified {
		t.Fatalf("expected one notified record, got %+v", records)
	}
}

func TestAlertClearForecast(t *testing.T) {
	f := &fakeForecaster{fc: forecast.Forecast{Code: 1000, Description: "Soleado"}}
	snd := &fakeSender{}
	app, _ := newTestApp(t, f, snd)

	resp := postAlert(t, app, `{"email":"a@b.com","location":"Bogota"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		BuyerNotification bool `json:"buyer_notification"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.BuyerNotification {
		t.Fatal("clear forecast must not notify")
	}
	if snd.sent != 0 {
		t.Fatalf("expected no email, got %d", snd.sent)
	}
}

// TestAlertValidation verifies client errors come back as 400 before any
// outbound call.
func TestAlertValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"location":"Bogota"}`},
		{"missing location", `{"email":"a@b.com"}`},
		{"invalid email", `{"email":"not-an-address","location":"Bogota"}`},
		{"invalid json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeForecaster{err: forecast.ErrProviderUnreachable} // must never be reached
			app, _ := newTestApp(t, f, &fakeSender{})

			resp := postAlert(t, app, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
			}
		})
	}
}

func TestAlertForecastUnavailable(t *testing.T) {
	f := &fakeForecaster{err: forecast.ErrProviderUnreachable}
	app, ledger := newTestApp(t, f, &fakeSender{})

	resp := postAlert(t, app, `{"email":"a@b.com","location":"Bogota"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}

	records, err := ledger.FindByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("find records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("no record may exist for a failed forecast, got %+v", records)
	}
}

func TestNotificationsRequiresEmail(t *testing.T) {
	app, _ := newTestApp(t, &fakeForecaster{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestNotificationsHistoryOldestFirst(t *testing.T) {
	f := &fakeForecaster{fc: forecast.Forecast{Code: 1186, Description: "Lluvia moderada"}}
	app, _ := newTestApp(t, f, &fakeSender{})

	for _, loc := range []string{"Bogota", "Medellin"} {
		resp := postAlert(t, app, `{"email":"a@b.com","location":"`+loc+`"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("seed request failed with %d", resp.StatusCode)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/notifications?email=a@b.com", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Notifications []store.Notification `json:"notifications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(body.Notifications))
	}
	if body.Notifications[0].Location != "Bogota" || body.Notifications[1].Location != "Medellin" {
		t.Fatalf("expected oldest first, got %+v", body.Notifications)
	}
	if body.Notifications[1].ID <= body.Notifications[0].ID {
		t.Fatal("ids must increase with insertion order")
	}
}

func TestNotificationsEmptyHistory(t *testing.T) {
	app, _ := newTestApp(t, &fakeForecaster{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/notifications?email=nobody@b.com", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Notifications []store.Notification `json:"notifications"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Notifications == nil || len(body.Notifications) != 0 {
		t.Fatalf("expected empty array, got %+v", body.Notifications)
	}
}
