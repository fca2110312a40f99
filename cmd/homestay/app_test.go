package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/app/dto"
	bookingapp "homestay/internal/app/handlers/booking"
	"homestay/internal/infra/config"
	ginserver "homestay/internal/infra/http/gin"
	"homestay/internal/infra/obs"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		StoreMode:          config.StoreMemory,
		TaxRate:            decimal.RequireFromString("0.1"),
		DefaultCurrency:    "VND",
		CancellationWindow: 48 * time.Hour,
		LateRefundPercent:  50,
		OutboxPollInterval: 10 * time.Millisecond,
	}
}

func newTestApp(t *testing.T) (*application, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := buildApplication(context.Background(), testConfig(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { app.close(context.Background()) })
	require.NoError(t, app.loadFixtures(context.Background(), ""))
	return app, ginserver.NewRouter(testConfig(), obs.Middleware{}, obs.HealthHandlers{Ready: app.ready}, app.handlers)
}

func call(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func stay(coupon string) string {
	start := time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	end := start.Add(48 * time.Hour)
	return `{"room_id":"room-1","granularity":"DAILY","start":"` + start.Format(time.RFC3339) +
		`","end":"` + end.Format(time.RFC3339) + `","guest_count":2,"coupon_code":"` + coupon + `"`
}

func TestQuoteWithDefaultFixtures(t *testing.T) {
	_, router := newTestApp(t)

	rec := call(router, http.MethodPost, "/api/v1/quotes", stay("welcome10")+"}", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var quote dto.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, int64(1_600_000), quote.Subtotal.Amount)
	assert.Equal(t, int64(160_000), quote.DiscountAmount.Amount)
	assert.Equal(t, int64(1_584_000), quote.Total.Amount)

	rec = call(router, http.MethodPost, "/api/v1/quotes", stay("EXPIRED20")+"}", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"COUPON_EXPIRED"`)
}

func TestBookingFlowEndToEnd(t *testing.T) {
	app, router := newTestApp(t)
	body := stay("WELCOME10") + `,"guest":{"name":"Lan","email":"lan@example.com"}}`
	headers := map[string]string{"Idempotency-Key": "booking-1"}

	first := call(router, http.MethodPost, "/api/v1/bookings", body, headers)
	require.Equal(t, http.StatusAccepted, first.Code, first.Body.String())
	var created bookingapp.RequestBookingResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &created))
	assert.Equal(t, "PENDING", created.Status)

	replay := call(router, http.MethodPost, "/api/v1/bookings", body, headers)
	require.Equal(t, http.StatusAccepted, replay.Code)
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	overlap := call(router, http.MethodPost, "/api/v1/bookings", body, map[string]string{"Idempotency-Key": "booking-2"})
	assert.Equal(t, http.StatusUnprocessableEntity, overlap.Code)

	coupons := call(router, http.MethodGet, "/api/v1/host/coupons", "", map[string]string{"X-Host-ID": "host-1"})
	require.Equal(t, http.StatusOK, coupons.Code)
	var list dto.CouponCollection
	require.NoError(t, json.Unmarshal(coupons.Body.Bytes(), &list))
	for _, c := range list.Items {
		if c.Code == "WELCOME10" {
			assert.Equal(t, 1, c.UsedCount)
		}
	}

	confirm := call(router, http.MethodPost, "/api/v1/host/bookings/"+created.BookingID+"/confirm", "", map[string]string{"X-Host-ID": "host-1"})
	assert.Equal(t, http.StatusOK, confirm.Code)
	foreign := call(router, http.MethodPost, "/api/v1/host/bookings/"+created.BookingID+"/complete", "", map[string]string{"X-Host-ID": "host-2"})
	assert.Equal(t, http.StatusForbidden, foreign.Code)

	sent, err := app.worker.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent, "booking.requested, coupon.redeemed, booking.confirmed")
}

func TestLoadFixturesFromFile(t *testing.T) {
	app, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"rooms": [{"id":"room-9","host":"host-9","name":"Attic","capacity":1,"price_per_hour":50000,"currency":"VND"}],
		"coupons": [{"id":"cpn-9","host":"host-9","code":"attic5","type":"percentage","value":"5","expiry_date":"2030-01-01T00:00:00Z","usage_limit":3}]
	}`), 0o600))
	require.NoError(t, app.loadFixtures(context.Background(), path))

	require.Error(t, app.loadFixtures(context.Background(), filepath.Join(t.TempDir(), "missing.json")))
}

func TestFixtureAggregatesRejectInvalidRooms(t *testing.T) {
	_, err := fixtureFile{Rooms: []roomFixture{{ID: "room-x", Host: "host-1", Name: "No rates", Capacity: 1, Currency: "VND"}}}.aggregates(time.Now())
	assert.Error(t, err)

	_, err = fixtureFile{Settings: []settingsFixture{{Host: "host-1", CancellationPolicy: "LENIENT"}}}.aggregates(time.Now())
	assert.Error(t, err)

	set, err := defaultFixtures(time.Now()).aggregates(time.Now())
	require.NoError(t, err)
	assert.Len(t, set.Rooms, 3)
	assert.Len(t, set.Coupons, 3)
	assert.Len(t, set.Locations, 2)
	assert.Len(t, set.Settings, 1)
}

func TestHostRulesEndToEnd(t *testing.T) {
	_, router := newTestApp(t)
	host2 := map[string]string{"X-Host-ID": "host-2"}

	settings := call(router, http.MethodGet, "/api/v1/host/settings", "", host2)
	require.Equal(t, http.StatusOK, settings.Code, settings.Body.String())
	var got dto.HostSettings
	require.NoError(t, json.Unmarshal(settings.Body.Bytes(), &got))
	assert.True(t, got.Configured)
	assert.Equal(t, "MODERATE", got.CancellationPolicy)
	assert.Equal(t, "0.08", got.TaxRate)

	start := time.Now().UTC().AddDate(0, 0, 14).Truncate(24 * time.Hour)
	pineLoft := func(days int) string {
		return `{"room_id":"room-3","granularity":"DAILY","start":"` + start.Format(time.RFC3339) +
			`","end":"` + start.AddDate(0, 0, days).Format(time.RFC3339) + `","guest_count":2`
	}
	quote := call(router, http.MethodPost, "/api/v1/quotes", pineLoft(2)+"}", nil)
	require.Equal(t, http.StatusOK, quote.Code, quote.Body.String())
	var q dto.Quote
	require.NoError(t, json.Unmarshal(quote.Body.Bytes(), &q))
	assert.Equal(t, int64(2_592_000), q.Total.Amount)

	short := call(router, http.MethodPost, "/api/v1/bookings", pineLoft(1)+`,"guest":{"name":"Minh","phone":"0900000000"}}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, short.Code)
	assert.Contains(t, short.Body.String(), `"code":"STAY_TOO_SHORT"`)

	inUse := call(router, http.MethodDelete, "/api/v1/host/locations/da-lat", "", host2)
	assert.Equal(t, http.StatusConflict, inUse.Code)
	foreign := call(router, http.MethodDelete, "/api/v1/host/locations/hoi-an", "", host2)
	assert.Equal(t, http.StatusForbidden, foreign.Code)

	room := call(router, http.MethodPost, "/api/v1/host/rooms",
		`{"name":"Loft","capacity":2,"price_per_day":500000,"location_id":"hoi-an"}`, host2)
	assert.Equal(t, http.StatusForbidden, room.Code)

	defaults := call(router, http.MethodGet, "/api/v1/host/settings", "", map[string]string{"X-Host-ID": "host-1"})
	require.Equal(t, http.StatusOK, defaults.Code)
	assert.Contains(t, defaults.Body.String(), `"configured":false`)
	assert.Contains(t, defaults.Body.String(), `"late_refund_percent":50`)
}
