package ginserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	bookingapp "homestay/internal/app/handlers/booking"
	couponsapp "homestay/internal/app/handlers/coupons"
	settingsapp "homestay/internal/app/handlers/hostsettings"
	locationsapp "homestay/internal/app/handlers/locations"
	"homestay/internal/app/handlers/quotes"
	roomsapp "homestay/internal/app/handlers/rooms"
	"homestay/internal/app/queries"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	"homestay/internal/infra/config"
	"homestay/internal/infra/obs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCommands struct {
	last   commands.Command
	result any
	err    error
}

func (f *fakeCommands) Dispatch(_ context.Context, cmd commands.Command) (any, error) {
	f.last = cmd
	return f.result, f.err
}

type fakeQueries struct {
	last   queries.Query
	result any
	err    error
}

func (f *fakeQueries) Ask(_ context.Context, q queries.Query) (any, error) {
	f.last = q
	return f.result, f.err
}

func newTestRouter(cmds *fakeCommands, qs *fakeQueries) *gin.Engine {
	return NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Quote:        QuoteHandler{Queries: qs},
		Booking:      BookingHandler{Commands: cmds},
		HostBooking:  HostBookingHandler{Commands: cmds, Queries: qs},
		HostRoom:     HostRoomHandler{Commands: cmds, Queries: qs},
		HostCoupon:   HostCouponHandler{Commands: cmds, Queries: qs},
		HostLocation: HostLocationHandler{Commands: cmds, Queries: qs},
		HostSettings: HostSettingsHandler{Commands: cmds, Queries: qs},
		Coupon:       CouponHandler{Queries: qs},
	})
}

func perform(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

const stayBody = `{
	"room_id": "room-1",
	"granularity": "daily",
	"start": "2024-03-15T00:00:00Z",
	"end": "2024-03-17T00:00:00Z",
	"guest_count": 2,
	"coupon_code": " welcome10 ",
	"add_ons": [{"id": "breakfast", "unit_price": 50000, "quantity": 2}]
}`

func TestQuoteRoute(t *testing.T) {
	qs := &fakeQueries{result: dto.Quote{RoomID: "room-1", Total: dto.Money{Amount: 1_584_000, Currency: "VND"}}}
	rec := perform(newTestRouter(&fakeCommands{}, qs), http.MethodPost, "/api/v1/quotes", stayBody, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var got dto.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1_584_000), got.Total.Amount)

	query, ok := qs.last.(quotes.QuoteBookingQuery)
	require.True(t, ok)
	assert.Equal(t, "room-1", query.RoomID)
	assert.Equal(t, "daily", query.Granularity)
	assert.Equal(t, "welcome10", query.CouponCode)
	assert.Equal(t, 2, query.GuestCount)
	assert.Equal(t, time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC), query.End.UTC())
	require.Len(t, query.AddOns, 1)
	assert.Equal(t, int64(50_000), query.AddOns[0].UnitPrice)
}

func TestQuoteRouteMapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "expired coupon", err: fmt.Errorf("coupon %q: %w", "EXPIRED20", domaincoupons.ErrCouponExpired), status: http.StatusUnprocessableEntity, code: "COUPON_EXPIRED"},
		{name: "unknown coupon", err: domaincoupons.ErrCouponNotFound, status: http.StatusUnprocessableEntity, code: "COUPON_NOT_FOUND"},
		{name: "unexpected", err: errors.New("mongo: connection reset"), status: http.StatusInternalServerError, code: "SYSTEM_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := perform(newTestRouter(&fakeCommands{}, &fakeQueries{err: tt.err}), http.MethodPost, "/api/v1/quotes", stayBody, nil)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal error", body.Error)
			}
		})
	}
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	rec := perform(newTestRouter(&fakeCommands{}, &fakeQueries{}), http.MethodPost, "/api/v1/quotes", `{"start": "yesterday"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}

func TestBookingRoutePassesIdempotencyKey(t *testing.T) {
	cmds := &fakeCommands{result: &bookingapp.RequestBookingResult{BookingID: "bk-1", Status: "PENDING"}}
	body := strings.TrimSuffix(stayBody, "}") + `, "guest": {"name": " Lan ", "email": "lan@example.com"}}`
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/bookings", body, map[string]string{
		"Idempotency-Key": "req-42",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	cmd, ok := cmds.last.(bookingapp.RequestBookingCommand)
	require.True(t, ok)
	assert.Equal(t, "req-42", cmd.IdempotencyKey())
	assert.Equal(t, "Lan", cmd.Guest.Name)
	assert.Equal(t, "room-1", cmd.Stay.RoomID)
	assert.NotEmpty(t, cmd.CommandID)
}

func TestHostRoutesRequireHostHeader(t *testing.T) {
	router := newTestRouter(&fakeCommands{}, &fakeQueries{})
	for _, path := range []string{"/api/v1/host/bookings", "/api/v1/host/rooms", "/api/v1/host/coupons", "/api/v1/host/locations", "/api/v1/host/settings"} {
		rec := perform(router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, codeHostRequired, decodeError(t, rec).Code, path)
	}
}

func TestHostBookingCancel(t *testing.T) {
	cmds := &fakeCommands{result: &bookingapp.HostBookingActionResult{BookingID: "bk-1", Status: "CANCELLED", Refund: &dto.Money{Amount: 880_000, Currency: "VND"}}}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/host/bookings/bk-1/cancel", `{"reason":" overbooked "}`, map[string]string{
		hostHeader: "host-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	cmd, ok := cmds.last.(bookingapp.CancelHostBookingCommand)
	require.True(t, ok)
	assert.Equal(t, "host-1", cmd.HostID)
	assert.Equal(t, "bk-1", cmd.BookingID)
	assert.Equal(t, "overbooked", cmd.Reason)
	assert.Contains(t, rec.Body.String(), `"refund":{"amount":880000,"currency":"VND"}`)
}

func TestHostBookingListPassesStatus(t *testing.T) {
	qs := &fakeQueries{result: dto.BookingCollection{Items: []dto.Booking{{ID: "bk-1"}}}}
	rec := perform(newTestRouter(&fakeCommands{}, qs), http.MethodGet, "/api/v1/host/bookings?status=PENDING", "", map[string]string{
		hostHeader: "host-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	query, ok := qs.last.(bookingapp.ListHostBookingsQuery)
	require.True(t, ok)
	assert.Equal(t, "PENDING", query.Status)
	assert.Equal(t, "host-1", query.HostID)
}

func TestHostRoomGetHidesForeignRooms(t *testing.T) {
	qs := &fakeQueries{result: dto.Room{ID: "room-1", HostID: "host-2"}}
	rec := perform(newTestRouter(&fakeCommands{}, qs), http.MethodGet, "/api/v1/host/rooms/room-1", "", map[string]string{
		hostHeader: "host-1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	query, ok := qs.last.(roomsapp.GetRoomQuery)
	require.True(t, ok)
	assert.Equal(t, "room-1", query.RoomID)
}

func TestHostRoomCreate(t *testing.T) {
	cmds := &fakeCommands{result: &dto.Room{ID: "room-9", HostID: "host-1"}}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/host/rooms",
		`{"name":" Loft ","capacity":2,"price_per_day":500000,"currency":"vnd"}`,
		map[string]string{hostHeader: "host-1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	cmd, ok := cmds.last.(roomsapp.CreateRoomCommand)
	require.True(t, ok)
	assert.Equal(t, "Loft", cmd.Name)
	assert.Equal(t, "VND", cmd.Currency)
	assert.Equal(t, int64(500_000), cmd.PricePerDay)
}

func TestHostCouponCreateParsesDateOnlyExpiry(t *testing.T) {
	cmds := &fakeCommands{result: &dto.Coupon{ID: "cpn-1", Code: "SUMMER"}}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/host/coupons",
		`{"code":"summer","type":"percentage","value":"15","expiry_date":"2024-12-31","usage_limit":10}`,
		map[string]string{hostHeader: "host-1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	cmd, ok := cmds.last.(couponsapp.CreateCouponCommand)
	require.True(t, ok)
	assert.Equal(t, "PERCENTAGE", cmd.Terms.Type)
	assert.Equal(t, time.Date(2024, time.December, 31, 23, 59, 59, 999_999_999, time.UTC), cmd.Terms.ExpiryDate)
}

func TestHostCouponCreateRejectsBadExpiry(t *testing.T) {
	cmds := &fakeCommands{}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/host/coupons",
		`{"code":"summer","type":"percentage","value":"15","expiry_date":"31/12/2024","usage_limit":10}`,
		map[string]string{hostHeader: "host-1"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, cmds.last)
}

func TestHostCouponConflict(t *testing.T) {
	cmds := &fakeCommands{err: domaincoupons.ErrDuplicateCode}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/host/coupons",
		`{"code":"summer","type":"fixed","value":"50000","expiry_date":"2024-12-31T10:00:00+07:00","usage_limit":10}`,
		map[string]string{hostHeader: "host-1"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	cmd, ok := cmds.last.(couponsapp.CreateCouponCommand)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.December, 31, 3, 0, 0, 0, time.UTC), cmd.Terms.ExpiryDate)
}

func TestHostLocationCreate(t *testing.T) {
	cmds := &fakeCommands{result: &dto.Location{ID: "hoi-an", HostID: "host-1", Name: "Old Town House"}}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/host/locations",
		`{"id":"hoi-an","name":" Old Town House ","address":"12 Tran Phu","city":"Hoi An","province":"Quang Nam"}`,
		map[string]string{hostHeader: "host-1"})

	require.Equal(t, http.StatusCreated, rec.Code)
	cmd, ok := cmds.last.(locationsapp.CreateLocationCommand)
	require.True(t, ok)
	assert.Equal(t, "hoi-an", cmd.LocationID)
	assert.Equal(t, "host-1", cmd.HostID)
	assert.Equal(t, "Old Town House", cmd.Details.Name)
}

func TestHostLocationDeleteInUse(t *testing.T) {
	cmds := &fakeCommands{err: domainlocations.ErrLocationInUse}
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodDelete, "/api/v1/host/locations/hoi-an", "",
		map[string]string{hostHeader: "host-1"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	cmd, ok := cmds.last.(locationsapp.DeleteLocationCommand)
	require.True(t, ok)
	assert.Equal(t, "hoi-an", cmd.LocationID)
}

func TestHostSettingsRoutes(t *testing.T) {
	qs := &fakeQueries{result: dto.HostSettings{HostID: "host-1", TaxRate: "0.1", FreeCancellationHours: 48, LateRefundPercent: 50}}
	rec := perform(newTestRouter(&fakeCommands{}, qs), http.MethodGet, "/api/v1/host/settings", "",
		map[string]string{hostHeader: "host-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"configured":false`)
	query, ok := qs.last.(settingsapp.GetSettingsQuery)
	require.True(t, ok)
	assert.Equal(t, "host-1", query.HostID)

	cmds := &fakeCommands{result: &dto.HostSettings{HostID: "host-1", Configured: true}}
	rec = perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPut, "/api/v1/host/settings",
		`{"cancellation_policy":" strict ","late_refund_percent":0,"minimum_stay_days":2,"tax_rate_percent":"8"}`,
		map[string]string{hostHeader: "host-1"})
	require.Equal(t, http.StatusOK, rec.Code)
	cmd, ok := cmds.last.(settingsapp.UpdateSettingsCommand)
	require.True(t, ok)
	assert.Equal(t, "STRICT", cmd.CancellationPolicy)
	assert.Equal(t, 0, cmd.LateRefundPercent)
	assert.Equal(t, 2, cmd.MinimumStayDays)
	assert.Equal(t, "8", cmd.TaxRatePercent)
}

func TestBookingRouteMapsStayRules(t *testing.T) {
	cmds := &fakeCommands{err: fmt.Errorf("%w: 1 days, minimum 2", hostsettings.ErrStayTooShort)}
	body := strings.TrimSuffix(stayBody, "}") + `, "guest": {"name": "Lan", "email": "lan@example.com"}}`
	rec := perform(newTestRouter(cmds, &fakeQueries{}), http.MethodPost, "/api/v1/bookings", body, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "STAY_TOO_SHORT", decodeError(t, rec).Code)
}

func TestCouponValidateRoute(t *testing.T) {
	qs := &fakeQueries{result: dto.Discount{Code: "WELCOME10", Type: "PERCENTAGE", Amount: dto.Money{Amount: 160_000, Currency: "VND"}}}
	rec := perform(newTestRouter(&fakeCommands{}, qs), http.MethodPost, "/api/v1/coupons/validate",
		`{"room_id":"room-1","code":"welcome10","subtotal":1600000}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	query, ok := qs.last.(couponsapp.ValidateCouponQuery)
	require.True(t, ok)
	assert.Equal(t, int64(1_600_000), query.Subtotal)
}

func TestOperationalRoutes(t *testing.T) {
	router := newTestRouter(&fakeCommands{}, &fakeQueries{})
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/readyz", "", nil).Code)

	metrics := perform(router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "homestay_http_requests_total")
}

func TestParseExpiry(t *testing.T) {
	got, err := parseExpiry("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 999_999_999, time.UTC), got)
	assert.False(t, time.Date(2024, time.February, 29, 23, 59, 59, 500_000_000, time.UTC).After(got), "whole last second is still valid")
	assert.True(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).After(got))

	_, err = parseExpiry("")
	assert.Error(t, err)
}
