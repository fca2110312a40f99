package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainpricing "homestay/internal/domain/pricing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJSONLoggerOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "prod").Info("quote computed", "room_id", "room-1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "quote computed", line["msg"])
	assert.Equal(t, "homestay", line["service"])
	assert.Equal(t, "room-1", line["room_id"])
}

func TestHealthHandlers(t *testing.T) {
	ready := errors.New("mongo down")
	h := HealthHandlers{Ready: func(context.Context) error { return ready }}
	r := gin.New()
	r.GET("/livez", h.Livez)
	r.GET("/readyz", h.Readyz)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mongo down")

	ready = nil
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	m := Middleware{}
	r := gin.New()
	r.Use(m.RequestID(), m.LoggerMiddleware())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestIDFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestMetricsObservers(t *testing.T) {
	m := Metrics{}

	before := testutil.ToFloat64(quotesTotal.WithLabelValues(string(domainpricing.KindCouponExpired)))
	m.ObserveQuote(domainpricing.KindCouponExpired)
	assert.Equal(t, before+1, testutil.ToFloat64(quotesTotal.WithLabelValues(string(domainpricing.KindCouponExpired))))

	okBefore := testutil.ToFloat64(quotesTotal.WithLabelValues("ok"))
	m.ObserveQuote("")
	assert.Equal(t, okBefore+1, testutil.ToFloat64(quotesTotal.WithLabelValues("ok")))

	redeemed := testutil.ToFloat64(couponRedemptionsTotal)
	m.ObserveRedemption("host-1")
	assert.Equal(t, redeemed+1, testutil.ToFloat64(couponRedemptionsTotal))

	failed := testutil.ToFloat64(outboxRelayedTotal.WithLabelValues("booking.events.v1", "failed"))
	m.ObserveRelay("booking.events.v1", false)
	assert.Equal(t, failed+1, testutil.ToFloat64(outboxRelayedTotal.WithLabelValues("booking.events.v1", "failed")))
}
