package ginserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"homestay/internal/app/apperr"
)

const (
	hostHeader        = "X-Host-ID"
	idempotencyHeader = "Idempotency-Key"

	codeHostRequired = "HOST_REQUIRED"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Hint  string `json:"hint,omitempty"`
}

// respondError writes the classified error body. Server side failures are
// logged at error level and their message is not echoed to the client.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	status := apperr.HTTPStatus(err)
	body := errorResponse{Error: err.Error(), Code: apperr.Code(err), Hint: apperr.Hint(err)}
	if status >= http.StatusInternalServerError {
		body.Error = "internal error"
	}
	if logger != nil {
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			"status", status, "code", body.Code, "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
	}
	c.AbortWithStatusJSON(status, body)
}

func bindJSON(c *gin.Context, logger *slog.Logger, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, logger, apperr.Validationf("malformed request body: %v", err))
		return false
	}
	return true
}

// requireHost reads the caller's host identity. Authentication happens
// upstream; the header is trusted as is.
func requireHost(c *gin.Context) (string, bool) {
	host := strings.TrimSpace(c.GetHeader(hostHeader))
	if host == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
			Error: hostHeader + " header required",
			Code:  codeHostRequired,
		})
		return "", false
	}
	return host, true
}

func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func generateCommandID() string {
	return uuid.NewString()
}

// parseExpiry accepts RFC 3339 timestamps or bare dates. A bare date expires
// at the last second of that day in UTC.
func parseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperr.Validation("expiry_date is required")
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, apperr.Validationf("expiry_date %q is neither a date nor an RFC 3339 timestamp", raw)
	}
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}
