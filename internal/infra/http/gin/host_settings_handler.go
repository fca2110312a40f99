package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	settingsapp "homestay/internal/app/handlers/hostsettings"
	"homestay/internal/app/queries"
)

type HostSettingsHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// settingsRequest carries the tax rate as a percent string so "" can clear it.
type settingsRequest struct {
	AdvanceBookingDays int    `json:"advance_booking_days"`
	MinimumStayDays    int    `json:"minimum_stay_days"`
	MaximumStayDays    int    `json:"maximum_stay_days"`
	CancellationPolicy string `json:"cancellation_policy"`
	LateRefundPercent  int    `json:"late_refund_percent"`
	TaxRatePercent     string `json:"tax_rate_percent"`
}

func (h HostSettingsHandler) Get(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	result, err := queries.Ask[settingsapp.GetSettingsQuery, dto.HostSettings](c.Request.Context(), h.Queries, settingsapp.GetSettingsQuery{HostID: host})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostSettingsHandler) Update(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req settingsRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := settingsapp.UpdateSettingsCommand{
		HostID:             host,
		AdvanceBookingDays: req.AdvanceBookingDays,
		MinimumStayDays:    req.MinimumStayDays,
		MaximumStayDays:    req.MaximumStayDays,
		CancellationPolicy: strings.ToUpper(strings.TrimSpace(req.CancellationPolicy)),
		LateRefundPercent:  req.LateRefundPercent,
		TaxRatePercent:     strings.TrimSpace(req.TaxRatePercent),
	}
	result, err := commands.Dispatch[settingsapp.UpdateSettingsCommand, *dto.HostSettings](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostSettingsHTTP = HostSettingsHandler{}
