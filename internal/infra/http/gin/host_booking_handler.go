package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	bookingapp "homestay/internal/app/handlers/booking"
	"homestay/internal/app/queries"
)

type HostBookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type cancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (h HostBookingHandler) List(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	query := bookingapp.ListHostBookingsQuery{
		HostID: host,
		Status: strings.TrimSpace(c.Query("status")),
	}
	result, err := queries.Ask[bookingapp.ListHostBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostBookingHandler) Get(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	query := bookingapp.GetHostBookingQuery{HostID: host, BookingID: pathID(c)}
	result, err := queries.Ask[bookingapp.GetHostBookingQuery, dto.Booking](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostBookingHandler) Confirm(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	cmd := bookingapp.ConfirmHostBookingCommand{HostID: host, BookingID: pathID(c)}
	h.respondAction(c, func() (*bookingapp.HostBookingActionResult, error) {
		return commands.Dispatch[bookingapp.ConfirmHostBookingCommand, *bookingapp.HostBookingActionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h HostBookingHandler) Cancel(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req cancelBookingRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := bookingapp.CancelHostBookingCommand{
		HostID:    host,
		BookingID: pathID(c),
		Reason:    strings.TrimSpace(req.Reason),
	}
	h.respondAction(c, func() (*bookingapp.HostBookingActionResult, error) {
		return commands.Dispatch[bookingapp.CancelHostBookingCommand, *bookingapp.HostBookingActionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h HostBookingHandler) Complete(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	cmd := bookingapp.CompleteHostBookingCommand{HostID: host, BookingID: pathID(c)}
	h.respondAction(c, func() (*bookingapp.HostBookingActionResult, error) {
		return commands.Dispatch[bookingapp.CompleteHostBookingCommand, *bookingapp.HostBookingActionResult](c.Request.Context(), h.Commands, cmd)
	})
}

func (h HostBookingHandler) respondAction(c *gin.Context, dispatch func() (*bookingapp.HostBookingActionResult, error)) {
	result, err := dispatch()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostBookingHTTP = HostBookingHandler{}
