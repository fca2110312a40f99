package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	bookingapp "homestay/internal/app/handlers/booking"
)

type BookingHandler struct {
	Commands commands.Bus
	Logger   *slog.Logger
}

type guestRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type createBookingRequest struct {
	stayRequest
	Guest guestRequest `json:"guest"`
}

func (h BookingHandler) Create(c *gin.Context) {
	var req createBookingRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID: generateCommandID(),
		Stay:      req.query(),
		Guest: bookingapp.Contact{
			Name:  strings.TrimSpace(req.Guest.Name),
			Email: strings.TrimSpace(req.Guest.Email),
			Phone: strings.TrimSpace(req.Guest.Phone),
			Note:  req.Guest.Note,
		},
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader(idempotencyHeader)),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusAccepted, result)
}

var _ BookingHTTP = BookingHandler{}
