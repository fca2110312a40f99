package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	roomsapp "homestay/internal/app/handlers/rooms"
	"homestay/internal/app/queries"
	domainrooms "homestay/internal/domain/rooms"
)

type HostRoomHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type ratesRequest struct {
	Capacity      int   `json:"capacity"`
	PricePerHour  int64 `json:"price_per_hour"`
	PricePerDay   int64 `json:"price_per_day"`
	PricePerMonth int64 `json:"price_per_month"`
}

type createRoomRequest struct {
	ratesRequest
	ID         string `json:"id"`
	LocationID string `json:"location_id"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
}

func (h HostRoomHandler) List(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	result, err := queries.Ask[roomsapp.ListHostRoomsQuery, dto.RoomCollection](c.Request.Context(), h.Queries, roomsapp.ListHostRoomsQuery{HostID: host})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostRoomHandler) Create(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req createRoomRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := roomsapp.CreateRoomCommand{
		RoomID:        strings.TrimSpace(req.ID),
		HostID:        host,
		LocationID:    strings.TrimSpace(req.LocationID),
		Name:          strings.TrimSpace(req.Name),
		Capacity:      req.Capacity,
		PricePerHour:  req.PricePerHour,
		PricePerDay:   req.PricePerDay,
		PricePerMonth: req.PricePerMonth,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
	}
	result, err := commands.Dispatch[roomsapp.CreateRoomCommand, *dto.Room](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Get only serves rooms of the calling host.
func (h HostRoomHandler) Get(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	result, err := queries.Ask[roomsapp.GetRoomQuery, dto.Room](c.Request.Context(), h.Queries, roomsapp.GetRoomQuery{RoomID: pathID(c)})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if result.HostID != host {
		respondError(c, h.Logger, domainrooms.ErrForeignRoom)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostRoomHandler) UpdateRates(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req ratesRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := roomsapp.UpdateRoomRatesCommand{
		HostID:        host,
		RoomID:        pathID(c),
		Capacity:      req.Capacity,
		PricePerHour:  req.PricePerHour,
		PricePerDay:   req.PricePerDay,
		PricePerMonth: req.PricePerMonth,
	}
	result, err := commands.Dispatch[roomsapp.UpdateRoomRatesCommand, *dto.Room](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostRoomHTTP = HostRoomHandler{}
