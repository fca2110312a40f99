package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	locationsapp "homestay/internal/app/handlers/locations"
	"homestay/internal/app/queries"
)

type HostLocationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type locationRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (r locationRequest) details() locationsapp.Details {
	return locationsapp.Details{
		Name:        strings.TrimSpace(r.Name),
		Address:     strings.TrimSpace(r.Address),
		City:        strings.TrimSpace(r.City),
		Province:    strings.TrimSpace(r.Province),
		Description: strings.TrimSpace(r.Description),
		ImageURL:    strings.TrimSpace(r.ImageURL),
	}
}

func (h HostLocationHandler) List(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	result, err := queries.Ask[locationsapp.ListHostLocationsQuery, dto.LocationCollection](c.Request.Context(), h.Queries, locationsapp.ListHostLocationsQuery{HostID: host})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostLocationHandler) Create(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req locationRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := locationsapp.CreateLocationCommand{
		LocationID: strings.TrimSpace(req.ID),
		HostID:     host,
		Details:    req.details(),
	}
	result, err := commands.Dispatch[locationsapp.CreateLocationCommand, *dto.Location](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h HostLocationHandler) Update(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	var req locationRequest
	if !bindJSON(c, h.Logger, &req) {
		return
	}
	cmd := locationsapp.UpdateLocationCommand{HostID: host, LocationID: pathID(c), Details: req.details()}
	result, err := commands.Dispatch[locationsapp.UpdateLocationCommand, *dto.Location](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HostLocationHandler) Delete(c *gin.Context) {
	host, ok := requireHost(c)
	if !ok {
		return
	}
	cmd := locationsapp.DeleteLocationCommand{HostID: host, LocationID: pathID(c)}
	result, err := commands.Dispatch[locationsapp.DeleteLocationCommand, *locationsapp.DeleteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ HostLocationHTTP = HostLocationHandler{}
