package locations

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

const (
	createLocationKey    = "locations.create"
	updateLocationKey    = "locations.update"
	deleteLocationKey    = "locations.delete"
	listHostLocationsKey = "locations.list_by_host"
)

type Details struct {
	Name        string `validate:"required,max=120"`
	Address     string `validate:"required,max=255"`
	City        string `validate:"required,max=100"`
	Province    string `validate:"required,max=100"`
	Description string `validate:"max=1000"`
	ImageURL    string `validate:"omitempty,url"`
}

func (d Details) domain() domainlocations.Details {
	return domainlocations.Details(d)
}

type CreateLocationCommand struct {
	LocationID string
	HostID     string `validate:"required"`
	Details    Details
}

func (c CreateLocationCommand) Key() string       { return createLocationKey }
func (c CreateLocationCommand) HostScope() string { return c.HostID }

type UpdateLocationCommand struct {
	HostID     string `validate:"required"`
	LocationID string `validate:"required"`
	Details    Details
}

func (c UpdateLocationCommand) Key() string       { return updateLocationKey }
func (c UpdateLocationCommand) HostScope() string { return c.HostID }

type DeleteLocationCommand struct {
	HostID     string `validate:"required"`
	LocationID string `validate:"required"`
}

func (c DeleteLocationCommand) Key() string       { return deleteLocationKey }
func (c DeleteLocationCommand) HostScope() string { return c.HostID }

type ListHostLocationsQuery struct {
	HostID string
}

func (q ListHostLocationsQuery) Key() string       { return listHostLocationsKey }
func (q ListHostLocationsQuery) HostScope() string { return q.HostID }

type DeleteResult struct {
	LocationID string `json:"location_id"`
	Deleted    bool   `json:"deleted"`
}

type Handlers struct {
	UoWFactory uow.UoWFactory
	Events     support.Events
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *Handlers) Create(ctx context.Context, cmd CreateLocationCommand) (*dto.Location, error) {
	id := strings.TrimSpace(cmd.LocationID)
	if id == "" {
		id = "loc-" + uuid.NewString()
	}
	var out dto.Location
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		location, err := domainlocations.NewLocation(domainlocations.CreateParams{
			ID:      domainlocations.LocationID(id),
			Host:    cmd.HostID,
			Details: cmd.Details.domain(),
			Now:     support.Clock(h.Now),
		})
		if err != nil {
			return err
		}
		if err := unit.Locations().Save(ctx, location); err != nil {
			return err
		}
		out = dto.MapLocation(location)
		return h.Events.Publish(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info("location created", "location_id", out.ID, "host_id", cmd.HostID)
	return &out, nil
}

func (h *Handlers) Update(ctx context.Context, cmd UpdateLocationCommand) (*dto.Location, error) {
	var out dto.Location
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		location, err := h.owned(ctx, unit, cmd.HostID, cmd.LocationID)
		if err != nil {
			return err
		}
		if err := location.Update(cmd.Details.domain(), support.Clock(h.Now)); err != nil {
			return err
		}
		if err := unit.Locations().Save(ctx, location); err != nil {
			return err
		}
		out = dto.MapLocation(location)
		return h.Events.Publish(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a location no room of the host points at.
func (h *Handlers) Delete(ctx context.Context, cmd DeleteLocationCommand) (*DeleteResult, error) {
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		location, err := h.owned(ctx, unit, cmd.HostID, cmd.LocationID)
		if err != nil {
			return err
		}
		rooms, err := unit.Rooms().ListByHost(ctx, domainrooms.HostID(cmd.HostID))
		if err != nil {
			return err
		}
		if lo.ContainsBy(rooms, func(r *domainrooms.Room) bool { return r.LocationID == string(location.ID) }) {
			return domainlocations.ErrLocationInUse
		}
		location.MarkDeleted(support.Clock(h.Now))
		if err := unit.Locations().Delete(ctx, location.ID); err != nil {
			return err
		}
		return h.Events.Publish(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info("location deleted", "location_id", cmd.LocationID, "host_id", cmd.HostID)
	return &DeleteResult{LocationID: cmd.LocationID, Deleted: true}, nil
}

func (h *Handlers) ListByHost(ctx context.Context, q ListHostLocationsQuery) (dto.LocationCollection, error) {
	var out dto.LocationCollection
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		items, err := unit.Locations().ListByHost(ctx, q.HostID)
		if err != nil {
			return err
		}
		out = dto.MapLocations(items)
		return nil
	})
	return out, err
}

func (h *Handlers) owned(ctx context.Context, unit uow.UnitOfWork, hostID, locationID string) (*domainlocations.Location, error) {
	location, err := unit.Locations().ByID(ctx, domainlocations.LocationID(locationID))
	if err != nil {
		return nil, err
	}
	if err := location.OwnedBy(hostID); err != nil {
		return nil, err
	}
	return location, nil
}

func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, h *Handlers) {
	commands.RegisterHandler(cmdBus, createLocationKey, commands.HandlerFunc[CreateLocationCommand, *dto.Location](h.Create))
	commands.RegisterHandler(cmdBus, updateLocationKey, commands.HandlerFunc[UpdateLocationCommand, *dto.Location](h.Update))
	commands.RegisterHandler(cmdBus, deleteLocationKey, commands.HandlerFunc[DeleteLocationCommand, *DeleteResult](h.Delete))
	queries.RegisterHandler(queryBus, listHostLocationsKey, queries.HandlerFunc[ListHostLocationsQuery, dto.LocationCollection](h.ListByHost))
}
