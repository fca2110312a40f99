package rooms

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

const (
	createRoomKey      = "rooms.create"
	updateRoomRatesKey = "rooms.update_rates"
	getRoomKey         = "rooms.get"
	listHostRoomsKey   = "rooms.list_by_host"
)

type CreateRoomCommand struct {
	RoomID        string
	HostID        string `validate:"required"`
	LocationID    string
	Name          string `validate:"required,max=120"`
	Capacity      int    `validate:"min=1"`
	PricePerHour  int64  `validate:"gte=0"`
	PricePerDay   int64  `validate:"gte=0"`
	PricePerMonth int64  `validate:"gte=0"`
	Currency      string `validate:"omitempty,len=3"`
}

func (c CreateRoomCommand) Key() string       { return createRoomKey }
func (c CreateRoomCommand) HostScope() string { return c.HostID }

type UpdateRoomRatesCommand struct {
	HostID        string `validate:"required"`
	RoomID        string `validate:"required"`
	Capacity      int    `validate:"min=1"`
	PricePerHour  int64  `validate:"gte=0"`
	PricePerDay   int64  `validate:"gte=0"`
	PricePerMonth int64  `validate:"gte=0"`
}

func (c UpdateRoomRatesCommand) Key() string       { return updateRoomRatesKey }
func (c UpdateRoomRatesCommand) HostScope() string { return c.HostID }

type GetRoomQuery struct {
	RoomID string `validate:"required"`
}

func (q GetRoomQuery) Key() string { return getRoomKey }

type ListHostRoomsQuery struct {
	HostID string
}

func (q ListHostRoomsQuery) Key() string       { return listHostRoomsKey }
func (q ListHostRoomsQuery) HostScope() string { return q.HostID }

type Handlers struct {
	UoWFactory      uow.UoWFactory
	Events          support.Events
	DefaultCurrency string
	Now             func() time.Time
	Logger          *slog.Logger
}

func (h *Handlers) Create(ctx context.Context, cmd CreateRoomCommand) (*dto.Room, error) {
	id := strings.TrimSpace(cmd.RoomID)
	if id == "" {
		id = "room-" + uuid.NewString()
	}
	currency := cmd.Currency
	if strings.TrimSpace(currency) == "" {
		currency = h.DefaultCurrency
	}
	var out dto.Room
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		if err := ensureLocation(ctx, unit, cmd.HostID, cmd.LocationID); err != nil {
			return err
		}
		room, err := domainrooms.NewRoom(domainrooms.CreateRoomParams{
			ID:         domainrooms.RoomID(id),
			Host:       domainrooms.HostID(cmd.HostID),
			LocationID: cmd.LocationID,
			Name:       cmd.Name,
			Capacity:   cmd.Capacity,
			Rates: domainrooms.Rates{
				PricePerHour:  cmd.PricePerHour,
				PricePerDay:   cmd.PricePerDay,
				PricePerMonth: cmd.PricePerMonth,
			},
			Currency: currency,
			Now:      support.Clock(h.Now),
		})
		if err != nil {
			return err
		}
		if err := unit.Rooms().Save(ctx, room); err != nil {
			return err
		}
		out = dto.MapRoom(room)
		return h.Events.Publish(ctx, room)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info("room created", "room_id", out.ID, "host_id", cmd.HostID)
	return &out, nil
}

func (h *Handlers) UpdateRates(ctx context.Context, cmd UpdateRoomRatesCommand) (*dto.Room, error) {
	var out dto.Room
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		room, err := unit.Rooms().ByID(ctx, domainrooms.RoomID(cmd.RoomID))
		if err != nil {
			return err
		}
		if err := room.OwnedBy(domainrooms.HostID(cmd.HostID)); err != nil {
			return err
		}
		rates := domainrooms.Rates{
			PricePerHour:  cmd.PricePerHour,
			PricePerDay:   cmd.PricePerDay,
			PricePerMonth: cmd.PricePerMonth,
		}
		if err := room.UpdateRates(rates, cmd.Capacity, support.Clock(h.Now)); err != nil {
			return err
		}
		if err := unit.Rooms().Save(ctx, room); err != nil {
			return err
		}
		out = dto.MapRoom(room)
		return h.Events.Publish(ctx, room)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handlers) Get(ctx context.Context, q GetRoomQuery) (dto.Room, error) {
	var out dto.Room
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		room, err := unit.Rooms().ByID(ctx, domainrooms.RoomID(q.RoomID))
		if err != nil {
			return err
		}
		out = dto.MapRoom(room)
		return nil
	})
	return out, err
}

func (h *Handlers) ListByHost(ctx context.Context, q ListHostRoomsQuery) (dto.RoomCollection, error) {
	var out dto.RoomCollection
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		items, err := unit.Rooms().ListByHost(ctx, domainrooms.HostID(q.HostID))
		if err != nil {
			return err
		}
		out = dto.MapRooms(items)
		return nil
	})
	return out, err
}

// Register attaches the room handlers to the buses.
// ensureLocation checks that a room's location exists and belongs to the host.
// Rooms without a location are allowed.
func ensureLocation(ctx context.Context, unit uow.UnitOfWork, hostID, locationID string) error {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil
	}
	location, err := unit.Locations().ByID(ctx, domainlocations.LocationID(locationID))
	if err != nil {
		return err
	}
	return location.OwnedBy(hostID)
}

func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, h *Handlers) {
	commands.RegisterHandler(cmdBus, createRoomKey, commands.HandlerFunc[CreateRoomCommand, *dto.Room](h.Create))
	commands.RegisterHandler(cmdBus, updateRoomRatesKey, commands.HandlerFunc[UpdateRoomRatesCommand, *dto.Room](h.UpdateRates))
	queries.RegisterHandler(queryBus, getRoomKey, queries.HandlerFunc[GetRoomQuery, dto.Room](h.Get))
	queries.RegisterHandler(queryBus, listHostRoomsKey, queries.HandlerFunc[ListHostRoomsQuery, dto.RoomCollection](h.ListByHost))
}
