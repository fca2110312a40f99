package rooms

import (
	"context"
	"errors"
	"strings"
	"time"

	"homestay/internal/domain/shared/events"
	"homestay/internal/domain/shared/money"
)

var (
	ErrRoomNotFound    = errors.New("rooms: not found")
	ErrNameRequired    = errors.New("rooms: name is required")
	ErrCapacity        = errors.New("rooms: capacity must be at least 1")
	ErrNegativeRate    = errors.New("rooms: rates must be non-negative")
	ErrNoRatesOffered  = errors.New("rooms: at least one rate must be offered")
	ErrHostRequired    = errors.New("rooms: host is required")
	ErrForeignRoom     = errors.New("rooms: room belongs to another host")
	ErrRoomIDRequired  = errors.New("rooms: id is required")
	ErrInvalidCurrency = errors.New("rooms: invalid currency")
)

type RoomID string
type HostID string

// Rates are unit prices in minor currency units; zero means the granularity is not offered.
type Rates struct {
	PricePerHour  int64 `json:"price_per_hour" bson:"price_per_hour"`
	PricePerDay   int64 `json:"price_per_day" bson:"price_per_day"`
	PricePerMonth int64 `json:"price_per_month" bson:"price_per_month"`
}

func (r Rates) validate() error {
	if r.PricePerHour < 0 || r.PricePerDay < 0 || r.PricePerMonth < 0 {
		return ErrNegativeRate
	}
	if r.PricePerHour == 0 && r.PricePerDay == 0 && r.PricePerMonth == 0 {
		return ErrNoRatesOffered
	}
	return nil
}

type Room struct {
	ID         RoomID
	Host       HostID
	LocationID string
	Name       string
	Capacity   int
	Rates      Rates
	Currency   string
	Active     bool
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RoomID) (*Room, error)
	Save(ctx context.Context, room *Room) error
	ListByHost(ctx context.Context, host HostID) ([]*Room, error)
}

type CreateRoomParams struct {
	ID         RoomID
	Host       HostID
	LocationID string
	Name       string
	Capacity   int
	Rates      Rates
	Currency   string
	Now        time.Time
}

func NewRoom(params CreateRoomParams) (*Room, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrRoomIDRequired
	}
	if strings.TrimSpace(string(params.Host)) == "" {
		return nil, ErrHostRequired
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, ErrNameRequired
	}
	if params.Capacity < 1 {
		return nil, ErrCapacity
	}
	if err := params.Rates.validate(); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(params.Currency)) != 3 {
		return nil, ErrInvalidCurrency
	}
	now := params.Now.UTC()
	room := &Room{
		ID:         params.ID,
		Host:       params.Host,
		LocationID: strings.TrimSpace(params.LocationID),
		Name:       strings.TrimSpace(params.Name),
		Capacity:   params.Capacity,
		Rates:      params.Rates,
		Currency:   strings.ToUpper(strings.TrimSpace(params.Currency)),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	room.Record(RoomCreated{RoomID: room.ID, Host: room.Host, At: now})
	return room, nil
}

// UpdateRates replaces the rate card; quotes computed afterwards use the new prices.
func (r *Room) UpdateRates(rates Rates, capacity int, now time.Time) error {
	if capacity < 1 {
		return ErrCapacity
	}
	if err := rates.validate(); err != nil {
		return err
	}
	r.Rates = rates
	r.Capacity = capacity
	r.UpdatedAt = now.UTC()
	r.Record(RoomRatesUpdated{RoomID: r.ID, Rates: rates, Capacity: capacity, At: r.UpdatedAt})
	return nil
}

// OwnedBy guards host-scoped mutations.
func (r *Room) OwnedBy(host HostID) error {
	if r.Host != host {
		return ErrForeignRoom
	}
	return nil
}

// UnitPrice looks up the rate card price for one unit of g.
func (r Room) UnitPrice(g Granularity) (money.Money, error) {
	return UnitPriceFor(r, g)
}
