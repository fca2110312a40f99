package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/app/handlers/support"
	"homestay/internal/app/uow"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/infra/storage/memory"
)

// aggregateSet is what a fixture file turns into.
type aggregateSet struct {
	Rooms     []*domainrooms.Room
	Coupons   []*domaincoupons.Coupon
	Locations []*domainlocations.Location
	Settings  []*hostsettings.Settings
}

// seeder stores fixture aggregates.
type seeder interface {
	seed(ctx context.Context, set aggregateSet) error
}

type memorySeeder struct {
	store *memory.Store
}

func (s memorySeeder) seed(ctx context.Context, set aggregateSet) error {
	if err := s.store.SeedHosts(ctx, set.Locations, set.Settings); err != nil {
		return err
	}
	return s.store.Seed(ctx, set.Rooms, set.Coupons)
}

// unitSeeder keeps aggregates that already exist, so a persistent store can be
// seeded on every start.
type unitSeeder struct {
	factory uow.UoWFactory
}

func (s unitSeeder) seed(ctx context.Context, set aggregateSet) error {
	return support.InUnit(ctx, s.factory, func(ctx context.Context, unit uow.UnitOfWork) error {
		for _, loc := range set.Locations {
			if _, err := unit.Locations().ByID(ctx, loc.ID); err == nil {
				continue
			} else if !errors.Is(err, domainlocations.ErrLocationNotFound) {
				return err
			}
			loc.ClearEvents()
			if err := unit.Locations().Save(ctx, loc); err != nil {
				return fmt.Errorf("seed location %s: %w", loc.ID, err)
			}
		}
		for _, hs := range set.Settings {
			if _, err := unit.HostSettings().ByHost(ctx, hs.Host); err == nil {
				continue
			} else if !errors.Is(err, hostsettings.ErrSettingsNotFound) {
				return err
			}
			hs.ClearEvents()
			if err := unit.HostSettings().Save(ctx, hs); err != nil {
				return fmt.Errorf("seed settings %s: %w", hs.Host, err)
			}
		}
		for _, room := range set.Rooms {
			if _, err := unit.Rooms().ByID(ctx, room.ID); err == nil {
				continue
			} else if !errors.Is(err, domainrooms.ErrRoomNotFound) {
				return err
			}
			room.ClearEvents()
			if err := unit.Rooms().Save(ctx, room); err != nil {
				return fmt.Errorf("seed room %s: %w", room.ID, err)
			}
		}
		for _, coupon := range set.Coupons {
			if _, err := unit.Coupons().ByCode(ctx, coupon.Host, coupon.Code); err == nil {
				continue
			} else if !errors.Is(err, domaincoupons.ErrNoSuchCoupon) {
				return err
			}
			coupon.ClearEvents()
			if err := unit.Coupons().Save(ctx, coupon); err != nil {
				return fmt.Errorf("seed coupon %s: %w", coupon.Code, err)
			}
		}
		return nil
	})
}

type fixtureFile struct {
	Locations []locationFixture `json:"locations"`
	Settings  []settingsFixture `json:"host_settings"`
	Rooms     []roomFixture     `json:"rooms"`
	Coupons   []couponFixture   `json:"coupons"`
}

type locationFixture struct {
	ID          string `json:"id"`
	Host        string `json:"host"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Province    string `json:"province"`
	Description string `json:"description"`
}

type settingsFixture struct {
	Host               string `json:"host"`
	AdvanceBookingDays int    `json:"advance_booking_days"`
	MinimumStayDays    int    `json:"minimum_stay_days"`
	MaximumStayDays    int    `json:"maximum_stay_days"`
	CancellationPolicy string `json:"cancellation_policy"`
	LateRefundPercent  int    `json:"late_refund_percent"`
	TaxRatePercent     string `json:"tax_rate_percent"`
}

type roomFixture struct {
	ID            string `json:"id"`
	Host          string `json:"host"`
	LocationID    string `json:"location_id"`
	Name          string `json:"name"`
	Capacity      int    `json:"capacity"`
	PricePerHour  int64  `json:"price_per_hour"`
	PricePerDay   int64  `json:"price_per_day"`
	PricePerMonth int64  `json:"price_per_month"`
	Currency      string `json:"currency"`
}

type couponFixture struct {
	ID          string    `json:"id"`
	Host        string    `json:"host"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Value       string    `json:"value"`
	Currency    string    `json:"currency"`
	ExpiryDate  time.Time `json:"expiry_date"`
	UsageLimit  int       `json:"usage_limit"`
	Description string    `json:"description"`
}

// loadFixtures seeds the store from path, or from the built-in sample data
// when path is empty.
func (a *application) loadFixtures(ctx context.Context, path string) error {
	now := time.Now().UTC()
	fixtures := defaultFixtures(now)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read fixtures: %w", err)
		}
		fixtures = fixtureFile{}
		if err := json.Unmarshal(data, &fixtures); err != nil {
			return fmt.Errorf("decode fixtures: %w", err)
		}
	}
	set, err := fixtures.aggregates(now)
	if err != nil {
		return err
	}
	if err := a.seed.seed(ctx, set); err != nil {
		return err
	}
	a.logger.Info("fixtures loaded",
		"locations", len(set.Locations),
		"host_settings", len(set.Settings),
		"rooms", len(set.Rooms),
		"coupons", len(set.Coupons),
	)
	return nil
}

func (f fixtureFile) aggregates(now time.Time) (aggregateSet, error) {
	var set aggregateSet
	for _, fx := range f.Locations {
		loc, err := domainlocations.NewLocation(domainlocations.CreateParams{
			ID:   domainlocations.LocationID(fx.ID),
			Host: fx.Host,
			Details: domainlocations.Details{
				Name:        fx.Name,
				Address:     fx.Address,
				City:        fx.City,
				Province:    fx.Province,
				Description: fx.Description,
			},
			Now: now,
		})
		if err != nil {
			return aggregateSet{}, fmt.Errorf("location fixture %q: %w", fx.ID, err)
		}
		set.Locations = append(set.Locations, loc)
	}
	for _, fx := range f.Settings {
		terms := hostsettings.Terms{
			AdvanceBookingDays: fx.AdvanceBookingDays,
			MinimumStayDays:    fx.MinimumStayDays,
			MaximumStayDays:    fx.MaximumStayDays,
			CancellationPolicy: hostsettings.Policy(fx.CancellationPolicy),
			LateRefundPercent:  fx.LateRefundPercent,
		}
		if fx.TaxRatePercent != "" {
			rate, err := decimal.NewFromString(fx.TaxRatePercent)
			if err != nil {
				return aggregateSet{}, fmt.Errorf("settings fixture %q: %w", fx.Host, err)
			}
			terms.TaxRatePercent = decimal.NewNullDecimal(rate)
		}
		hs, err := hostsettings.New(fx.Host, terms, now)
		if err != nil {
			return aggregateSet{}, fmt.Errorf("settings fixture %q: %w", fx.Host, err)
		}
		set.Settings = append(set.Settings, hs)
	}
	rooms := make([]*domainrooms.Room, 0, len(f.Rooms))
	for _, fx := range f.Rooms {
		room, err := domainrooms.NewRoom(domainrooms.CreateRoomParams{
			ID:         domainrooms.RoomID(fx.ID),
			Host:       domainrooms.HostID(fx.Host),
			LocationID: fx.LocationID,
			Name:       fx.Name,
			Capacity:   fx.Capacity,
			Rates: domainrooms.Rates{
				PricePerHour:  fx.PricePerHour,
				PricePerDay:   fx.PricePerDay,
				PricePerMonth: fx.PricePerMonth,
			},
			Currency: fx.Currency,
			Now:      now,
		})
		if err != nil {
			return aggregateSet{}, fmt.Errorf("room fixture %q: %w", fx.ID, err)
		}
		rooms = append(rooms, room)
	}
	coupons := make([]*domaincoupons.Coupon, 0, len(f.Coupons))
	for _, fx := range f.Coupons {
		value, err := decimal.NewFromString(fx.Value)
		if err != nil {
			return aggregateSet{}, fmt.Errorf("coupon fixture %q: %w", fx.Code, err)
		}
		coupon, err := domaincoupons.NewCoupon(domaincoupons.CreateParams{
			ID:   domaincoupons.CouponID(fx.ID),
			Host: fx.Host,
			Terms: domaincoupons.Terms{
				Code:        fx.Code,
				Type:        domaincoupons.DiscountType(fx.Type),
				Value:       value,
				Currency:    fx.Currency,
				ExpiryDate:  fx.ExpiryDate,
				UsageLimit:  fx.UsageLimit,
				Description: fx.Description,
			},
			Now: now,
		})
		if err != nil {
			return aggregateSet{}, fmt.Errorf("coupon fixture %q: %w", fx.Code, err)
		}
		coupons = append(coupons, coupon)
	}
	set.Rooms, set.Coupons = rooms, coupons
	return set, nil
}

func defaultFixtures(now time.Time) fixtureFile {
	endOfDay := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)
	}
	return fixtureFile{
		Locations: []locationFixture{
			{ID: "hoi-an", Host: "host-1", Name: "Old Town House", Address: "12 Tran Phu", City: "Hoi An", Province: "Quang Nam"},
			{ID: "da-lat", Host: "host-2", Name: "Pine Hill Villa", Address: "3 Phan Dinh Phung", City: "Da Lat", Province: "Lam Dong"},
		},
		Settings: []settingsFixture{
			{Host: "host-2", AdvanceBookingDays: 180, MinimumStayDays: 2, MaximumStayDays: 30, CancellationPolicy: "MODERATE", LateRefundPercent: 30, TaxRatePercent: "8"},
		},
		Rooms: []roomFixture{
			{ID: "room-1", Host: "host-1", LocationID: "hoi-an", Name: "Garden Room", Capacity: 4, PricePerHour: 100_000, PricePerDay: 800_000, PricePerMonth: 15_000_000, Currency: "VND"},
			{ID: "room-2", Host: "host-1", LocationID: "hoi-an", Name: "River Studio", Capacity: 2, PricePerHour: 80_000, PricePerDay: 600_000, Currency: "VND"},
			{ID: "room-3", Host: "host-2", LocationID: "da-lat", Name: "Pine Loft", Capacity: 6, PricePerDay: 1_200_000, PricePerMonth: 25_000_000, Currency: "VND"},
		},
		Coupons: []couponFixture{
			{ID: "cpn-welcome10", Host: "host-1", Code: "WELCOME10", Type: "PERCENTAGE", Value: "10", ExpiryDate: endOfDay(now.AddDate(1, 0, 0)), UsageLimit: 100, Description: "10% off for first stays"},
			{ID: "cpn-summer50k", Host: "host-1", Code: "SUMMER50K", Type: "FIXED", Value: "50000", Currency: "VND", ExpiryDate: endOfDay(now.AddDate(0, 3, 0)), UsageLimit: 50},
			{ID: "cpn-expired20", Host: "host-1", Code: "EXPIRED20", Type: "PERCENTAGE", Value: "20", ExpiryDate: endOfDay(now.AddDate(0, 0, -1)), UsageLimit: 10},
		},
	}
}
