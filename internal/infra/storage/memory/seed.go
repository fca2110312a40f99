package memory

import (
	"context"

	"homestay/internal/app/uow"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

// Seed stores rooms and coupons in one unit of work. Pending events of the
// seeded aggregates are dropped.
func (s *Store) Seed(ctx context.Context, rooms []*domainrooms.Room, coupons []*domaincoupons.Coupon) error {
	return s.seed(ctx, func(unit uow.UnitOfWork) error {
		for _, room := range rooms {
			room.ClearEvents()
			if err := unit.Rooms().Save(ctx, room); err != nil {
				return err
			}
		}
		for _, coupon := range coupons {
			coupon.ClearEvents()
			if err := unit.Coupons().Save(ctx, coupon); err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedHosts stores host locations and settings the same way Seed stores rooms.
func (s *Store) SeedHosts(ctx context.Context, locations []*domainlocations.Location, settings []*hostsettings.Settings) error {
	return s.seed(ctx, func(unit uow.UnitOfWork) error {
		for _, loc := range locations {
			loc.ClearEvents()
			if err := unit.Locations().Save(ctx, loc); err != nil {
				return err
			}
		}
		for _, hs := range settings {
			hs.ClearEvents()
			if err := unit.HostSettings().Save(ctx, hs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) seed(ctx context.Context, fn func(uow.UnitOfWork) error) error {
	unit, err := Factory{Store: s}.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(unit); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}
