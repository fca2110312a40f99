package uow

import (
	"context"
	"errors"

	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

// ErrConcurrentUpdate is returned by repositories when the stored version no
// longer matches the aggregate being saved.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Rooms() domainrooms.Repository
	Coupons() domaincoupons.Repository
	Bookings() domainbooking.Repository
	Locations() domainlocations.Repository
	HostSettings() hostsettings.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
