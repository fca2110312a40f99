package memory

import (
	"context"
	"errors"
	"sync"

	"homestay/internal/app/outbox"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// ErrUnitClosed is returned when a unit is used after commit or rollback.
var ErrUnitClosed = errors.New("memory: unit of work already closed")

// Factory starts units of work over a shared Store.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:    f.Store,
		readOnly: opts.ReadOnly,
		rooms:    newStaged(f.Store.rooms),
		coupons:  newStaged(f.Store.coupons),
		bookings: newStaged(f.Store.bookings),
		locs:     newStaged(f.Store.locs),
		settings: newStaged(f.Store.settings),
	}, nil
}

// Unit buffers writes and event records until Commit, which applies them
// atomically after checking that no other unit changed the same aggregates.
type Unit struct {
	store    *Store
	readOnly bool

	mu       sync.Mutex
	closed   bool
	rooms    *staged[domainrooms.RoomID, domainrooms.Room]
	coupons  *staged[domaincoupons.CouponID, domaincoupons.Coupon]
	bookings *staged[domainbooking.BookingID, domainbooking.Booking]
	locs     *staged[domainlocations.LocationID, domainlocations.Location]
	settings *staged[string, hostsettings.Settings]
	events   []outbox.EventRecord
}

func (u *Unit) Rooms() domainrooms.Repository {
	return roomRepository{unit: u}
}

func (u *Unit) Coupons() domaincoupons.Repository {
	return couponRepository{unit: u}
}

func (u *Unit) Bookings() domainbooking.Repository {
	return bookingRepository{unit: u}
}

func (u *Unit) Locations() domainlocations.Repository {
	return locationRepository{unit: u}
}

func (u *Unit) HostSettings() hostsettings.Repository {
	return settingsRepository{unit: u}
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrUnitClosed
	}
	u.closed = true
	if u.readOnly {
		return nil
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	if err := u.rooms.validate(); err != nil {
		return err
	}
	if err := u.coupons.validate(); err != nil {
		return err
	}
	if err := u.bookings.validate(); err != nil {
		return err
	}
	if err := u.locs.validate(); err != nil {
		return err
	}
	if err := u.settings.validate(); err != nil {
		return err
	}
	if err := u.checkCouponCodes(); err != nil {
		return err
	}
	u.rooms.apply()
	u.coupons.apply()
	u.bookings.apply()
	u.locs.apply()
	u.settings.apply()
	u.store.outbox.enqueue(u.events)
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.closed = true
	u.events = nil
	return nil
}

// read runs fn under the store read lock.
func (u *Unit) read(fn func()) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	fn()
}

// write runs fn under the store read lock after checking the unit accepts writes.
func (u *Unit) write(fn func() error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnlyUnit
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	return fn()
}

func (u *Unit) stageEvent(rec outbox.EventRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return ErrUnitClosed
	}
	u.events = append(u.events, rec)
	return nil
}

// checkCouponCodes enforces per-host code uniqueness over the merged view.
// Must be called with the store lock held for writing.
func (u *Unit) checkCouponCodes() error {
	seen := make(map[string]domaincoupons.CouponID)
	for _, c := range u.coupons.list(func(*domaincoupons.Coupon) bool { return true }) {
		key := c.Host + "\x00" + domaincoupons.NormalizeCode(c.Code)
		if other, ok := seen[key]; ok && other != c.ID {
			return domaincoupons.ErrDuplicateCode
		}
		seen[key] = c.ID
	}
	return nil
}

// InjectContext exposes the unit to the outbox staged in the same context.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, unitKey{}, u)
}

type unitKey struct{}

func unitFrom(ctx context.Context) (*Unit, bool) {
	u, ok := ctx.Value(unitKey{}).(*Unit)
	return u, ok
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
