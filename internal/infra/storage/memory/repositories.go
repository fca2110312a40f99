package memory

import (
	"context"
	"sort"
	"strings"

	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
)

type roomRepository struct {
	unit *Unit
}

func (r roomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	var (
		room *domainrooms.Room
		ok   bool
	)
	r.unit.read(func() { room, ok = r.unit.rooms.get(id) })
	if !ok {
		return nil, domainrooms.ErrRoomNotFound
	}
	return room, nil
}

func (r roomRepository) Save(ctx context.Context, room *domainrooms.Room) error {
	return r.unit.write(func() error { return r.unit.rooms.put(room) })
}

func (r roomRepository) ListByHost(ctx context.Context, host domainrooms.HostID) ([]*domainrooms.Room, error) {
	var items []*domainrooms.Room
	r.unit.read(func() {
		items = r.unit.rooms.list(func(room *domainrooms.Room) bool { return room.Host == host })
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

type couponRepository struct {
	unit *Unit
}

func (r couponRepository) ByID(ctx context.Context, id domaincoupons.CouponID) (*domaincoupons.Coupon, error) {
	var (
		coupon *domaincoupons.Coupon
		ok     bool
	)
	r.unit.read(func() { coupon, ok = r.unit.coupons.get(id) })
	if !ok {
		return nil, domaincoupons.ErrNoSuchCoupon
	}
	return coupon, nil
}

func (r couponRepository) ByCode(ctx context.Context, host string, code string) (*domaincoupons.Coupon, error) {
	code = domaincoupons.NormalizeCode(code)
	var matches []*domaincoupons.Coupon
	r.unit.read(func() {
		matches = r.unit.coupons.list(func(c *domaincoupons.Coupon) bool { return c.Host == host && sameCode(c.Code, code) })
	})
	if len(matches) == 0 {
		return nil, domaincoupons.ErrNoSuchCoupon
	}
	return matches[0], nil
}

func (r couponRepository) ListByHost(ctx context.Context, host string) ([]*domaincoupons.Coupon, error) {
	var items []*domaincoupons.Coupon
	r.unit.read(func() {
		items = r.unit.coupons.list(func(c *domaincoupons.Coupon) bool { return c.Host == host })
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Code < items[j].Code
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (r couponRepository) Save(ctx context.Context, coupon *domaincoupons.Coupon) error {
	return r.unit.write(func() error {
		dup := r.unit.coupons.list(func(c *domaincoupons.Coupon) bool {
			return c.Host == coupon.Host && sameCode(c.Code, coupon.Code) && c.ID != coupon.ID
		})
		if len(dup) > 0 {
			return domaincoupons.ErrDuplicateCode
		}
		return r.unit.coupons.put(coupon)
	})
}

func (r couponRepository) Delete(ctx context.Context, id domaincoupons.CouponID) error {
	return r.unit.write(func() error {
		if _, ok := r.unit.coupons.get(id); !ok {
			return domaincoupons.ErrNoSuchCoupon
		}
		return r.unit.coupons.remove(id)
	})
}

func sameCode(a, b string) bool {
	return strings.EqualFold(domaincoupons.NormalizeCode(a), domaincoupons.NormalizeCode(b))
}

type bookingRepository struct {
	unit *Unit
}

func (r bookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var (
		booking *domainbooking.Booking
		ok      bool
	)
	r.unit.read(func() { booking, ok = r.unit.bookings.get(id) })
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	return booking, nil
}

func (r bookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	return r.unit.write(func() error { return r.unit.bookings.put(booking) })
}

func (r bookingRepository) ListByHost(ctx context.Context, host domainrooms.HostID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.Host == host }), nil
}

func (r bookingRepository) ListByRoom(ctx context.Context, room domainrooms.RoomID) ([]*domainbooking.Booking, error) {
	return r.list(func(b *domainbooking.Booking) bool { return b.RoomID == room }), nil
}

func (r bookingRepository) list(match func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	var items []*domainbooking.Booking
	r.unit.read(func() { items = r.unit.bookings.list(match) })
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

type locationRepository struct {
	unit *Unit
}

func (r locationRepository) ByID(ctx context.Context, id domainlocations.LocationID) (*domainlocations.Location, error) {
	var (
		loc *domainlocations.Location
		ok  bool
	)
	r.unit.read(func() { loc, ok = r.unit.locs.get(id) })
	if !ok {
		return nil, domainlocations.ErrLocationNotFound
	}
	return loc, nil
}

func (r locationRepository) ListByHost(ctx context.Context, host string) ([]*domainlocations.Location, error) {
	var items []*domainlocations.Location
	r.unit.read(func() {
		items = r.unit.locs.list(func(l *domainlocations.Location) bool { return l.Host == host })
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r locationRepository) Save(ctx context.Context, loc *domainlocations.Location) error {
	return r.unit.write(func() error { return r.unit.locs.put(loc) })
}

func (r locationRepository) Delete(ctx context.Context, id domainlocations.LocationID) error {
	return r.unit.write(func() error {
		if _, ok := r.unit.locs.get(id); !ok {
			return domainlocations.ErrLocationNotFound
		}
		return r.unit.locs.remove(id)
	})
}

type settingsRepository struct {
	unit *Unit
}

func (r settingsRepository) ByHost(ctx context.Context, host string) (*hostsettings.Settings, error) {
	var (
		s  *hostsettings.Settings
		ok bool
	)
	r.unit.read(func() { s, ok = r.unit.settings.get(host) })
	if !ok {
		return nil, hostsettings.ErrSettingsNotFound
	}
	return s, nil
}

func (r settingsRepository) Save(ctx context.Context, s *hostsettings.Settings) error {
	return r.unit.write(func() error { return r.unit.settings.put(s) })
}

var (
	_ domainlocations.Repository = locationRepository{}
	_ hostsettings.Repository    = settingsRepository{}
	_ domainrooms.Repository     = roomRepository{}
	_ domaincoupons.Repository   = couponRepository{}
	_ domainbooking.Repository   = bookingRepository{}
)
