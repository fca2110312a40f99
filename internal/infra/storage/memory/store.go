package memory

import (
	"errors"
	"sync"

	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/events"
)

// ErrReadOnlyUnit is returned when a read-only unit of work tries to write.
var ErrReadOnlyUnit = errors.New("memory: write in read-only unit of work")

// Store holds the committed state shared by every unit of work.
type Store struct {
	mu       sync.RWMutex
	rooms    *collection[domainrooms.RoomID, domainrooms.Room]
	coupons  *collection[domaincoupons.CouponID, domaincoupons.Coupon]
	bookings *collection[domainbooking.BookingID, domainbooking.Booking]
	locs     *collection[domainlocations.LocationID, domainlocations.Location]
	settings *collection[string, hostsettings.Settings]
	outbox   *Outbox
}

func NewStore() *Store {
	s := &Store{
		rooms: newCollection(
			func(r *domainrooms.Room) domainrooms.RoomID { return r.ID },
			func(r *domainrooms.Room) *int64 { return &r.Version },
			func(r *domainrooms.Room) *domainrooms.Room {
				c := *r
				c.EventRecorder = events.EventRecorder{}
				return &c
			},
		),
		coupons: newCollection(
			func(c *domaincoupons.Coupon) domaincoupons.CouponID { return c.ID },
			func(c *domaincoupons.Coupon) *int64 { return &c.Version },
			func(c *domaincoupons.Coupon) *domaincoupons.Coupon {
				cp := *c
				cp.EventRecorder = events.EventRecorder{}
				return &cp
			},
		),
		bookings: newCollection(
			func(b *domainbooking.Booking) domainbooking.BookingID { return b.ID },
			func(b *domainbooking.Booking) *int64 { return &b.Version },
			func(b *domainbooking.Booking) *domainbooking.Booking {
				c := *b
				c.EventRecorder = events.EventRecorder{}
				if b.Quote.Discount != nil {
					d := *b.Quote.Discount
					c.Quote.Discount = &d
				}
				return &c
			},
		),
		locs: newCollection(
			func(l *domainlocations.Location) domainlocations.LocationID { return l.ID },
			func(l *domainlocations.Location) *int64 { return &l.Version },
			func(l *domainlocations.Location) *domainlocations.Location {
				c := *l
				c.EventRecorder = events.EventRecorder{}
				return &c
			},
		),
		settings: newCollection(
			func(hs *hostsettings.Settings) string { return hs.Host },
			func(hs *hostsettings.Settings) *int64 { return &hs.Version },
			func(hs *hostsettings.Settings) *hostsettings.Settings {
				c := *hs
				c.EventRecorder = events.EventRecorder{}
				return &c
			},
		),
	}
	s.outbox = NewOutbox()
	return s
}

// Outbox returns the event outbox backed by this store.
func (s *Store) Outbox() *Outbox {
	return s.outbox
}

// collection is a committed table of aggregates kept as private copies.
type collection[K comparable, V any] struct {
	rows    map[K]*V
	id      func(*V) K
	version func(*V) *int64
	clone   func(*V) *V
}

func newCollection[K comparable, V any](id func(*V) K, version func(*V) *int64, clone func(*V) *V) *collection[K, V] {
	return &collection[K, V]{rows: make(map[K]*V), id: id, version: version, clone: clone}
}

type change[V any] struct {
	base    int64
	fresh   bool
	deleted bool
	value   *V
}

// staged buffers the writes of one unit of work against a collection.
// Reads see staged writes first. Every write records the version it was based
// on so commit can detect writes made by other units in the meantime.
type staged[K comparable, V any] struct {
	col     *collection[K, V]
	changes map[K]*change[V]
	order   []K
}

func newStaged[K comparable, V any](col *collection[K, V]) *staged[K, V] {
	return &staged[K, V]{col: col, changes: make(map[K]*change[V])}
}

// get must be called with the store lock held for reading.
func (s *staged[K, V]) get(id K) (*V, bool) {
	if ch, ok := s.changes[id]; ok {
		if ch.deleted {
			return nil, false
		}
		return s.col.clone(ch.value), true
	}
	row, ok := s.col.rows[id]
	if !ok {
		return nil, false
	}
	return s.col.clone(row), true
}

// list must be called with the store lock held for reading.
func (s *staged[K, V]) list(match func(*V) bool) []*V {
	out := make([]*V, 0)
	for id, row := range s.col.rows {
		if _, ok := s.changes[id]; ok {
			continue
		}
		if match(row) {
			out = append(out, s.col.clone(row))
		}
	}
	for _, id := range s.order {
		ch := s.changes[id]
		if !ch.deleted && match(ch.value) {
			out = append(out, s.col.clone(ch.value))
		}
	}
	return out
}

// put stages v and bumps its version. Must be called with the store lock held for reading.
func (s *staged[K, V]) put(v *V) error {
	id := s.col.id(v)
	expected := *s.col.version(v)
	ch, err := s.track(id, expected)
	if err != nil {
		return err
	}
	stored := s.col.clone(v)
	*s.col.version(stored) = expected + 1
	ch.value = stored
	ch.deleted = false
	*s.col.version(v) = expected + 1
	return nil
}

// remove stages the deletion of id. Must be called with the store lock held for reading.
func (s *staged[K, V]) remove(id K) error {
	current, ok := s.get(id)
	if !ok {
		return nil
	}
	ch, err := s.track(id, *s.col.version(current))
	if err != nil {
		return err
	}
	ch.deleted = true
	return nil
}

func (s *staged[K, V]) track(id K, expected int64) (*change[V], error) {
	if ch, ok := s.changes[id]; ok {
		if ch.deleted || *s.col.version(ch.value) != expected {
			return nil, uow.ErrConcurrentUpdate
		}
		return ch, nil
	}
	row, exists := s.col.rows[id]
	switch {
	case exists && *s.col.version(row) != expected:
		return nil, uow.ErrConcurrentUpdate
	case !exists && expected != 0:
		return nil, uow.ErrConcurrentUpdate
	}
	ch := &change[V]{base: expected, fresh: !exists}
	s.changes[id] = ch
	s.order = append(s.order, id)
	return ch, nil
}

// validate must be called with the store lock held for writing.
func (s *staged[K, V]) validate() error {
	for _, id := range s.order {
		ch := s.changes[id]
		row, exists := s.col.rows[id]
		if ch.fresh {
			if exists {
				return uow.ErrConcurrentUpdate
			}
			continue
		}
		if !exists || *s.col.version(row) != ch.base {
			return uow.ErrConcurrentUpdate
		}
	}
	return nil
}

// apply must be called with the store lock held for writing.
func (s *staged[K, V]) apply() {
	for _, id := range s.order {
		ch := s.changes[id]
		if ch.deleted {
			delete(s.col.rows, id)
			continue
		}
		s.col.rows[id] = ch.value
	}
}
