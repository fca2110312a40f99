// Package quoting loads what a quote needs from a unit of work and runs the pricing engine.
package quoting

import (
	"context"
	"errors"
	"time"

	"homestay/internal/app/uow"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainpricing "homestay/internal/domain/pricing"
	domainrooms "homestay/internal/domain/rooms"
)

// Recorder observes quote outcomes; kind is empty for successful quotes.
type Recorder interface {
	ObserveQuote(kind domainpricing.Kind)
}

// Quoter prices stays with the room host's rules. Platform applies to hosts
// without saved settings.
type Quoter struct {
	Engine   domainpricing.Calculator
	Platform hostsettings.Platform
	Now      func() time.Time
	Recorder Recorder
}

// Result carries the quote together with the aggregates it was computed from,
// so a booking can redeem the same coupon instance it was priced with.
type Result struct {
	Quote  domainpricing.Quote
	Room   *domainrooms.Room
	Coupon *domaincoupons.Coupon
	Rules  hostsettings.Rules
	At     time.Time
}

func (q *Quoter) Quote(ctx context.Context, unit uow.UnitOfWork, req domainpricing.BookingRequest) (Result, error) {
	room, err := unit.Rooms().ByID(ctx, req.RoomID)
	if err != nil {
		return Result{}, err
	}
	coupon, err := q.lookupCoupon(ctx, unit, room, req.CouponCode)
	if err != nil {
		return Result{}, err
	}
	rules, err := q.Rules(ctx, unit, string(room.Host))
	if err != nil {
		return Result{}, err
	}
	at := q.now()
	quote, err := q.engine().Quote(req, *room, coupon, domainpricing.Options{At: at, TaxRate: rules.TaxRate})
	if q.Recorder != nil {
		q.Recorder.ObserveQuote(domainpricing.KindOf(err))
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Quote: quote, Room: room, Coupon: coupon, Rules: rules, At: at}, nil
}

// Rules resolves the effective rules of host.
func (q *Quoter) Rules(ctx context.Context, unit uow.UnitOfWork, host string) (hostsettings.Rules, error) {
	settings, err := unit.HostSettings().ByHost(ctx, host)
	if errors.Is(err, hostsettings.ErrSettingsNotFound) {
		settings, err = nil, nil
	}
	if err != nil {
		return hostsettings.Rules{}, err
	}
	return hostsettings.Resolve(settings, q.Platform), nil
}

// lookupCoupon resolves code among the coupons of the room's host. A missing
// coupon is reported by the engine, not here.
func (q *Quoter) lookupCoupon(ctx context.Context, unit uow.UnitOfWork, room *domainrooms.Room, code string) (*domaincoupons.Coupon, error) {
	code = domaincoupons.NormalizeCode(code)
	if code == "" {
		return nil, nil
	}
	coupon, err := unit.Coupons().ByCode(ctx, string(room.Host), code)
	if errors.Is(err, domaincoupons.ErrNoSuchCoupon) {
		return nil, nil
	}
	return coupon, err
}

func (q *Quoter) engine() domainpricing.Calculator {
	if q.Engine == nil {
		return domainpricing.Engine{}
	}
	return q.Engine
}

func (q *Quoter) now() time.Time {
	if q.Now == nil {
		return time.Now().UTC()
	}
	return q.Now().UTC()
}
