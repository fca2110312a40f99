package quotes

import (
	"context"
	"time"

	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/queries"
	"homestay/internal/app/services/quoting"
	"homestay/internal/app/uow"
	domainpricing "homestay/internal/domain/pricing"
	domainrooms "homestay/internal/domain/rooms"
)

const quoteBookingKey = "quotes.booking"

type AddOn struct {
	ID        string `validate:"required"`
	UnitPrice int64  `validate:"gte=0"`
	Quantity  int    `validate:"gte=0"`
}

// QuoteBookingQuery prices a prospective stay. It never consumes a coupon use.
type QuoteBookingQuery struct {
	RoomID      string    `validate:"required"`
	Granularity string    `validate:"required"`
	Start       time.Time `validate:"required"`
	End         time.Time `validate:"required"`
	GuestCount  int
	CouponCode  string  `validate:"max=32"`
	AddOns      []AddOn `validate:"dive"`
}

func (q QuoteBookingQuery) Key() string { return quoteBookingKey }

// Request converts the query into the pricing engine input.
func (q QuoteBookingQuery) Request() (domainpricing.BookingRequest, error) {
	g, err := domainrooms.ParseGranularity(q.Granularity)
	if err != nil {
		return domainpricing.BookingRequest{}, err
	}
	addOns := make([]domainpricing.AddOn, 0, len(q.AddOns))
	for _, a := range q.AddOns {
		addOns = append(addOns, domainpricing.AddOn{ID: a.ID, UnitPrice: a.UnitPrice, Quantity: a.Quantity})
	}
	return domainpricing.BookingRequest{
		RoomID:      domainrooms.RoomID(q.RoomID),
		Granularity: g,
		Start:       q.Start,
		End:         q.End,
		GuestCount:  q.GuestCount,
		CouponCode:  q.CouponCode,
		AddOns:      addOns,
	}, nil
}

type Handlers struct {
	UoWFactory uow.UoWFactory
	Quoter     *quoting.Quoter
}

func (h *Handlers) Quote(ctx context.Context, q QuoteBookingQuery) (dto.Quote, error) {
	req, err := q.Request()
	if err != nil {
		return dto.Quote{}, err
	}
	var out dto.Quote
	err = support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		res, err := h.Quoter.Quote(ctx, unit, req)
		if err != nil {
			return err
		}
		out = dto.MapQuote(res.Quote)
		return nil
	})
	return out, err
}

func Register(queryBus *queries.InMemoryBus, h *Handlers) {
	queries.RegisterHandler(queryBus, quoteBookingKey, queries.HandlerFunc[QuoteBookingQuery, dto.Quote](h.Quote))
}
