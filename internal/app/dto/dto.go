package dto

import (
	"time"

	"github.com/samber/lo"

	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	domainpricing "homestay/internal/domain/pricing"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/money"
)

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(value money.Money) Money {
	return Money{Amount: value.Amount, Currency: value.Currency}
}

type Room struct {
	ID            string    `json:"id"`
	HostID        string    `json:"host_id"`
	LocationID    string    `json:"location_id,omitempty"`
	Name          string    `json:"name"`
	Capacity      int       `json:"capacity"`
	PricePerHour  int64     `json:"price_per_hour"`
	PricePerDay   int64     `json:"price_per_day"`
	PricePerMonth int64     `json:"price_per_month"`
	Currency      string    `json:"currency"`
	Granularities []string  `json:"granularities"`
	Active        bool      `json:"active"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type RoomCollection struct {
	Items []Room `json:"items"`
}

func MapRoom(room *domainrooms.Room) Room {
	offered := lo.Filter(domainrooms.Granularities(), func(g domainrooms.Granularity, _ int) bool {
		_, err := domainrooms.UnitPriceFor(*room, g)
		return err == nil
	})
	return Room{
		ID:            string(room.ID),
		HostID:        string(room.Host),
		LocationID:    room.LocationID,
		Name:          room.Name,
		Capacity:      room.Capacity,
		PricePerHour:  room.Rates.PricePerHour,
		PricePerDay:   room.Rates.PricePerDay,
		PricePerMonth: room.Rates.PricePerMonth,
		Currency:      room.Currency,
		Granularities: lo.Map(offered, func(g domainrooms.Granularity, _ int) string { return string(g) }),
		Active:        room.Active,
		UpdatedAt:     room.UpdatedAt,
	}
}

func MapRooms(items []*domainrooms.Room) RoomCollection {
	return RoomCollection{Items: lo.Map(items, func(r *domainrooms.Room, _ int) Room { return MapRoom(r) })}
}

type Coupon struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Type        string    `json:"type"`
	Value       string    `json:"value"`
	Currency    string    `json:"currency,omitempty"`
	ExpiryDate  time.Time `json:"expiry_date"`
	UsageLimit  int       `json:"usage_limit"`
	UsedCount   int       `json:"used_count"`
	Remaining   int       `json:"remaining"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CouponCollection struct {
	Items []Coupon `json:"items"`
}

// MapCoupon reports the status a guest would observe at the given instant.
func MapCoupon(c *domaincoupons.Coupon, at time.Time) Coupon {
	return Coupon{
		ID:          string(c.ID),
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       c.Value.String(),
		Currency:    c.Currency,
		ExpiryDate:  c.ExpiryDate,
		UsageLimit:  c.UsageLimit,
		UsedCount:   c.UsedCount,
		Remaining:   c.Remaining(),
		Status:      string(c.EffectiveStatus(at)),
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

func MapCoupons(items []*domaincoupons.Coupon, at time.Time) CouponCollection {
	return CouponCollection{Items: lo.Map(items, func(c *domaincoupons.Coupon, _ int) Coupon { return MapCoupon(c, at) })}
}

type Discount struct {
	Code   string `json:"code"`
	Type   string `json:"type"`
	Amount Money  `json:"amount"`
}

func MapDiscount(d domaincoupons.Discount) Discount {
	return Discount{Code: d.Code, Type: string(d.Type), Amount: MapMoney(d.Amount)}
}

type Quote struct {
	RoomID         string    `json:"room_id"`
	Granularity    string    `json:"granularity"`
	BillableUnits  string    `json:"billable_units"`
	UnitPrice      Money     `json:"unit_price"`
	Subtotal       Money     `json:"subtotal"`
	AddOnsTotal    Money     `json:"add_ons_total"`
	Discount       *Discount `json:"discount,omitempty"`
	DiscountAmount Money     `json:"discount_amount"`
	TaxRate        string    `json:"tax_rate"`
	TaxAmount      Money     `json:"tax_amount"`
	Total          Money     `json:"total"`
}

func MapQuote(q domainpricing.Quote) Quote {
	out := Quote{
		RoomID:         string(q.RoomID),
		Granularity:    string(q.Granularity),
		BillableUnits:  q.BillableUnits.String(),
		UnitPrice:      MapMoney(q.UnitPrice),
		Subtotal:       MapMoney(q.Subtotal),
		AddOnsTotal:    MapMoney(q.AddOnsTotal),
		DiscountAmount: MapMoney(q.DiscountAmount),
		TaxRate:        q.TaxRate.String(),
		TaxAmount:      MapMoney(q.TaxAmount),
		Total:          MapMoney(q.Total),
	}
	if q.Discount != nil {
		d := MapDiscount(*q.Discount)
		out.Discount = &d
	}
	return out
}

type Booking struct {
	ID          string    `json:"id"`
	RoomID      string    `json:"room_id"`
	GuestName   string    `json:"guest_name"`
	GuestEmail  string    `json:"guest_email,omitempty"`
	GuestPhone  string    `json:"guest_phone,omitempty"`
	Note        string    `json:"note,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Granularity string    `json:"granularity"`
	Guests      int       `json:"guests"`
	CouponCode  string    `json:"coupon_code,omitempty"`
	Status      string    `json:"status"`
	Quote       Quote     `json:"quote"`
	Refund      *Money    `json:"refund,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

func MapBooking(b *domainbooking.Booking) Booking {
	out := Booking{
		ID:          string(b.ID),
		RoomID:      string(b.RoomID),
		GuestName:   b.Guest.Name,
		GuestEmail:  b.Guest.Email,
		GuestPhone:  b.Guest.Phone,
		Note:        b.Guest.Note,
		Start:       b.Range.CheckIn,
		End:         b.Range.CheckOut,
		Granularity: string(b.Granularity),
		Guests:      b.Guests,
		CouponCode:  b.CouponCode,
		Status:      string(b.State),
		Quote:       MapQuote(b.Quote),
		CreatedAt:   b.CreatedAt,
	}
	if b.State == domainbooking.StateCancelled {
		refund := MapMoney(b.Refund)
		out.Refund = &refund
	}
	return out
}

func MapBookings(items []*domainbooking.Booking) BookingCollection {
	return BookingCollection{Items: lo.Map(items, func(b *domainbooking.Booking, _ int) Booking { return MapBooking(b) })}
}
