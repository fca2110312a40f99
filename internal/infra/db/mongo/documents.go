package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainpricing "homestay/internal/domain/pricing"
	domainrooms "homestay/internal/domain/rooms"
	domainrange "homestay/internal/domain/shared/daterange"
	"homestay/internal/domain/shared/money"
)

// Decimals are stored as strings so percentages and fractional units keep
// their exact value. Coupon expiry keeps nanoseconds because date-only expiries
// end at the last nanosecond of the day.

type roomDocument struct {
	ID         string            `bson:"_id"`
	HostID     string            `bson:"host_id"`
	LocationID string            `bson:"location_id,omitempty"`
	Name       string            `bson:"name"`
	Capacity   int               `bson:"capacity"`
	Rates      domainrooms.Rates `bson:"rates"`
	Currency   string            `bson:"currency"`
	Active     bool              `bson:"active"`
	CreatedAt  int64             `bson:"created_at"`
	UpdatedAt  int64             `bson:"updated_at"`
	Version    int64             `bson:"version"`
}

func newRoomDocument(r *domainrooms.Room) roomDocument {
	return roomDocument{
		ID:         string(r.ID),
		HostID:     string(r.Host),
		LocationID: r.LocationID,
		Name:       r.Name,
		Capacity:   r.Capacity,
		Rates:      r.Rates,
		Currency:   r.Currency,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt.UnixMilli(),
		UpdatedAt:  r.UpdatedAt.UnixMilli(),
		Version:    r.Version,
	}
}

func (d roomDocument) toAggregate() *domainrooms.Room {
	return &domainrooms.Room{
		ID:         domainrooms.RoomID(d.ID),
		Host:       domainrooms.HostID(d.HostID),
		LocationID: d.LocationID,
		Name:       d.Name,
		Capacity:   d.Capacity,
		Rates:      d.Rates,
		Currency:   d.Currency,
		Active:     d.Active,
		CreatedAt:  timestampToTime(d.CreatedAt),
		UpdatedAt:  timestampToTime(d.UpdatedAt),
		Version:    d.Version,
	}
}

type couponDocument struct {
	ID          string `bson:"_id"`
	HostID      string `bson:"host_id"`
	Code        string `bson:"code"`
	Type        string `bson:"type"`
	Value       string `bson:"value"`
	Currency    string `bson:"currency,omitempty"`
	ExpiryDate  int64  `bson:"expiry_date_ns"`
	UsageLimit  int    `bson:"usage_limit"`
	UsedCount   int    `bson:"used_count"`
	Status      string `bson:"status"`
	Description string `bson:"description,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newCouponDocument(c *domaincoupons.Coupon) couponDocument {
	return couponDocument{
		ID:          string(c.ID),
		HostID:      c.Host,
		Code:        c.Code,
		Type:        string(c.Type),
		Value:       c.Value.String(),
		Currency:    c.Currency,
		ExpiryDate:  c.ExpiryDate.UnixNano(),
		UsageLimit:  c.UsageLimit,
		UsedCount:   c.UsedCount,
		Status:      string(c.Status),
		Description: c.Description,
		CreatedAt:   c.CreatedAt.UnixMilli(),
		UpdatedAt:   c.UpdatedAt.UnixMilli(),
		Version:     c.Version,
	}
}

func (d couponDocument) toAggregate() (*domaincoupons.Coupon, error) {
	value, err := decimal.NewFromString(d.Value)
	if err != nil {
		return nil, fmt.Errorf("coupon %s value: %w", d.ID, err)
	}
	return &domaincoupons.Coupon{
		ID:          domaincoupons.CouponID(d.ID),
		Host:        d.HostID,
		Code:        d.Code,
		Type:        domaincoupons.DiscountType(d.Type),
		Value:       value,
		Currency:    d.Currency,
		ExpiryDate:  time.Unix(0, d.ExpiryDate).UTC(),
		UsageLimit:  d.UsageLimit,
		UsedCount:   d.UsedCount,
		Status:      domaincoupons.Status(d.Status),
		Description: d.Description,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}, nil
}

type discountDocument struct {
	Code   string      `bson:"code"`
	Type   string      `bson:"type"`
	Amount money.Money `bson:"amount"`
}

type quoteDocument struct {
	Granularity    string            `bson:"granularity"`
	BillableUnits  string            `bson:"billable_units"`
	UnitPrice      money.Money       `bson:"unit_price"`
	Subtotal       money.Money       `bson:"subtotal"`
	AddOnsTotal    money.Money       `bson:"add_ons_total"`
	Discount       *discountDocument `bson:"discount,omitempty"`
	DiscountAmount money.Money       `bson:"discount_amount"`
	TaxRate        string            `bson:"tax_rate"`
	TaxAmount      money.Money       `bson:"tax_amount"`
	Total          money.Money       `bson:"total"`
}

func newQuoteDocument(q domainpricing.Quote) quoteDocument {
	doc := quoteDocument{
		Granularity:    string(q.Granularity),
		BillableUnits:  q.BillableUnits.String(),
		UnitPrice:      q.UnitPrice,
		Subtotal:       q.Subtotal,
		AddOnsTotal:    q.AddOnsTotal,
		DiscountAmount: q.DiscountAmount,
		TaxRate:        q.TaxRate.String(),
		TaxAmount:      q.TaxAmount,
		Total:          q.Total,
	}
	if q.Discount != nil {
		doc.Discount = &discountDocument{Code: q.Discount.Code, Type: string(q.Discount.Type), Amount: q.Discount.Amount}
	}
	return doc
}

func (d quoteDocument) toQuote(room domainrooms.RoomID) (domainpricing.Quote, error) {
	units, err := decimal.NewFromString(d.BillableUnits)
	if err != nil {
		return domainpricing.Quote{}, fmt.Errorf("billable units: %w", err)
	}
	rate, err := decimal.NewFromString(d.TaxRate)
	if err != nil {
		return domainpricing.Quote{}, fmt.Errorf("tax rate: %w", err)
	}
	q := domainpricing.Quote{
		RoomID:         room,
		Granularity:    domainrooms.Granularity(d.Granularity),
		BillableUnits:  units,
		UnitPrice:      d.UnitPrice,
		Subtotal:       d.Subtotal,
		AddOnsTotal:    d.AddOnsTotal,
		DiscountAmount: d.DiscountAmount,
		TaxRate:        rate,
		TaxAmount:      d.TaxAmount,
		Total:          d.Total,
	}
	if d.Discount != nil {
		q.Discount = &domaincoupons.Discount{
			Code:   d.Discount.Code,
			Type:   domaincoupons.DiscountType(d.Discount.Type),
			Amount: d.Discount.Amount,
		}
	}
	return q, nil
}

type bookingDocument struct {
	ID          string                     `bson:"_id"`
	RoomID      string                     `bson:"room_id"`
	HostID      string                     `bson:"host_id"`
	Guest       domainbooking.Contact      `bson:"guest"`
	Range       rangeDocument              `bson:"range"`
	Granularity string                     `bson:"granularity"`
	Guests      int                        `bson:"guests"`
	CouponCode  string                     `bson:"coupon_code,omitempty"`
	Quote       quoteDocument              `bson:"quote"`
	Policy      domainbooking.RefundPolicy `bson:"policy"`
	State       string                     `bson:"state"`
	Refund      money.Money                `bson:"refund"`
	CreatedAt   int64                      `bson:"created_at"`
	UpdatedAt   int64                      `bson:"updated_at"`
	Version     int64                      `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:          string(b.ID),
		RoomID:      string(b.RoomID),
		HostID:      string(b.Host),
		Guest:       b.Guest,
		Range:       rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Granularity: string(b.Granularity),
		Guests:      b.Guests,
		CouponCode:  b.CouponCode,
		Quote:       newQuoteDocument(b.Quote),
		Policy:      b.Policy,
		State:       string(b.State),
		Refund:      b.Refund,
		CreatedAt:   b.CreatedAt.UnixMilli(),
		UpdatedAt:   b.UpdatedAt.UnixMilli(),
		Version:     b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	quote, err := d.Quote.toQuote(domainrooms.RoomID(d.RoomID))
	if err != nil {
		return nil, fmt.Errorf("booking %s quote: %w", d.ID, err)
	}
	dr := domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)}
	policy := d.Policy
	policy.FreeCancellationUntil = policy.FreeCancellationUntil.UTC()
	return &domainbooking.Booking{
		ID:          domainbooking.BookingID(d.ID),
		RoomID:      domainrooms.RoomID(d.RoomID),
		Host:        domainrooms.HostID(d.HostID),
		Guest:       d.Guest,
		Range:       dr,
		Granularity: domainrooms.Granularity(d.Granularity),
		Guests:      d.Guests,
		CouponCode:  d.CouponCode,
		Quote:       quote,
		Policy:      policy,
		State:       domainbooking.BookingState(d.State),
		Refund:      d.Refund,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}, nil
}

type locationDocument struct {
	ID          string `bson:"_id"`
	HostID      string `bson:"host_id"`
	Name        string `bson:"name"`
	Address     string `bson:"address"`
	City        string `bson:"city"`
	Province    string `bson:"province"`
	Description string `bson:"description,omitempty"`
	ImageURL    string `bson:"image_url,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newLocationDocument(l *domainlocations.Location) locationDocument {
	return locationDocument{
		ID:          string(l.ID),
		HostID:      l.Host,
		Name:        l.Name,
		Address:     l.Address,
		City:        l.City,
		Province:    l.Province,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		CreatedAt:   l.CreatedAt.UnixMilli(),
		UpdatedAt:   l.UpdatedAt.UnixMilli(),
		Version:     l.Version,
	}
}

func (d locationDocument) toAggregate() *domainlocations.Location {
	return &domainlocations.Location{
		ID:          domainlocations.LocationID(d.ID),
		Host:        d.HostID,
		Name:        d.Name,
		Address:     d.Address,
		City:        d.City,
		Province:    d.Province,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

type settingsDocument struct {
	Host               string `bson:"_id"`
	AdvanceBookingDays int    `bson:"advance_booking_days"`
	MinimumStayDays    int    `bson:"minimum_stay_days"`
	MaximumStayDays    int    `bson:"maximum_stay_days"`
	CancellationPolicy string `bson:"cancellation_policy"`
	LateRefundPercent  int    `bson:"late_refund_percent"`
	TaxRatePercent     string `bson:"tax_rate_percent,omitempty"`
	UpdatedAt          int64  `bson:"updated_at"`
	Version            int64  `bson:"version"`
}

func newSettingsDocument(s *hostsettings.Settings) settingsDocument {
	doc := settingsDocument{
		Host:               s.Host,
		AdvanceBookingDays: s.AdvanceBookingDays,
		MinimumStayDays:    s.MinimumStayDays,
		MaximumStayDays:    s.MaximumStayDays,
		CancellationPolicy: string(s.CancellationPolicy),
		LateRefundPercent:  s.LateRefundPercent,
		UpdatedAt:          s.UpdatedAt.UnixMilli(),
		Version:            s.Version,
	}
	if s.TaxRatePercent.Valid {
		doc.TaxRatePercent = s.TaxRatePercent.Decimal.String()
	}
	return doc
}

func (d settingsDocument) toAggregate() (*hostsettings.Settings, error) {
	s := &hostsettings.Settings{
		Host: d.Host,
		Terms: hostsettings.Terms{
			AdvanceBookingDays: d.AdvanceBookingDays,
			MinimumStayDays:    d.MinimumStayDays,
			MaximumStayDays:    d.MaximumStayDays,
			CancellationPolicy: hostsettings.Policy(d.CancellationPolicy),
			LateRefundPercent:  d.LateRefundPercent,
		},
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
	if d.TaxRatePercent != "" {
		rate, err := decimal.NewFromString(d.TaxRatePercent)
		if err != nil {
			return nil, fmt.Errorf("host settings %s tax rate: %w", d.Host, err)
		}
		s.TaxRatePercent = decimal.NewNullDecimal(rate)
	}
	return s, nil
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
