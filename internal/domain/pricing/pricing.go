package pricing

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"homestay/internal/domain/coupons"
	"homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/money"
)

type AddOn struct {
	ID        string `json:"id"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// BookingRequest is the transient input of a single quote attempt.
type BookingRequest struct {
	RoomID      rooms.RoomID
	Granularity rooms.Granularity
	Start       time.Time
	End         time.Time
	GuestCount  int
	CouponCode  string
	AddOns      []AddOn
}

// Options carry the values the caller owns: the evaluation instant and the
// platform tax rate as a fraction (0.1 for 10%).
type Options struct {
	At      time.Time
	TaxRate decimal.Decimal
}

// Quote is the itemized price of a booking request.
// Total == Subtotal - DiscountAmount + TaxAmount + AddOnsTotal.
type Quote struct {
	RoomID         rooms.RoomID      `json:"room_id"`
	Granularity    rooms.Granularity `json:"granularity"`
	BillableUnits  decimal.Decimal   `json:"billable_units"`
	UnitPrice      money.Money       `json:"unit_price"`
	Subtotal       money.Money       `json:"subtotal"`
	AddOnsTotal    money.Money       `json:"add_ons_total"`
	Discount       *coupons.Discount `json:"discount,omitempty"`
	DiscountAmount money.Money       `json:"discount_amount"`
	TaxRate        decimal.Decimal   `json:"tax_rate"`
	TaxAmount      money.Money       `json:"tax_amount"`
	Total          money.Money       `json:"total"`
}

// Balanced re-derives the total from its components.
func (q Quote) Balanced() bool {
	return q.Subtotal.Amount-q.DiscountAmount.Amount+q.TaxAmount.Amount+q.AddOnsTotal.Amount == q.Total.Amount
}

// CouponCode is the normalized code of the applied coupon, if any.
func (q Quote) CouponCode() string {
	if q.Discount == nil {
		return ""
	}
	return q.Discount.Code
}

// Calculator produces quotes; Engine is the production implementation.
type Calculator interface {
	Quote(req BookingRequest, room rooms.Room, coupon *coupons.Coupon, opts Options) (Quote, error)
}

// Engine is stateless and safe for concurrent use.
type Engine struct{}

var maxTaxRate = decimal.NewFromInt(1)

func (Engine) Quote(req BookingRequest, room rooms.Room, coupon *coupons.Coupon, opts Options) (Quote, error) {
	if req.RoomID != "" && req.RoomID != room.ID {
		return Quote{}, ErrRoomMismatch
	}
	if req.GuestCount < 1 {
		return Quote{}, ErrInvalidGuests
	}
	if req.GuestCount > room.Capacity {
		return Quote{}, fmt.Errorf("%w: %d guests, capacity %d", ErrCapacityExceeded, req.GuestCount, room.Capacity)
	}
	if opts.TaxRate.IsNegative() || opts.TaxRate.GreaterThan(maxTaxRate) {
		return Quote{}, ErrInvalidTaxRate
	}

	units, err := BillableUnits(req.Start, req.End, req.Granularity)
	if err != nil {
		return Quote{}, err
	}
	unitPrice, err := rooms.UnitPriceFor(room, req.Granularity)
	if err != nil {
		return Quote{}, err
	}
	subtotal, err := unitPrice.MulDecimal(units)
	if err != nil {
		return Quote{}, fmt.Errorf("subtotal: %w", err)
	}

	addOnsTotal, err := sumAddOns(req.AddOns, unitPrice.Currency)
	if err != nil {
		return Quote{}, err
	}

	discountAmount := money.Zero(unitPrice.Currency)
	var discount *coupons.Discount
	if req.CouponCode != "" {
		d, err := coupons.Evaluate(req.CouponCode, coupon, opts.At, subtotal)
		if err != nil {
			return Quote{}, fmt.Errorf("coupon %q: %w", coupons.NormalizeCode(req.CouponCode), err)
		}
		discount = &d
		discountAmount = d.Amount
	}

	gross, err := subtotal.Add(addOnsTotal)
	if err != nil {
		return Quote{}, fmt.Errorf("add-ons: %w", err)
	}
	taxable, err := gross.Sub(discountAmount)
	if err != nil {
		return Quote{}, err
	}
	taxable = taxable.ClampZero()
	taxAmount, err := taxable.MulDecimal(opts.TaxRate)
	if err != nil {
		return Quote{}, fmt.Errorf("tax: %w", err)
	}
	total, err := taxable.Add(taxAmount)
	if err != nil {
		return Quote{}, fmt.Errorf("total: %w", err)
	}

	return Quote{
		RoomID:         room.ID,
		Granularity:    req.Granularity,
		BillableUnits:  units,
		UnitPrice:      unitPrice,
		Subtotal:       subtotal,
		AddOnsTotal:    addOnsTotal,
		Discount:       discount,
		DiscountAmount: discountAmount,
		TaxRate:        opts.TaxRate,
		TaxAmount:      taxAmount,
		Total:          total,
	}, nil
}

func sumAddOns(addOns []AddOn, currency string) (money.Money, error) {
	invalid := lo.ContainsBy(addOns, func(a AddOn) bool {
		return a.UnitPrice < 0 || a.Quantity < 0
	})
	if invalid {
		return money.Money{}, ErrInvalidAddOn
	}
	total := money.Zero(currency)
	for _, a := range addOns {
		line, err := money.Money{Amount: a.UnitPrice, Currency: total.Currency}.Multiply(int64(a.Quantity))
		if err != nil {
			return money.Money{}, fmt.Errorf("add-on %q: %w", a.ID, err)
		}
		if total, err = total.Add(line); err != nil {
			return money.Money{}, fmt.Errorf("add-ons: %w", err)
		}
	}
	return total, nil
}

var _ Calculator = Engine{}
