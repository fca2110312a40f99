package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/domain/shared/events"
)

var (
	ErrCodeRequired      = errors.New("coupons: code is required")
	ErrInvalidType       = errors.New("coupons: discount type must be PERCENTAGE or FIXED")
	ErrInvalidValue      = errors.New("coupons: invalid discount value")
	ErrUsageLimit        = errors.New("coupons: usage limit must be at least 1")
	ErrExpiryRequired    = errors.New("coupons: expiry date is required")
	ErrInvalidStatus     = errors.New("coupons: invalid status")
	ErrDuplicateCode     = errors.New("coupons: code already exists")
	ErrForeignCoupon     = errors.New("coupons: coupon belongs to another host")
	ErrUsageBelowCurrent = errors.New("coupons: usage limit below used count")
	ErrCurrencyRequired  = errors.New("coupons: fixed coupons need a currency")
	ErrNoSuchCoupon      = errors.New("coupons: no coupon with this id or code")
)

type CouponID string

type DiscountType string

const (
	Percentage DiscountType = "PERCENTAGE"
	Fixed      DiscountType = "FIXED"
)

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusExpired  Status = "EXPIRED"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a host-owned discount code. Value is percentage points for
// PERCENTAGE coupons and minor currency units for FIXED ones.
type Coupon struct {
	ID          CouponID
	Host        string
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	Currency    string
	ExpiryDate  time.Time
	UsageLimit  int
	UsedCount   int
	Status      Status
	Description string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id CouponID) (*Coupon, error)
	ByCode(ctx context.Context, host string, code string) (*Coupon, error)
	ListByHost(ctx context.Context, host string) ([]*Coupon, error)
	Save(ctx context.Context, coupon *Coupon) error
	Delete(ctx context.Context, id CouponID) error
}

// Terms are the host-editable parts of a coupon.
type Terms struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	Currency    string
	ExpiryDate  time.Time
	UsageLimit  int
	Description string
}

func (t Terms) normalized() (Terms, error) {
	t.Code = NormalizeCode(t.Code)
	if t.Code == "" {
		return Terms{}, ErrCodeRequired
	}
	t.Type = DiscountType(strings.ToUpper(strings.TrimSpace(string(t.Type))))
	switch t.Type {
	case Percentage:
		if !t.Value.IsPositive() || t.Value.GreaterThan(hundred) {
			return Terms{}, ErrInvalidValue
		}
	case Fixed:
		if !t.Value.IsPositive() || !t.Value.Equal(t.Value.Truncate(0)) {
			return Terms{}, ErrInvalidValue
		}
		if len(strings.TrimSpace(t.Currency)) != 3 {
			return Terms{}, ErrCurrencyRequired
		}
	default:
		return Terms{}, ErrInvalidType
	}
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	if t.UsageLimit < 1 {
		return Terms{}, ErrUsageLimit
	}
	if t.ExpiryDate.IsZero() {
		return Terms{}, ErrExpiryRequired
	}
	t.ExpiryDate = t.ExpiryDate.UTC()
	t.Description = strings.TrimSpace(t.Description)
	return t, nil
}

type CreateParams struct {
	ID    CouponID
	Host  string
	Terms Terms
	Now   time.Time
}

func NewCoupon(params CreateParams) (*Coupon, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("coupons: id is required")
	}
	if strings.TrimSpace(params.Host) == "" {
		return nil, errors.New("coupons: host is required")
	}
	terms, err := params.Terms.normalized()
	if err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	c := &Coupon{
		ID:        params.ID,
		Host:      params.Host,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.apply(terms)
	c.Record(CouponCreated{CouponID: c.ID, Host: c.Host, Code: c.Code, At: now})
	return c, nil
}

// Update replaces the terms; the usage counter is preserved.
func (c *Coupon) Update(terms Terms, now time.Time) error {
	normalized, err := terms.normalized()
	if err != nil {
		return err
	}
	if normalized.UsageLimit < c.UsedCount {
		return ErrUsageBelowCurrent
	}
	c.apply(normalized)
	c.UpdatedAt = now.UTC()
	c.Record(CouponUpdated{CouponID: c.ID, Code: c.Code, At: c.UpdatedAt})
	return nil
}

// SetStatus toggles a coupon between ACTIVE and INACTIVE. EXPIRED is derived from the expiry date.
func (c *Coupon) SetStatus(status Status, now time.Time) error {
	switch status {
	case StatusActive, StatusInactive:
	default:
		return ErrInvalidStatus
	}
	if c.Status == status {
		return nil
	}
	c.Status = status
	c.UpdatedAt = now.UTC()
	c.Record(CouponStatusChanged{CouponID: c.ID, Status: status, At: c.UpdatedAt})
	return nil
}

// EffectiveStatus is the status a guest would observe at the given instant.
// Expiry comes from the date alone; a stored EXPIRED status is treated as stale.
func (c *Coupon) EffectiveStatus(at time.Time) Status {
	switch {
	case c.expiredAt(at):
		return StatusExpired
	case c.Status == StatusInactive:
		return StatusInactive
	default:
		return StatusActive
	}
}

// Remaining is the number of redemptions left.
func (c *Coupon) Remaining() int {
	if c.UsedCount >= c.UsageLimit {
		return 0
	}
	return c.UsageLimit - c.UsedCount
}

// Redeem consumes one use. It is called by the store owner after a booking
// is accepted, never by quote evaluation.
func (c *Coupon) Redeem(at time.Time, bookingID string) error {
	if err := c.redeemable(at); err != nil {
		return err
	}
	c.UsedCount++
	c.UpdatedAt = at.UTC()
	c.Record(CouponRedeemed{CouponID: c.ID, Code: c.Code, BookingID: bookingID, UsedCount: c.UsedCount, At: c.UpdatedAt})
	return nil
}

// OwnedBy guards host-scoped mutations.
func (c *Coupon) OwnedBy(host string) error {
	if c.Host != host {
		return ErrForeignCoupon
	}
	return nil
}

func (c *Coupon) apply(t Terms) {
	c.Code = t.Code
	c.Type = t.Type
	c.Value = t.Value
	c.Currency = t.Currency
	c.ExpiryDate = t.ExpiryDate
	c.UsageLimit = t.UsageLimit
	c.Description = t.Description
}

func (c *Coupon) expiredAt(at time.Time) bool {
	return at.After(c.ExpiryDate)
}

// NormalizeCode upper-cases and trims a code so lookups are case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
