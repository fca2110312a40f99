package coupons

import (
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"

	"homestay/internal/domain/shared/money"
)

var (
	ErrCouponNotFound  = errors.New("coupons: coupon not found")
	ErrCouponExpired   = errors.New("coupons: coupon expired")
	ErrCouponExhausted = errors.New("coupons: usage limit reached")
	ErrCouponInactive  = errors.New("coupons: coupon inactive")
	ErrCurrency        = errors.New("coupons: coupon currency does not match booking currency")
)

// Discount is the amount a redeemable coupon takes off a subtotal.
type Discount struct {
	Code   string       `json:"code"`
	Type   DiscountType `json:"type"`
	Amount money.Money  `json:"amount"`
}

// Evaluate checks whether coupon can be applied under code at the given
// instant and computes its discount against subtotal. The coupon is only read.
// Rejections are checked in order: not found, expired, exhausted, inactive.
func Evaluate(code string, coupon *Coupon, at time.Time, subtotal money.Money) (Discount, error) {
	if coupon == nil || !strings.EqualFold(NormalizeCode(code), NormalizeCode(coupon.Code)) {
		return Discount{}, ErrCouponNotFound
	}
	if err := coupon.redeemable(at); err != nil {
		return Discount{}, err
	}
	amount, err := coupon.discountOn(subtotal)
	if err != nil {
		return Discount{}, err
	}
	return Discount{Code: coupon.Code, Type: coupon.Type, Amount: amount}, nil
}

// FindByCode looks a code up in a host's coupon list, ignoring case.
func FindByCode(list []*Coupon, code string) (*Coupon, bool) {
	normalized := NormalizeCode(code)
	return lo.Find(list, func(c *Coupon) bool {
		return c != nil && strings.EqualFold(NormalizeCode(c.Code), normalized)
	})
}

func (c *Coupon) redeemable(at time.Time) error {
	if c.expiredAt(at) {
		return ErrCouponExpired
	}
	if c.UsedCount >= c.UsageLimit {
		return ErrCouponExhausted
	}
	if c.Status == StatusInactive {
		return ErrCouponInactive
	}
	return nil
}

func (c *Coupon) discountOn(subtotal money.Money) (money.Money, error) {
	base := subtotal.ClampZero()
	var amount money.Money
	switch c.Type {
	case Percentage:
		amount = base.Percent(c.Value)
	case Fixed:
		if c.Currency != base.Currency {
			return money.Money{}, ErrCurrency
		}
		amount = money.Money{Amount: c.Value.IntPart(), Currency: base.Currency}
	default:
		return money.Money{}, ErrInvalidType
	}
	capped, err := amount.Min(base)
	if err != nil {
		return money.Money{}, err
	}
	return capped.ClampZero(), nil
}
