package pricing

import (
	"errors"

	"homestay/internal/domain/coupons"
	"homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/money"
)

var (
	ErrInvalidDateRange = errors.New("pricing: end must be after start")
	ErrCapacityExceeded = errors.New("pricing: guest count exceeds room capacity")
	ErrInvalidGuests    = errors.New("pricing: guest count must be positive")
	ErrRoomMismatch     = errors.New("pricing: request is for a different room")
	ErrInvalidAddOn     = errors.New("pricing: add-on price and quantity must be non-negative")
	ErrInvalidTaxRate   = errors.New("pricing: tax rate must be between 0 and 1")
)

// Kind is the stable machine-readable name of a quote failure.
type Kind string

const (
	KindInvalidDateRange       Kind = "INVALID_DATE_RANGE"
	KindInvalidGranularity     Kind = "INVALID_GRANULARITY"
	KindUnsupportedGranularity Kind = "UNSUPPORTED_GRANULARITY"
	KindCapacityExceeded       Kind = "CAPACITY_EXCEEDED"
	KindInvalidGuests          Kind = "INVALID_GUESTS"
	KindRoomMismatch           Kind = "ROOM_MISMATCH"
	KindInvalidAddOn           Kind = "INVALID_ADD_ON"
	KindInvalidTaxRate         Kind = "INVALID_TAX_RATE"
	KindCouponNotFound         Kind = "COUPON_NOT_FOUND"
	KindCouponExpired          Kind = "COUPON_EXPIRED"
	KindCouponExhausted        Kind = "COUPON_EXHAUSTED"
	KindCouponInactive         Kind = "COUPON_INACTIVE"
	KindCurrencyMismatch       Kind = "CURRENCY_MISMATCH"
	KindAmountOverflow         Kind = "AMOUNT_OVERFLOW"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidDateRange, KindInvalidDateRange},
	{rooms.ErrInvalidGranularity, KindInvalidGranularity},
	{rooms.ErrUnsupportedGranularity, KindUnsupportedGranularity},
	{ErrCapacityExceeded, KindCapacityExceeded},
	{ErrInvalidGuests, KindInvalidGuests},
	{ErrRoomMismatch, KindRoomMismatch},
	{ErrInvalidAddOn, KindInvalidAddOn},
	{ErrInvalidTaxRate, KindInvalidTaxRate},
	{coupons.ErrCouponNotFound, KindCouponNotFound},
	{coupons.ErrCouponExpired, KindCouponExpired},
	{coupons.ErrCouponExhausted, KindCouponExhausted},
	{coupons.ErrCouponInactive, KindCouponInactive},
	{coupons.ErrCurrency, KindCurrencyMismatch},
	{money.ErrAmountOverflow, KindAmountOverflow},
}

// KindOf names the quote failure carried by err, or "" when err is not one.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}

// ErrorFor returns the sentinel behind kind, or nil for unknown kinds.
func ErrorFor(kind Kind) error {
	for _, k := range kinds {
		if k.kind == kind {
			return k.err
		}
	}
	return nil
}

// IsCouponRejection reports whether err rejects the coupon rather than the stay.
func IsCouponRejection(err error) bool {
	switch KindOf(err) {
	case KindCouponNotFound, KindCouponExpired, KindCouponExhausted, KindCouponInactive, KindCurrencyMismatch:
		return true
	default:
		return false
	}
}
