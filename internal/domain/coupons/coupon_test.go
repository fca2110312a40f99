package coupons

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/domain/shared/money"
)

var (
	created = time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)
	march   = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)
)

func newCoupon(t *testing.T, terms Terms) *Coupon {
	t.Helper()
	c, err := NewCoupon(CreateParams{ID: "cpn-1", Host: "host-1", Terms: terms, Now: created})
	require.NoError(t, err)
	return c
}

func welcome10() Terms {
	return Terms{
		Code:        "welcome10",
		Type:        Percentage,
		Value:       decimal.NewFromInt(10),
		ExpiryDate:  time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC),
		UsageLimit:  100,
		Description: "Welcome discount for new guests",
	}
}

func TestNewCouponNormalizes(t *testing.T) {
	c := newCoupon(t, welcome10())
	assert.Equal(t, "WELCOME10", c.Code)
	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, 0, c.UsedCount)
	require.Len(t, c.PendingEvents(), 1)
	assert.Equal(t, "coupon.created", c.PendingEvents()[0].EventName())
}

func TestNewCouponValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Terms)
		want   error
	}{
		{name: "empty code", mutate: func(tm *Terms) { tm.Code = "  " }, want: ErrCodeRequired},
		{name: "unknown type", mutate: func(tm *Terms) { tm.Type = "BOGO" }, want: ErrInvalidType},
		{name: "percentage over 100", mutate: func(tm *Terms) { tm.Value = decimal.NewFromInt(101) }, want: ErrInvalidValue},
		{name: "zero value", mutate: func(tm *Terms) { tm.Value = decimal.Zero }, want: ErrInvalidValue},
		{name: "fractional fixed", mutate: func(tm *Terms) {
			tm.Type = Fixed
			tm.Currency = "VND"
			tm.Value = decimal.RequireFromString("10.5")
		}, want: ErrInvalidValue},
		{name: "fixed without currency", mutate: func(tm *Terms) {
			tm.Type = Fixed
			tm.Value = decimal.NewFromInt(50_000)
		}, want: ErrCurrencyRequired},
		{name: "no usage limit", mutate: func(tm *Terms) { tm.UsageLimit = 0 }, want: ErrUsageLimit},
		{name: "no expiry", mutate: func(tm *Terms) { tm.ExpiryDate = time.Time{} }, want: ErrExpiryRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := welcome10()
			tt.mutate(&terms)
			_, err := NewCoupon(CreateParams{ID: "cpn-1", Host: "host-1", Terms: terms, Now: created})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluatePercentage(t *testing.T) {
	c := newCoupon(t, welcome10())

	d, err := Evaluate("Welcome10", c, march, money.Must(1_600_000, "VND"))
	require.NoError(t, err)
	assert.Equal(t, int64(160_000), d.Amount.Amount)
	assert.Equal(t, "VND", d.Amount.Currency)
	assert.Equal(t, "WELCOME10", d.Code)
	assert.Equal(t, Percentage, d.Type)
}

func TestEvaluateFixedCappedAtSubtotal(t *testing.T) {
	c := newCoupon(t, Terms{
		Code:       "SUMMER50K",
		Type:       Fixed,
		Value:      decimal.NewFromInt(50_000),
		Currency:   "VND",
		ExpiryDate: time.Date(2024, time.June, 30, 23, 59, 59, 0, time.UTC),
		UsageLimit: 50,
	})

	d, err := Evaluate("summer50k", c, march, money.Must(400_000, "VND"))
	require.NoError(t, err)
	assert.Equal(t, int64(50_000), d.Amount.Amount)

	d, err = Evaluate("summer50k", c, march, money.Must(30_000, "VND"))
	require.NoError(t, err)
	assert.Equal(t, int64(30_000), d.Amount.Amount)

	_, err = Evaluate("summer50k", c, march, money.Must(30_000, "USD"))
	assert.ErrorIs(t, err, ErrCurrency)
}

func TestEvaluateRejections(t *testing.T) {
	subtotal := money.Must(1_000_000, "VND")

	t.Run("not found when nil", func(t *testing.T) {
		_, err := Evaluate("WELCOME10", nil, march, subtotal)
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	t.Run("not found when code differs", func(t *testing.T) {
		_, err := Evaluate("WELCOME20", newCoupon(t, welcome10()), march, subtotal)
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})

	t.Run("expired regardless of stored status", func(t *testing.T) {
		terms := welcome10()
		terms.Code = "EXPIRED20"
		terms.Value = decimal.NewFromInt(20)
		terms.ExpiryDate = time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC)
		c := newCoupon(t, terms)
		require.Equal(t, StatusActive, c.Status)

		_, err := Evaluate("expired20", c, march, subtotal)
		assert.ErrorIs(t, err, ErrCouponExpired)
		assert.Equal(t, StatusExpired, c.EffectiveStatus(march))
	})

	t.Run("expiry is checked before exhaustion", func(t *testing.T) {
		terms := welcome10()
		terms.ExpiryDate = march.Add(-time.Hour)
		terms.UsageLimit = 30
		c := newCoupon(t, terms)
		c.UsedCount = 30

		_, err := Evaluate("WELCOME10", c, march, subtotal)
		assert.ErrorIs(t, err, ErrCouponExpired)
	})

	t.Run("exhausted", func(t *testing.T) {
		c := newCoupon(t, welcome10())
		c.UsedCount = 100
		_, err := Evaluate("WELCOME10", c, march, subtotal)
		assert.ErrorIs(t, err, ErrCouponExhausted)
	})

	t.Run("inactive", func(t *testing.T) {
		c := newCoupon(t, welcome10())
		require.NoError(t, c.SetStatus(StatusInactive, march))
		_, err := Evaluate("WELCOME10", c, march, subtotal)
		assert.ErrorIs(t, err, ErrCouponInactive)
	})

	t.Run("expiry instant itself is still valid", func(t *testing.T) {
		c := newCoupon(t, welcome10())
		_, err := Evaluate("WELCOME10", c, c.ExpiryDate, subtotal)
		assert.NoError(t, err)
	})
}

func TestEvaluateIsSideEffectFree(t *testing.T) {
	c := newCoupon(t, welcome10())
	c.UsedCount = 15
	c.ClearEvents()
	subtotal := money.Must(777_777, "VND")

	first, err1 := Evaluate("WELCOME10", c, march, subtotal)
	second, err2 := Evaluate("WELCOME10", c, march, subtotal)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second)
	assert.Equal(t, 15, c.UsedCount)
	assert.Empty(t, c.PendingEvents())
}

func TestRedeem(t *testing.T) {
	terms := welcome10()
	terms.UsageLimit = 2
	c := newCoupon(t, terms)
	c.ClearEvents()

	require.NoError(t, c.Redeem(march, "bk-1"))
	require.NoError(t, c.Redeem(march, "bk-2"))
	assert.Equal(t, 2, c.UsedCount)
	assert.Equal(t, 0, c.Remaining())
	assert.ErrorIs(t, c.Redeem(march, "bk-3"), ErrCouponExhausted)
	require.Len(t, c.PendingEvents(), 2)
	assert.Equal(t, "coupon.redeemed", c.PendingEvents()[0].EventName())
}

func TestUpdateKeepsUsage(t *testing.T) {
	c := newCoupon(t, welcome10())
	c.UsedCount = 15

	terms := welcome10()
	terms.Value = decimal.NewFromInt(15)
	require.NoError(t, c.Update(terms, march))
	assert.True(t, c.Value.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, 15, c.UsedCount)

	terms.UsageLimit = 10
	assert.ErrorIs(t, c.Update(terms, march), ErrUsageBelowCurrent)
}

func TestSetStatus(t *testing.T) {
	c := newCoupon(t, welcome10())
	assert.ErrorIs(t, c.SetStatus(StatusExpired, march), ErrInvalidStatus)
	require.NoError(t, c.SetStatus(StatusInactive, march))
	assert.Equal(t, StatusInactive, c.EffectiveStatus(march))
}

func TestFindByCode(t *testing.T) {
	a := newCoupon(t, welcome10())
	list := []*Coupon{nil, a}

	found, ok := FindByCode(list, " welcome10 ")
	require.True(t, ok)
	assert.Same(t, a, found)

	_, ok = FindByCode(list, "NOPE")
	assert.False(t, ok)
}

func TestFindByCodeMatchesStoredLowerCase(t *testing.T) {
	stored := newCoupon(t, welcome10())
	stored.Code = "welcome10"

	found, ok := FindByCode([]*Coupon{stored}, "WELCOME10")
	require.True(t, ok)
	assert.Same(t, stored, found)

	_, err := Evaluate("WELCOME10", stored, march, money.Must(100_000, "VND"))
	assert.NoError(t, err)
}

func TestStaleExpiredStatusFollowsExpiryDate(t *testing.T) {
	c := newCoupon(t, welcome10())
	c.Status = StatusExpired
	subtotal := money.Must(1_000_000, "VND")

	d, err := Evaluate("WELCOME10", c, march, subtotal)
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), d.Amount.Amount)
	assert.Equal(t, StatusActive, c.EffectiveStatus(march))
	assert.NoError(t, c.Redeem(march, "bk-1"))

	_, err = Evaluate("WELCOME10", c, c.ExpiryDate.Add(time.Nanosecond), subtotal)
	assert.ErrorIs(t, err, ErrCouponExpired)
}
