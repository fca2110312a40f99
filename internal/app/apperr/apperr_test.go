package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
	domainpricing "homestay/internal/domain/pricing"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/money"
)

func TestHTTPStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"missing room", fmt.Errorf("load: %w", domainrooms.ErrRoomNotFound), http.StatusNotFound, CodeNotFound},
		{"bad range", domainpricing.ErrInvalidDateRange, http.StatusBadRequest, "INVALID_DATE_RANGE"},
		{"capacity", fmt.Errorf("%w: 5 guests", domainpricing.ErrCapacityExceeded), http.StatusUnprocessableEntity, "CAPACITY_EXCEEDED"},
		{"expired coupon", fmt.Errorf("coupon %q: %w", "X", domaincoupons.ErrCouponExpired), http.StatusUnprocessableEntity, "COUPON_EXPIRED"},
		{"lost race", uow.ErrConcurrentUpdate, http.StatusConflict, CodeConflict},
		{"duplicate code", domaincoupons.ErrDuplicateCode, http.StatusConflict, CodeConflict},
		{"invalid transition", domainbooking.ErrInvalidState, http.StatusConflict, CodeConflict},
		{"foreign coupon", domaincoupons.ErrForeignCoupon, http.StatusForbidden, CodeForbidden},
		{"overflow", fmt.Errorf("subtotal: %w", money.ErrAmountOverflow), http.StatusBadRequest, "AMOUNT_OVERFLOW"},
		{"location in use", domainlocations.ErrLocationInUse, http.StatusConflict, CodeConflict},
		{"foreign location", domainlocations.ErrForeignLocation, http.StatusForbidden, CodeForbidden},
		{"no settings", hostsettings.ErrSettingsNotFound, http.StatusNotFound, CodeNotFound},
		{"bad policy", hostsettings.ErrInvalidPolicy, http.StatusBadRequest, CodeValidation},
		{"short stay", fmt.Errorf("%w: 1 night", hostsettings.ErrStayTooShort), http.StatusUnprocessableEntity, "STAY_TOO_SHORT"},
		{"far ahead", hostsettings.ErrTooFarAhead, http.StatusUnprocessableEntity, "BOOKING_TOO_FAR_AHEAD"},
		{"explicit validation", Validation("host id is required"), http.StatusBadRequest, CodeValidation},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, CodeSystem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
			assert.Equal(t, tt.code, Code(tt.err))
		})
	}
}

func TestClassifyKeepsIdentity(t *testing.T) {
	err := Classify(fmt.Errorf("quote: %w", domaincoupons.ErrCouponExhausted))
	assert.ErrorIs(t, err, domaincoupons.ErrCouponExhausted)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.Nil(t, Classify(nil))
}

func TestRestore(t *testing.T) {
	restored := Restore(Code(domaincoupons.ErrCouponInactive), "coupons: coupon inactive")
	assert.ErrorIs(t, restored, domaincoupons.ErrCouponInactive)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(restored))
	assert.Equal(t, "COUPON_INACTIVE", Code(restored))

	conflict := Restore(CodeConflict, "uow: concurrent update detected")
	assert.Equal(t, http.StatusConflict, HTTPStatus(conflict))

	assert.True(t, IsConflict(conflict))
	assert.True(t, IsNotFound(domainrooms.ErrRoomNotFound))

	long := Restore(Code(hostsettings.ErrStayTooLong), "stay exceeds 7 days")
	assert.ErrorIs(t, long, hostsettings.ErrStayTooLong)
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(long))
	assert.EqualError(t, long, "stay exceeds 7 days")

	plain := Restore("", "boom")
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(plain))
	assert.EqualError(t, plain, "boom")
}

func TestHint(t *testing.T) {
	err := WithHint(Validation("bad payload"), "check-in must be a RFC3339 timestamp")
	assert.Equal(t, "check-in must be a RFC3339 timestamp", Hint(err))
	assert.Empty(t, Hint(fmt.Errorf("plain")))
}
