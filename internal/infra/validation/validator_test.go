package validation

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/app/apperr"
	"homestay/internal/app/handlers/coupons"
	"homestay/internal/app/handlers/quotes"
)

func TestValidatePassesValidMessages(t *testing.T) {
	v := New()
	q := quotes.QuoteBookingQuery{
		RoomID:      "room-1",
		Granularity: "DAILY",
		Start:       time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, time.March, 17, 0, 0, 0, 0, time.UTC),
		GuestCount:  2,
	}
	assert.NoError(t, v.Validate(context.Background(), q))
	assert.NoError(t, v.Validate(context.Background(), "not a struct"))
}

func TestValidateReportsFields(t *testing.T) {
	v := New()
	cmd := coupons.CreateCouponCommand{
		HostID: "host-1",
		Terms: coupons.Terms{
			Code:       "WELCOME10",
			Type:       "BOGO",
			Value:      "ten",
			ExpiryDate: time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC),
			UsageLimit: 0,
		},
	}

	err := v.Validate(context.Background(), cmd)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Equal(t, 400, apperr.HTTPStatus(err))
	assert.Contains(t, err.Error(), "coupons.create")
	assert.Contains(t, err.Error(), "Terms.Type must satisfy oneof")
	assert.Contains(t, err.Error(), "Terms.Value must satisfy number")
	assert.Contains(t, err.Error(), "Terms.UsageLimit must satisfy min=1")
	assert.Equal(t, "Request validation failed", apperr.Hint(err))
}
