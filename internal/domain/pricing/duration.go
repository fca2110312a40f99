package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/daterange"
)

const (
	billingHalfHour = 30 * time.Minute
	billingDay      = 24 * time.Hour
	billingMonth    = 30 * billingDay
)

// BillableUnits converts a stay into the quantity billed at the unit price.
// Hourly stays round up to the next half hour, daily stays to the next whole
// day and monthly stays to the next 30-day month.
func BillableUnits(start, end time.Time, g rooms.Granularity) (decimal.Decimal, error) {
	dr, err := daterange.New(start, end)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %w", ErrInvalidDateRange, err)
	}
	elapsed := dr.Duration()
	switch g {
	case rooms.Hourly:
		halves := ceilDiv(elapsed, billingHalfHour)
		return decimal.New(halves*5, -1), nil
	case rooms.Daily:
		return decimal.NewFromInt(ceilDiv(elapsed, billingDay)), nil
	case rooms.Monthly:
		return decimal.NewFromInt(ceilDiv(elapsed, billingMonth)), nil
	default:
		return decimal.Zero, rooms.ErrUnsupportedGranularity
	}
}

func ceilDiv(d, unit time.Duration) int64 {
	n := int64(d / unit)
	if d%unit != 0 {
		n++
	}
	return n
}
