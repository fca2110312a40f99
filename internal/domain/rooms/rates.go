package rooms

import (
	"errors"
	"strings"

	"homestay/internal/domain/shared/money"
)

var (
	// ErrInvalidGranularity means the room does not offer the requested billing unit.
	ErrInvalidGranularity = errors.New("rooms: granularity not offered by room")
	// ErrUnsupportedGranularity means the value is outside HOURLY/DAILY/MONTHLY.
	ErrUnsupportedGranularity = errors.New("rooms: unsupported granularity")
)

// Granularity is the billing unit of a booking.
type Granularity string

const (
	Hourly  Granularity = "HOURLY"
	Daily   Granularity = "DAILY"
	Monthly Granularity = "MONTHLY"
)

// Granularities lists the supported billing units, shortest first.
func Granularities() []Granularity {
	return []Granularity{Hourly, Daily, Monthly}
}

// ParseGranularity accepts any casing of the enum names.
func ParseGranularity(raw string) (Granularity, error) {
	g := Granularity(strings.ToUpper(strings.TrimSpace(raw)))
	if !g.Valid() {
		return "", ErrUnsupportedGranularity
	}
	return g, nil
}

func (g Granularity) Valid() bool {
	switch g {
	case Hourly, Daily, Monthly:
		return true
	default:
		return false
	}
}

// UnitPriceFor returns the room's price for one billable unit of g.
// A zero rate is "not offered", never "free".
func UnitPriceFor(room Room, g Granularity) (money.Money, error) {
	var amount int64
	switch g {
	case Hourly:
		amount = room.Rates.PricePerHour
	case Daily:
		amount = room.Rates.PricePerDay
	case Monthly:
		amount = room.Rates.PricePerMonth
	default:
		return money.Money{}, ErrUnsupportedGranularity
	}
	if amount <= 0 {
		return money.Money{}, ErrInvalidGranularity
	}
	return money.New(amount, room.Currency)
}
