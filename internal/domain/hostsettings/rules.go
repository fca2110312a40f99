package hostsettings

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/domain/rooms"
)

var (
	ErrStayTooShort = errors.New("hostsettings: stay is shorter than the host minimum")
	ErrStayTooLong  = errors.New("hostsettings: stay is longer than the host maximum")
	ErrTooFarAhead  = errors.New("hostsettings: check-in is beyond the host booking horizon")
)

// Platform are the rules of hosts that never saved settings. TaxRate is a
// fraction (0.1 for 10%).
type Platform struct {
	TaxRate            decimal.Decimal
	CancellationWindow time.Duration
	LateRefundPercent  int
}

// Rules are the effective rules for one host.
type Rules struct {
	Configured         bool
	TaxRate            decimal.Decimal
	CancellationPolicy Policy
	CancellationWindow time.Duration
	LateRefundPercent  int
	AdvanceBookingDays int
	MinimumStayDays    int
	MaximumStayDays    int
}

// Resolve merges host settings over the platform defaults. s may be nil.
func Resolve(s *Settings, p Platform) Rules {
	if s == nil {
		return Rules{
			TaxRate:            p.TaxRate,
			CancellationWindow: p.CancellationWindow,
			LateRefundPercent:  p.LateRefundPercent,
		}
	}
	r := Rules{
		Configured:         true,
		TaxRate:            p.TaxRate,
		CancellationPolicy: s.CancellationPolicy,
		CancellationWindow: p.CancellationWindow,
		LateRefundPercent:  s.LateRefundPercent,
		AdvanceBookingDays: s.AdvanceBookingDays,
		MinimumStayDays:    s.MinimumStayDays,
		MaximumStayDays:    s.MaximumStayDays,
	}
	if w, ok := s.CancellationPolicy.Window(); ok {
		r.CancellationWindow = w
	}
	if s.TaxRatePercent.Valid {
		r.TaxRate = s.TaxRatePercent.Decimal.Div(hundred)
	}
	return r
}

// CheckStay applies the booking horizon to every stay and the stay length
// limits to DAILY stays, counted in started days.
func (r Rules) CheckStay(start, end time.Time, g rooms.Granularity, at time.Time) error {
	if r.AdvanceBookingDays > 0 && start.After(at.AddDate(0, 0, r.AdvanceBookingDays)) {
		return fmt.Errorf("%w of %d days", ErrTooFarAhead, r.AdvanceBookingDays)
	}
	if g != rooms.Daily || !end.After(start) {
		return nil
	}
	days := int((end.Sub(start) + 24*time.Hour - 1) / (24 * time.Hour))
	if r.MinimumStayDays > 0 && days < r.MinimumStayDays {
		return fmt.Errorf("%w: %d days, minimum %d", ErrStayTooShort, days, r.MinimumStayDays)
	}
	if r.MaximumStayDays > 0 && days > r.MaximumStayDays {
		return fmt.Errorf("%w: %d days, maximum %d", ErrStayTooLong, days, r.MaximumStayDays)
	}
	return nil
}
