// Package hostsettings holds the booking rules a host configures for all of
// their rooms: how far ahead guests may book, stay length limits, the
// cancellation terms and an optional tax rate override.
package hostsettings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/domain/shared/events"
)

var (
	ErrSettingsNotFound = errors.New("hostsettings: not found")
	ErrHostRequired     = errors.New("hostsettings: host is required")
	ErrInvalidPolicy    = errors.New("hostsettings: cancellation policy must be FLEXIBLE, MODERATE or STRICT")
	ErrInvalidAdvance   = errors.New("hostsettings: advance booking days must be non-negative")
	ErrInvalidStay      = errors.New("hostsettings: stay limits must be non-negative and minimum at most maximum")
	ErrInvalidRefund    = errors.New("hostsettings: refund percent must be between 0 and 100")
	ErrInvalidTaxRate   = errors.New("hostsettings: tax rate percent must be between 0 and 100")
)

// Policy names how long before check-in a guest may cancel for a full refund.
type Policy string

const (
	Flexible Policy = "FLEXIBLE"
	Moderate Policy = "MODERATE"
	Strict   Policy = "STRICT"
)

var policyWindows = map[Policy]time.Duration{
	Flexible: 24 * time.Hour,
	Moderate: 5 * 24 * time.Hour,
	Strict:   14 * 24 * time.Hour,
}

// Window is the free cancellation window of the policy.
func (p Policy) Window() (time.Duration, bool) {
	w, ok := policyWindows[p]
	return w, ok
}

var hundred = decimal.NewFromInt(100)

// Terms are the host-editable rules. Zero limits mean no limit.
type Terms struct {
	AdvanceBookingDays int
	MinimumStayDays    int
	MaximumStayDays    int
	CancellationPolicy Policy
	LateRefundPercent  int
	TaxRatePercent     decimal.NullDecimal
}

func (t Terms) normalized() (Terms, error) {
	t.CancellationPolicy = Policy(strings.ToUpper(strings.TrimSpace(string(t.CancellationPolicy))))
	if _, ok := t.CancellationPolicy.Window(); !ok {
		return Terms{}, ErrInvalidPolicy
	}
	if t.AdvanceBookingDays < 0 {
		return Terms{}, ErrInvalidAdvance
	}
	if t.MinimumStayDays < 0 || t.MaximumStayDays < 0 ||
		(t.MaximumStayDays > 0 && t.MinimumStayDays > t.MaximumStayDays) {
		return Terms{}, ErrInvalidStay
	}
	if t.LateRefundPercent < 0 || t.LateRefundPercent > 100 {
		return Terms{}, ErrInvalidRefund
	}
	if t.TaxRatePercent.Valid {
		if t.TaxRatePercent.Decimal.IsNegative() || t.TaxRatePercent.Decimal.GreaterThan(hundred) {
			return Terms{}, ErrInvalidTaxRate
		}
	}
	return t, nil
}

// Settings are keyed by host; there is at most one per host.
type Settings struct {
	Host string
	Terms
	Version   int64
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByHost(ctx context.Context, host string) (*Settings, error)
	Save(ctx context.Context, settings *Settings) error
}

func New(host string, terms Terms, now time.Time) (*Settings, error) {
	if strings.TrimSpace(host) == "" {
		return nil, ErrHostRequired
	}
	s := &Settings{Host: host}
	if err := s.Update(terms, now); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Update(terms Terms, now time.Time) error {
	normalized, err := terms.normalized()
	if err != nil {
		return err
	}
	s.Terms = normalized
	s.UpdatedAt = now.UTC()
	s.Record(SettingsUpdated{Host: s.Host, Policy: normalized.CancellationPolicy, At: s.UpdatedAt})
	return nil
}

type SettingsUpdated struct {
	Host   string
	Policy Policy
	At     time.Time
}

func (e SettingsUpdated) EventName() string     { return "host_settings.updated" }
func (e SettingsUpdated) AggregateID() string   { return e.Host }
func (e SettingsUpdated) OccurredAt() time.Time { return e.At }
