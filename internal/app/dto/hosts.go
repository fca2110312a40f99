package dto

import (
	"time"

	"github.com/samber/lo"

	"homestay/internal/domain/hostsettings"
	domainlocations "homestay/internal/domain/locations"
)

type Location struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Province    string    `json:"province"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type LocationCollection struct {
	Items []Location `json:"items"`
}

func MapLocation(l *domainlocations.Location) Location {
	return Location{
		ID:          string(l.ID),
		HostID:      l.Host,
		Name:        l.Name,
		Address:     l.Address,
		City:        l.City,
		Province:    l.Province,
		Description: l.Description,
		ImageURL:    l.ImageURL,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

func MapLocations(items []*domainlocations.Location) LocationCollection {
	return LocationCollection{Items: lo.Map(items, func(l *domainlocations.Location, _ int) Location { return MapLocation(l) })}
}

// HostSettings are the effective rules of a host. Configured is false while
// the host still runs on platform defaults.
type HostSettings struct {
	HostID                string     `json:"host_id"`
	Configured            bool       `json:"configured"`
	AdvanceBookingDays    int        `json:"advance_booking_days"`
	MinimumStayDays       int        `json:"minimum_stay_days"`
	MaximumStayDays       int        `json:"maximum_stay_days"`
	CancellationPolicy    string     `json:"cancellation_policy,omitempty"`
	FreeCancellationHours int        `json:"free_cancellation_hours"`
	LateRefundPercent     int        `json:"late_refund_percent"`
	TaxRate               string     `json:"tax_rate"`
	UpdatedAt             *time.Time `json:"updated_at,omitempty"`
}

func MapHostSettings(host string, rules hostsettings.Rules, s *hostsettings.Settings) HostSettings {
	out := HostSettings{
		HostID:                host,
		Configured:            rules.Configured,
		AdvanceBookingDays:    rules.AdvanceBookingDays,
		MinimumStayDays:       rules.MinimumStayDays,
		MaximumStayDays:       rules.MaximumStayDays,
		CancellationPolicy:    string(rules.CancellationPolicy),
		FreeCancellationHours: int(rules.CancellationWindow / time.Hour),
		LateRefundPercent:     rules.LateRefundPercent,
		TaxRate:               rules.TaxRate.String(),
	}
	if s != nil {
		out.UpdatedAt = lo.ToPtr(s.UpdatedAt)
	}
	return out
}
