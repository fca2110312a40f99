// Package hostsettings exposes the booking rules of a host.
package hostsettings

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainsettings "homestay/internal/domain/hostsettings"
)

const (
	getSettingsKey    = "host_settings.get"
	updateSettingsKey = "host_settings.update"
)

type GetSettingsQuery struct {
	HostID string
}

func (q GetSettingsQuery) Key() string       { return getSettingsKey }
func (q GetSettingsQuery) HostScope() string { return q.HostID }

// UpdateSettingsCommand replaces all terms of the host. An empty TaxRatePercent
// falls back to the platform tax rate.
type UpdateSettingsCommand struct {
	HostID             string `validate:"required"`
	AdvanceBookingDays int    `validate:"gte=0"`
	MinimumStayDays    int    `validate:"gte=0"`
	MaximumStayDays    int    `validate:"gte=0"`
	CancellationPolicy string `validate:"required"`
	LateRefundPercent  int    `validate:"gte=0,lte=100"`
	TaxRatePercent     string `validate:"omitempty,number"`
}

func (c UpdateSettingsCommand) Key() string       { return updateSettingsKey }
func (c UpdateSettingsCommand) HostScope() string { return c.HostID }

func (c UpdateSettingsCommand) terms() (domainsettings.Terms, error) {
	terms := domainsettings.Terms{
		AdvanceBookingDays: c.AdvanceBookingDays,
		MinimumStayDays:    c.MinimumStayDays,
		MaximumStayDays:    c.MaximumStayDays,
		CancellationPolicy: domainsettings.Policy(c.CancellationPolicy),
		LateRefundPercent:  c.LateRefundPercent,
	}
	if raw := strings.TrimSpace(c.TaxRatePercent); raw != "" {
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			return domainsettings.Terms{}, domainsettings.ErrInvalidTaxRate
		}
		terms.TaxRatePercent = decimal.NewNullDecimal(rate)
	}
	return terms, nil
}

// Handlers resolve settings over Platform, the rules of hosts without settings.
type Handlers struct {
	UoWFactory uow.UoWFactory
	Platform   domainsettings.Platform
	Events     support.Events
	Now        func() time.Time
	Logger     *slog.Logger
}

// Get returns the effective rules, platform defaults included.
func (h *Handlers) Get(ctx context.Context, q GetSettingsQuery) (dto.HostSettings, error) {
	var out dto.HostSettings
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		settings, err := unit.HostSettings().ByHost(ctx, q.HostID)
		if errors.Is(err, domainsettings.ErrSettingsNotFound) {
			settings, err = nil, nil
		}
		if err != nil {
			return err
		}
		out = dto.MapHostSettings(q.HostID, domainsettings.Resolve(settings, h.Platform), settings)
		return nil
	})
	return out, err
}

// Update creates the host settings on first use.
func (h *Handlers) Update(ctx context.Context, cmd UpdateSettingsCommand) (*dto.HostSettings, error) {
	terms, err := cmd.terms()
	if err != nil {
		return nil, err
	}
	now := support.Clock(h.Now)
	var out dto.HostSettings
	err = support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		settings, err := unit.HostSettings().ByHost(ctx, cmd.HostID)
		switch {
		case errors.Is(err, domainsettings.ErrSettingsNotFound):
			if settings, err = domainsettings.New(cmd.HostID, terms, now); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := settings.Update(terms, now); err != nil {
				return err
			}
		}
		if err := unit.HostSettings().Save(ctx, settings); err != nil {
			return err
		}
		out = dto.MapHostSettings(cmd.HostID, domainsettings.Resolve(settings, h.Platform), settings)
		return h.Events.Publish(ctx, settings)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info("host settings updated",
		"host_id", cmd.HostID,
		"policy", out.CancellationPolicy,
		"tax_rate", out.TaxRate,
	)
	return &out, nil
}

func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, h *Handlers) {
	commands.RegisterHandler(cmdBus, updateSettingsKey, commands.HandlerFunc[UpdateSettingsCommand, *dto.HostSettings](h.Update))
	queries.RegisterHandler(queryBus, getSettingsKey, queries.HandlerFunc[GetSettingsQuery, dto.HostSettings](h.Get))
}
