package coupons

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domaincoupons "homestay/internal/domain/coupons"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/money"
)

const (
	createCouponKey    = "coupons.create"
	updateCouponKey    = "coupons.update"
	deleteCouponKey    = "coupons.delete"
	setCouponStatusKey = "coupons.set_status"
	listHostCouponsKey = "coupons.list_by_host"
	validateCouponKey  = "coupons.validate"
)

// Terms is the editable part of a coupon as submitted by a host.
type Terms struct {
	Code        string    `validate:"required,max=32"`
	Type        string    `validate:"required,oneof=PERCENTAGE FIXED percentage fixed"`
	Value       string    `validate:"required,number"`
	Currency    string    `validate:"omitempty,len=3"`
	ExpiryDate  time.Time `validate:"required"`
	UsageLimit  int       `validate:"min=1"`
	Description string    `validate:"max=500"`
}

func (t Terms) domain(defaultCurrency string) (domaincoupons.Terms, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(t.Value))
	if err != nil {
		return domaincoupons.Terms{}, domaincoupons.ErrInvalidValue
	}
	currency := t.Currency
	if strings.EqualFold(strings.TrimSpace(t.Type), string(domaincoupons.Fixed)) && strings.TrimSpace(currency) == "" {
		currency = defaultCurrency
	}
	return domaincoupons.Terms{
		Code:        t.Code,
		Type:        domaincoupons.DiscountType(t.Type),
		Value:       value,
		Currency:    currency,
		ExpiryDate:  t.ExpiryDate,
		UsageLimit:  t.UsageLimit,
		Description: t.Description,
	}, nil
}

type CreateCouponCommand struct {
	CouponID string
	HostID   string `validate:"required"`
	Terms    Terms
}

func (c CreateCouponCommand) Key() string       { return createCouponKey }
func (c CreateCouponCommand) HostScope() string { return c.HostID }

type UpdateCouponCommand struct {
	HostID   string `validate:"required"`
	CouponID string `validate:"required"`
	Terms    Terms
}

func (c UpdateCouponCommand) Key() string       { return updateCouponKey }
func (c UpdateCouponCommand) HostScope() string { return c.HostID }

type DeleteCouponCommand struct {
	HostID   string `validate:"required"`
	CouponID string `validate:"required"`
}

func (c DeleteCouponCommand) Key() string       { return deleteCouponKey }
func (c DeleteCouponCommand) HostScope() string { return c.HostID }

type SetCouponStatusCommand struct {
	HostID   string `validate:"required"`
	CouponID string `validate:"required"`
	Status   string `validate:"required,oneof=ACTIVE INACTIVE active inactive"`
}

func (c SetCouponStatusCommand) Key() string       { return setCouponStatusKey }
func (c SetCouponStatusCommand) HostScope() string { return c.HostID }

type ListHostCouponsQuery struct {
	HostID string
}

func (q ListHostCouponsQuery) Key() string       { return listHostCouponsKey }
func (q ListHostCouponsQuery) HostScope() string { return q.HostID }

// ValidateCouponQuery evaluates a code for a room against a subtotal without redeeming it.
type ValidateCouponQuery struct {
	RoomID   string `validate:"required"`
	Code     string `validate:"required"`
	Subtotal int64  `validate:"gte=0"`
}

func (q ValidateCouponQuery) Key() string { return validateCouponKey }

type DeleteResult struct {
	CouponID string `json:"coupon_id"`
	Deleted  bool   `json:"deleted"`
}

type Handlers struct {
	UoWFactory      uow.UoWFactory
	Events          support.Events
	DefaultCurrency string
	Now             func() time.Time
	Logger          *slog.Logger
}

func (h *Handlers) Create(ctx context.Context, cmd CreateCouponCommand) (*dto.Coupon, error) {
	terms, err := cmd.Terms.domain(h.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	id := strings.TrimSpace(cmd.CouponID)
	if id == "" {
		id = "cpn-" + uuid.NewString()
	}
	now := support.Clock(h.Now)
	var out dto.Coupon
	err = support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		coupon, err := domaincoupons.NewCoupon(domaincoupons.CreateParams{
			ID:    domaincoupons.CouponID(id),
			Host:  cmd.HostID,
			Terms: terms,
			Now:   now,
		})
		if err != nil {
			return err
		}
		if err := ensureCodeFree(ctx, unit, coupon); err != nil {
			return err
		}
		if err := unit.Coupons().Save(ctx, coupon); err != nil {
			return err
		}
		out = dto.MapCoupon(coupon, now)
		return h.Events.Publish(ctx, coupon)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info("coupon created", "coupon_id", out.ID, "code", out.Code, "host_id", cmd.HostID)
	return &out, nil
}

func (h *Handlers) Update(ctx context.Context, cmd UpdateCouponCommand) (*dto.Coupon, error) {
	terms, err := cmd.Terms.domain(h.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	now := support.Clock(h.Now)
	var out dto.Coupon
	err = h.mutate(ctx, cmd.HostID, cmd.CouponID, func(ctx context.Context, unit uow.UnitOfWork, coupon *domaincoupons.Coupon) error {
		if err := coupon.Update(terms, now); err != nil {
			return err
		}
		if err := ensureCodeFree(ctx, unit, coupon); err != nil {
			return err
		}
		out = dto.MapCoupon(coupon, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handlers) SetStatus(ctx context.Context, cmd SetCouponStatusCommand) (*dto.Coupon, error) {
	now := support.Clock(h.Now)
	status := domaincoupons.Status(strings.ToUpper(strings.TrimSpace(cmd.Status)))
	var out dto.Coupon
	err := h.mutate(ctx, cmd.HostID, cmd.CouponID, func(ctx context.Context, unit uow.UnitOfWork, coupon *domaincoupons.Coupon) error {
		if err := coupon.SetStatus(status, now); err != nil {
			return err
		}
		out = dto.MapCoupon(coupon, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *Handlers) Delete(ctx context.Context, cmd DeleteCouponCommand) (*DeleteResult, error) {
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		coupon, err := unit.Coupons().ByID(ctx, domaincoupons.CouponID(cmd.CouponID))
		if err != nil {
			return err
		}
		if err := coupon.OwnedBy(cmd.HostID); err != nil {
			return err
		}
		return unit.Coupons().Delete(ctx, coupon.ID)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info("coupon deleted", "coupon_id", cmd.CouponID, "host_id", cmd.HostID)
	return &DeleteResult{CouponID: cmd.CouponID, Deleted: true}, nil
}

func (h *Handlers) ListByHost(ctx context.Context, q ListHostCouponsQuery) (dto.CouponCollection, error) {
	now := support.Clock(h.Now)
	var out dto.CouponCollection
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		items, err := unit.Coupons().ListByHost(ctx, q.HostID)
		if err != nil {
			return err
		}
		out = dto.MapCoupons(items, now)
		return nil
	})
	return out, err
}

func (h *Handlers) Validate(ctx context.Context, q ValidateCouponQuery) (dto.Discount, error) {
	now := support.Clock(h.Now)
	var out dto.Discount
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		room, err := unit.Rooms().ByID(ctx, domainrooms.RoomID(q.RoomID))
		if err != nil {
			return err
		}
		subtotal, err := money.New(q.Subtotal, room.Currency)
		if err != nil {
			return err
		}
		coupon, err := unit.Coupons().ByCode(ctx, string(room.Host), q.Code)
		if err != nil && !errors.Is(err, domaincoupons.ErrNoSuchCoupon) {
			return err
		}
		discount, err := domaincoupons.Evaluate(q.Code, coupon, now, subtotal)
		if err != nil {
			return err
		}
		out = dto.MapDiscount(discount)
		return nil
	})
	return out, err
}

// mutate loads a host owned coupon, applies fn and saves it with its events.
func (h *Handlers) mutate(ctx context.Context, hostID, couponID string, fn func(context.Context, uow.UnitOfWork, *domaincoupons.Coupon) error) error {
	return support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		coupon, err := unit.Coupons().ByID(ctx, domaincoupons.CouponID(couponID))
		if err != nil {
			return err
		}
		if err := coupon.OwnedBy(hostID); err != nil {
			return err
		}
		if err := fn(ctx, unit, coupon); err != nil {
			return err
		}
		if err := unit.Coupons().Save(ctx, coupon); err != nil {
			return err
		}
		return h.Events.Publish(ctx, coupon)
	})
}

func ensureCodeFree(ctx context.Context, unit uow.UnitOfWork, coupon *domaincoupons.Coupon) error {
	existing, err := unit.Coupons().ByCode(ctx, coupon.Host, coupon.Code)
	if errors.Is(err, domaincoupons.ErrNoSuchCoupon) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != coupon.ID {
		return domaincoupons.ErrDuplicateCode
	}
	return nil
}

func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, h *Handlers) {
	commands.RegisterHandler(cmdBus, createCouponKey, commands.HandlerFunc[CreateCouponCommand, *dto.Coupon](h.Create))
	commands.RegisterHandler(cmdBus, updateCouponKey, commands.HandlerFunc[UpdateCouponCommand, *dto.Coupon](h.Update))
	commands.RegisterHandler(cmdBus, setCouponStatusKey, commands.HandlerFunc[SetCouponStatusCommand, *dto.Coupon](h.SetStatus))
	commands.RegisterHandler(cmdBus, deleteCouponKey, commands.HandlerFunc[DeleteCouponCommand, *DeleteResult](h.Delete))
	queries.RegisterHandler(queryBus, listHostCouponsKey, queries.HandlerFunc[ListHostCouponsQuery, dto.CouponCollection](h.ListByHost))
	queries.RegisterHandler(queryBus, validateCouponKey, queries.HandlerFunc[ValidateCouponQuery, dto.Discount](h.Validate))
}
