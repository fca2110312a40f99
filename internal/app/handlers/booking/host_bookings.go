package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/queries"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domainrooms "homestay/internal/domain/rooms"
)

const (
	listHostBookingsKey    = "booking.list_by_host"
	getHostBookingKey      = "booking.get"
	confirmHostBookingKey  = "booking.confirm"
	cancelHostBookingKey   = "booking.cancel"
	completeHostBookingKey = "booking.complete"
	allStatusesFilterValue = "ALL"
)

type ListHostBookingsQuery struct {
	HostID string
	Status string
}

func (q ListHostBookingsQuery) Key() string       { return listHostBookingsKey }
func (q ListHostBookingsQuery) HostScope() string { return q.HostID }

type GetHostBookingQuery struct {
	HostID    string
	BookingID string `validate:"required"`
}

func (q GetHostBookingQuery) Key() string       { return getHostBookingKey }
func (q GetHostBookingQuery) HostScope() string { return q.HostID }

type ConfirmHostBookingCommand struct {
	HostID    string
	BookingID string `validate:"required"`
}

func (c ConfirmHostBookingCommand) Key() string       { return confirmHostBookingKey }
func (c ConfirmHostBookingCommand) HostScope() string { return c.HostID }

type CancelHostBookingCommand struct {
	HostID    string
	BookingID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (c CancelHostBookingCommand) Key() string       { return cancelHostBookingKey }
func (c CancelHostBookingCommand) HostScope() string { return c.HostID }

type CompleteHostBookingCommand struct {
	HostID    string
	BookingID string `validate:"required"`
}

func (c CompleteHostBookingCommand) Key() string       { return completeHostBookingKey }
func (c CompleteHostBookingCommand) HostScope() string { return c.HostID }

type HostBookingActionResult struct {
	BookingID string     `json:"booking_id"`
	Status    string     `json:"status"`
	Refund    *dto.Money `json:"refund,omitempty"`
}

type HostBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Events     support.Events
	Now        func() time.Time
	Logger     *slog.Logger
}

func (h *HostBookingsHandler) List(ctx context.Context, q ListHostBookingsQuery) (dto.BookingCollection, error) {
	statusFilter := strings.ToUpper(strings.TrimSpace(q.Status))
	if statusFilter == "" {
		statusFilter = allStatusesFilterValue
	}
	var out dto.BookingCollection
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		items, err := unit.Bookings().ListByHost(ctx, domainrooms.HostID(q.HostID))
		if err != nil {
			return err
		}
		if statusFilter != allStatusesFilterValue {
			items = lo.Filter(items, func(b *domainbooking.Booking, _ int) bool {
				return string(b.State) == statusFilter
			})
		}
		out = dto.MapBookings(items)
		return nil
	})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	support.Logger(h.Logger).Debug("host bookings listed", "host_id", q.HostID, "count", len(out.Items), "status", statusFilter)
	return out, nil
}

func (h *HostBookingsHandler) Get(ctx context.Context, q GetHostBookingQuery) (dto.Booking, error) {
	var out dto.Booking
	err := support.ReadOnly(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
		if err != nil {
			return err
		}
		if booking.OwnedBy(domainrooms.HostID(q.HostID)) != nil {
			return domainbooking.ErrBookingNotFound
		}
		out = dto.MapBooking(booking)
		return nil
	})
	return out, err
}

func (h *HostBookingsHandler) Confirm(ctx context.Context, cmd ConfirmHostBookingCommand) (*HostBookingActionResult, error) {
	return h.transition(ctx, cmd.HostID, cmd.BookingID, "host booking confirmed", func(b *domainbooking.Booking, now time.Time) (*dto.Money, error) {
		return nil, b.Confirm(now)
	})
}

func (h *HostBookingsHandler) Cancel(ctx context.Context, cmd CancelHostBookingCommand) (*HostBookingActionResult, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "host-cancelled"
	}
	return h.transition(ctx, cmd.HostID, cmd.BookingID, "host booking cancelled", func(b *domainbooking.Booking, now time.Time) (*dto.Money, error) {
		refund, err := b.Cancel(reason, now)
		if err != nil {
			return nil, err
		}
		m := dto.MapMoney(refund)
		return &m, nil
	})
}

func (h *HostBookingsHandler) Complete(ctx context.Context, cmd CompleteHostBookingCommand) (*HostBookingActionResult, error) {
	return h.transition(ctx, cmd.HostID, cmd.BookingID, "host booking completed", func(b *domainbooking.Booking, now time.Time) (*dto.Money, error) {
		return nil, b.Complete(now)
	})
}

func (h *HostBookingsHandler) transition(ctx context.Context, hostID, bookingID, msg string, apply func(*domainbooking.Booking, time.Time) (*dto.Money, error)) (*HostBookingActionResult, error) {
	var result *HostBookingActionResult
	err := support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		booking, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
		if err != nil {
			return err
		}
		if err := booking.OwnedBy(domainrooms.HostID(hostID)); err != nil {
			return err
		}
		refund, err := apply(booking, support.Clock(h.Now))
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		result = &HostBookingActionResult{BookingID: string(booking.ID), Status: string(booking.State), Refund: refund}
		return h.Events.Publish(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	support.Logger(h.Logger).Info(msg, "booking_id", bookingID, "host_id", hostID, "status", result.Status)
	return result, nil
}

// Register attaches the booking handlers to the buses.
func Register(cmdBus *commands.InMemoryBus, queryBus *queries.InMemoryBus, request *RequestBookingHandler, host *HostBookingsHandler) {
	commands.RegisterHandler[RequestBookingCommand, *RequestBookingResult](cmdBus, requestBookingKey, request)
	commands.RegisterHandler(cmdBus, confirmHostBookingKey, commands.HandlerFunc[ConfirmHostBookingCommand, *HostBookingActionResult](host.Confirm))
	commands.RegisterHandler(cmdBus, cancelHostBookingKey, commands.HandlerFunc[CancelHostBookingCommand, *HostBookingActionResult](host.Cancel))
	commands.RegisterHandler(cmdBus, completeHostBookingKey, commands.HandlerFunc[CompleteHostBookingCommand, *HostBookingActionResult](host.Complete))
	queries.RegisterHandler(queryBus, listHostBookingsKey, queries.HandlerFunc[ListHostBookingsQuery, dto.BookingCollection](host.List))
	queries.RegisterHandler(queryBus, getHostBookingKey, queries.HandlerFunc[GetHostBookingQuery, dto.Booking](host.Get))
}
