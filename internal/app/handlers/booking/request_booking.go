package booking

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"homestay/internal/app/commands"
	"homestay/internal/app/dto"
	"homestay/internal/app/handlers/quotes"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/middleware"
	"homestay/internal/app/services/quoting"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domainrange "homestay/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type Contact struct {
	Name  string `validate:"required,max=120"`
	Email string `validate:"omitempty,email"`
	Phone string `validate:"omitempty,max=32"`
	Note  string `validate:"max=1000"`
}

type RequestBookingCommand struct {
	CommandID       string
	Stay            quotes.QuoteBookingQuery
	Guest           Contact
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string    `json:"booking_id"`
	Status    string    `json:"status"`
	Quote     dto.Quote `json:"quote"`
}

// RedemptionRecorder counts coupon uses consumed by accepted bookings.
type RedemptionRecorder interface {
	ObserveRedemption(host string)
}

// RequestBookingHandler turns an accepted quote into a PENDING booking and
// consumes one use of the applied coupon in the same unit of work. Stay limits
// and the refund policy come from the rules the quote was priced with.
type RequestBookingHandler struct {
	UoWFactory  uow.UoWFactory
	Quoter      *quoting.Quoter
	Events      support.Events
	Redemptions RedemptionRecorder
	Logger      *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	req, err := cmd.Stay.Request()
	if err != nil {
		return nil, err
	}
	dr, err := domainrange.New(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	bookingID := strings.TrimSpace(cmd.CommandID)
	if bookingID == "" {
		bookingID = "bk-" + uuid.NewString()
	}

	var booking *domainbooking.Booking
	err = support.InUnit(ctx, h.UoWFactory, func(ctx context.Context, unit uow.UnitOfWork) error {
		res, err := h.Quoter.Quote(ctx, unit, req)
		if err != nil {
			return err
		}
		if err := res.Rules.CheckStay(req.Start, req.End, req.Granularity, res.At); err != nil {
			return err
		}

		existing, err := unit.Bookings().ListByRoom(ctx, res.Room.ID)
		if err != nil {
			return err
		}
		if lo.ContainsBy(existing, func(b *domainbooking.Booking) bool { return b.Conflicts(dr) }) {
			return domainbooking.ErrRoomUnavailable
		}
		// Saving the room bumps its version, so two requests for the same
		// room cannot both commit.
		if err := unit.Rooms().Save(ctx, res.Room); err != nil {
			return err
		}

		if res.Coupon != nil && res.Quote.Discount != nil {
			if err := res.Coupon.Redeem(res.At, bookingID); err != nil {
				return err
			}
			if err := unit.Coupons().Save(ctx, res.Coupon); err != nil {
				return err
			}
		}

		booking, err = domainbooking.NewBooking(domainbooking.CreateParams{
			ID:        domainbooking.BookingID(bookingID),
			Room:      *res.Room,
			Guest:     domainbooking.Contact(cmd.Guest),
			Request:   req,
			Quote:     res.Quote,
			Policy:    domainbooking.DefaultRefundPolicy(req.Start, res.Rules.CancellationWindow, res.Rules.LateRefundPercent),
			CreatedAt: res.At,
		})
		if err != nil {
			return err
		}
		if err := unit.Bookings().Save(ctx, booking); err != nil {
			return err
		}
		if res.Coupon != nil {
			return h.Events.Publish(ctx, booking, res.Coupon)
		}
		return h.Events.Publish(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	if booking.CouponCode != "" && h.Redemptions != nil {
		h.Redemptions.ObserveRedemption(string(booking.Host))
	}

	support.Logger(h.Logger).Info("booking requested",
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"coupon", booking.CouponCode,
		"total", booking.Quote.Total.Amount,
	)
	return &RequestBookingResult{
		BookingID: string(booking.ID),
		Status:    string(booking.State),
		Quote:     dto.MapQuote(booking.Quote),
	}, nil
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
