package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"homestay/internal/domain/pricing"
	"homestay/internal/domain/rooms"
	"homestay/internal/domain/shared/daterange"
	"homestay/internal/domain/shared/events"
	"homestay/internal/domain/shared/money"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrContactRequired  = errors.New("booking: guest name and email or phone required")
	ErrQuoteRequired    = errors.New("booking: quote snapshot required")
	ErrRoomUnavailable  = errors.New("booking: room already booked for the requested period")
	ErrForeignBooking   = errors.New("booking: booking belongs to another host")
	ErrBookingIDMissing = errors.New("booking: id required")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "PENDING"
	StateConfirmed BookingState = "CONFIRMED"
	StateCancelled BookingState = "CANCELLED"
	StateCompleted BookingState = "COMPLETED"
)

// Holds reports whether a booking in this state still blocks the room.
func (s BookingState) Holds() bool {
	return s == StatePending || s == StateConfirmed
}

type Contact struct {
	Name  string `json:"name" bson:"name"`
	Email string `json:"email,omitempty" bson:"email,omitempty"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
	Note  string `json:"note,omitempty" bson:"note,omitempty"`
}

func (c Contact) normalized() (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Note = strings.TrimSpace(c.Note)
	if c.Name == "" || (c.Email == "" && c.Phone == "") {
		return Contact{}, ErrContactRequired
	}
	return c, nil
}

type Booking struct {
	ID          BookingID
	RoomID      rooms.RoomID
	Host        rooms.HostID
	Guest       Contact
	Range       daterange.DateRange
	Granularity rooms.Granularity
	Guests      int
	CouponCode  string
	Quote       pricing.Quote
	Policy      RefundPolicy
	State       BookingState
	Refund      money.Money
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByHost(ctx context.Context, host rooms.HostID) ([]*Booking, error)
	ListByRoom(ctx context.Context, room rooms.RoomID) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	Room      rooms.Room
	Guest     Contact
	Request   pricing.BookingRequest
	Quote     pricing.Quote
	Policy    RefundPolicy
	CreatedAt time.Time
}

// NewBooking snapshots an accepted quote into a PENDING booking.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrBookingIDMissing
	}
	guest, err := params.Guest.normalized()
	if err != nil {
		return nil, err
	}
	if params.Quote.RoomID != params.Room.ID || params.Quote.Total.Currency == "" {
		return nil, ErrQuoteRequired
	}
	dr, err := daterange.New(params.Request.Start, params.Request.End)
	if err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:          params.ID,
		RoomID:      params.Room.ID,
		Host:        params.Room.Host,
		Guest:       guest,
		Range:       dr,
		Granularity: params.Request.Granularity,
		Guests:      params.Request.GuestCount,
		CouponCode:  params.Quote.CouponCode(),
		Quote:       params.Quote,
		Policy:      params.Policy,
		State:       StatePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{
		BookingID:  b.ID,
		RoomID:     b.RoomID,
		Host:       b.Host,
		Range:      b.Range,
		Guests:     b.Guests,
		CouponCode: b.CouponCode,
		Total:      b.Quote.Total,
		At:         now,
	})
	return b, nil
}

// Conflicts reports whether the booking still blocks the given period.
func (b *Booking) Conflicts(dr daterange.DateRange) bool {
	return b.State.Holds() && b.Range.Overlaps(dr)
}

func (b *Booking) OwnedBy(host rooms.HostID) error {
	if b.Host != host {
		return ErrForeignBooking
	}
	return nil
}

func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, RoomID: b.RoomID, Range: b.Range, Total: b.Quote.Total, At: b.UpdatedAt})
	return nil
}

// Cancel moves a pending or confirmed booking to CANCELLED and returns the refund owed.
func (b *Booking) Cancel(reason string, now time.Time) (money.Money, error) {
	if !b.State.Holds() {
		return money.Money{}, ErrInvalidState
	}
	refund := b.Policy.Refund(b.Quote.Total, now, b.Range.CheckIn)
	b.State = StateCancelled
	b.Refund = refund
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Refund: refund, Reason: strings.TrimSpace(reason), At: b.UpdatedAt})
	return refund, nil
}

func (b *Booking) Complete(now time.Time) error {
	if b.State != StateConfirmed {
		return ErrInvalidState
	}
	b.State = StateCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}
