package booking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestay/internal/app/handlers/quotes"
	"homestay/internal/app/handlers/support"
	"homestay/internal/app/services/quoting"
	"homestay/internal/app/uow"
	domainbooking "homestay/internal/domain/booking"
	domaincoupons "homestay/internal/domain/coupons"
	"homestay/internal/domain/hostsettings"
	domainrooms "homestay/internal/domain/rooms"
	"homestay/internal/infra/storage/memory"
)

var (
	testNow = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	checkIn = time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	testPlatform = hostsettings.Platform{
		TaxRate:            decimal.RequireFromString("0.1"),
		CancellationWindow: 48 * time.Hour,
		LateRefundPercent:  50,
	}
)

type fixture struct {
	store   *memory.Store
	factory memory.Factory
	request *RequestBookingHandler
	host    *HostBookingsHandler
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	room, err := domainrooms.NewRoom(domainrooms.CreateRoomParams{
		ID:       "room-1",
		Host:     "host-1",
		Name:     "Garden Room",
		Capacity: 4,
		Rates:    domainrooms.Rates{PricePerHour: 100_000, PricePerDay: 800_000, PricePerMonth: 15_000_000},
		Currency: "VND",
		Now:      testNow,
	})
	require.NoError(t, err)
	welcome := testCoupon(t, "cpn-welcome", "WELCOME10", time.Date(2024, time.December, 31, 23, 59, 59, 0, time.UTC))
	expired := testCoupon(t, "cpn-expired", "EXPIRED20", time.Date(2024, time.February, 29, 23, 59, 59, 0, time.UTC))
	require.NoError(t, store.Seed(ctx, []*domainrooms.Room{room}, []*domaincoupons.Coupon{welcome, expired}))

	f := &fixture{store: store, factory: memory.Factory{Store: store}, clock: testNow}
	now := func() time.Time { return f.clock }
	events := support.Events{Outbox: store.Outbox()}
	f.request = &RequestBookingHandler{
		UoWFactory: f.factory,
		Quoter:     &quoting.Quoter{Platform: testPlatform, Now: now},
		Events:     events,
	}
	f.host = &HostBookingsHandler{UoWFactory: f.factory, Events: events, Now: now}
	return f
}

func testCoupon(t *testing.T, id, code string, expiry time.Time) *domaincoupons.Coupon {
	t.Helper()
	c, err := domaincoupons.NewCoupon(domaincoupons.CreateParams{
		ID:   domaincoupons.CouponID(id),
		Host: "host-1",
		Terms: domaincoupons.Terms{
			Code:       code,
			Type:       domaincoupons.Percentage,
			Value:      decimal.NewFromInt(10),
			ExpiryDate: expiry,
			UsageLimit: 100,
		},
		Now: testNow.Add(-30 * 24 * time.Hour),
	})
	require.NoError(t, err)
	return c
}

func requestCommand(id string, start time.Time, days int, coupon string) RequestBookingCommand {
	return RequestBookingCommand{
		CommandID: id,
		Stay: quotes.QuoteBookingQuery{
			RoomID:      "room-1",
			Granularity: "daily",
			Start:       start,
			End:         start.Add(time.Duration(days) * 24 * time.Hour),
			GuestCount:  2,
			CouponCode:  coupon,
		},
		Guest: Contact{Name: "Lan Nguyen", Email: "lan@example.com"},
	}
}

func (f *fixture) saveSettings(t *testing.T, terms hostsettings.Terms) {
	t.Helper()
	settings, err := hostsettings.New("host-1", terms, testNow)
	require.NoError(t, err)
	require.NoError(t, f.store.SeedHosts(context.Background(), nil, []*hostsettings.Settings{settings}))
}

func (f *fixture) booking(t *testing.T, id string) *domainbooking.Booking {
	t.Helper()
	var out *domainbooking.Booking
	err := support.ReadOnly(context.Background(), f.factory, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		out, err = unit.Bookings().ByID(ctx, domainbooking.BookingID(id))
		return err
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) coupon(t *testing.T, id domaincoupons.CouponID) *domaincoupons.Coupon {
	t.Helper()
	var out *domaincoupons.Coupon
	err := support.ReadOnly(context.Background(), f.factory, func(ctx context.Context, unit uow.UnitOfWork) error {
		var err error
		out, err = unit.Coupons().ByID(ctx, id)
		return err
	})
	require.NoError(t, err)
	return out
}

func TestRequestBookingRedeemsCoupon(t *testing.T) {
	f := newFixture(t)

	res, err := f.request.Handle(context.Background(), requestCommand("bk-1", checkIn, 2, "welcome10"))
	require.NoError(t, err)

	assert.Equal(t, "bk-1", res.BookingID)
	assert.Equal(t, string(domainbooking.StatePending), res.Status)
	assert.Equal(t, int64(1_584_000), res.Quote.Total.Amount)
	require.NotNil(t, res.Quote.Discount)
	assert.Equal(t, "WELCOME10", res.Quote.Discount.Code)

	assert.Equal(t, 1, f.coupon(t, "cpn-welcome").UsedCount)
	assert.ElementsMatch(t, []string{"booking.requested", "coupon.redeemed"}, f.store.Outbox().Pending())
}

func TestRequestBookingRejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.request.Handle(ctx, requestCommand("bk-1", checkIn, 2, ""))
	require.NoError(t, err)

	_, err = f.request.Handle(ctx, requestCommand("bk-2", checkIn.Add(24*time.Hour), 2, "WELCOME10"))
	assert.ErrorIs(t, err, domainbooking.ErrRoomUnavailable)
	assert.Equal(t, 0, f.coupon(t, "cpn-welcome").UsedCount)

	_, err = f.request.Handle(ctx, requestCommand("bk-3", checkIn.Add(48*time.Hour), 1, ""))
	assert.NoError(t, err, "back-to-back stays do not overlap")
}

func TestRequestBookingWithExpiredCouponLeavesNoTrace(t *testing.T) {
	f := newFixture(t)

	_, err := f.request.Handle(context.Background(), requestCommand("bk-1", checkIn, 2, "EXPIRED20"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domaincoupons.ErrCouponExpired)

	list, err := f.host.List(context.Background(), ListHostBookingsQuery{HostID: "host-1"})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Empty(t, f.store.Outbox().Pending())
}

func TestRequestBookingUnknownCoupon(t *testing.T) {
	f := newFixture(t)

	_, err := f.request.Handle(context.Background(), requestCommand("bk-1", checkIn, 2, "NOPE"))
	assert.ErrorIs(t, err, domaincoupons.ErrCouponNotFound)
}

func TestHostBookingTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.request.Handle(ctx, requestCommand("bk-1", checkIn, 2, ""))
	require.NoError(t, err)

	_, err = f.host.Confirm(ctx, ConfirmHostBookingCommand{HostID: "host-2", BookingID: "bk-1"})
	assert.ErrorIs(t, err, domainbooking.ErrForeignBooking)

	res, err := f.host.Confirm(ctx, ConfirmHostBookingCommand{HostID: "host-1", BookingID: "bk-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), res.Status)

	f.clock = checkIn.Add(-24 * time.Hour)
	res, err = f.host.Cancel(ctx, CancelHostBookingCommand{HostID: "host-1", BookingID: "bk-1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCancelled), res.Status)
	require.NotNil(t, res.Refund)
	assert.Equal(t, int64(880_000), res.Refund.Amount)

	_, err = f.host.Complete(ctx, CompleteHostBookingCommand{HostID: "host-1", BookingID: "bk-1"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)

	got, err := f.host.Get(ctx, GetHostBookingQuery{HostID: "host-1", BookingID: "bk-1"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", got.Status)
	require.NotNil(t, got.Refund)
	assert.Equal(t, int64(880_000), got.Refund.Amount)

	_, err = f.host.Get(ctx, GetHostBookingQuery{HostID: "host-2", BookingID: "bk-1"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestListHostBookingsFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.request.Handle(ctx, requestCommand("bk-1", checkIn, 1, ""))
	require.NoError(t, err)
	_, err = f.request.Handle(ctx, requestCommand("bk-2", checkIn.Add(72*time.Hour), 1, ""))
	require.NoError(t, err)
	_, err = f.host.Confirm(ctx, ConfirmHostBookingCommand{HostID: "host-1", BookingID: "bk-2"})
	require.NoError(t, err)

	all, err := f.host.List(ctx, ListHostBookingsQuery{HostID: "host-1"})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	pending, err := f.host.List(ctx, ListHostBookingsQuery{HostID: "host-1", Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, "bk-1", pending.Items[0].ID)

	other, err := f.host.List(ctx, ListHostBookingsQuery{HostID: "host-2"})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
}

func TestRequestBookingKeepsZeroLateRefund(t *testing.T) {
	f := newFixture(t)
	f.request.Quoter.Platform.LateRefundPercent = 0

	_, err := f.request.Handle(context.Background(), requestCommand("bk-1", checkIn, 2, ""))
	require.NoError(t, err)

	b := f.booking(t, "bk-1")
	assert.Equal(t, 0, b.Policy.LateRefundPercent)
	assert.Equal(t, checkIn.Add(-48*time.Hour), b.Policy.FreeCancellationUntil)
}

func TestRequestBookingUsesHostSettings(t *testing.T) {
	f := newFixture(t)
	f.saveSettings(t, hostsettings.Terms{
		AdvanceBookingDays: 30,
		MinimumStayDays:    2,
		MaximumStayDays:    5,
		CancellationPolicy: hostsettings.Strict,
		LateRefundPercent:  0,
		TaxRatePercent:     decimal.NewNullDecimal(decimal.NewFromInt(8)),
	})
	ctx := context.Background()

	res, err := f.request.Handle(ctx, requestCommand("bk-1", checkIn, 2, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(128_000), res.Quote.TaxAmount.Amount)
	assert.Equal(t, int64(1_728_000), res.Quote.Total.Amount)

	b := f.booking(t, "bk-1")
	assert.Equal(t, checkIn.Add(-14*24*time.Hour), b.Policy.FreeCancellationUntil)
	assert.Equal(t, 0, b.Policy.LateRefundPercent)

	tests := []struct {
		name  string
		start time.Time
		days  int
		want  error
	}{
		{"too short", checkIn.Add(10 * 24 * time.Hour), 1, hostsettings.ErrStayTooShort},
		{"too long", checkIn.Add(10 * 24 * time.Hour), 6, hostsettings.ErrStayTooLong},
		{"beyond horizon", testNow.AddDate(0, 0, 31), 2, hostsettings.ErrTooFarAhead},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.request.Handle(ctx, requestCommand("bk-rule-"+string(rune('a'+i)), tt.start, tt.days, "WELCOME10"))
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, f.coupon(t, "cpn-welcome").UsedCount)
}
