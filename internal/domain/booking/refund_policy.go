package booking

import (
	"time"

	"github.com/shopspring/decimal"

	"homestay/internal/domain/shared/money"
)

// RefundPolicy is the host policy captured when the booking is requested.
// Cancelling before FreeCancellationUntil refunds everything; later
// cancellations before check-in refund LateRefundPercent of the total.
// Nothing is refunded once the stay has started.
type RefundPolicy struct {
	FreeCancellationUntil time.Time `json:"free_cancellation_until" bson:"free_cancellation_until"`
	LateRefundPercent     int       `json:"late_refund_percent" bson:"late_refund_percent"`
}

// DefaultRefundPolicy allows free cancellation until window before check-in.
func DefaultRefundPolicy(checkIn time.Time, window time.Duration, latePercent int) RefundPolicy {
	return RefundPolicy{
		FreeCancellationUntil: checkIn.Add(-window).UTC(),
		LateRefundPercent:     clampPercent(latePercent),
	}
}

func (p RefundPolicy) Refund(total money.Money, cancelAt, checkIn time.Time) money.Money {
	if cancelAt.IsZero() {
		cancelAt = time.Now().UTC()
	}
	switch {
	case !cancelAt.Before(checkIn):
		return money.Zero(total.Currency)
	case !p.FreeCancellationUntil.IsZero() && cancelAt.Before(p.FreeCancellationUntil):
		return total
	default:
		return total.Percent(decimal.NewFromInt(int64(clampPercent(p.LateRefundPercent))))
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
