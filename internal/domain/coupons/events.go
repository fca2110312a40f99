package coupons

import "time"

type CouponCreated struct {
	CouponID CouponID
	Host     string
	Code     string
	At       time.Time
}

func (e CouponCreated) EventName() string     { return "coupon.created" }
func (e CouponCreated) AggregateID() string   { return string(e.CouponID) }
func (e CouponCreated) OccurredAt() time.Time { return e.At }

type CouponUpdated struct {
	CouponID CouponID
	Code     string
	At       time.Time
}

func (e CouponUpdated) EventName() string     { return "coupon.updated" }
func (e CouponUpdated) AggregateID() string   { return string(e.CouponID) }
func (e CouponUpdated) OccurredAt() time.Time { return e.At }

type CouponStatusChanged struct {
	CouponID CouponID
	Status   Status
	At       time.Time
}

func (e CouponStatusChanged) EventName() string     { return "coupon.status_changed" }
func (e CouponStatusChanged) AggregateID() string   { return string(e.CouponID) }
func (e CouponStatusChanged) OccurredAt() time.Time { return e.At }

type CouponRedeemed struct {
	CouponID  CouponID
	Code      string
	BookingID string
	UsedCount int
	At        time.Time
}

func (e CouponRedeemed) EventName() string     { return "coupon.redeemed" }
func (e CouponRedeemed) AggregateID() string   { return string(e.CouponID) }
func (e CouponRedeemed) OccurredAt() time.Time { return e.At }
