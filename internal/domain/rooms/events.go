package rooms

import "time"

type RoomCreated struct {
	RoomID RoomID
	Host   HostID
	At     time.Time
}

func (e RoomCreated) EventName() string     { return "room.created" }
func (e RoomCreated) AggregateID() string   { return string(e.RoomID) }
func (e RoomCreated) OccurredAt() time.Time { return e.At }

type RoomRatesUpdated struct {
	RoomID   RoomID
	Rates    Rates
	Capacity int
	At       time.Time
}

func (e RoomRatesUpdated) EventName() string     { return "room.rates_updated" }
func (e RoomRatesUpdated) AggregateID() string   { return string(e.RoomID) }
func (e RoomRatesUpdated) OccurredAt() time.Time { return e.At }
