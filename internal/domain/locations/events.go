package locations

import "time"

type LocationCreated struct {
	LocationID LocationID
	Host       string
	Name       string
	At         time.Time
}

func (e LocationCreated) EventName() string     { return "location.created" }
func (e LocationCreated) AggregateID() string   { return string(e.LocationID) }
func (e LocationCreated) OccurredAt() time.Time { return e.At }

type LocationUpdated struct {
	LocationID LocationID
	Name       string
	At         time.Time
}

func (e LocationUpdated) EventName() string     { return "location.updated" }
func (e LocationUpdated) AggregateID() string   { return string(e.LocationID) }
func (e LocationUpdated) OccurredAt() time.Time { return e.At }

type LocationDeleted struct {
	LocationID LocationID
	Host       string
	At         time.Time
}

func (e LocationDeleted) EventName() string     { return "location.deleted" }
func (e LocationDeleted) AggregateID() string   { return string(e.LocationID) }
func (e LocationDeleted) OccurredAt() time.Time { return e.At }
