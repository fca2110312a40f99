package outbox

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"homestay/internal/domain/shared/events"
)

// EventRecord is a serialized domain event waiting to be relayed.
type EventRecord struct {
	ID            string
	Name          string
	Payload       []byte
	OccurredAt    time.Time
	Aggregate     string
	AggregateType string
	Headers       map[string]string
}

// Outbox stages event records next to the aggregate writes of a unit of work.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

// Discarder is implemented by outboxes that buffer records outside the
// database transaction and must drop them when the command fails.
type Discarder interface {
	Discard(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:            idGen(),
		Name:          ev.EventName(),
		Payload:       payload,
		OccurredAt:    ev.OccurredAt().UTC(),
		Aggregate:     ev.AggregateID(),
		AggregateType: AggregateType(ev.EventName()),
		Headers:       map[string]string{},
	}, nil
}

// AggregateType is the event name prefix: "coupon" for "coupon.redeemed".
func AggregateType(eventName string) string {
	if idx := strings.IndexRune(eventName, '.'); idx > 0 {
		return eventName[:idx]
	}
	return eventName
}

// RecordDomainEvents encodes evs into box in order.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Recorder is an aggregate that buffers domain events.
type Recorder interface {
	PendingEvents() []events.DomainEvent
	ClearEvents()
}

// Drain moves the pending events of every aggregate into box.
func Drain(ctx context.Context, box Outbox, encoder EventEncoder, aggregates ...Recorder) error {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		if err := RecordDomainEvents(ctx, box, encoder, agg.PendingEvents()); err != nil {
			return err
		}
		agg.ClearEvents()
	}
	return nil
}
