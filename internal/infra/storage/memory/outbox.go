package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "homestay/internal/app/outbox"
	infraoutbox "homestay/internal/infra/outbox"
)

// Outbox keeps event records in memory. Records added inside a memory unit of
// work become visible when the unit commits; records added outside one wait
// for Flush. The relay side implements the outbox worker source.
type Outbox struct {
	mu      sync.Mutex
	loose   []appoutbox.EventRecord
	entries []*infraoutbox.EventDocument
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	if unit, ok := unitFrom(ctx); ok {
		return unit.stageEvent(record)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loose = append(o.loose, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	records := o.loose
	o.loose = nil
	o.mu.Unlock()
	o.enqueue(records)
	return nil
}

func (o *Outbox) Discard(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.loose = nil
	return nil
}

func (o *Outbox) enqueue(records []appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, rec := range records {
		o.entries = append(o.entries, &infraoutbox.EventDocument{
			ID:            rec.ID,
			Name:          rec.Name,
			Payload:       rec.Payload,
			OccurredAt:    rec.OccurredAt,
			Aggregate:     rec.Aggregate,
			AggregateType: rec.AggregateType,
			Headers:       rec.Headers,
			State:         infraoutbox.StateNew,
			NextAttempt:   now,
		})
	}
}

// Claim hands the oldest due record to workerID.
func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	now := time.Now().UTC()
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.entries {
		if (doc.State == infraoutbox.StateNew || doc.State == infraoutbox.StateFailed) && !doc.NextAttempt.After(now) {
			doc.State = infraoutbox.StateClaimed
			doc.ClaimedBy = workerID
			doc.ClaimedAt = now
			out := *doc
			return &out, nil
		}
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, doc := range o.entries {
		if doc.ID == id {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.entries {
		if doc.ID == id {
			doc.State = infraoutbox.StateFailed
			doc.NextAttempt = next
			doc.LastError = errMsg
			doc.Attempts++
			return nil
		}
	}
	return nil
}

// Pending returns the names of records not yet relayed, oldest first.
func (o *Outbox) Pending() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.entries))
	for _, doc := range o.entries {
		names = append(names, doc.Name)
	}
	return names
}

var (
	_ appoutbox.Outbox    = (*Outbox)(nil)
	_ appoutbox.Discarder = (*Outbox)(nil)
	_ infraoutbox.Source  = (*Outbox)(nil)
)
