package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Metrics observes relay outcomes.
type Metrics interface {
	ObserveRelay(topic string, ok bool)
}

// Worker relays outbox records to the broker as CloudEvents, one per tick
// until the source runs dry.
type Worker struct {
	Source      Source
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	SourceURI   string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
	Metrics     Metrics
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil {
				return err
			}
		}
	}
}

// Drain relays due records until none is left and returns how many were sent.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	sent := 0
	for {
		relayed, ok, err := w.processOnce(ctx)
		if err != nil || !ok {
			return sent, err
		}
		if relayed {
			sent++
		}
	}
}

// processOnce reports whether a record was claimed and whether it was relayed.
func (w *Worker) processOnce(ctx context.Context) (relayed bool, claimed bool, err error) {
	doc, err := w.Source.Claim(ctx, w.ID)
	if err != nil || doc == nil {
		return false, false, err
	}
	topic := w.topicFor(doc)
	payload, headers, err := w.formatPayload(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, doc.Aggregate, payload, headers)
	}
	if w.Metrics != nil {
		w.Metrics.ObserveRelay(topic, err == nil)
	}
	if err != nil {
		w.logger().Warn("outbox relay failed", "event_id", doc.ID, "event", doc.Name, "topic", topic, "attempts", doc.Attempts+1, "err", err)
		if markErr := w.Source.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error()); markErr != nil {
			return false, true, markErr
		}
		// a failed record is retried on a later tick
		return false, false, nil
	}
	return true, true, w.Source.MarkSent(ctx, doc.ID)
}

func (w *Worker) formatPayload(doc *EventDocument) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
	}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}

func (w *Worker) topicFor(doc *EventDocument) string {
	base := doc.AggregateType
	if base == "" {
		base = doc.Name
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.SourceURI != "" {
		return w.SourceURI
	}
	return "app://homestay"
}

func (w *Worker) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

// LogProducer writes events to the log instead of a broker. It backs local
// runs without Kafka.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "event published", "topic", topic, "key", key, "bytes", len(payload))
	return nil
}
