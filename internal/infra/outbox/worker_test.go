package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	docs   []*EventDocument
	sent   []string
	failed []string
}

func (s *sliceSource) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	for _, d := range s.docs {
		if d.State == StateNew {
			d.State = StateClaimed
			d.ClaimedBy = workerID
			return d, nil
		}
	}
	return nil, nil
}

func (s *sliceSource) MarkSent(ctx context.Context, id string) error {
	s.sent = append(s.sent, id)
	return nil
}

func (s *sliceSource) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	s.failed = append(s.failed, id)
	return nil
}

type published struct {
	topic   string
	key     string
	payload []byte
	headers map[string]string
}

type captureProducer struct {
	msgs []published
	err  error
}

func (p *captureProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, key: key, payload: payload, headers: headers})
	return nil
}

func newDoc(id, name, aggregateType string) *EventDocument {
	return &EventDocument{
		ID:            id,
		Name:          name,
		Payload:       []byte(`{"CouponID":"cpn-1","UsedCount":16}`),
		OccurredAt:    time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
		Aggregate:     "cpn-1",
		AggregateType: aggregateType,
		State:         StateNew,
	}
}

func TestWorkerDrainPublishesCloudEvents(t *testing.T) {
	src := &sliceSource{docs: []*EventDocument{
		newDoc("evt-1", "coupon.redeemed", "coupon"),
		newDoc("evt-2", "booking.requested", "booking"),
	}}
	prod := &captureProducer{}
	w := &Worker{Source: src, Producer: prod, TopicPrefix: "dev.", ID: "w1"}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"evt-1", "evt-2"}, src.sent)

	require.Len(t, prod.msgs, 2)
	assert.Equal(t, "dev.coupon.events.v1", prod.msgs[0].topic)
	assert.Equal(t, "dev.booking.events.v1", prod.msgs[1].topic)
	assert.Equal(t, "cpn-1", prod.msgs[0].key)
	assert.Equal(t, "application/cloudevents+json", prod.msgs[0].headers["content-type"])

	var evt map[string]any
	require.NoError(t, json.Unmarshal(prod.msgs[0].payload, &evt))
	assert.Equal(t, "1.0", evt["specversion"])
	assert.Equal(t, "coupon.redeemed.v1", evt["type"])
	assert.Equal(t, "app://homestay", evt["source"])
	assert.Equal(t, "evt-1", evt["id"])
	data, ok := evt["data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 16, data["UsedCount"])
}

func TestWorkerMarksFailures(t *testing.T) {
	src := &sliceSource{docs: []*EventDocument{newDoc("evt-1", "coupon.redeemed", "coupon")}}
	w := &Worker{Source: src, Producer: &captureProducer{err: errors.New("broker down")}, Backoff: []time.Duration{time.Second}}

	sent, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Equal(t, []string{"evt-1"}, src.failed)
	assert.Empty(t, src.sent)
}

func TestWorkerRejectsBadPayload(t *testing.T) {
	doc := newDoc("evt-1", "room.created", "")
	doc.Payload = []byte("not json")
	src := &sliceSource{docs: []*EventDocument{doc}}
	w := &Worker{Source: src, Producer: &captureProducer{}}

	_, err := w.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"evt-1"}, src.failed)
}

func TestWorkerRequiresDependencies(t *testing.T) {
	assert.ErrorIs(t, (&Worker{}).Run(context.Background()), ErrWorkerNotConfigured)
}
