package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSendsRecord(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking.events.v1" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "bk-1" {
			return errors.New("unexpected key " + string(key))
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Key) != "ce_id" || string(msg.Headers[1].Key) != "ce_type" {
			return errors.New("headers not sorted")
		}
		return nil
	})

	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "booking.events.v1", "bk-1", []byte(`{}`), map[string]string{
		"ce_type": "booking.requested",
		"ce_id":   "evt-1",
	})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishPropagatesFailures(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	mock.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)

	p := NewProducerFrom(mock)
	err := p.Publish(context.Background(), "coupon.events.v1", "cpn-1", []byte(`{}`), nil)
	assert.ErrorIs(t, err, sarama.ErrNotLeaderForPartition)
	require.NoError(t, p.Close())
}

func TestPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewProducerFrom(mock).Publish(ctx, "room.events.v1", "room-1", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, mock.Close())
}
