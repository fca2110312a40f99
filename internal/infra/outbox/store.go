package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "homestay/internal/app/outbox"
)

const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

// EventDocument is an outbox record as seen by the relay.
type EventDocument struct {
	ID            string            `bson:"_id"`
	Name          string            `bson:"name"`
	Payload       []byte            `bson:"payload"`
	OccurredAt    time.Time         `bson:"occurred_at"`
	Aggregate     string            `bson:"aggregate"`
	AggregateType string            `bson:"aggregate_type"`
	Headers       map[string]string `bson:"headers"`
	State         string            `bson:"state"`
	Attempts      int               `bson:"attempts"`
	NextAttempt   time.Time         `bson:"next_attempt_at"`
	ClaimedBy     string            `bson:"claimed_by"`
	ClaimedAt     time.Time         `bson:"claimed_at"`
	SentAt        time.Time         `bson:"sent_at"`
	LastError     string            `bson:"last_error"`
}

// Source is where the worker claims records from.
type Source interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// MongoStore writes records inside the caller's Mongo session, so they commit
// together with the aggregates of the same unit of work.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	col := db.Collection("app_outbox")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &MongoStore{col: col}, nil
}

func (s *MongoStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := EventDocument{
		ID:            record.ID,
		Name:          record.Name,
		Payload:       record.Payload,
		OccurredAt:    record.OccurredAt,
		Aggregate:     record.Aggregate,
		AggregateType: record.AggregateType,
		Headers:       record.Headers,
		State:         StateNew,
		NextAttempt:   now,
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// Flush is a no-op: records are committed with the transaction.
func (s *MongoStore) Flush(context.Context) error {
	return nil
}

func (s *MongoStore) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{"state": bson.M{"$in": []string{StateNew, StateFailed}}, "next_attempt_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"state": StateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *MongoStore) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": StateSent, "sent_at": time.Now().UTC()}})
	return err
}

func (s *MongoStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           StateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return err
}

var (
	_ appoutbox.Outbox = (*MongoStore)(nil)
	_ Source           = (*MongoStore)(nil)
)
