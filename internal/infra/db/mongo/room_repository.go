package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrooms "homestay/internal/domain/rooms"
)

type RoomRepository struct {
	col *mongo.Collection
}

func NewRoomRepository(db *mongo.Database) *RoomRepository {
	return &RoomRepository{col: db.Collection("agg_room")}
}

func (r *RoomRepository) ByID(ctx context.Context, id domainrooms.RoomID) (*domainrooms.Room, error) {
	var doc roomDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrooms.ErrRoomNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *RoomRepository) Save(ctx context.Context, room *domainrooms.Room) error {
	doc := newRoomDocument(room)
	doc.Version = room.Version + 1
	next, err := saveVersioned(ctx, r.col, doc.ID, room.Version, doc)
	if err != nil {
		return err
	}
	room.Version = next
	return nil
}

func (r *RoomRepository) ListByHost(ctx context.Context, host domainrooms.HostID) ([]*domainrooms.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"host_id": string(host)}, opts)
	if err != nil {
		return nil, err
	}
	var docs []roomDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainrooms.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

var _ domainrooms.Repository = (*RoomRepository)(nil)
