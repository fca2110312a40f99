package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "homestay/internal/domain/booking"
	domainrooms "homestay/internal/domain/rooms"
)

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "range.check_in", Value: 1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	next, err := saveVersioned(ctx, r.col, doc.ID, b.Version, doc)
	if err != nil {
		return err
	}
	b.Version = next
	return nil
}

func (r *BookingRepository) ListByHost(ctx context.Context, host domainrooms.HostID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"host_id": string(host)})
}

func (r *BookingRepository) ListByRoom(ctx context.Context, room domainrooms.RoomID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"room_id": string(room)})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(docs))
	for _, d := range docs {
		b, err := d.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
