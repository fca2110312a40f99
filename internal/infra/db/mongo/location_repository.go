package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlocations "homestay/internal/domain/locations"
)

type LocationRepository struct {
	col *mongo.Collection
}

func NewLocationRepository(db *mongo.Database) *LocationRepository {
	return &LocationRepository{col: db.Collection("agg_location")}
}

// EnsureIndexes creates the host lookup index.
func (r *LocationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "host_id", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetName("host_name"),
	})
	return err
}

func (r *LocationRepository) ByID(ctx context.Context, id domainlocations.LocationID) (*domainlocations.Location, error) {
	var doc locationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlocations.ErrLocationNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *LocationRepository) ListByHost(ctx context.Context, host string) ([]*domainlocations.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"host_id": host}, opts)
	if err != nil {
		return nil, err
	}
	var docs []locationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domainlocations.Location, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toAggregate())
	}
	return out, nil
}

func (r *LocationRepository) Save(ctx context.Context, loc *domainlocations.Location) error {
	doc := newLocationDocument(loc)
	doc.Version = loc.Version + 1
	next, err := saveVersioned(ctx, r.col, doc.ID, loc.Version, doc)
	if err != nil {
		return err
	}
	loc.Version = next
	return nil
}

func (r *LocationRepository) Delete(ctx context.Context, id domainlocations.LocationID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlocations.ErrLocationNotFound
	}
	return nil
}

var _ domainlocations.Repository = (*LocationRepository)(nil)
