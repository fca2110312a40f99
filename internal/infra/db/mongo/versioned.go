package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"homestay/internal/app/uow"
)

// saveVersioned upserts doc if the stored version still equals version and
// returns the new version. A missing match means another writer got there first.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) (int64, error) {
	filter := bson.M{"_id": id, "version": version}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) && duplicateOnID(err) {
			return 0, uow.ErrConcurrentUpdate
		}
		return 0, err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return 0, uow.ErrConcurrentUpdate
	}
	return version + 1, nil
}

// duplicateOnID tells an _id collision (lost upsert race) from a secondary
// unique index violation.
func duplicateOnID(err error) bool {
	return strings.Contains(err.Error(), "index: _id_")
}

func duplicateOn(err error, index string) bool {
	return mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "index: "+index)
}
