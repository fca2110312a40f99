package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"homestay/internal/domain/hostsettings"
)

// SettingsRepository stores one document per host, keyed by the host id.
type SettingsRepository struct {
	col *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{col: db.Collection("agg_host_settings")}
}

func (r *SettingsRepository) ByHost(ctx context.Context, host string) (*hostsettings.Settings, error) {
	var doc settingsDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": host}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, hostsettings.ErrSettingsNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *SettingsRepository) Save(ctx context.Context, s *hostsettings.Settings) error {
	doc := newSettingsDocument(s)
	doc.Version = s.Version + 1
	next, err := saveVersioned(ctx, r.col, doc.Host, s.Version, doc)
	if err != nil {
		return err
	}
	s.Version = next
	return nil
}

var _ hostsettings.Repository = (*SettingsRepository)(nil)
