package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincoupons "homestay/internal/domain/coupons"
)

const couponCodeIndex = "host_code_unique"

type CouponRepository struct {
	col *mongo.Collection
}

func NewCouponRepository(db *mongo.Database) *CouponRepository {
	return &CouponRepository{col: db.Collection("agg_coupon")}
}

// EnsureIndexes creates the per-host unique code index.
func (r *CouponRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "host_id", Value: 1}, {Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(couponCodeIndex),
	})
	return err
}

func (r *CouponRepository) ByID(ctx context.Context, id domaincoupons.CouponID) (*domaincoupons.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

// ByCode matches codes case-insensitively so documents written before codes
// were normalized are still found.
func (r *CouponRepository) ByCode(ctx context.Context, host string, code string) (*domaincoupons.Coupon, error) {
	opts := options.FindOne().SetCollation(&options.Collation{Locale: "en", Strength: 2})
	return r.findOne(ctx, bson.M{"host_id": host, "code": domaincoupons.NormalizeCode(code)}, opts)
}

func (r *CouponRepository) ListByHost(ctx context.Context, host string) ([]*domaincoupons.Coupon, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"host_id": host}, opts)
	if err != nil {
		return nil, err
	}
	var docs []couponDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*domaincoupons.Coupon, 0, len(docs))
	for _, d := range docs {
		c, err := d.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *CouponRepository) Save(ctx context.Context, coupon *domaincoupons.Coupon) error {
	doc := newCouponDocument(coupon)
	doc.Version = coupon.Version + 1
	next, err := saveVersioned(ctx, r.col, doc.ID, coupon.Version, doc)
	if err != nil {
		if duplicateOn(err, couponCodeIndex) {
			return domaincoupons.ErrDuplicateCode
		}
		return err
	}
	coupon.Version = next
	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, id domaincoupons.CouponID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

func (r *CouponRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*domaincoupons.Coupon, error) {
	var doc couponDocument
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincoupons.ErrNoSuchCoupon
		}
		return nil, err
	}
	return doc.toAggregate()
}

var _ domaincoupons.Repository = (*CouponRepository)(nil)
