package mongodb

import (
	"context"
	"fmt"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type referralRepository struct {
	collection *mongo.Collection
}

func NewReferralRepository(db *database.MongoDB) interfaces.ReferralRepository {
	return &referralRepository{
		collection: db.Collection("referrals"),
	}
}

func (r *referralRepository) CreateReferral(ctx context.Context, referral *models.Referral) error {
	referral.ID = primitive.NewObjectID()
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = referral.CreatedAt

	if _, err := r.collection.InsertOne(ctx, referral); err != nil {
		return wrapWriteError("create referral", err)
	}
	return nil
}

func (r *referralRepository) GetReferralByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	return findOne[models.Referral](ctx, r.collection, bson.M{"_id": id})
}

func (r *referralRepository) ListReferrals(ctx context.Context, filter models.ReferralFilter, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return findPaginated[models.Referral](ctx, r.collection, referralFilter(filter), params)
}

func (r *referralRepository) GetOpenReferralsForReferee(ctx context.Context, customerID primitive.ObjectID, email string) ([]*models.Referral, error) {
	or := bson.A{bson.M{"referee_customer_id": customerID}}
	if email != "" {
		or = append(or, bson.M{"referee_email": email})
	}

	return findAll[models.Referral](ctx, r.collection, bson.M{
		"$or": or,
		"status": bson.M{"$in": bson.A{
			models.ReferralStatusPending,
			models.ReferralStatusViewed,
		}},
	})
}

func (r *referralRepository) GetReferralsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*models.Referral, error) {
	return findAll[models.Referral](ctx, r.collection, bson.M{"order_id": orderID})
}

func (r *referralRepository) UpdateReferralStatus(ctx context.Context, id primitive.ObjectID, from, to models.ReferralStatus, fields map[string]interface{}) error {
	set := bson.M{"status": to, "updated_at": time.Now()}
	for k, v := range fields {
		set[k] = v
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update referral status: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetReferralByID(ctx, id); err != nil {
			return err
		}
		return interfaces.ErrConditionFailed
	}
	return nil
}

func (r *referralRepository) ExpireStaleReferrals(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{
			"status": bson.M{"$in": bson.A{
				models.ReferralStatusPending,
				models.ReferralStatusViewed,
			}},
			"expires_at": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{
			"status":     models.ReferralStatusExpired,
			"expired_at": now,
			"updated_at": now,
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire referrals: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *referralRepository) CountReferralsByStatus(ctx context.Context, filter models.ReferralFilter) ([]models.CountBucket, error) {
	return r.countBy(ctx, filter, "$status")
}

func (r *referralRepository) CountReferralsByType(ctx context.Context, filter models.ReferralFilter) ([]models.CountBucket, error) {
	return r.countBy(ctx, filter, "$referrer.type")
}

func (r *referralRepository) countBy(ctx context.Context, filter models.ReferralFilter, field string) ([]models.CountBucket, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: referralFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate referrals: %w", err)
	}
	defer cursor.Close(ctx)

	buckets := make([]models.CountBucket, 0)
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("failed to decode referral counts: %w", err)
	}
	return buckets, nil
}

func referralFilter(f models.ReferralFilter) bson.M {
	filter := bson.M{}
	if f.ReferrerType != nil {
		filter["referrer.type"] = *f.ReferrerType
	}
	if f.ReferrerID != nil {
		filter["referrer.id"] = *f.ReferrerID
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if r := dateRange(f.From, f.To); r != nil {
		filter["created_at"] = r
	}
	return filter
}
