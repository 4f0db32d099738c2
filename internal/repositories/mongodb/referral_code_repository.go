package mongodb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type referralCodeRepository struct {
	collection *mongo.Collection
}

// NewReferralCodeRepository reads straight from Mongo. Lookups are cached one layer
// up by the referral code service.
func NewReferralCodeRepository(db *database.MongoDB) interfaces.ReferralCodeRepository {
	return &referralCodeRepository{
		collection: db.Collection("referral_codes"),
	}
}

func (r *referralCodeRepository) CreateCode(ctx context.Context, code *models.ReferralCode) error {
	code.ID = primitive.NewObjectID()
	code.CreatedAt = time.Now()
	code.UpdatedAt = code.CreatedAt

	if _, err := r.collection.InsertOne(ctx, code); err != nil {
		return wrapWriteError("create referral code", err)
	}
	return nil
}

func (r *referralCodeRepository) GetCodeByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralCode, error) {
	return findOne[models.ReferralCode](ctx, r.collection, bson.M{"_id": id})
}

func (r *referralCodeRepository) GetCodeByString(ctx context.Context, code string) (*models.ReferralCode, error) {
	return findOne[models.ReferralCode](ctx, r.collection, bson.M{"code": code})
}

func (r *referralCodeRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"code": code}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check referral code: %w", err)
	}
	return count > 0, nil
}

func (r *referralCodeRepository) GetCodesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.ReferralCode, error) {
	return findAll[models.ReferralCode](ctx, r.collection, bson.M{"owner.id": ownerID})
}

func (r *referralCodeRepository) ListCodes(ctx context.Context, ownerType *models.OwnerType, params *utils.PaginationParams) ([]*models.ReferralCode, int64, error) {
	filter := bson.M{}
	if ownerType != nil {
		filter["owner.type"] = *ownerType
	}
	if params != nil && params.Search != "" {
		filter["code"] = bson.M{"$regex": "^" + regexp.QuoteMeta(params.Search)}
	}
	return findPaginated[models.ReferralCode](ctx, r.collection, filter, params)
}

func (r *referralCodeRepository) CountActiveCodesByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"owner.id": ownerID, "is_active": true})
	if err != nil {
		return 0, fmt.Errorf("failed to count referral codes: %w", err)
	}
	return count, nil
}

func (r *referralCodeRepository) SetCodeActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.ReferralCode, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var code models.ReferralCode
	err := r.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": time.Now()}},
		opts,
	).Decode(&code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update referral code: %w", err)
	}
	return &code, nil
}

func (r *referralCodeRepository) IncrementUsage(ctx context.Context, code string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"code": code},
		bson.M{
			"$inc": bson.M{"usage_count": 1},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to record referral code usage: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
