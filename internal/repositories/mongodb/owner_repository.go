package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/pkg/cache"
	"pawtraits/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type partnerRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewPartnerRepository(db *database.MongoDB, cache *cache.RedisCache) interfaces.PartnerRepository {
	return &partnerRepository{
		collection: db.Collection("partners"),
		cache:      cache,
	}
}

func (r *partnerRepository) CreatePartner(ctx context.Context, partner *models.Partner) error {
	partner.ID = primitive.NewObjectID()
	partner.CreatedAt = time.Now()
	partner.UpdatedAt = partner.CreatedAt

	if _, err := r.collection.InsertOne(ctx, partner); err != nil {
		return wrapWriteError("create partner", err)
	}
	return nil
}

func (r *partnerRepository) GetPartnerByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	cacheKey := fmt.Sprintf("partner:%s", id.Hex())
	var cached models.Partner
	if cacheGet(ctx, r.cache, cacheKey, &cached) {
		return &cached, nil
	}

	partner, err := findOne[models.Partner](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, r.cache, cacheKey, partner, 15*time.Minute)
	return partner, nil
}

func (r *partnerRepository) ListPartners(ctx context.Context, params *utils.PaginationParams) ([]*models.Partner, int64, error) {
	filter := bson.M{}
	if params != nil {
		filter = params.GetSearchFilter([]string{"business_name", "contact_name", "email"})
	}
	return findPaginated[models.Partner](ctx, r.collection, filter, params)
}

func (r *partnerRepository) UpdatePartner(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update partner: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	cacheDelete(ctx, r.cache, fmt.Sprintf("partner:%s", id.Hex()))
	return nil
}

type influencerRepository struct {
	collection *mongo.Collection
	cache      *cache.RedisCache
}

func NewInfluencerRepository(db *database.MongoDB, cache *cache.RedisCache) interfaces.InfluencerRepository {
	return &influencerRepository{
		collection: db.Collection("influencers"),
		cache:      cache,
	}
}

func (r *influencerRepository) CreateInfluencer(ctx context.Context, influencer *models.Influencer) error {
	influencer.ID = primitive.NewObjectID()
	influencer.CreatedAt = time.Now()
	influencer.UpdatedAt = influencer.CreatedAt

	if _, err := r.collection.InsertOne(ctx, influencer); err != nil {
		return wrapWriteError("create influencer", err)
	}
	return nil
}

func (r *influencerRepository) GetInfluencerByID(ctx context.Context, id primitive.ObjectID) (*models.Influencer, error) {
	cacheKey := fmt.Sprintf("influencer:%s", id.Hex())
	var cached models.Influencer
	if cacheGet(ctx, r.cache, cacheKey, &cached) {
		return &cached, nil
	}

	influencer, err := findOne[models.Influencer](ctx, r.collection, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}

	cacheSet(ctx, r.cache, cacheKey, influencer, 15*time.Minute)
	return influencer, nil
}

func (r *influencerRepository) ListInfluencers(ctx context.Context, params *utils.PaginationParams) ([]*models.Influencer, int64, error) {
	filter := bson.M{}
	if params != nil {
		filter = params.GetSearchFilter([]string{"name", "handle", "email"})
	}
	return findPaginated[models.Influencer](ctx, r.collection, filter, params)
}

func (r *influencerRepository) UpdateInfluencer(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update influencer: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	cacheDelete(ctx, r.cache, fmt.Sprintf("influencer:%s", id.Hex()))
	return nil
}

// Customers are not cached: the referrer pointer is read during attribution and must be current.
type customerRepository struct {
	collection *mongo.Collection
}

func NewCustomerRepository(db *database.MongoDB) interfaces.CustomerRepository {
	return &customerRepository{
		collection: db.Collection("customers"),
	}
}

func (r *customerRepository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	customer.ID = primitive.NewObjectID()
	customer.CreatedAt = time.Now()
	customer.UpdatedAt = customer.CreatedAt

	if _, err := r.collection.InsertOne(ctx, customer); err != nil {
		return wrapWriteError("create customer", err)
	}
	return nil
}

func (r *customerRepository) GetCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	return findOne[models.Customer](ctx, r.collection, bson.M{"_id": id})
}

func (r *customerRepository) GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return findOne[models.Customer](ctx, r.collection, bson.M{
		"email": bson.M{"$regex": "^" + regexp.QuoteMeta(email) + "$", "$options": "i"},
	})
}

func (r *customerRepository) SetReferrer(ctx context.Context, id primitive.ObjectID, referrer models.OwnerReference, code string, at time.Time) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "referrer": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"referrer":           referrer,
			"referral_code_used": code,
			"referred_at":        at,
			"referral_type":      referrer.Type,
			"updated_at":         time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set customer referrer: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetCustomerByID(ctx, id); err != nil {
			return err
		}
		return interfaces.ErrConditionFailed
	}
	return nil
}

func (r *customerRepository) SetPersonalCode(ctx context.Context, id primitive.ObjectID, code string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"personal_referral_code": code, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set personal referral code: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *customerRepository) CountCustomersByReferrer(ctx context.Context, ownerID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"referrer.id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("failed to count referred customers: %w", err)
	}
	return count, nil
}

