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

type payoutRepository struct {
	collection *mongo.Collection
}

func NewPayoutRepository(db *database.MongoDB) interfaces.PayoutRepository {
	return &payoutRepository{
		collection: db.Collection("payouts"),
	}
}

func (r *payoutRepository) CreatePayout(ctx context.Context, payout *models.Payout) error {
	payout.ID = primitive.NewObjectID()
	payout.CreatedAt = time.Now()
	payout.UpdatedAt = payout.CreatedAt

	if _, err := r.collection.InsertOne(ctx, payout); err != nil {
		return wrapWriteError("create payout", err)
	}
	return nil
}

func (r *payoutRepository) GetPayoutByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	return findOne[models.Payout](ctx, r.collection, bson.M{"_id": id})
}

func (r *payoutRepository) UpdatePayout(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return fmt.Errorf("failed to update payout: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *payoutRepository) GetPayoutsByRecipient(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return findPaginated[models.Payout](ctx, r.collection, bson.M{"recipient.id": recipientID}, params)
}

func (r *payoutRepository) CountPayoutsByStatus(ctx context.Context, recipientID primitive.ObjectID, status models.PayoutStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"recipient.id": recipientID, "status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count payouts: %w", err)
	}
	return count, nil
}
