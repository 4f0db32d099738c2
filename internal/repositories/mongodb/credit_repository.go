package mongodb

import (
	"context"
	"errors"
	"fmt"
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

type creditRepository struct {
	credits      *mongo.Collection
	transactions *mongo.Collection
}

func NewCreditRepository(db *database.MongoDB) interfaces.CreditRepository {
	return &creditRepository{
		credits:      db.Collection("customer_credits"),
		transactions: db.Collection("credit_transactions"),
	}
}

func (r *creditRepository) GetCredit(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerCredit, error) {
	return findOne[models.CustomerCredit](ctx, r.credits, bson.M{"customer_id": customerID})
}

// ApplyDelta is a single findOneAndUpdate so the guard and the increment are evaluated
// atomically on the ledger row. Inside a transaction a concurrent writer on the same
// row gets a write conflict and the driver retries the whole transaction.
func (r *creditRepository) ApplyDelta(ctx context.Context, customerID primitive.ObjectID, delta models.CreditDelta, guard interfaces.CreditGuard) (*models.CustomerCredit, error) {
	now := time.Now()

	filter := bson.M{"customer_id": customerID}
	if guard.MinAvailable > 0 {
		filter["available_balance"] = bson.M{"$gte": guard.MinAvailable}
	}
	if guard.MinPending > 0 {
		filter["pending_balance"] = bson.M{"$gte": guard.MinPending}
	}

	update := bson.M{
		"$inc": bson.M{
			"total_earned":      delta.TotalEarned,
			"total_used":        delta.TotalUsed,
			"expired_credits":   delta.ExpiredCredits,
			"refunded_credits":  delta.RefundedCredits,
			"available_balance": delta.AvailableBalance,
			"pending_balance":   delta.PendingBalance,
		},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetUpsert(guard.IsZero())

	var credit models.CustomerCredit
	err := r.credits.FindOneAndUpdate(ctx, filter, update, opts).Decode(&credit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrConditionFailed
		}
		return nil, wrapWriteError("update customer credit", err)
	}

	return &credit, nil
}

func (r *creditRepository) CreateTransaction(ctx context.Context, tx *models.CreditTransaction) error {
	tx.ID = primitive.NewObjectID()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}

	if _, err := r.transactions.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("failed to create credit transaction: %w", err)
	}
	return nil
}

func (r *creditRepository) GetTransactions(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CreditTransaction, int64, error) {
	return findPaginated[models.CreditTransaction](ctx, r.transactions, bson.M{"customer_id": customerID}, params)
}

func (r *creditRepository) GetTransactionsByOrder(ctx context.Context, orderID primitive.ObjectID, txType models.CreditTransactionType) ([]*models.CreditTransaction, error) {
	return findAll[models.CreditTransaction](ctx, r.transactions, bson.M{"order_id": orderID, "type": txType})
}
