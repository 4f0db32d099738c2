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

type commissionRepository struct {
	collection *mongo.Collection
}

func NewCommissionRepository(db *database.MongoDB) interfaces.CommissionRepository {
	return &commissionRepository{
		collection: db.Collection("commissions"),
	}
}

func (r *commissionRepository) CreateCommissions(ctx context.Context, commissions []*models.Commission) error {
	if len(commissions) == 0 {
		return nil
	}

	now := time.Now()
	docs := make([]interface{}, len(commissions))
	for i, c := range commissions {
		if c.ID.IsZero() {
			c.ID = primitive.NewObjectID()
		}
		c.CreatedAt = now
		docs[i] = c
	}

	if _, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return wrapWriteError("create commissions", err)
	}
	return nil
}

func (r *commissionRepository) GetCommissionByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error) {
	return findOne[models.Commission](ctx, r.collection, bson.M{"_id": id})
}

func (r *commissionRepository) GetCommissionsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*models.Commission, error) {
	return findAll[models.Commission](ctx, r.collection, bson.M{"order_id": orderID})
}

func (r *commissionRepository) ListCommissions(ctx context.Context, filter models.CommissionFilter, params *utils.PaginationParams) ([]*models.Commission, int64, error) {
	return findPaginated[models.Commission](ctx, r.collection, commissionFilter(filter), params)
}

func (r *commissionRepository) GetUnpaidByRecipient(ctx context.Context, recipientID primitive.ObjectID) ([]*models.Commission, error) {
	return findAll[models.Commission](ctx, r.collection, bson.M{"recipient.id": recipientID, "is_paid": false})
}

func (r *commissionRepository) MarkPaid(ctx context.Context, ids []primitive.ObjectID, payoutID *primitive.ObjectID, at time.Time) (int64, error) {
	set := bson.M{"is_paid": true, "paid_at": at}
	if payoutID != nil {
		set["payout_id"] = *payoutID
	}

	result, err := r.collection.UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": ids}, "is_paid": false},
		bson.M{"$set": set},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark commissions paid: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *commissionRepository) GetCommissionTotals(ctx context.Context, filter models.CommissionFilter) (*models.CommissionTotals, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: commissionFilter(filter)}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
			"paid": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$is_paid", "$amount", 0},
			}},
			"pending": bson.M{"$sum": bson.M{
				"$cond": bson.A{"$is_paid", 0, "$amount"},
			}},
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate commission totals: %w", err)
	}
	defer cursor.Close(ctx)

	totals := &models.CommissionTotals{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(totals); err != nil {
			return nil, fmt.Errorf("failed to decode commission totals: %w", err)
		}
	}
	if err := cursor.Err(); err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to read commission totals: %w", err)
	}

	return totals, nil
}

func (r *commissionRepository) CountOrdersByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	orders, err := r.collection.Distinct(ctx, "order_id", bson.M{
		"recipient.id": recipientID,
		"kind":         models.CommissionKindCommission,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count attributed orders: %w", err)
	}
	return int64(len(orders)), nil
}

func commissionFilter(f models.CommissionFilter) bson.M {
	filter := bson.M{}
	if f.RecipientType != nil {
		filter["recipient.type"] = *f.RecipientType
	}
	if f.RecipientID != nil {
		filter["recipient.id"] = *f.RecipientID
	}
	if f.OrderID != nil {
		filter["order_id"] = *f.OrderID
	}
	if f.IsPaid != nil {
		filter["is_paid"] = *f.IsPaid
	}
	if f.Kind != nil {
		filter["kind"] = *f.Kind
	}
	if r := dateRange(f.From, f.To); r != nil {
		filter["created_at"] = r
	}
	return filter
}
