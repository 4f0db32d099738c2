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

type orderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *database.MongoDB) interfaces.OrderRepository {
	return &orderRepository{
		collection: db.Collection("orders"),
	}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt

	if _, err := r.collection.InsertOne(ctx, order); err != nil {
		return wrapWriteError("create order", err)
	}
	return nil
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, r.collection, bson.M{"_id": id})
}

func (r *orderRepository) GetOrdersByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	return findPaginated[models.Order](ctx, r.collection, bson.M{"customer_id": customerID}, params)
}

func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) error {
	set := bson.M{
		"status":     to,
		"updated_at": at,
	}
	switch to {
	case models.OrderStatusPaid:
		set["paid_at"] = at
	case models.OrderStatusDelivered:
		set["delivered_at"] = at
	case models.OrderStatusCancelled:
		set["cancelled_at"] = at
	case models.OrderStatusRefunded:
		set["refunded_at"] = at
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetOrderByID(ctx, id); err != nil {
			return err
		}
		return interfaces.ErrConditionFailed
	}
	return nil
}
