package interfaces

import (
	"context"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error)

	// UpdateOrderStatus moves the order from one status to the next. It returns
	// ErrConditionFailed when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus, at time.Time) error
}
