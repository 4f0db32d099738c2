package interfaces

import (
	"context"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionRepository interface {
	// Commissions are append-only
	CreateCommissions(ctx context.Context, commissions []*models.Commission) error
	GetCommissionByID(ctx context.Context, id primitive.ObjectID) (*models.Commission, error)
	GetCommissionsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*models.Commission, error)
	ListCommissions(ctx context.Context, filter models.CommissionFilter, params *utils.PaginationParams) ([]*models.Commission, int64, error)
	GetUnpaidByRecipient(ctx context.Context, recipientID primitive.ObjectID) ([]*models.Commission, error)

	// Paid flag is the only mutable state
	MarkPaid(ctx context.Context, ids []primitive.ObjectID, payoutID *primitive.ObjectID, at time.Time) (int64, error)

	// Aggregations
	GetCommissionTotals(ctx context.Context, filter models.CommissionFilter) (*models.CommissionTotals, error)
	CountOrdersByRecipient(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}
