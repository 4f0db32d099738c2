package interfaces

import (
	"context"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutRepository interface {
	CreatePayout(ctx context.Context, payout *models.Payout) error
	GetPayoutByID(ctx context.Context, id primitive.ObjectID) (*models.Payout, error)
	UpdatePayout(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
	GetPayoutsByRecipient(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error)
	CountPayoutsByStatus(ctx context.Context, recipientID primitive.ObjectID, status models.PayoutStatus) (int64, error)
}
