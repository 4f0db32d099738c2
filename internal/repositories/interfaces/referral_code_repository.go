package interfaces

import (
	"context"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralCodeRepository interface {
	CreateCode(ctx context.Context, code *models.ReferralCode) error
	GetCodeByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralCode, error)
	GetCodeByString(ctx context.Context, code string) (*models.ReferralCode, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	GetCodesByOwner(ctx context.Context, ownerID primitive.ObjectID) ([]*models.ReferralCode, error)
	ListCodes(ctx context.Context, ownerType *models.OwnerType, params *utils.PaginationParams) ([]*models.ReferralCode, int64, error)
	CountActiveCodesByOwner(ctx context.Context, ownerID primitive.ObjectID) (int64, error)

	SetCodeActive(ctx context.Context, id primitive.ObjectID, active bool) (*models.ReferralCode, error)
	IncrementUsage(ctx context.Context, code string) error
}
