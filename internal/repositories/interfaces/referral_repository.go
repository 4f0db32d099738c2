package interfaces

import (
	"context"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralRepository interface {
	CreateReferral(ctx context.Context, referral *models.Referral) error
	GetReferralByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error)
	ListReferrals(ctx context.Context, filter models.ReferralFilter, params *utils.PaginationParams) ([]*models.Referral, int64, error)

	GetOpenReferralsForReferee(ctx context.Context, customerID primitive.ObjectID, email string) ([]*models.Referral, error)
	GetReferralsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]*models.Referral, error)

	// UpdateReferralStatus applies the transition only if the stored status is still from.
	UpdateReferralStatus(ctx context.Context, id primitive.ObjectID, from, to models.ReferralStatus, fields map[string]interface{}) error
	ExpireStaleReferrals(ctx context.Context, now time.Time) (int64, error)

	// Aggregations
	CountReferralsByStatus(ctx context.Context, filter models.ReferralFilter) ([]models.CountBucket, error)
	CountReferralsByType(ctx context.Context, filter models.ReferralFilter) ([]models.CountBucket, error)
}
