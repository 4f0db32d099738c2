package interfaces

import (
	"context"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerRepository interface {
	CreatePartner(ctx context.Context, partner *models.Partner) error
	GetPartnerByID(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	ListPartners(ctx context.Context, params *utils.PaginationParams) ([]*models.Partner, int64, error)
	UpdatePartner(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
}

type InfluencerRepository interface {
	CreateInfluencer(ctx context.Context, influencer *models.Influencer) error
	GetInfluencerByID(ctx context.Context, id primitive.ObjectID) (*models.Influencer, error)
	ListInfluencers(ctx context.Context, params *utils.PaginationParams) ([]*models.Influencer, int64, error)
	UpdateInfluencer(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) error
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)

	// SetReferrer stores the referrer pointer only when the customer has none yet.
	// It returns ErrConditionFailed when a referrer is already set.
	SetReferrer(ctx context.Context, id primitive.ObjectID, referrer models.OwnerReference, code string, at time.Time) error
	SetPersonalCode(ctx context.Context, id primitive.ObjectID, code string) error
	CountCustomersByReferrer(ctx context.Context, ownerID primitive.ObjectID) (int64, error)
}
