package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Influencer struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name              string             `json:"name" bson:"name" validate:"required"`
	Handle            string             `json:"handle" bson:"handle"`
	Platform          string             `json:"platform,omitempty" bson:"platform,omitempty"`
	Email             string             `json:"email" bson:"email" validate:"required,email"`
	Phone             string             `json:"phone,omitempty" bson:"phone,omitempty"`
	CommissionRateBps int64              `json:"commission_rate_bps" bson:"commission_rate_bps"`
	PayoutProvider    string             `json:"payout_provider,omitempty" bson:"payout_provider,omitempty"`
	PayoutAccount     string             `json:"payout_account,omitempty" bson:"payout_account,omitempty"`
	IsActive          bool               `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt         time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" bson:"updated_at"`
}

func (i *Influencer) Reference() OwnerReference {
	return OwnerReference{Type: OwnerTypeInfluencer, ID: i.ID, CommissionRateBps: i.CommissionRateBps}
}
