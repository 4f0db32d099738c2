package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralCode struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Code              string              `json:"code" bson:"code" validate:"required"`
	Owner             OwnerReference      `json:"owner" bson:"owner" validate:"required"`
	CommissionRateBps int64               `json:"commission_rate_bps" bson:"commission_rate_bps"`
	IsActive          bool                `json:"is_active" bson:"is_active" default:"true"`
	ExpiresAt         *time.Time          `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	UsageCount        int64               `json:"usage_count" bson:"usage_count" default:"0"`
	CreatedBy         *primitive.ObjectID `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

func (c *ReferralCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// OwnerWithRate returns the owner reference carrying the code's rate override.
func (c *ReferralCode) OwnerWithRate() OwnerReference {
	owner := c.Owner
	if c.CommissionRateBps > 0 {
		owner.CommissionRateBps = c.CommissionRateBps
	}
	return owner
}
