package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Customer struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email                string             `json:"email" bson:"email" validate:"required,email"`
	Name                 string             `json:"name" bson:"name"`
	Phone                string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Referrer             *OwnerReference    `json:"referrer,omitempty" bson:"referrer,omitempty"`
	ReferralCodeUsed     string             `json:"referral_code_used,omitempty" bson:"referral_code_used,omitempty"`
	ReferredAt           *time.Time         `json:"referred_at,omitempty" bson:"referred_at,omitempty"`
	ReferralType         OwnerType          `json:"referral_type,omitempty" bson:"referral_type,omitempty"`
	PersonalReferralCode string             `json:"personal_referral_code,omitempty" bson:"personal_referral_code,omitempty"`
	CommissionRateBps    int64              `json:"commission_rate_bps,omitempty" bson:"commission_rate_bps,omitempty"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`
}

func (c *Customer) Reference() OwnerReference {
	return OwnerReference{Type: OwnerTypeCustomer, ID: c.ID, CommissionRateBps: c.CommissionRateBps}
}

func (c *Customer) HasReferrer() bool {
	return c.Referrer != nil && !c.Referrer.IsZero()
}
