package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusViewed    ReferralStatus = "viewed"
	ReferralStatusPurchased ReferralStatus = "purchased"
	ReferralStatusCredited  ReferralStatus = "credited"
	ReferralStatusExpired   ReferralStatus = "expired"
)

func (s ReferralStatus) IsCompleted() bool {
	return s == ReferralStatusPurchased || s == ReferralStatusCredited
}

type Referral struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	Referrer          OwnerReference      `json:"referrer" bson:"referrer" validate:"required"`
	Code              string              `json:"code" bson:"code" validate:"required"`
	RefereeEmail      string              `json:"referee_email,omitempty" bson:"referee_email,omitempty"`
	RefereeCustomerID *primitive.ObjectID `json:"referee_customer_id,omitempty" bson:"referee_customer_id,omitempty"`
	OrderID           *primitive.ObjectID `json:"order_id,omitempty" bson:"order_id,omitempty"`
	Status            ReferralStatus      `json:"status" bson:"status" default:"pending"`
	ExpiresAt         time.Time           `json:"expires_at" bson:"expires_at"`
	ViewedAt          *time.Time          `json:"viewed_at,omitempty" bson:"viewed_at,omitempty"`
	PurchasedAt       *time.Time          `json:"purchased_at,omitempty" bson:"purchased_at,omitempty"`
	CreditedAt        *time.Time          `json:"credited_at,omitempty" bson:"credited_at,omitempty"`
	ExpiredAt         *time.Time          `json:"expired_at,omitempty" bson:"expired_at,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

type ReferralFilter struct {
	ReferrerType *OwnerType
	ReferrerID   *primitive.ObjectID
	Status       *ReferralStatus
	From         *time.Time
	To           *time.Time
}
