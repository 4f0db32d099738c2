package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PartnerBusinessType string

const (
	PartnerBusinessGroomer PartnerBusinessType = "groomer"
	PartnerBusinessVet     PartnerBusinessType = "vet"
	PartnerBusinessPetShop PartnerBusinessType = "pet_shop"
	PartnerBusinessOther   PartnerBusinessType = "other"
)

type Partner struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	BusinessName      string              `json:"business_name" bson:"business_name" validate:"required"`
	BusinessType      PartnerBusinessType `json:"business_type" bson:"business_type"`
	ContactName       string              `json:"contact_name" bson:"contact_name"`
	Email             string              `json:"email" bson:"email" validate:"required,email"`
	Phone             string              `json:"phone,omitempty" bson:"phone,omitempty"`
	CommissionRateBps int64               `json:"commission_rate_bps" bson:"commission_rate_bps"`
	PayoutProvider    string              `json:"payout_provider,omitempty" bson:"payout_provider,omitempty"`
	PayoutAccount     string              `json:"payout_account,omitempty" bson:"payout_account,omitempty"`
	IsActive          bool                `json:"is_active" bson:"is_active" default:"true"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

func (p *Partner) Reference() OwnerReference {
	return OwnerReference{Type: OwnerTypePartner, ID: p.ID, CommissionRateBps: p.CommissionRateBps}
}
