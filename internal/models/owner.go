package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OwnerType string

const (
	OwnerTypePartner    OwnerType = "partner"
	OwnerTypeCustomer   OwnerType = "customer"
	OwnerTypeInfluencer OwnerType = "influencer"
)

func (t OwnerType) IsValid() bool {
	switch t {
	case OwnerTypePartner, OwnerTypeCustomer, OwnerTypeInfluencer:
		return true
	}
	return false
}

// IsTerminal reports whether owners of this type can never have a referrer of their own.
func (t OwnerType) IsTerminal() bool {
	return t == OwnerTypePartner || t == OwnerTypeInfluencer
}

// CodePrefix is the prefix used for generated referral codes.
func (t OwnerType) CodePrefix() string {
	switch t {
	case OwnerTypePartner:
		return "PTR"
	case OwnerTypeInfluencer:
		return "INF"
	default:
		return "CUS"
	}
}

type OwnerReference struct {
	Type              OwnerType          `json:"type" bson:"type" validate:"required,owner_type"`
	ID                primitive.ObjectID `json:"id" bson:"id" validate:"required"`
	CommissionRateBps int64              `json:"commission_rate_bps,omitempty" bson:"commission_rate_bps,omitempty"`
}

func (o OwnerReference) Key() string {
	return string(o.Type) + ":" + o.ID.Hex()
}

func (o OwnerReference) IsZero() bool {
	return o.Type == "" || o.ID.IsZero()
}
