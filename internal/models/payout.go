package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"

	// PayoutStatusTransferred means the provider accepted the transfer but the
	// included commissions were not marked paid. It blocks further payouts to the
	// recipient until reconciled.
	PayoutStatusTransferred PayoutStatus = "transferred"
)

type Payout struct {
	ID                primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	Recipient         OwnerReference       `json:"recipient" bson:"recipient"`
	Amount            int64                `json:"amount" bson:"amount"`
	Currency          string               `json:"currency" bson:"currency"`
	Provider          string               `json:"provider" bson:"provider"`
	ProviderReference string               `json:"provider_reference,omitempty" bson:"provider_reference,omitempty"`
	Status            PayoutStatus         `json:"status" bson:"status"`
	CommissionIDs     []primitive.ObjectID `json:"commission_ids" bson:"commission_ids"`
	FailureReason     string               `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	InitiatedBy       *primitive.ObjectID  `json:"initiated_by,omitempty" bson:"initiated_by,omitempty"`
	CompletedAt       *time.Time           `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at" bson:"updated_at"`
}
