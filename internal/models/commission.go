package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionKind string

const (
	CommissionKindCommission CommissionKind = "commission"
	CommissionKindAdjustment CommissionKind = "adjustment"
)

// Commission records are append-only. Only IsPaid, PaidAt and PayoutID change after insert;
// refunds are expressed as adjustment records with a negative amount.
type Commission struct {
	ID           primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OrderID      primitive.ObjectID  `json:"order_id" bson:"order_id"`
	CustomerID   primitive.ObjectID  `json:"customer_id" bson:"customer_id"`
	Recipient    OwnerReference      `json:"recipient" bson:"recipient"`
	Level        int                 `json:"level" bson:"level"`
	OrderValue   int64               `json:"order_value" bson:"order_value"`
	RateBps      int64               `json:"rate_bps" bson:"rate_bps"`
	Amount       int64               `json:"amount" bson:"amount"`
	Currency     string              `json:"currency" bson:"currency"`
	Kind         CommissionKind      `json:"kind" bson:"kind"`
	SupersedesID *primitive.ObjectID `json:"supersedes_id,omitempty" bson:"supersedes_id,omitempty"`
	ReferralCode string              `json:"referral_code,omitempty" bson:"referral_code,omitempty"`
	IsPaid       bool                `json:"is_paid" bson:"is_paid"`
	PaidAt       *time.Time          `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	PayoutID     *primitive.ObjectID `json:"payout_id,omitempty" bson:"payout_id,omitempty"`
	CreatedAt    time.Time           `json:"created_at" bson:"created_at"`
}

// CommissionShare is one computed entitlement before it is persisted.
type CommissionShare struct {
	OwnerType OwnerType          `json:"owner_type"`
	OwnerID   primitive.ObjectID `json:"owner_id"`
	Level     int                `json:"level"`
	RateBps   int64              `json:"rate_bps"`
	Amount    int64              `json:"amount"`
}

type RateKey struct {
	OwnerType OwnerType
	Level     int
}

type RateTable struct {
	Rates    map[RateKey]int64
	MaxDepth int
}

func NewRateTable(maxDepth int) RateTable {
	return RateTable{Rates: make(map[RateKey]int64), MaxDepth: maxDepth}
}

func (t RateTable) Set(ownerType OwnerType, level int, bps int64) {
	t.Rates[RateKey{OwnerType: ownerType, Level: level}] = bps
}

func (t RateTable) Lookup(ownerType OwnerType, level int) (int64, bool) {
	bps, ok := t.Rates[RateKey{OwnerType: ownerType, Level: level}]
	return bps, ok
}

type CommissionFilter struct {
	RecipientType *OwnerType
	RecipientID   *primitive.ObjectID
	OrderID       *primitive.ObjectID
	IsPaid        *bool
	Kind          *CommissionKind
	From          *time.Time
	To            *time.Time
}

type CommissionTotals struct {
	Total   int64 `json:"total" bson:"total"`
	Pending int64 `json:"pending" bson:"pending"`
	Paid    int64 `json:"paid" bson:"paid"`
	Count   int64 `json:"count" bson:"count"`
}
