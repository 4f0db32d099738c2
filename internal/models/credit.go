package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CreditTransactionType string

const (
	CreditTypeEarned           CreditTransactionType = "earned"
	CreditTypeUsed             CreditTransactionType = "used"
	CreditTypeExpired          CreditTransactionType = "expired"
	CreditTypeRefunded         CreditTransactionType = "refunded"
	CreditTypePending          CreditTransactionType = "pending"
	CreditTypeReleased         CreditTransactionType = "released"
	CreditTypePendingCancelled CreditTransactionType = "pending_cancelled"
)

// IsDebit reports whether the transaction type reduces the available balance.
func (t CreditTransactionType) IsDebit() bool {
	return t == CreditTypeUsed || t == CreditTypeExpired
}

// IsDirect reports whether the type may be applied directly rather than through the pending flow.
func (t CreditTransactionType) IsDirect() bool {
	switch t {
	case CreditTypeEarned, CreditTypeUsed, CreditTypeExpired, CreditTypeRefunded:
		return true
	}
	return false
}

// CustomerCredit is the ledger row. AvailableBalance always equals
// TotalEarned - TotalUsed - ExpiredCredits + RefundedCredits.
type CustomerCredit struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID       primitive.ObjectID `json:"customer_id" bson:"customer_id"`
	TotalEarned      int64              `json:"total_earned" bson:"total_earned"`
	TotalUsed        int64              `json:"total_used" bson:"total_used"`
	ExpiredCredits   int64              `json:"expired_credits" bson:"expired_credits"`
	RefundedCredits  int64              `json:"refunded_credits" bson:"refunded_credits"`
	AvailableBalance int64              `json:"available_balance" bson:"available_balance"`
	PendingBalance   int64              `json:"pending_balance" bson:"pending_balance"`
	CreatedAt        time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" bson:"updated_at"`
}

func (c *CustomerCredit) Consistent() bool {
	return c.AvailableBalance == c.TotalEarned-c.TotalUsed-c.ExpiredCredits+c.RefundedCredits &&
		c.AvailableBalance >= 0 && c.PendingBalance >= 0
}

type CreditTransaction struct {
	ID           primitive.ObjectID    `json:"id" bson:"_id,omitempty"`
	CustomerID   primitive.ObjectID    `json:"customer_id" bson:"customer_id"`
	Type         CreditTransactionType `json:"type" bson:"type"`
	Amount       int64                 `json:"amount" bson:"amount"`
	OrderID      *primitive.ObjectID   `json:"order_id,omitempty" bson:"order_id,omitempty"`
	CommissionID *primitive.ObjectID   `json:"commission_id,omitempty" bson:"commission_id,omitempty"`
	BalanceAfter int64                 `json:"balance_after" bson:"balance_after"`
	PendingAfter int64                 `json:"pending_after" bson:"pending_after"`
	Description  string                `json:"description,omitempty" bson:"description,omitempty"`
	CreatedBy    *primitive.ObjectID   `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt    time.Time             `json:"created_at" bson:"created_at"`
}

// CreditDelta is the set of increments applied to a ledger row by one transaction.
type CreditDelta struct {
	TotalEarned      int64
	TotalUsed        int64
	ExpiredCredits   int64
	RefundedCredits  int64
	AvailableBalance int64
	PendingBalance   int64
}

// Apply adds delta to the row in place.
func (c *CustomerCredit) Apply(delta CreditDelta) {
	c.TotalEarned += delta.TotalEarned
	c.TotalUsed += delta.TotalUsed
	c.ExpiredCredits += delta.ExpiredCredits
	c.RefundedCredits += delta.RefundedCredits
	c.AvailableBalance += delta.AvailableBalance
	c.PendingBalance += delta.PendingBalance
}
