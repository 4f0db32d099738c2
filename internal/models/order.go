package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:      {OrderStatusShipped, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusRefunded},
	OrderStatusDelivered: {OrderStatusRefunded},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CustomerID   primitive.ObjectID `json:"customer_id" bson:"customer_id" validate:"required"`
	TotalValue   int64              `json:"total_value" bson:"total_value" validate:"required,min=0"`
	Currency     string             `json:"currency" bson:"currency" default:"GBP"`
	Status       OrderStatus        `json:"status" bson:"status" default:"pending"`
	ReferralCode string             `json:"referral_code,omitempty" bson:"referral_code,omitempty"`
	ExternalRef  string             `json:"external_ref,omitempty" bson:"external_ref,omitempty"`
	PaidAt       *time.Time         `json:"paid_at,omitempty" bson:"paid_at,omitempty"`
	DeliveredAt  *time.Time         `json:"delivered_at,omitempty" bson:"delivered_at,omitempty"`
	CancelledAt  *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	RefundedAt   *time.Time         `json:"refunded_at,omitempty" bson:"refunded_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}
