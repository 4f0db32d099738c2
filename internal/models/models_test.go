package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPaid, OrderStatusShipped, true},
		{OrderStatusPaid, OrderStatusCancelled, true},
		{OrderStatusPaid, OrderStatusRefunded, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusDelivered, OrderStatusPaid, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusDelivered, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestReferralCodeExpiry(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, (&ReferralCode{}).IsExpired(now))
	assert.True(t, (&ReferralCode{ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&ReferralCode{ExpiresAt: &now}).IsExpired(now))
	assert.False(t, (&ReferralCode{ExpiresAt: &future}).IsExpired(now))
}

func TestSessionOwner(t *testing.T) {
	userID := primitive.NewObjectID()
	partnerID := primitive.NewObjectID()

	owner, ok := (&Session{UserID: userID, Role: SessionRoleCustomer}).Owner()
	assert.True(t, ok)
	assert.Equal(t, OwnerReference{Type: OwnerTypeCustomer, ID: userID}, owner)

	owner, ok = (&Session{UserID: userID, Role: SessionRolePartner, OwnerID: &partnerID}).Owner()
	assert.True(t, ok)
	assert.Equal(t, partnerID, owner.ID)

	_, ok = (&Session{UserID: userID, Role: SessionRoleInfluencer}).Owner()
	assert.False(t, ok)

	_, ok = (&Session{UserID: userID, Role: SessionRoleAdmin}).Owner()
	assert.False(t, ok)
}

func TestSessionCanAccessCustomer(t *testing.T) {
	customerID := primitive.NewObjectID()

	assert.True(t, (&Session{UserID: customerID, Role: SessionRoleCustomer}).CanAccessCustomer(customerID))
	assert.False(t, (&Session{UserID: primitive.NewObjectID(), Role: SessionRoleCustomer}).CanAccessCustomer(customerID))
	assert.True(t, (&Session{UserID: primitive.NewObjectID(), Role: SessionRoleAdmin}).CanAccessCustomer(customerID))

	var nilSession *Session
	assert.False(t, nilSession.CanAccessCustomer(customerID))
}

func TestCustomerCreditConsistent(t *testing.T) {
	credit := CustomerCredit{TotalEarned: 1000, TotalUsed: 300, ExpiredCredits: 100, RefundedCredits: 50, AvailableBalance: 650}
	assert.True(t, credit.Consistent())

	credit.AvailableBalance = 700
	assert.False(t, credit.Consistent())
}
