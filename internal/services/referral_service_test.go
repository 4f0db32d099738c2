package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func partnerSession(p *models.Partner) *models.Session {
	id := p.ID
	return &models.Session{UserID: primitive.NewObjectID(), Role: models.SessionRolePartner, OwnerID: &id}
}

func TestRegisterCustomerWithCode(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	env.store.addCode("PTR-GROOM1", p.Reference(), true, nil)

	customer, err := env.referrals.RegisterCustomer(context.Background(), &validators.RegisterCustomerRequest{
		Email:        "New.Owner@Example.com",
		Name:         "New Owner",
		ReferralCode: "PTR-GROOM1",
	})
	require.NoError(t, err)

	assert.Equal(t, "new.owner@example.com", customer.Email)
	require.True(t, customer.HasReferrer())
	assert.Equal(t, p.ID, customer.Referrer.ID)
	assert.Equal(t, models.OwnerTypePartner, customer.ReferralType)
	assert.Equal(t, "PTR-GROOM1", customer.ReferralCodeUsed)
	assert.True(t, strings.HasPrefix(customer.PersonalReferralCode, "CUS-"))
	assert.Equal(t, int64(1), env.store.codes["PTR-GROOM1"].UsageCount)
}

func TestRegisterCustomerCodeErrors(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	past := time.Now().Add(-time.Minute)
	env.store.addCode("EXPIRED1", p.Reference(), true, &past)
	env.store.addCode("PAUSED01", p.Reference(), false, &past)

	tests := []struct {
		code string
		want error
	}{
		{"NOPE0000", ErrCodeNotFound},
		{"EXPIRED1", ErrCodeExpired},
		{"PAUSED01", ErrCodeInactive},
		{"expired1", ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := env.referrals.RegisterCustomer(context.Background(), &validators.RegisterCustomerRequest{
				Email:        tt.code + "@example.com",
				ReferralCode: tt.code,
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, env.store.customers)
}

func TestRegisterCustomerDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.store.addCustomer("taken@example.com", nil)

	_, err := env.referrals.RegisterCustomer(context.Background(), &validators.RegisterCustomerRequest{Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrCustomerExists)
}

func TestRegisterCustomerWithOwnPartnerEmail(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	env.store.addCode("PTR-GROOM1", p.Reference(), true, nil)

	_, err := env.referrals.RegisterCustomer(context.Background(), &validators.RegisterCustomerRequest{
		Email:        "groom@example.com",
		ReferralCode: "PTR-GROOM1",
	})
	assert.ErrorIs(t, err, ErrSelfReferral)
}

func TestApplyReferralCode(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	x := env.store.addCustomer("x@example.com", nil)
	y := env.store.addCustomer("y@example.com", nil)
	env.store.addCode("CUS-XXXXXX", x.Reference(), true, nil)

	updated, err := env.referrals.ApplyReferralCode(ctx, customerSession(y.ID), y.ID, "CUS-XXXXXX")
	require.NoError(t, err)
	assert.Equal(t, x.ID, updated.Referrer.ID)

	_, err = env.referrals.ApplyReferralCode(ctx, customerSession(y.ID), y.ID, "CUS-XXXXXX")
	assert.ErrorIs(t, err, ErrAlreadyReferred)
}

func TestApplyReferralCodeSelfAndCycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	x := env.store.addCustomer("x@example.com", nil)
	xRef := x.Reference()
	y := env.store.addCustomer("y@example.com", &xRef)
	env.store.addCode("CUS-XXXXXX", x.Reference(), true, nil)
	env.store.addCode("CUS-YYYYYY", y.Reference(), true, nil)

	_, err := env.referrals.ApplyReferralCode(ctx, customerSession(x.ID), x.ID, "CUS-XXXXXX")
	assert.ErrorIs(t, err, ErrSelfReferral)

	_, err = env.referrals.ApplyReferralCode(ctx, customerSession(x.ID), x.ID, "CUS-YYYYYY")
	assert.ErrorIs(t, err, ErrReferralCycle)

	stored, err := env.store.GetCustomerByID(ctx, x.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasReferrer())
}

func TestApplyReferralCodeForOtherCustomerForbidden(t *testing.T) {
	env := newTestEnv()
	x := env.store.addCustomer("x@example.com", nil)
	y := env.store.addCustomer("y@example.com", nil)

	_, err := env.referrals.ApplyReferralCode(context.Background(), customerSession(x.ID), y.ID, "CUS-XXXXXX")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidateReferralTransition(t *testing.T) {
	tests := []struct {
		from, to models.ReferralStatus
		ok       bool
	}{
		{models.ReferralStatusPending, models.ReferralStatusViewed, true},
		{models.ReferralStatusPending, models.ReferralStatusPurchased, true},
		{models.ReferralStatusViewed, models.ReferralStatusPurchased, true},
		{models.ReferralStatusPurchased, models.ReferralStatusCredited, true},
		{models.ReferralStatusViewed, models.ReferralStatusExpired, true},
		{models.ReferralStatusCredited, models.ReferralStatusPurchased, false},
		{models.ReferralStatusPurchased, models.ReferralStatusViewed, false},
		{models.ReferralStatusExpired, models.ReferralStatusViewed, false},
		{models.ReferralStatusPending, models.ReferralStatusCredited, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := validateReferralTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidStatusTransition)
			}
		})
	}
}

func TestReferralLifecycle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	p := env.store.addPartner("Groomers", "groom@example.com")
	env.store.addCode("PTR-GROOM1", p.Reference(), true, nil)

	referral, err := env.referrals.CreateReferral(ctx, partnerSession(p), &validators.CreateReferralRequest{
		Code:         "PTR-GROOM1",
		RefereeEmail: "friend@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusPending, referral.Status)

	viewed, err := env.referrals.MarkViewed(ctx, referral.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusViewed, viewed.Status)

	viewed, err = env.referrals.MarkViewed(ctx, referral.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusViewed, viewed.Status)

	friend, err := env.referrals.RegisterCustomer(ctx, &validators.RegisterCustomerRequest{
		Email:        "friend@example.com",
		ReferralCode: "PTR-GROOM1",
	})
	require.NoError(t, err)

	order := placeOrder(t, env, friend.ID, 5000, "")
	moveOrder(t, env, order.ID, models.OrderStatusPaid)

	stored, err := env.referrals.GetReferral(ctx, referral.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusPurchased, stored.Status)
	require.NotNil(t, stored.OrderID)
	assert.Equal(t, order.ID, *stored.OrderID)

	moveOrder(t, env, order.ID, models.OrderStatusShipped, models.OrderStatusDelivered)

	stored, err = env.referrals.GetReferral(ctx, referral.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusCredited, stored.Status)
}

func TestCreateReferralWithForeignCode(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	other := env.store.addPartner("Vets", "vets@example.com")
	env.store.addCode("PTR-GROOM1", p.Reference(), true, nil)

	_, err := env.referrals.CreateReferral(context.Background(), partnerSession(other), &validators.CreateReferralRequest{
		Code:         "PTR-GROOM1",
		RefereeEmail: "friend@example.com",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMarkViewedExpired(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	referral := &models.Referral{
		Referrer:  p.Reference(),
		Code:      "PTR-GROOM1",
		Status:    models.ReferralStatusPending,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, env.store.CreateReferral(context.Background(), referral))

	_, err := env.referrals.MarkViewed(context.Background(), referral.ID)
	assert.ErrorIs(t, err, ErrReferralExpired)

	stored, err := env.referrals.GetReferral(context.Background(), referral.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusExpired, stored.Status)
}

func TestExpireStale(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	now := time.Now()
	for _, expires := range []time.Time{now.Add(-time.Hour), now.Add(time.Hour)} {
		require.NoError(t, env.store.CreateReferral(context.Background(), &models.Referral{
			Referrer:  p.Reference(),
			Status:    models.ReferralStatusPending,
			ExpiresAt: expires,
		}))
	}

	expired, err := env.referrals.ExpireStale(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)
}
