package services

import (
	"context"
	"strings"
	"testing"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreatePartnerIssuesCode(t *testing.T) {
	env := newTestEnv()
	owners := NewOwnerService(env.store, env.store, env.codes, env.log)
	ctx := context.Background()

	partner, code, err := owners.CreatePartner(ctx, adminSession(), &validators.CreatePartnerRequest{
		BusinessName:      "<b>Happy Paws</b> Grooming",
		Email:             " Hello@HappyPaws.example ",
		CommissionRateBps: 1500,
		PayoutProvider:    "stripe",
		PayoutAccount:     "acct_123",
	})
	require.NoError(t, err)
	require.NotNil(t, code)

	assert.Equal(t, "Happy Paws Grooming", partner.BusinessName)
	assert.Equal(t, "hello@happypaws.example", partner.Email)
	assert.Equal(t, models.PartnerBusinessOther, partner.BusinessType)
	assert.True(t, strings.HasPrefix(code.Code, "PTR-"))
	assert.Equal(t, partner.ID, code.Owner.ID)
	assert.Equal(t, int64(1500), code.CommissionRateBps)

	owner, err := env.codes.ResolveCode(ctx, code.Code)
	require.NoError(t, err)
	assert.Equal(t, models.OwnerTypePartner, owner.Type)
	assert.Equal(t, int64(1500), owner.CommissionRateBps)
}

func TestCreatePartnerDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	owners := NewOwnerService(env.store, env.store, env.codes, env.log)
	req := &validators.CreatePartnerRequest{BusinessName: "Vet One", Email: "vet@example.com"}

	_, _, err := owners.CreatePartner(context.Background(), adminSession(), req)
	require.NoError(t, err)

	_, _, err = owners.CreatePartner(context.Background(), adminSession(), req)
	assert.Error(t, err)
}

func TestCreateInfluencerIssuesCode(t *testing.T) {
	env := newTestEnv()
	owners := NewOwnerService(env.store, env.store, env.codes, env.log)

	influencer, code, err := owners.CreateInfluencer(context.Background(), adminSession(), &validators.CreateInfluencerRequest{
		Name:   "Biscuit the Corgi",
		Handle: "biscuit",
		Email:  "biscuit@example.com",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(code.Code, "INF-"))
	assert.Equal(t, influencer.ID, code.Owner.ID)

	got, err := owners.GetInfluencer(context.Background(), influencer.ID)
	require.NoError(t, err)
	assert.Equal(t, "biscuit", got.Handle)
}

func TestGetOwnerNotFound(t *testing.T) {
	env := newTestEnv()
	owners := NewOwnerService(env.store, env.store, env.codes, env.log)

	_, err := owners.GetPartner(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrOwnerNotFound)

	_, err = owners.GetInfluencer(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrOwnerNotFound)
}

func TestListPartners(t *testing.T) {
	env := newTestEnv()
	owners := NewOwnerService(env.store, env.store, env.codes, env.log)
	env.store.addPartner("Alpha", "alpha@example.com")
	env.store.addPartner("Beta", "beta@example.com")

	partners, total, err := owners.ListPartners(context.Background(), &utils.PaginationParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, partners, 2)
}
