package services

import (
	"context"
	"testing"

	"pawtraits/internal/models"
	"pawtraits/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveAttributionChainNoReferrer(t *testing.T) {
	env := newTestEnv()
	b := env.store.addCustomer("b@example.com", nil)

	chain, err := env.attr.ResolveAttributionChain(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, chain.IsEmpty())
	assert.False(t, chain.Partial)
	assert.Equal(t, models.StopReasonNone, chain.StopReason)
}

func TestResolveAttributionChainStopsAtPartner(t *testing.T) {
	env := newTestEnv()
	p := env.store.addPartner("Groomers", "groom@example.com")
	pRef := p.Reference()
	a := env.store.addCustomer("a@example.com", &pRef)
	aRef := a.Reference()
	b := env.store.addCustomer("b@example.com", &aRef)

	chain, err := env.attr.ResolveAttributionChain(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, 2, chain.Len())
	assert.Equal(t, a.ID, chain.Links[0].OwnerID)
	assert.Equal(t, 1, chain.Links[0].Level)
	assert.Equal(t, p.ID, chain.Links[1].OwnerID)
	assert.Equal(t, models.OwnerTypePartner, chain.Links[1].OwnerType)
	assert.Equal(t, models.StopReasonNone, chain.StopReason)
}

func TestResolveAttributionChainDanglingReferrer(t *testing.T) {
	env := newTestEnv()
	missing := models.OwnerReference{Type: models.OwnerTypePartner, ID: primitive.NewObjectID()}
	a := env.store.addCustomer("a@example.com", &missing)
	aRef := a.Reference()
	b := env.store.addCustomer("b@example.com", &aRef)

	chain, err := env.attr.ResolveAttributionChain(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, 1, chain.Len())
	assert.Equal(t, a.ID, chain.Links[0].OwnerID)
	assert.True(t, chain.Partial)
	assert.Equal(t, models.StopReasonDanglingReferrer, chain.StopReason)
}

func TestResolveAttributionChainCycle(t *testing.T) {
	env := newTestEnv()
	a := env.store.addCustomer("a@example.com", nil)
	b := env.store.addCustomer("b@example.com", nil)

	aRef, bRef := a.Reference(), b.Reference()
	env.store.customers[a.ID].Referrer = &bRef
	env.store.customers[b.ID].Referrer = &aRef
	c := env.store.addCustomer("c@example.com", &aRef)

	chain, err := env.attr.ResolveAttributionChain(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Len())
	assert.Equal(t, models.StopReasonCycle, chain.StopReason)
}

func TestResolveAttributionChainDepthBound(t *testing.T) {
	env := newTestEnv()
	attr := NewAttributionService(env.store, env.directory, 2, logger.NewNop())

	c3 := env.store.addCustomer("c3@example.com", nil)
	ref3 := c3.Reference()
	c2 := env.store.addCustomer("c2@example.com", &ref3)
	ref2 := c2.Reference()
	c1 := env.store.addCustomer("c1@example.com", &ref2)
	ref1 := c1.Reference()
	target := env.store.addCustomer("t@example.com", &ref1)

	chain, err := attr.ResolveAttributionChain(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Len())
	assert.Equal(t, models.StopReasonMaxDepth, chain.StopReason)
}

func TestResolveAttributionChainUnknownCustomer(t *testing.T) {
	env := newTestEnv()

	_, err := env.attr.ResolveAttributionChain(context.Background(), primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveChainFromOwnerSkipsPurchaser(t *testing.T) {
	env := newTestEnv()
	buyer := env.store.addCustomer("buyer@example.com", nil)
	buyerRef := buyer.Reference()
	friend := env.store.addCustomer("friend@example.com", &buyerRef)

	chain, err := env.attr.ResolveChainFromOwner(context.Background(), friend.Reference(), buyer.ID)
	require.NoError(t, err)
	require.Equal(t, 1, chain.Len())
	assert.Equal(t, friend.ID, chain.Links[0].OwnerID)
	assert.Equal(t, models.StopReasonCycle, chain.StopReason)
}

func TestChainContains(t *testing.T) {
	env := newTestEnv()
	x := env.store.addCustomer("x@example.com", nil)
	xRef := x.Reference()
	y := env.store.addCustomer("y@example.com", &xRef)

	found, err := env.attr.ChainContains(context.Background(), y.Reference(), x.ID)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = env.attr.ChainContains(context.Background(), x.Reference(), y.ID)
	require.NoError(t, err)
	assert.False(t, found)
}
