package services

import (
	"context"
	"testing"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/validators"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestApplyCreditTransaction(t *testing.T) {
	tests := []struct {
		txType models.CreditTransactionType
		delta  models.CreditDelta
		guard  interfaces.CreditGuard
	}{
		{models.CreditTypeEarned, models.CreditDelta{TotalEarned: 100, AvailableBalance: 100}, interfaces.CreditGuard{}},
		{models.CreditTypeUsed, models.CreditDelta{TotalUsed: 100, AvailableBalance: -100}, interfaces.CreditGuard{MinAvailable: 100}},
		{models.CreditTypeExpired, models.CreditDelta{ExpiredCredits: 100, AvailableBalance: -100}, interfaces.CreditGuard{MinAvailable: 100}},
		{models.CreditTypeRefunded, models.CreditDelta{RefundedCredits: 100, AvailableBalance: 100}, interfaces.CreditGuard{}},
		{models.CreditTypePending, models.CreditDelta{PendingBalance: 100}, interfaces.CreditGuard{}},
		{models.CreditTypeReleased, models.CreditDelta{PendingBalance: -100, TotalEarned: 100, AvailableBalance: 100}, interfaces.CreditGuard{MinPending: 100}},
		{models.CreditTypePendingCancelled, models.CreditDelta{PendingBalance: -100}, interfaces.CreditGuard{MinPending: 100}},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			delta, guard, err := applyCreditTransaction(tt.txType, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.delta, delta)
			assert.Equal(t, tt.guard, guard)
		})
	}
}

func TestApplyCreditTransactionRejects(t *testing.T) {
	_, _, err := applyCreditTransaction(models.CreditTypeEarned, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = applyCreditTransaction(models.CreditTypeUsed, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, _, err = applyCreditTransaction("bonus", 10)
	assert.ErrorIs(t, err, ErrInvalidCreditType)
}

func TestCreditLedgerStaysConsistent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := primitive.NewObjectID()

	steps := []struct {
		txType models.CreditTransactionType
		amount int64
	}{
		{models.CreditTypeEarned, 1000},
		{models.CreditTypeUsed, 300},
		{models.CreditTypeExpired, 100},
		{models.CreditTypeRefunded, 50},
		{models.CreditTypeEarned, 25},
	}
	for _, step := range steps {
		tx, err := env.credits.ApplyCredit(ctx, customer, step.amount, step.txType, CreditOptions{})
		require.NoError(t, err)

		balance, err := env.credits.GetBalance(ctx, customer)
		require.NoError(t, err)
		assert.True(t, balance.Consistent(), "after %s", step.txType)
		assert.Equal(t, balance.AvailableBalance, tx.BalanceAfter)
	}

	balance, err := env.credits.GetBalance(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(675), balance.AvailableBalance)
	assert.Equal(t, int64(1025), balance.TotalEarned)
	assert.Equal(t, int64(300), balance.TotalUsed)
	assert.Equal(t, int64(100), balance.ExpiredCredits)
	assert.Equal(t, int64(50), balance.RefundedCredits)
}

func TestUseCreditInsufficientBalance(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer := primitive.NewObjectID()

	_, err := env.credits.ApplyCredit(ctx, customer, 200, models.CreditTypeEarned, CreditOptions{})
	require.NoError(t, err)
	before, err := env.credits.GetBalance(ctx, customer)
	require.NoError(t, err)

	_, err = env.credits.UseCredit(ctx, customerSession(customer), customer, &validators.UseCreditRequest{Amount: 201})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	after, err := env.credits.GetBalance(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Len(t, env.store.transactions, 1)

	tx, err := env.credits.UseCredit(ctx, customerSession(customer), customer, &validators.UseCreditRequest{Amount: 200})
	require.NoError(t, err)
	assert.Equal(t, int64(0), tx.BalanceAfter)
}

func TestExpireCreditRequiresBalance(t *testing.T) {
	env := newTestEnv()
	customer := primitive.NewObjectID()

	_, err := env.credits.ApplyCredit(context.Background(), customer, 10, models.CreditTypeExpired, CreditOptions{})
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestApplyCreditRejectsPendingTypes(t *testing.T) {
	env := newTestEnv()

	_, err := env.credits.ApplyCredit(context.Background(), primitive.NewObjectID(), 10, models.CreditTypeReleased, CreditOptions{})
	assert.ErrorIs(t, err, ErrInvalidCreditType)
}

func TestPendingCreditRelease(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer, order := primitive.NewObjectID(), primitive.NewObjectID()

	_, err := env.credits.AddPending(ctx, customer, 500, order, primitive.NewObjectID())
	require.NoError(t, err)

	balance, err := env.credits.GetBalance(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance.PendingBalance)
	assert.Equal(t, int64(0), balance.AvailableBalance)

	released, err := env.credits.ReleasePending(ctx, order)
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, models.CreditTypeReleased, released[0].Type)

	balance, err = env.credits.GetBalance(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.PendingBalance)
	assert.Equal(t, int64(500), balance.AvailableBalance)
	assert.Equal(t, int64(500), balance.TotalEarned)
	assert.True(t, balance.Consistent())

	again, err := env.credits.ReleasePending(ctx, order)
	require.NoError(t, err)
	assert.Empty(t, again)

	cancelled, err := env.credits.CancelPending(ctx, order)
	require.NoError(t, err)
	assert.Empty(t, cancelled)
}

func TestPendingCreditCancel(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	customer, order := primitive.NewObjectID(), primitive.NewObjectID()

	_, err := env.credits.AddPending(ctx, customer, 300, order, primitive.NewObjectID())
	require.NoError(t, err)

	cancelled, err := env.credits.CancelPending(ctx, order)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)

	balance, err := env.credits.GetBalance(ctx, customer)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance.PendingBalance)
	assert.Equal(t, int64(0), balance.AvailableBalance)
	assert.Equal(t, int64(0), balance.TotalEarned)
}

func TestGetBalanceWithoutLedgerRow(t *testing.T) {
	env := newTestEnv()
	customer := primitive.NewObjectID()

	balance, err := env.credits.GetBalance(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, customer, balance.CustomerID)
	assert.Equal(t, int64(0), balance.AvailableBalance)
}

func TestAdjustCredit(t *testing.T) {
	env := newTestEnv()
	customer := primitive.NewObjectID()

	tx, err := env.credits.AdjustCredit(context.Background(), adminSession(), customer, &validators.AdjustCreditRequest{
		Type:        "earned",
		Amount:      750,
		Description: "Goodwill credit",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(750), tx.BalanceAfter)
	require.NotNil(t, tx.CreatedBy)
}
