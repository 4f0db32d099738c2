package interfaces

import (
	"context"

	"pawtraits/internal/models"
	"pawtraits/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreditGuard holds the minimum balances a ledger row must have for a delta to apply.
type CreditGuard struct {
	MinAvailable int64
	MinPending   int64
}

func (g CreditGuard) IsZero() bool {
	return g.MinAvailable == 0 && g.MinPending == 0
}

type CreditRepository interface {
	GetCredit(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerCredit, error)

	// ApplyDelta increments the ledger row and returns it after the update. With a
	// non-zero guard the update only matches when the row holds enough balance and
	// ErrConditionFailed is returned otherwise; without a guard the row is upserted.
	ApplyDelta(ctx context.Context, customerID primitive.ObjectID, delta models.CreditDelta, guard CreditGuard) (*models.CustomerCredit, error)

	CreateTransaction(ctx context.Context, tx *models.CreditTransaction) error
	GetTransactions(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CreditTransaction, int64, error)
	GetTransactionsByOrder(ctx context.Context, orderID primitive.ObjectID, txType models.CreditTransactionType) ([]*models.CreditTransaction, error)
}
