package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"
	"pawtraits/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidCreditType = errors.New("invalid credit transaction type")

type CreditOptions struct {
	OrderID      *primitive.ObjectID
	CommissionID *primitive.ObjectID
	Description  string
	CreatedBy    *primitive.ObjectID
}

type CreditService interface {
	// Direct ledger writes: earned, used, expired, refunded
	ApplyCredit(ctx context.Context, customerID primitive.ObjectID, amount int64, txType models.CreditTransactionType, opts CreditOptions) (*models.CreditTransaction, error)
	UseCredit(ctx context.Context, session *models.Session, customerID primitive.ObjectID, req *validators.UseCreditRequest) (*models.CreditTransaction, error)
	AdjustCredit(ctx context.Context, session *models.Session, customerID primitive.ObjectID, req *validators.AdjustCreditRequest) (*models.CreditTransaction, error)

	// Pending credit held until the order can no longer be cancelled
	AddPending(ctx context.Context, customerID primitive.ObjectID, amount int64, orderID, commissionID primitive.ObjectID) (*models.CreditTransaction, error)
	ReleasePending(ctx context.Context, orderID primitive.ObjectID) ([]*models.CreditTransaction, error)
	CancelPending(ctx context.Context, orderID primitive.ObjectID) ([]*models.CreditTransaction, error)

	// Reads
	GetBalance(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerCredit, error)
	ListTransactions(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CreditTransaction, int64, error)
}

type creditService struct {
	creditRepo interfaces.CreditRepository
	tx         interfaces.TxManager
	logger     *logger.Logger
	audit      *logger.AuditLogger
}

func NewCreditService(creditRepo interfaces.CreditRepository, tx interfaces.TxManager, log *logger.Logger) CreditService {
	return &creditService{
		creditRepo: creditRepo,
		tx:         tx,
		logger:     log,
		audit:      logger.NewAuditLoggerFrom(log),
	}
}

// applyCreditTransaction maps one transaction onto ledger increments and the balance the
// row must hold for it to apply. Every write path goes through here, which keeps
// available = earned - used - expired + refunded true after each write.
func applyCreditTransaction(txType models.CreditTransactionType, amount int64) (models.CreditDelta, interfaces.CreditGuard, error) {
	if amount <= 0 {
		return models.CreditDelta{}, interfaces.CreditGuard{}, ErrInvalidAmount
	}

	switch txType {
	case models.CreditTypeEarned:
		return models.CreditDelta{TotalEarned: amount, AvailableBalance: amount}, interfaces.CreditGuard{}, nil
	case models.CreditTypeUsed:
		return models.CreditDelta{TotalUsed: amount, AvailableBalance: -amount}, interfaces.CreditGuard{MinAvailable: amount}, nil
	case models.CreditTypeExpired:
		return models.CreditDelta{ExpiredCredits: amount, AvailableBalance: -amount}, interfaces.CreditGuard{MinAvailable: amount}, nil
	case models.CreditTypeRefunded:
		return models.CreditDelta{RefundedCredits: amount, AvailableBalance: amount}, interfaces.CreditGuard{}, nil
	case models.CreditTypePending:
		return models.CreditDelta{PendingBalance: amount}, interfaces.CreditGuard{}, nil
	case models.CreditTypeReleased:
		return models.CreditDelta{PendingBalance: -amount, TotalEarned: amount, AvailableBalance: amount}, interfaces.CreditGuard{MinPending: amount}, nil
	case models.CreditTypePendingCancelled:
		return models.CreditDelta{PendingBalance: -amount}, interfaces.CreditGuard{MinPending: amount}, nil
	}

	return models.CreditDelta{}, interfaces.CreditGuard{}, fmt.Errorf("%w: %s", ErrInvalidCreditType, txType)
}

func (s *creditService) ApplyCredit(ctx context.Context, customerID primitive.ObjectID, amount int64, txType models.CreditTransactionType, opts CreditOptions) (*models.CreditTransaction, error) {
	if !txType.IsDirect() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCreditType, txType)
	}
	return s.apply(ctx, customerID, amount, txType, opts)
}

func (s *creditService) UseCredit(ctx context.Context, session *models.Session, customerID primitive.ObjectID, req *validators.UseCreditRequest) (*models.CreditTransaction, error) {
	opts := CreditOptions{
		Description: req.Description,
		CreatedBy:   session.ActorID(),
	}
	if req.OrderID != "" {
		orderID, err := primitive.ObjectIDFromHex(req.OrderID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid order id", ErrNotFound)
		}
		opts.OrderID = &orderID
	}
	if opts.Description == "" {
		opts.Description = "Credit applied at checkout"
	}

	return s.apply(ctx, customerID, req.Amount, models.CreditTypeUsed, opts)
}

func (s *creditService) AdjustCredit(ctx context.Context, session *models.Session, customerID primitive.ObjectID, req *validators.AdjustCreditRequest) (*models.CreditTransaction, error) {
	tx, err := s.ApplyCredit(ctx, customerID, req.Amount, models.CreditTransactionType(req.Type), CreditOptions{
		Description: req.Description,
		CreatedBy:   session.ActorID(),
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction("adjust", "customer_credit", customerID.Hex(), session.ActorID(), map[string]interface{}{
		"type":          req.Type,
		"amount":        req.Amount,
		"balance_after": tx.BalanceAfter,
		"description":   req.Description,
	})
	return tx, nil
}

func (s *creditService) AddPending(ctx context.Context, customerID primitive.ObjectID, amount int64, orderID, commissionID primitive.ObjectID) (*models.CreditTransaction, error) {
	return s.apply(ctx, customerID, amount, models.CreditTypePending, CreditOptions{
		OrderID:      &orderID,
		CommissionID: &commissionID,
		Description:  "Referral commission pending delivery",
	})
}

// ReleasePending moves every still-pending credit of the order to the available balance.
// Credits already released or cancelled are skipped, so repeated calls are harmless.
func (s *creditService) ReleasePending(ctx context.Context, orderID primitive.ObjectID) ([]*models.CreditTransaction, error) {
	return s.settlePending(ctx, orderID, models.CreditTypeReleased, "Referral commission released")
}

func (s *creditService) CancelPending(ctx context.Context, orderID primitive.ObjectID) ([]*models.CreditTransaction, error) {
	return s.settlePending(ctx, orderID, models.CreditTypePendingCancelled, "Referral commission cancelled")
}

func (s *creditService) settlePending(ctx context.Context, orderID primitive.ObjectID, settleType models.CreditTransactionType, description string) ([]*models.CreditTransaction, error) {
	var settled []*models.CreditTransaction

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		settled = nil

		open, err := s.openPending(ctx, orderID)
		if err != nil {
			return err
		}

		for _, pending := range open {
			tx, err := s.apply(ctx, pending.CustomerID, pending.Amount, settleType, CreditOptions{
				OrderID:      &orderID,
				CommissionID: pending.CommissionID,
				Description:  description,
			})
			if err != nil {
				return err
			}
			settled = append(settled, tx)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to settle pending credit for order %s: %w", orderID.Hex(), err)
	}

	return settled, nil
}

// openPending returns pending transactions of the order with no release or cancellation yet.
func (s *creditService) openPending(ctx context.Context, orderID primitive.ObjectID) ([]*models.CreditTransaction, error) {
	pending, err := s.creditRepo.GetTransactionsByOrder(ctx, orderID, models.CreditTypePending)
	if err != nil || len(pending) == 0 {
		return nil, err
	}

	closed := make(map[string]bool)
	for _, closingType := range []models.CreditTransactionType{models.CreditTypeReleased, models.CreditTypePendingCancelled} {
		txs, err := s.creditRepo.GetTransactionsByOrder(ctx, orderID, closingType)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			closed[pendingKey(tx)] = true
		}
	}

	open := make([]*models.CreditTransaction, 0, len(pending))
	for _, tx := range pending {
		if !closed[pendingKey(tx)] {
			open = append(open, tx)
		}
	}
	return open, nil
}

func pendingKey(tx *models.CreditTransaction) string {
	key := tx.CustomerID.Hex()
	if tx.CommissionID != nil {
		key += ":" + tx.CommissionID.Hex()
	}
	return key
}

func (s *creditService) apply(ctx context.Context, customerID primitive.ObjectID, amount int64, txType models.CreditTransactionType, opts CreditOptions) (*models.CreditTransaction, error) {
	delta, guard, err := applyCreditTransaction(txType, amount)
	if err != nil {
		return nil, err
	}

	var record *models.CreditTransaction
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		credit, err := s.creditRepo.ApplyDelta(ctx, customerID, delta, guard)
		if err != nil {
			if errors.Is(err, interfaces.ErrConditionFailed) {
				return fmt.Errorf("%w: %s of %d", ErrInsufficientBalance, txType, amount)
			}
			return err
		}

		record = &models.CreditTransaction{
			CustomerID:   customerID,
			Type:         txType,
			Amount:       amount,
			OrderID:      opts.OrderID,
			CommissionID: opts.CommissionID,
			BalanceAfter: credit.AvailableBalance,
			PendingAfter: credit.PendingBalance,
			Description:  opts.Description,
			CreatedBy:    opts.CreatedBy,
			CreatedAt:    time.Now(),
		}
		return s.creditRepo.CreateTransaction(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	s.logger.LogLedgerEvent(customerID, string(txType), amount, record.BalanceAfter)
	return record, nil
}

func (s *creditService) GetBalance(ctx context.Context, customerID primitive.ObjectID) (*models.CustomerCredit, error) {
	credit, err := s.creditRepo.GetCredit(ctx, customerID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return &models.CustomerCredit{CustomerID: customerID}, nil
		}
		return nil, err
	}
	return credit, nil
}

func (s *creditService) ListTransactions(ctx context.Context, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.CreditTransaction, int64, error) {
	return s.creditRepo.GetTransactions(ctx, customerID, params)
}
