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
	"pawtraits/pkg/payment"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const payoutLockTTL = 2 * time.Minute

type PayoutService interface {
	CreatePayout(ctx context.Context, session *models.Session, req *validators.CreatePayoutRequest) (*models.Payout, error)
	GetPayout(ctx context.Context, id primitive.ObjectID) (*models.Payout, error)
	ListRecipientPayouts(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error)
	ReconcilePayout(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.Payout, error)

	// Manual settlement
	MarkCommissionPaid(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.Commission, error)
	ListCommissions(ctx context.Context, filter models.CommissionFilter, params *utils.PaginationParams) ([]*models.Commission, int64, error)
}

// PayoutProviders is satisfied by *payment.Registry.
type PayoutProviders interface {
	Get(name string) (payment.PayoutProvider, error)
}

type payoutService struct {
	payoutRepo     interfaces.PayoutRepository
	commissionRepo interfaces.CommissionRepository
	tx             interfaces.TxManager
	directory      OwnerDirectory
	providers      PayoutProviders
	cache          CacheService
	notifier       NotificationService
	currency       string
	minimumPayout  int64
	logger         *logger.Logger
	audit          *logger.AuditLogger
	now            func() time.Time
}

func NewPayoutService(
	payoutRepo interfaces.PayoutRepository,
	commissionRepo interfaces.CommissionRepository,
	tx interfaces.TxManager,
	directory OwnerDirectory,
	providers PayoutProviders,
	cache CacheService,
	notifier NotificationService,
	currency string,
	minimumPayout int64,
	log *logger.Logger,
) PayoutService {
	return &payoutService{
		payoutRepo:     payoutRepo,
		commissionRepo: commissionRepo,
		tx:             tx,
		directory:      directory,
		providers:      providers,
		cache:          cache,
		notifier:       notifier,
		currency:       currency,
		minimumPayout:  minimumPayout,
		logger:         log,
		audit:          logger.NewAuditLoggerFrom(log),
		now:            time.Now,
	}
}

// CreatePayout transfers the recipient's unpaid commission, net of adjustments, and
// marks the included records paid. Only one payout per recipient runs at a time.
func (s *payoutService) CreatePayout(ctx context.Context, session *models.Session, req *validators.CreatePayoutRequest) (*models.Payout, error) {
	if !session.IsAdmin() {
		return nil, ErrForbidden
	}

	ownerID, err := primitive.ObjectIDFromHex(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner id", ErrOwnerNotFound)
	}
	recipient := models.OwnerReference{Type: models.OwnerType(req.OwnerType), ID: ownerID}
	if !recipient.Type.IsTerminal() {
		return nil, fmt.Errorf("%w: %s recipients are paid in store credit", ErrForbidden, recipient.Type)
	}

	profile, err := s.directory.GetOwner(ctx, recipient)
	if err != nil {
		return nil, err
	}
	if profile.PayoutAccount == "" {
		return nil, ErrPayoutNotConfigured
	}

	provider, err := s.providers.Get(profile.PayoutProvider)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayoutNotConfigured, err)
	}

	lock, err := s.cache.Lock(ctx, "payout:"+recipient.Key(), payoutLockTTL)
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, ErrPayoutInProgress
		}
		return nil, err
	}
	defer s.cache.Unlock(context.WithoutCancel(ctx), lock)

	unsettled, err := s.payoutRepo.CountPayoutsByStatus(ctx, recipient.ID, models.PayoutStatusTransferred)
	if err != nil {
		return nil, err
	}
	if unsettled > 0 {
		return nil, ErrPayoutUnsettled
	}

	unpaid, err := s.commissionRepo.GetUnpaidByRecipient(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	ids, amount := s.collectPayable(unpaid)
	if len(ids) == 0 || amount <= 0 {
		return nil, ErrNothingToPay
	}
	if amount < s.minimumPayout {
		return nil, fmt.Errorf("%w: %s < %s", ErrBelowMinimumPayout,
			utils.FormatMinorUnits(amount, s.currency), utils.FormatMinorUnits(s.minimumPayout, s.currency))
	}

	payout := &models.Payout{
		Recipient:     models.OwnerReference{Type: recipient.Type, ID: recipient.ID},
		Amount:        amount,
		Currency:      s.currency,
		Provider:      provider.Name(),
		Status:        models.PayoutStatusPending,
		CommissionIDs: ids,
		InitiatedBy:   session.ActorID(),
	}
	if err := s.payoutRepo.CreatePayout(ctx, payout); err != nil {
		return nil, fmt.Errorf("failed to record payout: %w", err)
	}

	resp, err := provider.Transfer(ctx, &payment.TransferRequest{
		Destination:    profile.PayoutAccount,
		Amount:         amount,
		Currency:       s.currency,
		Description:    fmt.Sprintf("Pawtraits referral commission (%d records)", len(ids)),
		IdempotencyKey: payout.ID.Hex(),
		Metadata: map[string]string{
			"payout_id": payout.ID.Hex(),
			"recipient": recipient.Key(),
		},
	})
	if err != nil {
		s.failPayout(ctx, payout, err)
		return payout, fmt.Errorf("%w: %v", ErrPayoutFailed, err)
	}

	payout.ProviderReference = resp.TransferID
	if err := s.settlePayout(ctx, payout); err != nil {
		s.holdPayout(ctx, payout, err)
		return payout, fmt.Errorf("%w: %v", ErrPayoutUnsettled, err)
	}

	s.audit.LogPayoutAudit(payout.ID, recipient.Key(), amount, s.currency, provider.Name(), string(payout.Status))
	s.notifyPayout(ctx, payout)
	return payout, nil
}

// settlePayout marks the payout's commissions paid and completes the payout in one
// transaction. Every included commission must still be unpaid.
func (s *payoutService) settlePayout(ctx context.Context, payout *models.Payout) error {
	now := s.now()
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.commissionRepo.MarkPaid(ctx, payout.CommissionIDs, &payout.ID, now)
		if err != nil {
			return err
		}
		if n != int64(len(payout.CommissionIDs)) {
			return fmt.Errorf("%w: %d of %d commissions marked paid", interfaces.ErrConditionFailed, n, len(payout.CommissionIDs))
		}
		return s.payoutRepo.UpdatePayout(ctx, payout.ID, map[string]interface{}{
			"status":             models.PayoutStatusCompleted,
			"provider_reference": payout.ProviderReference,
			"completed_at":       now,
		})
	})
	if err != nil {
		return err
	}

	payout.Status = models.PayoutStatusCompleted
	payout.CompletedAt = &now
	return nil
}

// holdPayout records a transfer whose commissions could not be settled.
func (s *payoutService) holdPayout(ctx context.Context, payout *models.Payout, cause error) {
	payout.Status = models.PayoutStatusTransferred
	payout.FailureReason = cause.Error()

	if err := s.payoutRepo.UpdatePayout(context.WithoutCancel(ctx), payout.ID, map[string]interface{}{
		"status":             payout.Status,
		"provider_reference": payout.ProviderReference,
		"failure_reason":     payout.FailureReason,
	}); err != nil {
		s.logger.WithError(err).WithField("payout_id", payout.ID.Hex()).Error("Failed to record transferred payout")
	}

	s.logger.WithError(cause).WithFields(map[string]interface{}{
		"payout_id":          payout.ID.Hex(),
		"recipient":          payout.Recipient.Key(),
		"provider_reference": payout.ProviderReference,
	}).Error("Payout transferred but commissions not settled")
	s.audit.LogPayoutAudit(payout.ID, payout.Recipient.Key(), payout.Amount, payout.Currency, payout.Provider, string(payout.Status))
}

// ReconcilePayout settles a transferred payout's commissions. Records paid since the
// transfer are left as they are.
func (s *payoutService) ReconcilePayout(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.Payout, error) {
	if !session.IsAdmin() {
		return nil, ErrForbidden
	}

	payout, err := s.GetPayout(ctx, id)
	if err != nil {
		return nil, err
	}
	if payout.Status != models.PayoutStatusTransferred {
		return nil, fmt.Errorf("%w: payout is %s", ErrInvalidStatusTransition, payout.Status)
	}

	now := s.now()
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.commissionRepo.MarkPaid(ctx, payout.CommissionIDs, &payout.ID, now); err != nil {
			return err
		}
		return s.payoutRepo.UpdatePayout(ctx, payout.ID, map[string]interface{}{
			"status":         models.PayoutStatusCompleted,
			"completed_at":   now,
			"failure_reason": "",
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile payout: %w", err)
	}

	payout.Status = models.PayoutStatusCompleted
	payout.CompletedAt = &now
	payout.FailureReason = ""

	s.audit.LogAction("reconcile", "payout", id.Hex(), session.ActorID(), map[string]interface{}{
		"recipient": payout.Recipient.Key(),
		"amount":    payout.Amount,
	})
	s.audit.LogPayoutAudit(payout.ID, payout.Recipient.Key(), payout.Amount, payout.Currency, payout.Provider, string(payout.Status))
	return payout, nil
}

// collectPayable sums unpaid records in the payout currency. Adjustments are negative,
// so the sum is already net of reversals.
func (s *payoutService) collectPayable(unpaid []*models.Commission) ([]primitive.ObjectID, int64) {
	var (
		ids    []primitive.ObjectID
		amount int64
	)
	for _, c := range unpaid {
		if c.Currency != "" && c.Currency != s.currency {
			s.logger.WithFields(map[string]interface{}{
				"commission_id": c.ID.Hex(),
				"currency":      c.Currency,
			}).Warn("Skipping commission in a different currency")
			continue
		}
		ids = append(ids, c.ID)
		amount += c.Amount
	}
	return ids, amount
}

func (s *payoutService) failPayout(ctx context.Context, payout *models.Payout, cause error) {
	payout.Status = models.PayoutStatusFailed
	payout.FailureReason = cause.Error()

	if err := s.payoutRepo.UpdatePayout(ctx, payout.ID, map[string]interface{}{
		"status":         payout.Status,
		"failure_reason": payout.FailureReason,
	}); err != nil {
		s.logger.WithError(err).WithField("payout_id", payout.ID.Hex()).Error("Failed to mark payout failed")
	}

	s.logger.WithError(cause).WithFields(map[string]interface{}{
		"payout_id": payout.ID.Hex(),
		"recipient": payout.Recipient.Key(),
		"amount":    payout.Amount,
	}).Error("Payout transfer failed")
	s.audit.LogPayoutAudit(payout.ID, payout.Recipient.Key(), payout.Amount, payout.Currency, payout.Provider, string(payout.Status))
	s.notifyPayout(ctx, payout)
}

func (s *payoutService) notifyPayout(ctx context.Context, payout *models.Payout) {
	if s.notifier == nil {
		return
	}
	snapshot := *payout
	go s.notifier.NotifyPayout(context.WithoutCancel(ctx), &snapshot)
}

func (s *payoutService) GetPayout(ctx context.Context, id primitive.ObjectID) (*models.Payout, error) {
	payout, err := s.payoutRepo.GetPayoutByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: payout %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return payout, nil
}

func (s *payoutService) ListRecipientPayouts(ctx context.Context, recipientID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Payout, int64, error) {
	return s.payoutRepo.GetPayoutsByRecipient(ctx, recipientID, params)
}

func (s *payoutService) MarkCommissionPaid(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.Commission, error) {
	if !session.IsAdmin() {
		return nil, ErrForbidden
	}

	commission, err := s.commissionRepo.GetCommissionByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: commission %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	if commission.IsPaid {
		return commission, nil
	}

	now := s.now()
	if _, err := s.commissionRepo.MarkPaid(ctx, []primitive.ObjectID{id}, nil, now); err != nil {
		return nil, err
	}
	commission.IsPaid = true
	commission.PaidAt = &now

	s.audit.LogAction("mark_paid", "commission", id.Hex(), session.ActorID(), map[string]interface{}{
		"recipient": commission.Recipient.Key(),
		"amount":    commission.Amount,
		"order_id":  commission.OrderID.Hex(),
	})
	return commission, nil
}

func (s *payoutService) ListCommissions(ctx context.Context, filter models.CommissionFilter, params *utils.PaginationParams) ([]*models.Commission, int64, error) {
	return s.commissionRepo.ListCommissions(ctx, filter, params)
}
