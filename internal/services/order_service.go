package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"
	"pawtraits/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderService interface {
	CreateOrder(ctx context.Context, session *models.Session, req *validators.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.Order, error)
	ListCustomerOrders(ctx context.Context, session *models.Session, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error)

	// UpdateOrderStatus validates and stores the transition, then applies its commission
	// effects. Commission failures are logged and never fail the status update.
	UpdateOrderStatus(ctx context.Context, session *models.Session, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)

	// ProcessPaidOrder creates the order's commissions. Calling it again for the same
	// order returns the existing records.
	ProcessPaidOrder(ctx context.Context, order *models.Order) ([]*models.Commission, error)
	GetOrderCommissions(ctx context.Context, orderID primitive.ObjectID) ([]*models.Commission, error)
}

type orderService struct {
	orderRepo      interfaces.OrderRepository
	customerRepo   interfaces.CustomerRepository
	commissionRepo interfaces.CommissionRepository
	tx             interfaces.TxManager
	codes          ReferralCodeService
	attribution    AttributionService
	calculator     *CommissionCalculator
	credits        CreditService
	referrals      ReferralService
	notifier       NotificationService
	currency       string
	logger         *logger.Logger
	now            func() time.Time
}

func NewOrderService(
	orderRepo interfaces.OrderRepository,
	customerRepo interfaces.CustomerRepository,
	commissionRepo interfaces.CommissionRepository,
	tx interfaces.TxManager,
	codes ReferralCodeService,
	attribution AttributionService,
	calculator *CommissionCalculator,
	credits CreditService,
	referrals ReferralService,
	notifier NotificationService,
	currency string,
	log *logger.Logger,
) OrderService {
	if currency == "" {
		currency = utils.DefaultCurrency
	}
	return &orderService{
		orderRepo:      orderRepo,
		customerRepo:   customerRepo,
		commissionRepo: commissionRepo,
		tx:             tx,
		codes:          codes,
		attribution:    attribution,
		calculator:     calculator,
		credits:        credits,
		referrals:      referrals,
		notifier:       notifier,
		currency:       currency,
		logger:         log,
		now:            time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, session *models.Session, req *validators.CreateOrderRequest) (*models.Order, error) {
	customerID, err := primitive.ObjectIDFromHex(req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid customer id", ErrNotFound)
	}
	if !session.CanAccessCustomer(customerID) {
		return nil, ErrForbidden
	}

	if _, err := s.customerRepo.GetCustomerByID(ctx, customerID); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, customerID.Hex())
		}
		return nil, err
	}

	order := &models.Order{
		CustomerID:   customerID,
		TotalValue:   req.TotalValue,
		Currency:     strings.ToUpper(req.Currency),
		Status:       models.OrderStatusPending,
		ReferralCode: strings.TrimSpace(req.ReferralCode),
		ExternalRef:  req.ExternalRef,
	}
	if order.Currency == "" {
		order.Currency = s.currency
	}

	if err := s.orderRepo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.WithOrderID(order.ID).WithCustomerID(customerID).WithFields(map[string]interface{}{
		"total_value":   order.TotalValue,
		"referral_code": order.ReferralCode,
	}).Info("Order created")
	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanAccessCustomer(order.CustomerID) {
		return nil, ErrForbidden
	}
	return order, nil
}

func (s *orderService) ListCustomerOrders(ctx context.Context, session *models.Session, customerID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Order, int64, error) {
	if !session.CanAccessCustomer(customerID) {
		return nil, 0, ErrForbidden
	}
	return s.orderRepo.GetOrdersByCustomer(ctx, customerID, params)
}

func (s *orderService) GetOrderCommissions(ctx context.Context, orderID primitive.ObjectID) ([]*models.Commission, error) {
	return s.commissionRepo.GetCommissionsByOrder(ctx, orderID)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, session *models.Session, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	if !session.IsAdmin() {
		return nil, ErrForbidden
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !status.IsValid() || !from.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: order %s -> %s", ErrInvalidStatusTransition, from, status)
	}

	now := s.now()
	if err := s.orderRepo.UpdateOrderStatus(ctx, id, from, status, now); err != nil {
		if errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidStatusTransition, id.Hex())
		}
		return nil, err
	}
	applyStatusTimestamp(order, status, now)

	s.logger.WithOrderID(id).WithFields(map[string]interface{}{
		"from": from,
		"to":   status,
	}).Info("Order status updated")

	s.applyCommissionEffects(ctx, order)
	return order, nil
}

func (s *orderService) applyCommissionEffects(ctx context.Context, order *models.Order) {
	var err error
	switch order.Status {
	case models.OrderStatusPaid:
		_, err = s.ProcessPaidOrder(ctx, order)
	case models.OrderStatusDelivered:
		err = s.settleDeliveredOrder(ctx, order)
	case models.OrderStatusCancelled, models.OrderStatusRefunded:
		err = s.reverseOrderCommissions(ctx, order)
	}

	if err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).WithField("status", order.Status).
			Error("Commission processing failed; order status was updated")
	}
}

func (s *orderService) ProcessPaidOrder(ctx context.Context, order *models.Order) ([]*models.Commission, error) {
	existing, err := s.commissionRepo.GetCommissionsByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.logger.WithOrderID(order.ID).Debug("Order commissions already recorded")
		return existing, nil
	}

	chain, ok, err := s.resolveOrderChain(ctx, order)
	if err != nil || !ok {
		return nil, err
	}

	shares := s.calculator.Compute(order.TotalValue, chain)
	if len(shares) == 0 {
		return nil, nil
	}

	commissions := make([]*models.Commission, len(shares))
	for i, share := range shares {
		commissions[i] = &models.Commission{
			ID:           primitive.NewObjectID(),
			OrderID:      order.ID,
			CustomerID:   order.CustomerID,
			Recipient:    models.OwnerReference{Type: share.OwnerType, ID: share.OwnerID},
			Level:        share.Level,
			OrderValue:   order.TotalValue,
			RateBps:      share.RateBps,
			Amount:       share.Amount,
			Currency:     order.Currency,
			Kind:         models.CommissionKindCommission,
			ReferralCode: order.ReferralCode,
		}
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.commissionRepo.CreateCommissions(ctx, commissions); err != nil {
			return err
		}
		for _, c := range commissions {
			if c.Recipient.Type != models.OwnerTypeCustomer || c.Amount <= 0 {
				continue
			}
			if _, err := s.credits.AddPending(ctx, c.Recipient.ID, c.Amount, order.ID, c.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return s.commissionRepo.GetCommissionsByOrder(ctx, order.ID)
		}
		return nil, fmt.Errorf("failed to record commissions: %w", err)
	}

	for _, c := range commissions {
		s.logger.LogCommissionEvent(order.ID, "created", c.Recipient.Key(), c.Level, c.Amount)
		s.notify(ctx, func(ctx context.Context) { s.notifier.NotifyCommission(ctx, c) })
	}

	s.afterCommissioned(ctx, order, chain)
	return commissions, nil
}

// resolveOrderChain returns false when the order carries a code that cannot grant
// attribution; such orders earn no commission.
func (s *orderService) resolveOrderChain(ctx context.Context, order *models.Order) (models.AttributionChain, bool, error) {
	if order.ReferralCode == "" {
		chain, err := s.attribution.ResolveAttributionChain(ctx, order.CustomerID)
		if err != nil {
			return chain, false, err
		}
		return chain, true, nil
	}

	owner, err := s.codes.ResolveCode(ctx, order.ReferralCode)
	if err != nil {
		if IsCodeUnusable(err) {
			s.logger.WithError(err).WithOrderID(order.ID).WithField("code", order.ReferralCode).
				Warn("Order referral code is unusable, no commission recorded")
			return emptyChain(), false, nil
		}
		return emptyChain(), false, err
	}

	chain, err := s.attribution.ResolveChainFromOwner(ctx, *owner, order.CustomerID)
	if err != nil {
		return chain, false, err
	}
	return chain, true, nil
}

func (s *orderService) afterCommissioned(ctx context.Context, order *models.Order, chain models.AttributionChain) {
	if order.ReferralCode != "" {
		if err := s.codes.RecordUsage(ctx, order.ReferralCode); err != nil {
			s.logger.WithError(err).WithField("code", order.ReferralCode).Warn("Failed to record referral code usage")
		}
	}

	if chain.IsEmpty() || s.referrals == nil {
		return
	}

	customer, err := s.customerRepo.GetCustomerByID(ctx, order.CustomerID)
	if err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Warn("Failed to load customer for referral conversion")
		return
	}

	first := chain.Links[0]
	referrer := models.OwnerReference{Type: first.OwnerType, ID: first.OwnerID}
	if _, err := s.referrals.MarkPurchased(ctx, customer, referrer, order.ID); err != nil {
		s.logger.WithError(err).WithOrderID(order.ID).Warn("Failed to mark referrals purchased")
	}
}

// settleDeliveredOrder releases pending customer credit and marks customer commissions
// settled, since the ledger is how customers are paid.
func (s *orderService) settleDeliveredOrder(ctx context.Context, order *models.Order) error {
	released, err := s.credits.ReleasePending(ctx, order.ID)
	if err != nil {
		return err
	}

	commissions, err := s.commissionRepo.GetCommissionsByOrder(ctx, order.ID)
	if err != nil {
		return err
	}

	var settled []primitive.ObjectID
	for _, c := range commissions {
		if c.Recipient.Type == models.OwnerTypeCustomer && !c.IsPaid {
			settled = append(settled, c.ID)
		}
	}
	if len(settled) > 0 {
		if _, err := s.commissionRepo.MarkPaid(ctx, settled, nil, s.now()); err != nil {
			return err
		}
	}

	for _, tx := range released {
		s.logger.LogCommissionEvent(order.ID, "credit_released", models.OwnerReference{Type: models.OwnerTypeCustomer, ID: tx.CustomerID}.Key(), 0, tx.Amount)
		s.notify(ctx, func(ctx context.Context) { s.notifier.NotifyCreditReleased(ctx, tx) })
	}

	if s.referrals != nil {
		if _, err := s.referrals.MarkCredited(ctx, order.ID); err != nil {
			return err
		}
	}
	return nil
}

// reverseOrderCommissions appends one negative adjustment per original commission and
// cancels any credit still pending. Released customer credit is not clawed back.
// Customer originals still unpaid are settled alongside their paid adjustment so the
// pair nets to zero on both sides of the pending/paid split.
func (s *orderService) reverseOrderCommissions(ctx context.Context, order *models.Order) error {
	commissions, err := s.commissionRepo.GetCommissionsByOrder(ctx, order.ID)
	if err != nil {
		return err
	}

	now := s.now()
	adjustments := buildAdjustments(commissions, now)
	if len(adjustments) == 0 {
		return nil
	}
	settled := unpaidCustomerOriginals(commissions, adjustments)

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.commissionRepo.CreateCommissions(ctx, adjustments); err != nil {
			return err
		}
		if len(settled) > 0 {
			if _, err := s.commissionRepo.MarkPaid(ctx, settled, nil, now); err != nil {
				return err
			}
		}
		_, err := s.credits.CancelPending(ctx, order.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return nil
		}
		return fmt.Errorf("failed to record commission adjustments: %w", err)
	}

	for _, adj := range adjustments {
		s.logger.LogCommissionEvent(order.ID, "adjusted", adj.Recipient.Key(), adj.Level, adj.Amount)
		s.notify(ctx, func(ctx context.Context) { s.notifier.NotifyCommission(ctx, adj) })
	}
	return nil
}

// buildAdjustments returns reversing records for originals that have none yet. Customer
// adjustments are settled on creation because the ledger already reflects them.
func buildAdjustments(commissions []*models.Commission, now time.Time) []*models.Commission {
	reversed := make(map[primitive.ObjectID]bool)
	for _, c := range commissions {
		if c.Kind == models.CommissionKindAdjustment && c.SupersedesID != nil {
			reversed[*c.SupersedesID] = true
		}
	}

	var adjustments []*models.Commission
	for _, c := range commissions {
		if c.Kind != models.CommissionKindCommission || reversed[c.ID] {
			continue
		}

		original := c.ID
		adj := &models.Commission{
			ID:           primitive.NewObjectID(),
			OrderID:      c.OrderID,
			CustomerID:   c.CustomerID,
			Recipient:    c.Recipient,
			Level:        c.Level,
			OrderValue:   c.OrderValue,
			RateBps:      c.RateBps,
			Amount:       -c.Amount,
			Currency:     c.Currency,
			Kind:         models.CommissionKindAdjustment,
			SupersedesID: &original,
			ReferralCode: c.ReferralCode,
		}
		if c.Recipient.Type == models.OwnerTypeCustomer {
			adj.IsPaid = true
			adj.PaidAt = &now
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments
}

// unpaidCustomerOriginals returns the unpaid customer commissions reversed by adjustments.
func unpaidCustomerOriginals(commissions, adjustments []*models.Commission) []primitive.ObjectID {
	reversed := make(map[primitive.ObjectID]bool, len(adjustments))
	for _, adj := range adjustments {
		if adj.SupersedesID != nil {
			reversed[*adj.SupersedesID] = true
		}
	}

	var ids []primitive.ObjectID
	for _, c := range commissions {
		if reversed[c.ID] && c.Recipient.Type == models.OwnerTypeCustomer && !c.IsPaid {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (s *orderService) notify(ctx context.Context, fn func(ctx context.Context)) {
	if s.notifier == nil {
		return
	}
	go fn(context.WithoutCancel(ctx))
}

func (s *orderService) getOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return order, nil
}

func applyStatusTimestamp(order *models.Order, status models.OrderStatus, at time.Time) {
	order.Status = status
	order.UpdatedAt = at
	switch status {
	case models.OrderStatusPaid:
		order.PaidAt = &at
	case models.OrderStatusDelivered:
		order.DeliveredAt = &at
	case models.OrderStatusCancelled:
		order.CancelledAt = &at
	case models.OrderStatusRefunded:
		order.RefundedAt = &at
	}
}
