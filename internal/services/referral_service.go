package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pawtraits/internal/config"
	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"
	"pawtraits/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralService interface {
	// Customers and their referrer pointer
	RegisterCustomer(ctx context.Context, req *validators.RegisterCustomerRequest) (*models.Customer, error)
	ApplyReferralCode(ctx context.Context, session *models.Session, customerID primitive.ObjectID, code string) (*models.Customer, error)
	GetCustomer(ctx context.Context, session *models.Session, customerID primitive.ObjectID) (*models.Customer, error)
	GetAttribution(ctx context.Context, session *models.Session, customerID primitive.ObjectID) (models.AttributionChain, error)

	// Invitations
	CreateReferral(ctx context.Context, session *models.Session, req *validators.CreateReferralRequest) (*models.Referral, error)
	GetReferral(ctx context.Context, id primitive.ObjectID) (*models.Referral, error)
	ListReferrals(ctx context.Context, filter models.ReferralFilter, params *utils.PaginationParams) ([]*models.Referral, int64, error)
	MarkViewed(ctx context.Context, id primitive.ObjectID) (*models.Referral, error)
	MarkPurchased(ctx context.Context, customer *models.Customer, referrer models.OwnerReference, orderID primitive.ObjectID) ([]*models.Referral, error)
	MarkCredited(ctx context.Context, orderID primitive.ObjectID) ([]*models.Referral, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

type referralService struct {
	customerRepo interfaces.CustomerRepository
	referralRepo interfaces.ReferralRepository
	codes        ReferralCodeService
	attribution  AttributionService
	directory    OwnerDirectory
	notifier     NotificationService
	config       *config.ReferralConfig
	logger       *logger.Logger
	now          func() time.Time
}

func NewReferralService(
	cfg *config.ReferralConfig,
	customerRepo interfaces.CustomerRepository,
	referralRepo interfaces.ReferralRepository,
	codes ReferralCodeService,
	attribution AttributionService,
	directory OwnerDirectory,
	notifier NotificationService,
	log *logger.Logger,
) ReferralService {
	return &referralService{
		customerRepo: customerRepo,
		referralRepo: referralRepo,
		codes:        codes,
		attribution:  attribution,
		directory:    directory,
		notifier:     notifier,
		config:       cfg,
		logger:       log,
		now:          time.Now,
	}
}

// Viewed is optional: an invitee may buy without opening the invite link.
var referralTransitions = map[models.ReferralStatus][]models.ReferralStatus{
	models.ReferralStatusPending:   {models.ReferralStatusViewed, models.ReferralStatusPurchased, models.ReferralStatusExpired},
	models.ReferralStatusViewed:    {models.ReferralStatusPurchased, models.ReferralStatusExpired},
	models.ReferralStatusPurchased: {models.ReferralStatusCredited},
}

// validateReferralTransition reports whether a referral may move from one status to the next.
// Credited and expired are terminal.
func validateReferralTransition(from, to models.ReferralStatus) error {
	for _, allowed := range referralTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: referral %s -> %s", ErrInvalidStatusTransition, from, to)
}

// RegisterCustomer creates a customer, optionally attributed to the owner of
// req.ReferralCode, and issues the customer's own referral code. Code resolution
// errors are returned unchanged.
func (s *referralService) RegisterCustomer(ctx context.Context, req *validators.RegisterCustomerRequest) (*models.Customer, error) {
	email := utils.NormalizeEmail(req.Email)

	_, err := s.customerRepo.GetCustomerByEmail(ctx, email)
	if err == nil {
		return nil, ErrCustomerExists
	}
	if !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}

	customer := &models.Customer{
		Email: email,
		Name:  req.Name,
		Phone: utils.NormalizePhone(req.Phone),
	}

	if req.ReferralCode != "" {
		owner, err := s.codes.ResolveCode(ctx, req.ReferralCode)
		if err != nil {
			return nil, err
		}

		profile, err := s.directory.GetOwner(ctx, *owner)
		if err != nil {
			return nil, err
		}
		if profile.Email != "" && utils.NormalizeEmail(profile.Email) == email {
			return nil, ErrSelfReferral
		}

		now := s.now()
		customer.Referrer = owner
		customer.ReferralCodeUsed = req.ReferralCode
		customer.ReferredAt = &now
		customer.ReferralType = owner.Type
	}

	if err := s.customerRepo.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return nil, ErrCustomerExists
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.issuePersonalCode(ctx, customer)

	if customer.HasReferrer() {
		s.afterReferred(ctx, customer)
	}

	s.logger.WithCustomerID(customer.ID).WithFields(map[string]interface{}{
		"referred":      customer.HasReferrer(),
		"referral_type": customer.ReferralType,
		"personal_code": customer.PersonalReferralCode,
	}).Info("Customer registered")

	return customer, nil
}

// ApplyReferralCode attaches a referrer to an existing customer that has none.
func (s *referralService) ApplyReferralCode(ctx context.Context, session *models.Session, customerID primitive.ObjectID, code string) (*models.Customer, error) {
	if !session.CanAccessCustomer(customerID) {
		return nil, ErrForbidden
	}

	customer, err := s.getCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.HasReferrer() {
		return nil, ErrAlreadyReferred
	}

	owner, err := s.codes.ResolveCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if owner.Type == models.OwnerTypeCustomer && owner.ID == customerID {
		return nil, ErrSelfReferral
	}

	cycle, err := s.attribution.ChainContains(ctx, *owner, customerID)
	if err != nil {
		return nil, err
	}
	if cycle {
		return nil, fmt.Errorf("%w: %s is upstream of %s", ErrReferralCycle, customerID.Hex(), owner.Key())
	}

	now := s.now()
	if err := s.customerRepo.SetReferrer(ctx, customerID, *owner, code, now); err != nil {
		if errors.Is(err, interfaces.ErrConditionFailed) {
			return nil, ErrAlreadyReferred
		}
		return nil, err
	}

	customer.Referrer = owner
	customer.ReferralCodeUsed = code
	customer.ReferredAt = &now
	customer.ReferralType = owner.Type

	s.afterReferred(ctx, customer)
	return customer, nil
}

func (s *referralService) GetCustomer(ctx context.Context, session *models.Session, customerID primitive.ObjectID) (*models.Customer, error) {
	if !session.CanAccessCustomer(customerID) {
		return nil, ErrForbidden
	}
	return s.getCustomer(ctx, customerID)
}

func (s *referralService) GetAttribution(ctx context.Context, session *models.Session, customerID primitive.ObjectID) (models.AttributionChain, error) {
	if !session.CanAccessCustomer(customerID) {
		return emptyChain(), ErrForbidden
	}
	return s.attribution.ResolveAttributionChain(ctx, customerID)
}

// CreateReferral records an invitation sent with one of the caller's codes.
func (s *referralService) CreateReferral(ctx context.Context, session *models.Session, req *validators.CreateReferralRequest) (*models.Referral, error) {
	owner, err := s.codes.ResolveCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	if !session.IsAdmin() {
		caller, ok := session.Owner()
		if !ok || caller.ID != owner.ID {
			return nil, ErrForbidden
		}
	}

	email := utils.NormalizeEmail(req.RefereeEmail)
	if profile, err := s.directory.GetOwner(ctx, *owner); err == nil && utils.NormalizeEmail(profile.Email) == email {
		return nil, ErrSelfReferral
	}

	now := s.now()
	referral := &models.Referral{
		Referrer:     models.OwnerReference{Type: owner.Type, ID: owner.ID},
		Code:         req.Code,
		RefereeEmail: email,
		Status:       models.ReferralStatusPending,
		ExpiresAt:    now.Add(s.config.InviteExpiry),
	}

	if existing, err := s.customerRepo.GetCustomerByEmail(ctx, email); err == nil {
		if existing.HasReferrer() {
			return nil, ErrAlreadyReferred
		}
		referral.RefereeCustomerID = &existing.ID
	}

	if err := s.referralRepo.CreateReferral(ctx, referral); err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	s.logger.LogReferralEvent(referral.ID, "created", map[string]interface{}{
		"referrer": owner.Key(),
		"code":     req.Code,
		"referee":  utils.MaskEmail(email),
	})
	return referral, nil
}

func (s *referralService) GetReferral(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.referralRepo.GetReferralByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: referral %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return referral, nil
}

func (s *referralService) ListReferrals(ctx context.Context, filter models.ReferralFilter, params *utils.PaginationParams) ([]*models.Referral, int64, error) {
	return s.referralRepo.ListReferrals(ctx, filter, params)
}

// MarkViewed is called when the invitee opens the link. Repeated views are no-ops.
func (s *referralService) MarkViewed(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.GetReferral(ctx, id)
	if err != nil {
		return nil, err
	}
	if referral.Status == models.ReferralStatusViewed {
		return referral, nil
	}

	now := s.now()
	if !now.Before(referral.ExpiresAt) && !referral.Status.IsCompleted() {
		if err := s.transition(ctx, referral, models.ReferralStatusExpired, map[string]interface{}{"expired_at": now}); err != nil {
			s.logger.WithError(err).WithField("referral_id", id.Hex()).Warn("Failed to expire referral")
		}
		return nil, ErrReferralExpired
	}

	if err := s.transition(ctx, referral, models.ReferralStatusViewed, map[string]interface{}{"viewed_at": now}); err != nil {
		return nil, err
	}
	referral.ViewedAt = &now
	return referral, nil
}

// MarkPurchased converts the customer's open invitations from referrer once their
// order is paid. Invitations from other owners stay open.
func (s *referralService) MarkPurchased(ctx context.Context, customer *models.Customer, referrer models.OwnerReference, orderID primitive.ObjectID) ([]*models.Referral, error) {
	open, err := s.referralRepo.GetOpenReferralsForReferee(ctx, customer.ID, customer.Email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var converted []*models.Referral
	for _, referral := range open {
		if referral.Referrer.ID != referrer.ID || !now.Before(referral.ExpiresAt) {
			continue
		}

		fields := map[string]interface{}{
			"purchased_at":        now,
			"order_id":            orderID,
			"referee_customer_id": customer.ID,
		}
		if err := s.transition(ctx, referral, models.ReferralStatusPurchased, fields); err != nil {
			if errors.Is(err, interfaces.ErrConditionFailed) {
				continue
			}
			return converted, err
		}

		referral.PurchasedAt = &now
		referral.OrderID = &orderID
		referral.RefereeCustomerID = &customer.ID
		converted = append(converted, referral)
	}
	return converted, nil
}

func (s *referralService) MarkCredited(ctx context.Context, orderID primitive.ObjectID) ([]*models.Referral, error) {
	referrals, err := s.referralRepo.GetReferralsByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var credited []*models.Referral
	for _, referral := range referrals {
		if referral.Status != models.ReferralStatusPurchased {
			continue
		}
		if err := s.transition(ctx, referral, models.ReferralStatusCredited, map[string]interface{}{"credited_at": now}); err != nil {
			if errors.Is(err, interfaces.ErrConditionFailed) {
				continue
			}
			return credited, err
		}
		referral.CreditedAt = &now
		credited = append(credited, referral)
	}
	return credited, nil
}

func (s *referralService) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.referralRepo.ExpireStaleReferrals(ctx, now)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Expired stale referrals")
	}
	return expired, nil
}

func (s *referralService) transition(ctx context.Context, referral *models.Referral, to models.ReferralStatus, fields map[string]interface{}) error {
	if err := validateReferralTransition(referral.Status, to); err != nil {
		return err
	}
	if err := s.referralRepo.UpdateReferralStatus(ctx, referral.ID, referral.Status, to, fields); err != nil {
		return err
	}

	s.logger.LogReferralEvent(referral.ID, string(to), map[string]interface{}{
		"from":     referral.Status,
		"referrer": referral.Referrer.Key(),
	})
	referral.Status = to
	return nil
}

func (s *referralService) getCustomer(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: customer %s", ErrNotFound, id.Hex())
		}
		return nil, err
	}
	return customer, nil
}

// issuePersonalCode gives the customer a CUS- code. Failures are logged and leave the
// customer without one.
func (s *referralService) issuePersonalCode(ctx context.Context, customer *models.Customer) {
	code, err := s.codes.GenerateCode(ctx, customer.Reference())
	if err != nil {
		s.logger.WithError(err).WithCustomerID(customer.ID).Error("Failed to generate personal referral code")
		return
	}
	if err := s.customerRepo.SetPersonalCode(ctx, customer.ID, code.Code); err != nil {
		s.logger.WithError(err).WithCustomerID(customer.ID).Error("Failed to store personal referral code")
		return
	}
	customer.PersonalReferralCode = code.Code
}

func (s *referralService) afterReferred(ctx context.Context, customer *models.Customer) {
	if err := s.codes.RecordUsage(ctx, customer.ReferralCodeUsed); err != nil {
		s.logger.WithError(err).WithField("code", customer.ReferralCodeUsed).Warn("Failed to record referral code usage")
	}

	if s.notifier != nil {
		go s.notifier.NotifyCustomerReferred(context.WithoutCancel(ctx), customer)
	}
}
