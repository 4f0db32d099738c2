package services

import (
	"context"
	"errors"
	"fmt"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"
	"pawtraits/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OwnerService manages partners and influencers. Each new owner is issued a generated
// referral code.
type OwnerService interface {
	CreatePartner(ctx context.Context, session *models.Session, req *validators.CreatePartnerRequest) (*models.Partner, *models.ReferralCode, error)
	GetPartner(ctx context.Context, id primitive.ObjectID) (*models.Partner, error)
	ListPartners(ctx context.Context, params *utils.PaginationParams) ([]*models.Partner, int64, error)

	CreateInfluencer(ctx context.Context, session *models.Session, req *validators.CreateInfluencerRequest) (*models.Influencer, *models.ReferralCode, error)
	GetInfluencer(ctx context.Context, id primitive.ObjectID) (*models.Influencer, error)
	ListInfluencers(ctx context.Context, params *utils.PaginationParams) ([]*models.Influencer, int64, error)
}

type ownerService struct {
	partnerRepo    interfaces.PartnerRepository
	influencerRepo interfaces.InfluencerRepository
	codes          ReferralCodeService
	logger         *logger.Logger
	audit          *logger.AuditLogger
}

func NewOwnerService(
	partnerRepo interfaces.PartnerRepository,
	influencerRepo interfaces.InfluencerRepository,
	codes ReferralCodeService,
	log *logger.Logger,
) OwnerService {
	return &ownerService{
		partnerRepo:    partnerRepo,
		influencerRepo: influencerRepo,
		codes:          codes,
		logger:         log,
		audit:          logger.NewAuditLoggerFrom(log),
	}
}

func (s *ownerService) CreatePartner(ctx context.Context, session *models.Session, req *validators.CreatePartnerRequest) (*models.Partner, *models.ReferralCode, error) {
	partner := &models.Partner{
		BusinessName:      validators.SanitizeInput(req.BusinessName),
		BusinessType:      models.PartnerBusinessType(req.BusinessType),
		ContactName:       validators.SanitizeInput(req.ContactName),
		Email:             utils.NormalizeEmail(req.Email),
		Phone:             utils.NormalizePhone(req.Phone),
		CommissionRateBps: req.CommissionRateBps,
		PayoutProvider:    req.PayoutProvider,
		PayoutAccount:     req.PayoutAccount,
		IsActive:          true,
	}
	if partner.BusinessType == "" {
		partner.BusinessType = models.PartnerBusinessOther
	}

	if err := s.partnerRepo.CreatePartner(ctx, partner); err != nil {
		return nil, nil, fmt.Errorf("failed to create partner: %w", err)
	}

	code, err := s.codes.GenerateCode(ctx, partner.Reference())
	if err != nil {
		return partner, nil, fmt.Errorf("partner created but code generation failed: %w", err)
	}

	s.audit.LogAction("create", "partner", partner.ID.Hex(), session.ActorID(), map[string]interface{}{
		"business_name": partner.BusinessName,
		"rate_bps":      partner.CommissionRateBps,
		"code":          code.Code,
	})
	return partner, code, nil
}

func (s *ownerService) GetPartner(ctx context.Context, id primitive.ObjectID) (*models.Partner, error) {
	partner, err := s.partnerRepo.GetPartnerByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: partner %s", ErrOwnerNotFound, id.Hex())
		}
		return nil, err
	}
	return partner, nil
}

func (s *ownerService) ListPartners(ctx context.Context, params *utils.PaginationParams) ([]*models.Partner, int64, error) {
	return s.partnerRepo.ListPartners(ctx, params)
}

func (s *ownerService) CreateInfluencer(ctx context.Context, session *models.Session, req *validators.CreateInfluencerRequest) (*models.Influencer, *models.ReferralCode, error) {
	influencer := &models.Influencer{
		Name:              validators.SanitizeInput(req.Name),
		Handle:            validators.SanitizeInput(req.Handle),
		Platform:          req.Platform,
		Email:             utils.NormalizeEmail(req.Email),
		Phone:             utils.NormalizePhone(req.Phone),
		CommissionRateBps: req.CommissionRateBps,
		PayoutProvider:    req.PayoutProvider,
		PayoutAccount:     req.PayoutAccount,
		IsActive:          true,
	}

	if err := s.influencerRepo.CreateInfluencer(ctx, influencer); err != nil {
		return nil, nil, fmt.Errorf("failed to create influencer: %w", err)
	}

	code, err := s.codes.GenerateCode(ctx, influencer.Reference())
	if err != nil {
		return influencer, nil, fmt.Errorf("influencer created but code generation failed: %w", err)
	}

	s.audit.LogAction("create", "influencer", influencer.ID.Hex(), session.ActorID(), map[string]interface{}{
		"name":     influencer.Name,
		"rate_bps": influencer.CommissionRateBps,
		"code":     code.Code,
	})
	return influencer, code, nil
}

func (s *ownerService) GetInfluencer(ctx context.Context, id primitive.ObjectID) (*models.Influencer, error) {
	influencer, err := s.influencerRepo.GetInfluencerByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: influencer %s", ErrOwnerNotFound, id.Hex())
		}
		return nil, err
	}
	return influencer, nil
}

func (s *ownerService) ListInfluencers(ctx context.Context, params *utils.PaginationParams) ([]*models.Influencer, int64, error) {
	return s.influencerRepo.ListInfluencers(ctx, params)
}
