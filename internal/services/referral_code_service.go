package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"pawtraits/internal/config"
	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"
	"pawtraits/pkg/logger"
	"pawtraits/pkg/qrcode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxCodeGenerationAttempts = 5

type ReferralCodeService interface {
	// Lookup
	ResolveCode(ctx context.Context, code string) (*models.OwnerReference, error)
	GetCode(ctx context.Context, code string) (*models.ReferralCode, error)
	ListCodes(ctx context.Context, ownerType *models.OwnerType, params *utils.PaginationParams) ([]*models.ReferralCode, int64, error)
	ListOwnerCodes(ctx context.Context, ownerID primitive.ObjectID) ([]*models.ReferralCode, error)

	// Management
	CreateCode(ctx context.Context, session *models.Session, req *validators.CreateReferralCodeRequest) (*models.ReferralCode, error)
	GenerateCode(ctx context.Context, owner models.OwnerReference) (*models.ReferralCode, error)
	DeactivateCode(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.ReferralCode, error)
	RecordUsage(ctx context.Context, code string) error

	// Sharing
	QRCode(ctx context.Context, code string) ([]byte, error)
	ShareURL(code string) string
}

type referralCodeService struct {
	codeRepo  interfaces.ReferralCodeRepository
	directory OwnerDirectory
	cache     CacheService
	qr        *qrcode.Generator
	config    *config.ReferralConfig
	storeURL  string
	logger    *logger.Logger
	audit     *logger.AuditLogger
	now       func() time.Time
}

func NewReferralCodeService(
	cfg *config.Config,
	codeRepo interfaces.ReferralCodeRepository,
	directory OwnerDirectory,
	cache CacheService,
	log *logger.Logger,
) ReferralCodeService {
	return &referralCodeService{
		codeRepo:  codeRepo,
		directory: directory,
		cache:     cache,
		qr:        qrcode.NewGenerator(cfg.Referral.QRCodeSize),
		config:    cfg.Referral,
		storeURL:  strings.TrimRight(cfg.App.StoreURL, "/"),
		logger:    log,
		audit:     logger.NewAuditLoggerFrom(log),
		now:       time.Now,
	}
}

// ResolveCode is an exact, case-sensitive lookup with no side effects.
func (s *referralCodeService) ResolveCode(ctx context.Context, code string) (*models.OwnerReference, error) {
	rc, err := s.GetCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !rc.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrCodeInactive, code)
	}
	if rc.IsExpired(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrCodeExpired, code)
	}

	owner := rc.OwnerWithRate()
	return &owner, nil
}

func (s *referralCodeService) GetCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	if code == "" {
		return nil, ErrCodeNotFound
	}

	rc, err := s.lookupCode(ctx, code)
	if err != nil {
		return nil, err
	}

	// Guard against a cache or collation returning a case-folded match
	if rc.Code != code {
		return nil, fmt.Errorf("%w: %s", ErrCodeNotFound, code)
	}

	return rc, nil
}

// lookupCode reads through the code cache. Misses are not cached.
func (s *referralCodeService) lookupCode(ctx context.Context, code string) (*models.ReferralCode, error) {
	key := utils.CacheReferralCodePrefix + code

	var cached models.ReferralCode
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	rc, err := s.codeRepo.GetCodeByString(ctx, code)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCodeNotFound, code)
		}
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}

	_ = s.cache.Set(ctx, key, rc, s.config.CodeCacheTTL)
	return rc, nil
}

func (s *referralCodeService) ListCodes(ctx context.Context, ownerType *models.OwnerType, params *utils.PaginationParams) ([]*models.ReferralCode, int64, error) {
	return s.codeRepo.ListCodes(ctx, ownerType, params)
}

func (s *referralCodeService) ListOwnerCodes(ctx context.Context, ownerID primitive.ObjectID) ([]*models.ReferralCode, error) {
	return s.codeRepo.GetCodesByOwner(ctx, ownerID)
}

func (s *referralCodeService) CreateCode(ctx context.Context, session *models.Session, req *validators.CreateReferralCodeRequest) (*models.ReferralCode, error) {
	ownerID, err := primitive.ObjectIDFromHex(req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid owner id", ErrOwnerNotFound)
	}
	owner := models.OwnerReference{Type: models.OwnerType(req.OwnerType), ID: ownerID}

	profile, err := s.directory.GetOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	code := &models.ReferralCode{
		Code:              req.Code,
		Owner:             models.OwnerReference{Type: owner.Type, ID: owner.ID},
		CommissionRateBps: req.CommissionRateBps,
		IsActive:          true,
		ExpiresAt:         req.ExpiresAt,
		CreatedBy:         session.ActorID(),
	}
	if code.CommissionRateBps == 0 {
		code.CommissionRateBps = profile.Reference.CommissionRateBps
	}

	if req.Code == "" {
		err = s.insertGenerated(ctx, code)
	} else {
		err = s.insertExplicit(ctx, code)
	}
	if err != nil {
		return nil, err
	}

	s.audit.LogAction("create", "referral_code", code.ID.Hex(), session.ActorID(), map[string]interface{}{
		"code":       code.Code,
		"owner_type": code.Owner.Type,
		"owner_id":   code.Owner.ID.Hex(),
		"rate_bps":   code.CommissionRateBps,
	})

	return code, nil
}

// GenerateCode issues a fresh PREFIX-XXXXXX code for an owner that already exists.
func (s *referralCodeService) GenerateCode(ctx context.Context, owner models.OwnerReference) (*models.ReferralCode, error) {
	code := &models.ReferralCode{
		Owner:             models.OwnerReference{Type: owner.Type, ID: owner.ID},
		CommissionRateBps: owner.CommissionRateBps,
		IsActive:          true,
	}
	if err := s.insertGenerated(ctx, code); err != nil {
		return nil, err
	}
	return code, nil
}

func (s *referralCodeService) insertExplicit(ctx context.Context, code *models.ReferralCode) error {
	// The unique index on code is the final arbiter.
	exists, err := s.codeRepo.CodeExists(ctx, code.Code)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrCodeExists, code.Code)
	}

	if err := s.codeRepo.CreateCode(ctx, code); err != nil {
		if errors.Is(err, interfaces.ErrDuplicateKey) {
			return fmt.Errorf("%w: %s", ErrCodeExists, code.Code)
		}
		return err
	}
	return nil
}

func (s *referralCodeService) insertGenerated(ctx context.Context, code *models.ReferralCode) error {
	prefix := code.Owner.Type.CodePrefix()
	for attempt := 1; attempt <= maxCodeGenerationAttempts; attempt++ {
		code.Code = utils.GenerateReferralCode(prefix, s.config.CodeLength)

		err := s.codeRepo.CreateCode(ctx, code)
		if err == nil {
			return nil
		}
		if !errors.Is(err, interfaces.ErrDuplicateKey) {
			return err
		}

		s.logger.WithFields(map[string]interface{}{
			"code":    code.Code,
			"attempt": attempt,
		}).Debug("Generated referral code collided, retrying")
	}

	return fmt.Errorf("failed to generate a unique referral code after %d attempts", maxCodeGenerationAttempts)
}

func (s *referralCodeService) DeactivateCode(ctx context.Context, session *models.Session, id primitive.ObjectID) (*models.ReferralCode, error) {
	code, err := s.codeRepo.SetCodeActive(ctx, id, false)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	if err := s.cache.Delete(ctx, utils.CacheReferralCodePrefix+code.Code); err != nil {
		s.logger.WithError(err).WithField("code", code.Code).Warn("Failed to evict deactivated code from cache")
	}

	s.audit.LogAction("deactivate", "referral_code", id.Hex(), session.ActorID(), map[string]interface{}{
		"code": code.Code,
	})
	return code, nil
}

func (s *referralCodeService) RecordUsage(ctx context.Context, code string) error {
	if err := s.codeRepo.IncrementUsage(ctx, code); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	return nil
}

func (s *referralCodeService) ShareURL(code string) string {
	return fmt.Sprintf("%s/?ref=%s", s.storeURL, url.QueryEscape(code))
}

// QRCode renders the share link of an existing code. Inactive and expired codes are
// rejected so printed material never points at a dead code.
func (s *referralCodeService) QRCode(ctx context.Context, code string) ([]byte, error) {
	if _, err := s.ResolveCode(ctx, code); err != nil {
		return nil, err
	}
	return s.qr.PNG(s.ShareURL(code))
}
