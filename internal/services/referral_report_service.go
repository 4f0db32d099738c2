package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
	"pawtraits/internal/utils"
	"pawtraits/pkg/logger"
	"pawtraits/pkg/storage"
)

const exportPageSize = utils.MaxPageSize

var commissionReportHeader = []string{
	"commission_id", "order_id", "customer_id", "recipient_type", "recipient_id",
	"level", "kind", "order_value", "rate_bps", "amount", "amount_display",
	"currency", "is_paid", "paid_at", "payout_id", "created_at",
}

type ReportService interface {
	GetReferralStats(ctx context.Context, filter models.ReferralFilter) (*models.ReferralStats, error)
	GetOwnerStats(ctx context.Context, owner models.OwnerReference) (*models.OwnerStats, error)
	GetSessionStats(ctx context.Context, session *models.Session) (*models.OwnerStats, error)
	ExportCommissionReport(ctx context.Context, session *models.Session, from, to time.Time) (*models.ReportExport, error)
	InvalidateStats(ctx context.Context)
}

type ReportConfig struct {
	StatsTTL     time.Duration
	ReportPrefix string
	URLExpiry    time.Duration
	Currency     string
}

type reportService struct {
	referralRepo   interfaces.ReferralRepository
	commissionRepo interfaces.CommissionRepository
	customerRepo   interfaces.CustomerRepository
	codeRepo       interfaces.ReferralCodeRepository
	cache          CacheService
	storage        storage.StorageProvider
	config         ReportConfig
	logger         *logger.Logger
	audit          *logger.AuditLogger
	now            func() time.Time
}

func NewReportService(
	referralRepo interfaces.ReferralRepository,
	commissionRepo interfaces.CommissionRepository,
	customerRepo interfaces.CustomerRepository,
	codeRepo interfaces.ReferralCodeRepository,
	cache CacheService,
	store storage.StorageProvider,
	cfg ReportConfig,
	log *logger.Logger,
) ReportService {
	return &reportService{
		referralRepo:   referralRepo,
		commissionRepo: commissionRepo,
		customerRepo:   customerRepo,
		codeRepo:       codeRepo,
		cache:          cache,
		storage:        store,
		config:         cfg,
		logger:         log,
		audit:          logger.NewAuditLoggerFrom(log),
		now:            time.Now,
	}
}

// conversionRate is completed / total, and 0 when there is nothing to convert.
func conversionRate(byStatus map[models.ReferralStatus]int64, total int64) float64 {
	if total <= 0 {
		return 0
	}
	completed := byStatus[models.ReferralStatusPurchased] + byStatus[models.ReferralStatusCredited]
	return float64(completed) / float64(total)
}

// composeReferralStats folds the aggregation results into the dashboard view.
func composeReferralStats(byStatus, byType []models.CountBucket, totals *models.CommissionTotals, now time.Time) *models.ReferralStats {
	stats := &models.ReferralStats{
		ByType:      make(map[models.OwnerType]int64, len(byType)),
		ByStatus:    make(map[models.ReferralStatus]int64, len(byStatus)),
		GeneratedAt: now,
	}

	for _, bucket := range byStatus {
		stats.ByStatus[models.ReferralStatus(bucket.Key)] += bucket.Count
		stats.TotalReferrals += bucket.Count
	}
	for _, bucket := range byType {
		stats.ByType[models.OwnerType(bucket.Key)] += bucket.Count
	}

	if totals != nil {
		stats.TotalCommission = totals.Total
		stats.PendingCommission = totals.Pending
		stats.PaidCommission = totals.Paid
	}

	stats.ConversionRate = conversionRate(stats.ByStatus, stats.TotalReferrals)
	return stats
}

func (s *reportService) GetReferralStats(ctx context.Context, filter models.ReferralFilter) (*models.ReferralStats, error) {
	key := utils.CacheStatsPrefix + "referrals:" + referralFilterKey(filter)

	var cached models.ReferralStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	byStatus, err := s.referralRepo.CountReferralsByStatus(ctx, filter)
	if err != nil {
		return nil, err
	}
	byType, err := s.referralRepo.CountReferralsByType(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.commissionRepo.GetCommissionTotals(ctx, models.CommissionFilter{
		RecipientType: filter.ReferrerType,
		RecipientID:   filter.ReferrerID,
		From:          filter.From,
		To:            filter.To,
	})
	if err != nil {
		return nil, err
	}

	stats := composeReferralStats(byStatus, byType, totals, s.now())
	_ = s.cache.Set(ctx, key, stats, s.config.StatsTTL)
	return stats, nil
}

func (s *reportService) GetOwnerStats(ctx context.Context, owner models.OwnerReference) (*models.OwnerStats, error) {
	key := utils.CacheStatsPrefix + "owner:" + owner.Key()

	var cached models.OwnerStats
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	referralFilter := models.ReferralFilter{ReferrerID: &owner.ID}
	byStatus, err := s.referralRepo.CountReferralsByStatus(ctx, referralFilter)
	if err != nil {
		return nil, err
	}
	totals, err := s.commissionRepo.GetCommissionTotals(ctx, models.CommissionFilter{RecipientID: &owner.ID})
	if err != nil {
		return nil, err
	}
	reach, err := s.customerRepo.CountCustomersByReferrer(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	orders, err := s.commissionRepo.CountOrdersByRecipient(ctx, owner.ID)
	if err != nil {
		return nil, err
	}
	activeCodes, err := s.codeRepo.CountActiveCodesByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	summary := composeReferralStats(byStatus, nil, totals, s.now())
	stats := &models.OwnerStats{
		Owner:             models.OwnerReference{Type: owner.Type, ID: owner.ID},
		CustomersReferred: reach,
		Orders:            orders,
		TotalReferrals:    summary.TotalReferrals,
		TotalCommission:   summary.TotalCommission,
		PendingCommission: summary.PendingCommission,
		PaidCommission:    summary.PaidCommission,
		ConversionRate:    summary.ConversionRate,
		ActiveCodes:       activeCodes,
		GeneratedAt:       summary.GeneratedAt,
	}

	_ = s.cache.Set(ctx, key, stats, s.config.StatsTTL)
	return stats, nil
}

func (s *reportService) GetSessionStats(ctx context.Context, session *models.Session) (*models.OwnerStats, error) {
	owner, ok := session.Owner()
	if !ok {
		return nil, ErrForbidden
	}
	return s.GetOwnerStats(ctx, owner)
}

func (s *reportService) InvalidateStats(ctx context.Context) {
	if _, err := s.cache.DeletePattern(ctx, utils.CacheStatsPrefix+"*"); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate cached stats")
	}
}

// ExportCommissionReport writes every commission record created in [from, to) as CSV
// and uploads it. The returned URL expires after the configured period.
func (s *reportService) ExportCommissionReport(ctx context.Context, session *models.Session, from, to time.Time) (*models.ReportExport, error) {
	if !session.IsAdmin() {
		return nil, ErrForbidden
	}
	if s.storage == nil {
		return nil, fmt.Errorf("report storage is not configured")
	}

	var buf bytes.Buffer
	rows, err := s.writeCommissionCSV(ctx, &buf, from, to)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := fmt.Sprintf("%s/commissions_%s_%s_%d.csv",
		strings.TrimRight(s.config.ReportPrefix, "/"),
		from.UTC().Format("20060102"), to.UTC().Format("20060102"), now.Unix())

	if _, err := s.storage.Upload(ctx, &storage.UploadRequest{
		Key:          key,
		Reader:       bytes.NewReader(buf.Bytes()),
		ContentType:  "text/csv",
		Size:         int64(buf.Len()),
		CacheControl: "private, no-store",
		Metadata: map[string]string{
			"rows": strconv.Itoa(rows),
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to upload commission report: %w", err)
	}

	url, err := s.storage.GetURL(ctx, key, s.config.URLExpiry)
	if err != nil {
		return nil, err
	}

	s.audit.LogAction("export", "commission_report", key, session.ActorID(), map[string]interface{}{
		"from": from,
		"to":   to,
		"rows": rows,
	})

	return &models.ReportExport{
		Key:       key,
		URL:       url,
		Rows:      rows,
		From:      from,
		To:        to,
		CreatedAt: now,
	}, nil
}

func (s *reportService) writeCommissionCSV(ctx context.Context, buf *bytes.Buffer, from, to time.Time) (int, error) {
	w := csv.NewWriter(buf)
	if err := w.Write(commissionReportHeader); err != nil {
		return 0, err
	}

	filter := models.CommissionFilter{From: &from, To: &to}
	params := &utils.PaginationParams{Page: 1, PageSize: exportPageSize, Sort: "created_at", Order: "asc"}

	rows := 0
	for {
		page, total, err := s.commissionRepo.ListCommissions(ctx, filter, params)
		if err != nil {
			return rows, fmt.Errorf("failed to read commissions for report: %w", err)
		}
		for _, c := range page {
			if err := w.Write(s.commissionRecord(c)); err != nil {
				return rows, err
			}
			rows++
		}
		if len(page) == 0 || int64(params.Page*params.PageSize) >= total {
			break
		}
		params.Page++
	}

	w.Flush()
	return rows, w.Error()
}

func (s *reportService) commissionRecord(c *models.Commission) []string {
	currency := c.Currency
	if currency == "" {
		currency = s.config.Currency
	}

	paidAt, payoutID := "", ""
	if c.PaidAt != nil {
		paidAt = c.PaidAt.UTC().Format(time.RFC3339)
	}
	if c.PayoutID != nil {
		payoutID = c.PayoutID.Hex()
	}

	return []string{
		c.ID.Hex(),
		c.OrderID.Hex(),
		c.CustomerID.Hex(),
		string(c.Recipient.Type),
		c.Recipient.ID.Hex(),
		strconv.Itoa(c.Level),
		string(c.Kind),
		strconv.FormatInt(c.OrderValue, 10),
		strconv.FormatInt(c.RateBps, 10),
		strconv.FormatInt(c.Amount, 10),
		utils.FormatMinorUnits(c.Amount, currency),
		currency,
		strconv.FormatBool(c.IsPaid),
		paidAt,
		payoutID,
		c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func referralFilterKey(filter models.ReferralFilter) string {
	parts := []string{"all", "all", "0", "0"}
	if filter.ReferrerType != nil {
		parts[0] = string(*filter.ReferrerType)
	}
	if filter.ReferrerID != nil {
		parts[1] = filter.ReferrerID.Hex()
	}
	if filter.From != nil {
		parts[2] = strconv.FormatInt(filter.From.Unix(), 10)
	}
	if filter.To != nil {
		parts[3] = strconv.FormatInt(filter.To.Unix(), 10)
	}
	if filter.Status != nil {
		parts = append(parts, string(*filter.Status))
	}
	return strings.Join(parts, ":")
}
