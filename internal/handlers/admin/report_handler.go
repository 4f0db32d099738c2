package admin

import (
	"time"

	shared "pawtraits/internal/handlers/shared"
	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService   services.ReportService
	referralService services.ReferralService
}

func NewReportHandler(reportService services.ReportService, referralService services.ReferralService) *ReportHandler {
	return &ReportHandler{
		reportService:   reportService,
		referralService: referralService,
	}
}

func (h *ReportHandler) ReferralStats(c *gin.Context) {
	var query validators.StatsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequestResponse(c, "Invalid query: "+err.Error())
		return
	}
	if errs := validators.ValidateStatsQuery(&query); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	filter := models.ReferralFilter{From: query.From, To: query.To}
	if query.OwnerType != "" {
		ownerType := models.OwnerType(query.OwnerType)
		filter.ReferrerType = &ownerType
	}

	stats, err := h.reportService.GetReferralStats(c.Request.Context(), filter)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral stats retrieved", stats)
}

func (h *ReportHandler) ListReferrals(c *gin.Context) {
	var filter models.ReferralFilter
	if raw := c.Query("status"); raw != "" {
		status := models.ReferralStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("referrer_type"); raw != "" {
		ownerType := models.OwnerType(raw)
		if !ownerType.IsValid() {
			utils.BadRequestResponse(c, "Invalid referrer_type")
			return
		}
		filter.ReferrerType = &ownerType
	}

	params := utils.GetPaginationParams(c)
	referrals, total, err := h.referralService.ListReferrals(c.Request.Context(), filter, params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Referrals retrieved", referrals, params, total)
}

// ExportCommissions writes a CSV of commissions in the range to report storage
func (h *ReportHandler) ExportCommissions(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}

	var req validators.ExportReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return
	}
	if errs := validators.ValidateExportReport(&req); len(errs) > 0 {
		utils.ValidationErrorResponse(c, errs.ToMap())
		return
	}

	export, err := h.reportService.ExportCommissionReport(c.Request.Context(), session, req.From, req.To)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Commission report exported", export)
}

func (h *ReportHandler) ExpireReferrals(c *gin.Context) {
	expired, err := h.referralService.ExpireStale(c.Request.Context(), time.Now())
	if err != nil {
		shared.RespondError(c, err)
		return
	}
	if expired > 0 {
		h.reportService.InvalidateStats(c.Request.Context())
	}

	utils.SuccessResponse(c, "Stale referrals expired", gin.H{"expired": expired})
}
