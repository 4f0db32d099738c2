package handlers

import (
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralService services.ReferralService
	reportService   services.ReportService
}

func NewReferralHandler(referralService services.ReferralService, reportService services.ReportService) *ReferralHandler {
	return &ReferralHandler{
		referralService: referralService,
		reportService:   reportService,
	}
}

// CreateReferral records an invitation sent with one of the caller's codes
func (h *ReferralHandler) CreateReferral(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}

	var req validators.CreateReferralRequest
	if !BindJSON(c, &req) {
		return
	}

	referral, err := h.referralService.CreateReferral(c.Request.Context(), session, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Referral created", referral)
}

func (h *ReferralHandler) MarkViewed(c *gin.Context) {
	referralID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}

	referral, err := h.referralService.MarkViewed(c.Request.Context(), referralID)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral marked as viewed", referral)
}

// MyStats returns the dashboard numbers for the caller's own referral activity
func (h *ReferralHandler) MyStats(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}

	stats, err := h.reportService.GetSessionStats(c.Request.Context(), session)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral stats retrieved", stats)
}
