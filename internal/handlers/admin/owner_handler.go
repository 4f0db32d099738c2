package admin

import (
	shared "pawtraits/internal/handlers/shared"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
)

type OwnerHandler struct {
	ownerService services.OwnerService
}

func NewOwnerHandler(ownerService services.OwnerService) *OwnerHandler {
	return &OwnerHandler{
		ownerService: ownerService,
	}
}

// CreatePartner registers a business partner together with its first referral code
func (h *OwnerHandler) CreatePartner(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}

	var req validators.CreatePartnerRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	partner, code, err := h.ownerService.CreatePartner(c.Request.Context(), session, &req)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Partner created successfully", gin.H{
		"partner":       partner,
		"referral_code": code,
	})
}

func (h *OwnerHandler) GetPartner(c *gin.Context) {
	id, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	partner, err := h.ownerService.GetPartner(c.Request.Context(), id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Partner retrieved", partner)
}

func (h *OwnerHandler) ListPartners(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	partners, total, err := h.ownerService.ListPartners(c.Request.Context(), params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Partners retrieved", partners, params, total)
}

func (h *OwnerHandler) CreateInfluencer(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}

	var req validators.CreateInfluencerRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	influencer, code, err := h.ownerService.CreateInfluencer(c.Request.Context(), session, &req)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Influencer created successfully", gin.H{
		"influencer":    influencer,
		"referral_code": code,
	})
}

func (h *OwnerHandler) GetInfluencer(c *gin.Context) {
	id, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	influencer, err := h.ownerService.GetInfluencer(c.Request.Context(), id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Influencer retrieved", influencer)
}

func (h *OwnerHandler) ListInfluencers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	influencers, total, err := h.ownerService.ListInfluencers(c.Request.Context(), params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Influencers retrieved", influencers, params, total)
}
