package handlers

import (
	"net/http"

	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReferralCodeHandler struct {
	codeService services.ReferralCodeService
}

func NewReferralCodeHandler(codeService services.ReferralCodeService) *ReferralCodeHandler {
	return &ReferralCodeHandler{
		codeService: codeService,
	}
}

type publicCodeResponse struct {
	Code              string           `json:"code"`
	OwnerType         models.OwnerType `json:"owner_type"`
	CommissionRateBps int64            `json:"commission_rate_bps,omitempty"`
	ShareURL          string           `json:"share_url"`
}

// GetCode exposes whether a code is usable. Owner identities are not disclosed.
func (h *ReferralCodeHandler) GetCode(c *gin.Context) {
	code := c.Param("code")

	owner, err := h.codeService.ResolveCode(c.Request.Context(), code)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral code is valid", publicCodeResponse{
		Code:              code,
		OwnerType:         owner.Type,
		CommissionRateBps: owner.CommissionRateBps,
		ShareURL:          h.codeService.ShareURL(code),
	})
}

func (h *ReferralCodeHandler) QRCode(c *gin.Context) {
	png, err := h.codeService.QRCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		RespondError(c, err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
