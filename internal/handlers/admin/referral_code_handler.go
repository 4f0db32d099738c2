package admin

import (
	shared "pawtraits/internal/handlers/shared"
	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

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

func (h *ReferralCodeHandler) CreateCode(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}

	var req validators.CreateReferralCodeRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	code, err := h.codeService.CreateCode(c.Request.Context(), session, &req)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Referral code created", code)
}

func (h *ReferralCodeHandler) DeactivateCode(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	code, err := h.codeService.DeactivateCode(c.Request.Context(), session, id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral code deactivated", code)
}

// ListCodes lists codes, optionally narrowed by ?owner_type=
func (h *ReferralCodeHandler) ListCodes(c *gin.Context) {
	var ownerType *models.OwnerType
	if raw := c.Query("owner_type"); raw != "" {
		t := models.OwnerType(raw)
		if !t.IsValid() {
			utils.BadRequestResponse(c, "Invalid owner_type")
			return
		}
		ownerType = &t
	}

	params := utils.GetPaginationParams(c)
	codes, total, err := h.codeService.ListCodes(c.Request.Context(), ownerType, params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Referral codes retrieved", codes, params, total)
}
