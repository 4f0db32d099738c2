package admin

import (
	shared "pawtraits/internal/handlers/shared"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
)

type CreditHandler struct {
	creditService services.CreditService
}

func NewCreditHandler(creditService services.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// AdjustCredit posts a manual ledger entry for the customer in the path
func (h *CreditHandler) AdjustCredit(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}
	customerID, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req validators.AdjustCreditRequest
	if !shared.BindJSON(c, &req) {
		return
	}
	req.Description = validators.SanitizeInput(req.Description)

	tx, err := h.creditService.AdjustCredit(c.Request.Context(), session, customerID, &req)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Credit adjusted", tx)
}
