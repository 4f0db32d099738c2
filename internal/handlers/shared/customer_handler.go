package handlers

import (
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	referralService services.ReferralService
	creditService   services.CreditService
}

func NewCustomerHandler(referralService services.ReferralService, creditService services.CreditService) *CustomerHandler {
	return &CustomerHandler{
		referralService: referralService,
		creditService:   creditService,
	}
}

// RegisterCustomer creates a customer, optionally attributed through a referral code
func (h *CustomerHandler) RegisterCustomer(c *gin.Context) {
	var req validators.RegisterCustomerRequest
	if !BindJSON(c, &req) {
		return
	}
	req.Name = validators.SanitizeInput(req.Name)

	customer, err := h.referralService.RegisterCustomer(c.Request.Context(), &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Customer registered successfully", customer)
}

func (h *CustomerHandler) ApplyReferralCode(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	customerID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req validators.ApplyReferralCodeRequest
	if !BindJSON(c, &req) {
		return
	}

	customer, err := h.referralService.ApplyReferralCode(c.Request.Context(), session, customerID, req.Code)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Referral code applied", customer)
}

func (h *CustomerHandler) GetAttribution(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	customerID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}

	chain, err := h.referralService.GetAttribution(c.Request.Context(), session, customerID)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Attribution chain retrieved", gin.H{
		"customer_id": customerID,
		"chain":       chain,
		"depth":       chain.Len(),
	})
}

func (h *CustomerHandler) GetCredits(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	customerID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}
	if !session.CanAccessCustomer(customerID) {
		utils.ForbiddenResponse(c)
		return
	}

	balance, err := h.creditService.GetBalance(c.Request.Context(), customerID)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Credit balance retrieved", balance)
}

func (h *CustomerHandler) ListCreditTransactions(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	customerID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}
	if !session.CanAccessCustomer(customerID) {
		utils.ForbiddenResponse(c)
		return
	}

	params := utils.GetPaginationParams(c)
	transactions, total, err := h.creditService.ListTransactions(c.Request.Context(), customerID, params)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Credit transactions retrieved", transactions, params, total)
}

func (h *CustomerHandler) UseCredit(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	customerID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}
	if !session.CanAccessCustomer(customerID) {
		utils.ForbiddenResponse(c)
		return
	}

	var req validators.UseCreditRequest
	if !BindJSON(c, &req) {
		return
	}

	tx, err := h.creditService.UseCredit(c.Request.Context(), session, customerID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Credit applied", tx)
}
