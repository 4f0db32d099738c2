package admin

import (
	"errors"
	"strconv"
	"time"

	shared "pawtraits/internal/handlers/shared"
	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommissionHandler struct {
	payoutService services.PayoutService
}

func NewCommissionHandler(payoutService services.PayoutService) *CommissionHandler {
	return &CommissionHandler{
		payoutService: payoutService,
	}
}

func (h *CommissionHandler) ListCommissions(c *gin.Context) {
	filter, err := commissionFilterFromQuery(c)
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}

	params := utils.GetPaginationParams(c)
	commissions, total, err := h.payoutService.ListCommissions(c.Request.Context(), filter, params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Commissions retrieved", commissions, params, total)
}

// MarkPaid settles a single commission outside a provider payout
func (h *CommissionHandler) MarkPaid(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	commission, err := h.payoutService.MarkCommissionPaid(c.Request.Context(), session, id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Commission marked as paid", commission)
}

func (h *CommissionHandler) CreatePayout(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}

	var req validators.CreatePayoutRequest
	if !shared.BindJSON(c, &req) {
		return
	}

	payout, err := h.payoutService.CreatePayout(c.Request.Context(), session, &req)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Payout completed", payout)
}

func (h *CommissionHandler) GetPayout(c *gin.Context) {
	id, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	payout, err := h.payoutService.GetPayout(c.Request.Context(), id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payout retrieved", payout)
}

// ReconcilePayout settles the commissions of a payout the provider already transferred
func (h *CommissionHandler) ReconcilePayout(c *gin.Context) {
	session, ok := shared.RequireSession(c)
	if !ok {
		return
	}
	id, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	payout, err := h.payoutService.ReconcilePayout(c.Request.Context(), session, id)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payout reconciled", payout)
}

func (h *CommissionHandler) ListRecipientPayouts(c *gin.Context) {
	recipientID, ok := shared.ParamObjectID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	payouts, total, err := h.payoutService.ListRecipientPayouts(c.Request.Context(), recipientID, params)
	if err != nil {
		shared.RespondError(c, err)
		return
	}

	utils.PaginatedResponse(c, "Payouts retrieved", payouts, params, total)
}

func commissionFilterFromQuery(c *gin.Context) (models.CommissionFilter, error) {
	var filter models.CommissionFilter

	if raw := c.Query("recipient_type"); raw != "" {
		t := models.OwnerType(raw)
		if !t.IsValid() {
			return filter, errors.New("Invalid recipient_type")
		}
		filter.RecipientType = &t
	}
	if raw := c.Query("recipient_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filter, errors.New("Invalid recipient_id")
		}
		filter.RecipientID = &id
	}
	if raw := c.Query("order_id"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return filter, errors.New("Invalid order_id")
		}
		filter.OrderID = &id
	}
	if raw := c.Query("is_paid"); raw != "" {
		paid, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, errors.New("Invalid is_paid")
		}
		filter.IsPaid = &paid
	}
	if raw := c.Query("kind"); raw != "" {
		kind := models.CommissionKind(raw)
		if kind != models.CommissionKindCommission && kind != models.CommissionKindAdjustment {
			return filter, errors.New("Invalid kind")
		}
		filter.Kind = &kind
	}

	var err error
	if filter.From, err = queryDate(c, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		return filter, err
	}

	return filter, nil
}

func queryDate(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, errors.New("Invalid " + name + ", expected YYYY-MM-DD")
	}
	return &t, nil
}
