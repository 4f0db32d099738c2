package handlers

import (
	"pawtraits/internal/models"
	"pawtraits/internal/services"
	"pawtraits/internal/utils"
	"pawtraits/internal/validators"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orderService services.OrderService
}

func NewOrderHandler(orderService services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}

	var req validators.CreateOrderRequest
	if !BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), session, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.CreatedResponse(c, "Order created successfully", order)
}

// GetOrder returns the order with the commissions it produced
func (h *OrderHandler) GetOrder(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	orderID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), session, orderID)
	if err != nil {
		RespondError(c, err)
		return
	}

	response := gin.H{"order": order}
	if session.IsAdmin() {
		commissions, err := h.orderService.GetOrderCommissions(c.Request.Context(), orderID)
		if err != nil {
			RespondError(c, err)
			return
		}
		response["commissions"] = commissions
	}

	utils.SuccessResponse(c, "Order retrieved", response)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	session, ok := RequireSession(c)
	if !ok {
		return
	}
	orderID, ok := ParamObjectID(c, "id")
	if !ok {
		return
	}

	var req validators.UpdateOrderStatusRequest
	if !BindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), session, orderID, models.OrderStatus(req.Status))
	if err != nil {
		RespondError(c, err)
		return
	}

	utils.SuccessResponse(c, "Order status updated", order)
}
