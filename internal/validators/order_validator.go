package validators

type CreateOrderRequest struct {
	CustomerID   string `json:"customer_id" validate:"required,object_id"`
	TotalValue   int64  `json:"total_value" validate:"min=0"`
	Currency     string `json:"currency" validate:"omitempty,currency_code"`
	ReferralCode string `json:"referral_code" validate:"omitempty,referral_code"`
	ExternalRef  string `json:"external_ref" validate:"omitempty,max=64"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled refunded"`
}
