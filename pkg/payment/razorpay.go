package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/razorpay/razorpay-go"
)

// RazorpayProvider pays out through Razorpay Route direct transfers.
type RazorpayProvider struct {
	client *razorpay.Client
}

func NewRazorpayProvider(keyID, keySecret string) *RazorpayProvider {
	return &RazorpayProvider{
		client: razorpay.NewClient(keyID, keySecret),
	}
}

func (r *RazorpayProvider) Name() string {
	return "razorpay"
}

func (r *RazorpayProvider) Transfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]interface{}, len(request.Metadata))
	for key, value := range request.Metadata {
		notes[key] = value
	}

	data := map[string]interface{}{
		"account":  request.Destination,
		"amount":   request.Amount,
		"currency": strings.ToUpper(request.Currency),
		"notes":    notes,
	}

	headers := map[string]string{}
	if request.IdempotencyKey != "" {
		headers["X-Razorpay-Idempotency"] = request.IdempotencyKey
	}

	transfer, err := r.client.Transfer.Create(data, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay transfer: %w", err)
	}

	return &TransferResponse{
		TransferID: stringField(transfer, "id"),
		Status:     "processed",
		Amount:     int64Field(transfer, "amount"),
		Currency:   stringField(transfer, "currency"),
		CreatedAt:  int64Field(transfer, "created_at"),
	}, nil
}

// The razorpay client decodes responses into generic maps, so numbers arrive as float64.
func int64Field(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
