package payment

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider pays out through Stripe Connect transfers.
type StripeProvider struct {
	client *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	return &StripeProvider{client: sc}
}

func (s *StripeProvider) Name() string {
	return "stripe"
}

func (s *StripeProvider) Transfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(request.Amount),
		Currency:    stripe.String(strings.ToLower(request.Currency)),
		Destination: stripe.String(request.Destination),
		Description: stripe.String(request.Description),
	}
	params.Context = ctx

	if request.IdempotencyKey != "" {
		params.SetIdempotencyKey(request.IdempotencyKey)
	}

	for key, value := range request.Metadata {
		params.AddMetadata(key, value)
	}

	tr, err := s.client.Transfers.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe transfer: %w", err)
	}

	status := "paid"
	if tr.Reversed {
		status = "reversed"
	}

	return &TransferResponse{
		TransferID: tr.ID,
		Status:     status,
		Amount:     tr.Amount,
		Currency:   strings.ToUpper(string(tr.Currency)),
		CreatedAt:  tr.Created,
	}, nil
}
