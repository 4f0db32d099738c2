package payment

import (
	"context"
	"errors"
)

var ErrProviderNotConfigured = errors.New("payout provider not configured")

// PayoutProvider moves money from the platform account to a connected recipient account.
type PayoutProvider interface {
	Transfer(ctx context.Context, request *TransferRequest) (*TransferResponse, error)
	Name() string
}

type TransferRequest struct {
	// Destination is the provider's connected account id (acct_... or acc_...).
	Destination    string            `json:"destination"`
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Description    string            `json:"description"`
	IdempotencyKey string            `json:"idempotency_key"`
	Metadata       map[string]string `json:"metadata"`
}

type TransferResponse struct {
	TransferID string `json:"transfer_id"`
	Status     string `json:"status"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	CreatedAt  int64  `json:"created_at"`
}

// Registry resolves providers by name.
type Registry struct {
	providers map[string]PayoutProvider
	fallback  string
}

func NewRegistry(fallback string, providers ...PayoutProvider) *Registry {
	r := &Registry{
		providers: make(map[string]PayoutProvider, len(providers)),
		fallback:  fallback,
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Len reports how many providers are registered.
func (r *Registry) Len() int {
	return len(r.providers)
}

// Get returns the named provider, or the fallback provider when name is empty.
func (r *Registry) Get(name string) (PayoutProvider, error) {
	if name == "" {
		name = r.fallback
	}
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	return p, nil
}
