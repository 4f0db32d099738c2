package services

import (
	"context"
	"errors"
	"fmt"

	"pawtraits/internal/models"
	"pawtraits/internal/repositories/interfaces"
)

// OwnerProfile is the typed view of a referral owner shared by the registry, the
// resolver, payouts and notifications.
type OwnerProfile struct {
	Reference      models.OwnerReference
	Name           string
	Email          string
	Phone          string
	IsActive       bool
	PayoutProvider string
	PayoutAccount  string
	// Referrer is only set for customers that were referred.
	Referrer *models.OwnerReference
}

type OwnerDirectory interface {
	GetOwner(ctx context.Context, ref models.OwnerReference) (*OwnerProfile, error)
}

type ownerDirectory struct {
	partners    interfaces.PartnerRepository
	influencers interfaces.InfluencerRepository
	customers   interfaces.CustomerRepository
}

func NewOwnerDirectory(
	partners interfaces.PartnerRepository,
	influencers interfaces.InfluencerRepository,
	customers interfaces.CustomerRepository,
) OwnerDirectory {
	return &ownerDirectory{
		partners:    partners,
		influencers: influencers,
		customers:   customers,
	}
}

// GetOwner returns ErrOwnerNotFound for unknown owner types and missing records.
func (d *ownerDirectory) GetOwner(ctx context.Context, ref models.OwnerReference) (*OwnerProfile, error) {
	if ref.IsZero() {
		return nil, ErrOwnerNotFound
	}

	switch ref.Type {
	case models.OwnerTypePartner:
		partner, err := d.partners.GetPartnerByID(ctx, ref.ID)
		if err != nil {
			return nil, ownerLookupError(ref, err)
		}
		return &OwnerProfile{
			Reference:      partner.Reference(),
			Name:           partner.BusinessName,
			Email:          partner.Email,
			Phone:          partner.Phone,
			IsActive:       partner.IsActive,
			PayoutProvider: partner.PayoutProvider,
			PayoutAccount:  partner.PayoutAccount,
		}, nil

	case models.OwnerTypeInfluencer:
		influencer, err := d.influencers.GetInfluencerByID(ctx, ref.ID)
		if err != nil {
			return nil, ownerLookupError(ref, err)
		}
		return &OwnerProfile{
			Reference:      influencer.Reference(),
			Name:           influencer.Name,
			Email:          influencer.Email,
			Phone:          influencer.Phone,
			IsActive:       influencer.IsActive,
			PayoutProvider: influencer.PayoutProvider,
			PayoutAccount:  influencer.PayoutAccount,
		}, nil

	case models.OwnerTypeCustomer:
		customer, err := d.customers.GetCustomerByID(ctx, ref.ID)
		if err != nil {
			return nil, ownerLookupError(ref, err)
		}
		profile := &OwnerProfile{
			Reference: customer.Reference(),
			Name:      customer.Name,
			Email:     customer.Email,
			Phone:     customer.Phone,
			IsActive:  true,
		}
		if customer.HasReferrer() {
			referrer := *customer.Referrer
			profile.Referrer = &referrer
		}
		return profile, nil
	}

	return nil, fmt.Errorf("%w: unknown owner type %q", ErrOwnerNotFound, ref.Type)
}

func ownerLookupError(ref models.OwnerReference, err error) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrOwnerNotFound, ref.Key())
	}
	return fmt.Errorf("failed to load %s: %w", ref.Key(), err)
}
