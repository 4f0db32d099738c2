package services

import (
	"errors"
)

// Registry errors
var (
	ErrCodeNotFound = errors.New("referral code not found")
	ErrCodeExpired  = errors.New("referral code expired")
	ErrCodeInactive = errors.New("referral code inactive")
	ErrCodeExists   = errors.New("referral code already exists")
)

var (
	ErrNotFound                = errors.New("not found")
	ErrOwnerNotFound           = errors.New("referral owner not found")
	ErrInsufficientBalance     = errors.New("insufficient credit balance")
	ErrSelfReferral            = errors.New("customer cannot refer themselves")
	ErrReferralCycle           = errors.New("referral would create a cycle")
	ErrAlreadyReferred         = errors.New("customer already has a referrer")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrNothingToPay            = errors.New("no unpaid commission to pay out")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrPayoutNotConfigured     = errors.New("recipient has no payout account")
	ErrForbidden               = errors.New("operation not permitted for session")
	ErrCustomerExists          = errors.New("customer with this email already exists")
	ErrReferralExpired         = errors.New("referral invitation expired")
	ErrBelowMinimumPayout      = errors.New("unpaid commission is below the minimum payout")
	ErrPayoutInProgress        = errors.New("a payout for this recipient is already in progress")
	ErrPayoutFailed            = errors.New("payout transfer failed")
	ErrPayoutUnsettled         = errors.New("a transferred payout for this recipient needs reconciliation")
)

// Warnings. These classify work that was skipped and are logged, never returned to callers.
var (
	ErrPartialAttribution       = errors.New("attribution chain stopped at a broken link")
	ErrMissingRateConfiguration = errors.New("no commission rate configured")
)

// IsCodeUnusable reports whether err means a referral code cannot grant attribution.
func IsCodeUnusable(err error) bool {
	return errors.Is(err, ErrCodeNotFound) || errors.Is(err, ErrCodeExpired) || errors.Is(err, ErrCodeInactive)
}
