package utils

import "time"

// Application Constants
const (
	AppName    = "Pawtraits"
	AppVersion = "1.0.0"

	// Default values
	DefaultCurrency = "GBP"
	DefaultTimeZone = "UTC"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	JWTAccessTokenTTL = 24 * time.Hour

	// Referral
	BasisPointsDenominator = 10000
	MaxBasisPoints         = 10000
	ReferralCodeMaxLength  = 32
)

// Roles carried in access tokens
const (
	RoleCustomer   = "customer"
	RolePartner    = "partner"
	RoleInfluencer = "influencer"
	RoleAdmin      = "admin"
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInvalidInput     = "invalid input"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrValidationFailed = "validation failed"
	ErrTooManyRequests  = "too many requests"
)

// Error Codes
const (
	CodeValidationError       = "VALIDATION_ERROR"
	CodeBadRequest            = "BAD_REQUEST"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeUnauthorized          = "UNAUTHORIZED"
	CodeForbidden             = "FORBIDDEN"
	CodeRateLimited           = "RATE_LIMITED"
	CodeReferralCodeNotFound  = "REFERRAL_CODE_NOT_FOUND"
	CodeReferralCodeExpired   = "REFERRAL_CODE_EXPIRED"
	CodeReferralCodeInactive  = "REFERRAL_CODE_INACTIVE"
	CodeReferralCodeExists    = "REFERRAL_CODE_EXISTS"
	CodeOwnerNotFound         = "OWNER_NOT_FOUND"
	CodeInsufficientBalance   = "INSUFFICIENT_BALANCE"
	CodeSelfReferral          = "SELF_REFERRAL"
	CodeReferralCycle         = "REFERRAL_CYCLE"
	CodeAlreadyReferred       = "ALREADY_REFERRED"
	CodeInvalidTransition     = "INVALID_STATUS_TRANSITION"
	CodeNothingToPay          = "NOTHING_TO_PAY"
	CodePayoutProviderFailure = "PAYOUT_PROVIDER_ERROR"
)

// Cache Keys
const (
	CacheReferralCodePrefix = "referral_code:"
	CacheStatsPrefix        = "stats:"
	CacheRateLimitPrefix    = "rate_limit:"
)

// Live feed channel and event types
const (
	LiveFeedChannel = "live_feed"

	EventCommissionCreated  = "commission_created"
	EventCommissionAdjusted = "commission_adjusted"
	EventCreditReleased     = "credit_released"
	EventCustomerReferred   = "customer_referred"
	EventPayoutCompleted    = "payout_completed"
	EventPayoutFailed       = "payout_failed"
)
