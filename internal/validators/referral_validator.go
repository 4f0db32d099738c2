package validators

import (
	"time"
)

type CreatePartnerRequest struct {
	BusinessName      string `json:"business_name" validate:"required,min=2,max=120"`
	BusinessType      string `json:"business_type" validate:"omitempty,oneof=groomer vet pet_shop other"`
	ContactName       string `json:"contact_name" validate:"omitempty,max=120"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"omitempty,phone_number"`
	CommissionRateBps int64  `json:"commission_rate_bps" validate:"basis_points"`
	PayoutProvider    string `json:"payout_provider" validate:"omitempty,oneof=stripe razorpay"`
	PayoutAccount     string `json:"payout_account" validate:"required_with=PayoutProvider,max=64"`
}

type CreateInfluencerRequest struct {
	Name              string `json:"name" validate:"required,min=2,max=120"`
	Handle            string `json:"handle" validate:"omitempty,max=64"`
	Platform          string `json:"platform" validate:"omitempty,oneof=instagram tiktok youtube facebook other"`
	Email             string `json:"email" validate:"required,email"`
	Phone             string `json:"phone" validate:"omitempty,phone_number"`
	CommissionRateBps int64  `json:"commission_rate_bps" validate:"basis_points"`
	PayoutProvider    string `json:"payout_provider" validate:"omitempty,oneof=stripe razorpay"`
	PayoutAccount     string `json:"payout_account" validate:"required_with=PayoutProvider,max=64"`
}

// CreateReferralCodeRequest creates a code for an existing owner. An empty Code asks
// the registry to generate one.
type CreateReferralCodeRequest struct {
	Code              string     `json:"code" validate:"omitempty,referral_code"`
	OwnerType         string     `json:"owner_type" validate:"required,owner_type"`
	OwnerID           string     `json:"owner_id" validate:"required,object_id"`
	CommissionRateBps int64      `json:"commission_rate_bps" validate:"basis_points"`
	ExpiresAt         *time.Time `json:"expires_at" validate:"omitempty,future_date"`
}

type RegisterCustomerRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"omitempty,max=120"`
	Phone        string `json:"phone" validate:"omitempty,phone_number"`
	ReferralCode string `json:"referral_code" validate:"omitempty,referral_code"`
}

type ApplyReferralCodeRequest struct {
	Code string `json:"code" validate:"required,referral_code"`
}

type CreateReferralRequest struct {
	Code         string `json:"code" validate:"required,referral_code"`
	RefereeEmail string `json:"referee_email" validate:"required,email"`
}

type UseCreditRequest struct {
	Amount      int64  `json:"amount" validate:"required,min=1"`
	OrderID     string `json:"order_id" validate:"omitempty,object_id"`
	Description string `json:"description" validate:"omitempty,max=255"`
}

type AdjustCreditRequest struct {
	Type        string `json:"type" validate:"required,oneof=earned used expired refunded"`
	Amount      int64  `json:"amount" validate:"required,min=1"`
	Description string `json:"description" validate:"required,max=255"`
}

type CreatePayoutRequest struct {
	OwnerType string `json:"owner_type" validate:"required,oneof=partner influencer"`
	OwnerID   string `json:"owner_id" validate:"required,object_id"`
}

type ExportReportRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}

type StatsQuery struct {
	OwnerType string     `form:"owner_type" validate:"omitempty,owner_type"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
}

func ValidateExportReport(req *ExportReportRequest) ValidationErrors {
	errors := ValidateStruct(req)

	if !req.From.IsZero() && !req.To.IsZero() && !req.From.Before(req.To) {
		errors = append(errors, ValidationError{
			Field:   "to",
			Message: "Report end must be after its start",
		})
	}

	if req.To.Sub(req.From) > 366*24*time.Hour {
		errors = append(errors, ValidationError{
			Field:   "from",
			Message: "Report range cannot exceed one year",
		})
	}

	return errors
}

func ValidateStatsQuery(req *StatsQuery) ValidationErrors {
	errors := ValidateStruct(req)

	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		errors = append(errors, ValidationError{
			Field:   "to",
			Message: "End date must not be before start date",
		})
	}

	return errors
}
