package models

import (
	"time"
)

type ReferralStats struct {
	TotalReferrals    int64                    `json:"total_referrals"`
	ByType            map[OwnerType]int64      `json:"by_type"`
	ByStatus          map[ReferralStatus]int64 `json:"by_status"`
	TotalCommission   int64                    `json:"total_commission"`
	PendingCommission int64                    `json:"pending_commission"`
	PaidCommission    int64                    `json:"paid_commission"`
	ConversionRate    float64                  `json:"conversion_rate"`
	GeneratedAt       time.Time                `json:"generated_at"`
}

type OwnerStats struct {
	Owner             OwnerReference `json:"owner"`
	CustomersReferred int64          `json:"customers_referred"`
	Orders            int64          `json:"orders"`
	TotalReferrals    int64          `json:"total_referrals"`
	TotalCommission   int64          `json:"total_commission"`
	PendingCommission int64          `json:"pending_commission"`
	PaidCommission    int64          `json:"paid_commission"`
	ConversionRate    float64        `json:"conversion_rate"`
	ActiveCodes       int64          `json:"active_codes"`
	GeneratedAt       time.Time      `json:"generated_at"`
}

// CountBucket is one row of a $group by a single key.
type CountBucket struct {
	Key   string `bson:"_id"`
	Count int64  `bson:"count"`
}

type ReportExport struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}
