package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AttributionStopReason string

const (
	StopReasonNone             AttributionStopReason = "none"
	StopReasonDanglingReferrer AttributionStopReason = "dangling_referrer"
	StopReasonCycle            AttributionStopReason = "cycle"
	StopReasonMaxDepth         AttributionStopReason = "max_depth"
)

type AttributionLink struct {
	OwnerType         OwnerType          `json:"owner_type"`
	OwnerID           primitive.ObjectID `json:"owner_id"`
	Level             int                `json:"level"`
	CommissionRateBps int64              `json:"commission_rate_bps,omitempty"`
}

// AttributionChain lists upstream referrers nearest first, starting at level 1.
type AttributionChain struct {
	Links      []AttributionLink     `json:"links"`
	Partial    bool                  `json:"partial"`
	StopReason AttributionStopReason `json:"stop_reason"`
}

func (c AttributionChain) Len() int {
	return len(c.Links)
}

func (c AttributionChain) IsEmpty() bool {
	return len(c.Links) == 0
}
