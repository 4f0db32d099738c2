package services

import (
	"pawtraits/internal/config"
	"pawtraits/internal/models"
	"pawtraits/internal/utils"
	"pawtraits/pkg/logger"
)

// NewRateTable builds the lookup table from configuration.
func NewRateTable(cfg *config.ReferralConfig) models.RateTable {
	table := models.NewRateTable(cfg.MaxCommissionDepth)
	for _, entry := range cfg.Rates {
		table.Set(models.OwnerType(entry.OwnerType), entry.Level, entry.BasisPoints)
	}
	return table
}

// RateMiss records a chain level that had no configured rate.
type RateMiss struct {
	OwnerType models.OwnerType
	Level     int
}

// ComputeCommissions splits orderValue across the chain. A level-1 owner with a personal
// rate uses it in place of the table. Levels beyond the table depth, levels without an
// entry and zero rates produce no share.
func ComputeCommissions(orderValue int64, chain models.AttributionChain, rates models.RateTable) ([]models.CommissionShare, []RateMiss) {
	shares := make([]models.CommissionShare, 0, len(chain.Links))
	var misses []RateMiss

	for _, link := range chain.Links {
		if link.Level > rates.MaxDepth {
			break
		}

		bps, ok := rates.Lookup(link.OwnerType, link.Level)
		if link.Level == 1 && link.CommissionRateBps > 0 {
			bps, ok = link.CommissionRateBps, true
		}
		if !ok {
			misses = append(misses, RateMiss{OwnerType: link.OwnerType, Level: link.Level})
			continue
		}
		if bps <= 0 {
			continue
		}

		shares = append(shares, models.CommissionShare{
			OwnerType: link.OwnerType,
			OwnerID:   link.OwnerID,
			Level:     link.Level,
			RateBps:   bps,
			Amount:    utils.ApplyBasisPoints(orderValue, bps),
		})
	}

	return shares, misses
}

type CommissionCalculator struct {
	rates  models.RateTable
	logger *logger.Logger
}

func NewCommissionCalculator(rates models.RateTable, log *logger.Logger) *CommissionCalculator {
	return &CommissionCalculator{rates: rates, logger: log}
}

func (c *CommissionCalculator) Rates() models.RateTable {
	return c.rates
}

// Compute logs skipped levels and returns the remaining shares.
func (c *CommissionCalculator) Compute(orderValue int64, chain models.AttributionChain) []models.CommissionShare {
	shares, misses := ComputeCommissions(orderValue, chain, c.rates)
	for _, miss := range misses {
		c.logger.WithError(ErrMissingRateConfiguration).WithFields(map[string]interface{}{
			"owner_type": miss.OwnerType,
			"level":      miss.Level,
		}).Warn("Skipping commission level")
	}
	return shares
}
