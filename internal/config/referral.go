package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RateEntry is one cell of the commission rate table.
type RateEntry struct {
	OwnerType   string `yaml:"owner_type"`
	Level       int    `yaml:"level"`
	BasisPoints int64  `yaml:"basis_points"`
}

type ReferralConfig struct {
	Rates              []RateEntry   `yaml:"rates"`
	MaxCommissionDepth int           `yaml:"max_commission_depth"`
	MaxChainDepth      int           `yaml:"max_chain_depth"`
	CodeLength         int           `yaml:"code_length"`
	CodeCacheTTL       time.Duration `yaml:"code_cache_ttl"`
	StatsCacheTTL      time.Duration `yaml:"stats_cache_ttl"`
	InviteExpiry       time.Duration `yaml:"invite_expiry"`
	MinimumPayout      int64         `yaml:"minimum_payout"`
	QRCodeSize         int           `yaml:"qr_code_size"`
}

const defaultRateTable = "customer:1=500,partner:1=1000,influencer:1=1000,customer:2=200,partner:2=200,influencer:2=200"

func loadReferralConfig() (*ReferralConfig, error) {
	rates, err := ParseRateTable(getEnv("REFERRAL_RATE_TABLE", defaultRateTable))
	if err != nil {
		return nil, err
	}

	cfg := &ReferralConfig{
		Rates:              rates,
		MaxCommissionDepth: getEnvAsInt("REFERRAL_MAX_COMMISSION_DEPTH", 2),
		MaxChainDepth:      getEnvAsInt("REFERRAL_MAX_CHAIN_DEPTH", 10),
		CodeLength:         getEnvAsInt("REFERRAL_CODE_LENGTH", 6),
		CodeCacheTTL:       getEnvAsDuration("REFERRAL_CODE_CACHE_TTL", 10*time.Minute),
		StatsCacheTTL:      getEnvAsDuration("REFERRAL_STATS_CACHE_TTL", 5*time.Minute),
		InviteExpiry:       getEnvAsDuration("REFERRAL_INVITE_EXPIRY", 30*24*time.Hour),
		MinimumPayout:      getEnvAsInt64("REFERRAL_MINIMUM_PAYOUT", 1000),
		QRCodeSize:         getEnvAsInt("REFERRAL_QR_CODE_SIZE", 300),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ReferralConfig) Validate() error {
	if c.MaxCommissionDepth < 1 {
		return fmt.Errorf("REFERRAL_MAX_COMMISSION_DEPTH must be at least 1, got %d", c.MaxCommissionDepth)
	}
	if c.MaxChainDepth < c.MaxCommissionDepth {
		return fmt.Errorf("REFERRAL_MAX_CHAIN_DEPTH (%d) must not be below the commission depth (%d)", c.MaxChainDepth, c.MaxCommissionDepth)
	}
	if c.CodeLength < 4 || c.CodeLength > 16 {
		return fmt.Errorf("REFERRAL_CODE_LENGTH must be between 4 and 16, got %d", c.CodeLength)
	}
	if c.MinimumPayout < 0 {
		return fmt.Errorf("REFERRAL_MINIMUM_PAYOUT must not be negative")
	}
	return nil
}

// ParseRateTable reads "type:level=bps" pairs separated by commas.
func ParseRateTable(raw string) ([]RateEntry, error) {
	var entries []RateEntry
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q: missing '='", part)
		}
		ownerType, levelStr, ok := strings.Cut(key, ":")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q: missing ':'", part)
		}

		level, err := strconv.Atoi(levelStr)
		if err != nil || level < 1 {
			return nil, fmt.Errorf("invalid level in rate entry %q", part)
		}
		bps, err := strconv.ParseInt(value, 10, 64)
		if err != nil || bps < 0 || bps > 10000 {
			return nil, fmt.Errorf("invalid basis points in rate entry %q", part)
		}

		entries = append(entries, RateEntry{
			OwnerType:   strings.ToLower(strings.TrimSpace(ownerType)),
			Level:       level,
			BasisPoints: bps,
		})
	}

	return entries, nil
}
