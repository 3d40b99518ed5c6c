package domain

import "strings"

// SubscriptionStatus is the locally tracked subscription state
type SubscriptionStatus string

const (
	StatusActive   SubscriptionStatus = "active"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusUnknown  SubscriptionStatus = "unknown"
)

// ParseStatus maps a processor status onto the tracked set. Anything the
// paywall does not distinguish (trialing, incomplete, unpaid, paused) is unknown.
func ParseStatus(raw string) SubscriptionStatus {
	switch SubscriptionStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusActive:
		return StatusActive
	case StatusPastDue:
		return StatusPastDue
	case StatusCanceled:
		return StatusCanceled
	default:
		return StatusUnknown
	}
}

// Tier is the subscription level purchased by a reader
type Tier string

const (
	TierBasic    Tier = "basic"
	TierStandard Tier = "standard"
	TierPremium  Tier = "premium"
	TierUnknown  Tier = "unknown"
)

// ParseTier reads a persisted tier value
func ParseTier(raw string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(raw))) {
	case TierBasic:
		return TierBasic
	case TierStandard:
		return TierStandard
	case TierPremium:
		return TierPremium
	default:
		return TierUnknown
	}
}

// PriceTable maps the processor price identifiers of one catalog to tiers
type PriceTable struct {
	Basic    string
	Standard string
	Premium  string
}

// Resolve returns the tier for priceID. Unconfigured entries never match,
// so an empty price id always resolves to TierUnknown.
func (p PriceTable) Resolve(priceID string) Tier {
	id := strings.TrimSpace(priceID)
	if id == "" {
		return TierUnknown
	}
	switch id {
	case p.Basic:
		return TierBasic
	case p.Standard:
		return TierStandard
	case p.Premium:
		return TierPremium
	default:
		return TierUnknown
	}
}
