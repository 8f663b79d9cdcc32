package models

import (
	"time"
)

// Coverage tiers offered on the platform.
type ServiceTier string

const (
	TierBasic    ServiceTier = "basic"
	TierStandard ServiceTier = "standard"
	TierPremium  ServiceTier = "premium"
)

// Service is a priced coverage offering owned by exactly one provider.
// Prices are integer minor-currency units (cents).
type Service struct {
	ID             string      `bson:"id" json:"id"`
	ProviderID     string      `bson:"providerId" json:"providerId"`
	Title          string      `bson:"title" json:"title"`
	Description    string      `bson:"description,omitempty" json:"description,omitempty"`
	Tier           ServiceTier `bson:"tier" json:"tier"`
	PriceCents     int64       `bson:"priceCents" json:"priceCents"`
	Currency       string      `bson:"currency" json:"currency"`
	TurnaroundDays int         `bson:"turnaroundDays" json:"turnaroundDays"`
	MaxPages       int         `bson:"maxPages,omitempty" json:"maxPages,omitempty"`
	Active         bool        `bson:"active" json:"active"`
	CreatedAt      time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt" json:"updatedAt"`
}

// ServiceFilter narrows public catalog listings.
type ServiceFilter struct {
	ProviderID        string
	Tier              ServiceTier
	MinPriceCents     int64
	MaxPriceCents     int64
	MaxTurnaroundDays int
	IncludeInactive   bool
}
