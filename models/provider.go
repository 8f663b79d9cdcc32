package models

import (
	"time"
)

// Provider verification states. A provider is created in pending_verification
// and only ever leaves suspended/deactivated through an explicit admin approval.
type ProviderStatus string

const (
	ProviderPendingVerification ProviderStatus = "pending_verification"
	ProviderActive              ProviderStatus = "active"
	ProviderSuspended           ProviderStatus = "suspended"
	ProviderDeactivated         ProviderStatus = "deactivated"
)

// AdminReviewRecord is an immutable record of one admin decision on a provider.
type AdminReviewRecord struct {
	ReviewID  string    `bson:"reviewId" json:"reviewId"`
	AdminID   string    `bson:"adminId" json:"adminId"`
	Decision  string    `bson:"decision" json:"decision"` // approved | rejected | suspended
	Reason    string    `bson:"reason,omitempty" json:"reason,omitempty"`
	Checklist []string  `bson:"checklist,omitempty" json:"checklist,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Provider struct {
	ID          string         `bson:"id" json:"id"`
	UserID      string         `bson:"userId" json:"userId"`
	DisplayName string         `bson:"displayName" json:"displayName"`
	Bio         string         `bson:"bio,omitempty" json:"bio,omitempty"`
	Specialties []string       `bson:"specialties,omitempty" json:"specialties,omitempty"`
	Status      ProviderStatus `bson:"status" json:"status"`

	// Payment gateway linkage.
	PaymentAccountID   string `bson:"paymentAccountId,omitempty" json:"paymentAccountId,omitempty"`
	OnboardingComplete bool   `bson:"onboardingComplete" json:"onboardingComplete"`

	// Recomputed from the full review set on every review write, never
	// incrementally adjusted.
	AvgRating            float64 `bson:"avgRating" json:"avgRating"`
	TotalOrdersCompleted int     `bson:"totalOrdersCompleted" json:"totalOrdersCompleted"`

	ReviewRecords []AdminReviewRecord `bson:"reviewRecords,omitempty" json:"reviewRecords,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Public strips fields that only the owning user or an admin should see.
func (p Provider) Public() Provider {
	p.PaymentAccountID = ""
	p.ReviewRecords = nil
	return p
}
