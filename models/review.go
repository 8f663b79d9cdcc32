package models

import (
	"time"
)

// Review is the writer's rating of a delivered order. At most one per order.
// Ratings are 1..5.
type Review struct {
	OrderID    string    `bson:"orderId" json:"orderId"`
	ProviderID string    `bson:"providerId" json:"providerId"`
	WriterID   string    `bson:"writerId" json:"writerId"`
	Rating     int       `bson:"rating" json:"rating"`
	Comment    string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
}
