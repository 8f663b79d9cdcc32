package models

import (
	"time"
)

// Delivery is the coverage feedback for one order. At most one exists per
// order; the deliver transition creates it exactly once.
type Delivery struct {
	OrderID         string    `bson:"orderId" json:"orderId"`
	Summary         string    `bson:"summary" json:"summary"`
	Strengths       string    `bson:"strengths" json:"strengths"`
	Weaknesses      string    `bson:"weaknesses" json:"weaknesses"`
	Recommendations string    `bson:"recommendations" json:"recommendations"`
	Score           *int      `bson:"score,omitempty" json:"score,omitempty"`
	FileKey         string    `bson:"fileKey,omitempty" json:"fileKey,omitempty"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
}
