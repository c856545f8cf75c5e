package model

import (
	"time"
)

type GrowthRecord struct {
	ID                string    `db:"id" json:"id"`
	BabyID            string    `db:"baby_id" json:"babyId"`
	Date              time.Time `db:"date" json:"date"`
	Weight            *float64  `db:"weight" json:"weight"`                        // kg
	Height            *float64  `db:"height" json:"height"`                        // cm
	HeadCircumference *float64  `db:"head_circumference" json:"headCircumference"` // cm
	Notes             *string   `db:"notes" json:"notes"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}

// GrowthMetric is the latest value of one measurement and its change since the previous record
// that carried it. Change is nil when there is no earlier measurement.
type GrowthMetric struct {
	Value  float64   `json:"value"`
	Change *float64  `json:"change"`
	Date   time.Time `json:"date"`
}

type GrowthStats struct {
	BabyID            string        `json:"babyId"`
	Records           int           `json:"records"`
	Weight            *GrowthMetric `json:"weight"`
	Height            *GrowthMetric `json:"height"`
	HeadCircumference *GrowthMetric `json:"headCircumference"`
}
