package model

import (
	"time"
)

const (
	GenderBoy  = "boy"
	GenderGirl = "girl"
)

type Baby struct {
	ID                     string    `db:"id" json:"id"`
	Name                   string    `db:"name" json:"name"`
	BirthDate              time.Time `db:"birth_date" json:"birthDate"`
	BirthTime              *string   `db:"birth_time" json:"birthTime"` // "HH:MM", local to the family
	Gender                 string    `db:"gender" json:"gender"`
	Avatar                 *string   `db:"avatar" json:"avatar"`
	BirthWeight            *float64  `db:"birth_weight" json:"birthWeight"` // kg
	BirthHeight            *float64  `db:"birth_height" json:"birthHeight"` // cm
	BirthHeadCircumference *float64  `db:"birth_head_circumference" json:"birthHeadCircumference"`
	BloodType              *string   `db:"blood_type" json:"bloodType"`
	Allergies              *string   `db:"allergies" json:"allergies"`
	Notes                  *string   `db:"notes" json:"notes"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt              time.Time `db:"updated_at" json:"updatedAt"`
}

// BabyCount is the per-baby record tally shown on the dashboard.
type BabyCount struct {
	GrowthRecords int `json:"growthRecords"`
	Milestones    int `json:"milestones"`
	MediaItems    int `json:"mediaItems"`
}

type BabyWithStats struct {
	Baby
	Count BabyCount `json:"_count"`
}

func ValidGender(g string) bool {
	return g == GenderBoy || g == GenderGirl
}
