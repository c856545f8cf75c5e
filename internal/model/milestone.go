package model

import (
	"encoding/json"
	"time"
)

type Milestone struct {
	ID          string    `db:"id" json:"id"`
	BabyID      string    `db:"baby_id" json:"babyId"`
	Date        time.Time `db:"date" json:"date"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	TagsJSON    *string   `db:"tags" json:"-"` // JSON array text, NULL when empty
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	Tags            []string       `db:"-" json:"tags"`
	DescriptionHTML string         `db:"-" json:"descriptionHtml,omitempty"`
	Baby            *MilestoneBaby `db:"-" json:"baby,omitempty"`
}

type MilestoneBaby struct {
	Name string `json:"name"`
}

// EncodeTags returns the stored form of tags: nil for an empty list.
func EncodeTags(tags []string) *string {
	if len(tags) == 0 {
		return nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return nil
	}
	s := string(b)
	return &s
}

// DecodeTags parses the stored tag column. Unreadable values decode to an empty list.
func DecodeTags(raw *string) []string {
	tags := []string{}
	if raw == nil || *raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(*raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
