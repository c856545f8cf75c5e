package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Optional records whether a JSON field was present, which partial updates need.
// Set with a nil Value means the client sent null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// IsZero lets encoding/json omit unset fields with omitzero.
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// Get returns the value or the zero value.
func (o Optional[T]) Get() T {
	var zero T
	if o.Value == nil {
		return zero
	}
	return *o.Value
}

// Measure is a numeric form field. Browsers send numbers or numeric strings;
// empty, zero and null all mean "no measurement".
type Measure struct {
	Set   bool
	Value *float64
}

func MeasureOf(f float64) Measure {
	return Measure{Set: true, Value: &f}
}

func (m *Measure) UnmarshalJSON(b []byte) error {
	m.Set = true
	m.Value = nil

	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("invalid number %q", s)
	}
	if f != 0 {
		m.Value = &f
	}
	return nil
}

func (m Measure) MarshalJSON() ([]byte, error) {
	if m.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*m.Value)
}

func (m Measure) IsZero() bool {
	return !m.Set
}

// BabyInput is the body of POST and PUT /api/baby. Unset fields are left alone on update.
type BabyInput struct {
	ID                     string           `json:"id,omitempty"`
	Name                   Optional[string] `json:"name,omitzero"`
	BirthDate              Optional[string] `json:"birthDate,omitzero"`
	BirthTime              Optional[string] `json:"birthTime,omitzero"`
	Gender                 Optional[string] `json:"gender,omitzero"`
	Avatar                 Optional[string] `json:"avatar,omitzero"`
	BirthWeight            Measure          `json:"birthWeight,omitzero"`
	BirthHeight            Measure          `json:"birthHeight,omitzero"`
	BirthHeadCircumference Measure          `json:"birthHeadCircumference,omitzero"`
	BloodType              Optional[string] `json:"bloodType,omitzero"`
	Allergies              Optional[string] `json:"allergies,omitzero"`
	Notes                  Optional[string] `json:"notes,omitzero"`
}

type GrowthInput struct {
	BabyID            string           `json:"babyId,omitempty"`
	Date              Optional[string] `json:"date,omitzero"`
	Weight            Measure          `json:"weight,omitzero"`
	Height            Measure          `json:"height,omitzero"`
	HeadCircumference Measure          `json:"headCircumference,omitzero"`
	Notes             Optional[string] `json:"notes,omitzero"`
}

type MilestoneInput struct {
	BabyID      string             `json:"babyId,omitempty"`
	Date        Optional[string]   `json:"date,omitzero"`
	Title       Optional[string]   `json:"title,omitzero"`
	Description Optional[string]   `json:"description,omitzero"`
	Tags        Optional[[]string] `json:"tags,omitzero"`
}

type MediaInput struct {
	BabyID       Optional[string]  `json:"babyId,omitzero"`
	Date         Optional[string]  `json:"date,omitzero"`
	Title        Optional[string]  `json:"title,omitzero"`
	Description  Optional[string]  `json:"description,omitzero"`
	URL          Optional[string]  `json:"url,omitzero"`
	MediaType    Optional[string]  `json:"mediaType,omitzero"`
	Format       Optional[string]  `json:"format,omitzero"`
	ThumbnailURL Optional[string]  `json:"thumbnailUrl,omitzero"`
	Duration     Optional[float64] `json:"duration,omitzero"`
}
