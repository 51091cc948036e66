// Package model provides the validated in-memory representation of a
// brewing session.
//
// A BrewRecord is the boundary type between the CLI surface and storage:
// the CLI constructs one from flags or prompts, validation runs before any
// database interaction, and the store persists it as a flat row. Field
// names mirror BrewSpec v0.4 snake_case keys exactly.
package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Enumerations and patterns for the current (v0.4) BrewSpec.
var (
	// BrewTypes are the accepted brew method categories.
	BrewTypes = []string{"espresso", "hybrid", "immersion", "pour_over"}

	// CoffeeTypes are the accepted coffee classifications.
	CoffeeTypes = []string{"blend", "single_origin"}

	// GrindLevels are the seven v0.4 coarseness levels. Earlier versions
	// accepted freeform grind text; rows written under those versions may
	// hold values outside this set.
	GrindLevels = []string{
		"turkish", "espresso", "fine", "medium_fine",
		"medium", "medium_coarse", "coarse",
	}

	dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`)
)

const (
	// MaxShortText bounds short descriptor fields (method, grind, varietal...).
	MaxShortText = 100
	// MaxNotes bounds freeform notes and tasting notes.
	MaxNotes = 2000

	dateTimeLayout = "2006-01-02T15:04:05Z"
)

// ValidationError reports a single field constraint violation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Coffee is the optional coffee ingredient descriptor. All fields optional.
type Coffee struct {
	RoastDate *string  `json:"roast_date,omitempty"`
	Type      *string  `json:"type,omitempty"` // single_origin | blend
	Origin    []string `json:"origin,omitempty"`
	Varietal  *string  `json:"varietal,omitempty"`
	Process   *string  `json:"process,omitempty"`
}

// Validate checks every populated coffee field against its constraint.
func (c *Coffee) Validate() error {
	if c.RoastDate != nil && !dateOnlyPattern.MatchString(*c.RoastDate) {
		return invalid("coffee.roast_date", "must match YYYY-MM-DD")
	}
	if c.Type != nil && !contains(CoffeeTypes, *c.Type) {
		return invalid("coffee.type", "must be one of: %s", strings.Join(CoffeeTypes, ", "))
	}
	if c.Origin != nil {
		if len(c.Origin) == 0 {
			return invalid("coffee.origin", "must have at least one entry")
		}
		for _, entry := range c.Origin {
			if strings.TrimSpace(entry) == "" {
				return invalid("coffee.origin", "each entry must be a non-empty string")
			}
			if len(entry) > MaxShortText {
				return invalid("coffee.origin", "each entry must not exceed %d characters", MaxShortText)
			}
		}
	}
	if err := validateShortText("coffee.varietal", c.Varietal); err != nil {
		return err
	}
	if err := validateShortText("coffee.process", c.Process); err != nil {
		return err
	}
	return nil
}

// Water is the optional water ingredient descriptor.
type Water struct {
	PPM *float64 `json:"ppm,omitempty"`
}

// Validate checks the water descriptor.
func (w *Water) Validate() error {
	if w.PPM != nil && *w.PPM < 0 {
		return invalid("water.ppm", "must be >= 0")
	}
	return nil
}

// Equipment is the optional equipment descriptor.
type Equipment struct {
	Grinder *string `json:"grinder,omitempty"`
	Brewer  *string `json:"brewer,omitempty"`
}

// Validate checks the equipment descriptor.
func (e *Equipment) Validate() error {
	if err := validateShortText("equipment.grinder", e.Grinder); err != nil {
		return err
	}
	return validateShortText("equipment.brewer", e.Brewer)
}

// Ratings holds the eight independent sensory dimensions, each 1-5.
// No relationship between dimensions is enforced.
type Ratings struct {
	Overall    *int `json:"overall,omitempty"`
	Fragrance  *int `json:"fragrance,omitempty"`
	Aroma      *int `json:"aroma,omitempty"`
	Flavour    *int `json:"flavour,omitempty"`
	Aftertaste *int `json:"aftertaste,omitempty"`
	Acidity    *int `json:"acidity,omitempty"`
	Sweetness  *int `json:"sweetness,omitempty"`
	Mouthfeel  *int `json:"mouthfeel,omitempty"`
}

// Dimensions returns the rating dimensions in BrewSpec key order.
func (r *Ratings) Dimensions() []struct {
	Key   string
	Value *int
} {
	return []struct {
		Key   string
		Value *int
	}{
		{"overall", r.Overall},
		{"fragrance", r.Fragrance},
		{"aroma", r.Aroma},
		{"flavour", r.Flavour},
		{"aftertaste", r.Aftertaste},
		{"acidity", r.Acidity},
		{"sweetness", r.Sweetness},
		{"mouthfeel", r.Mouthfeel},
	}
}

// Validate checks every populated rating dimension.
func (r *Ratings) Validate() error {
	for _, dim := range r.Dimensions() {
		if dim.Value != nil && (*dim.Value < 1 || *dim.Value > 5) {
			return invalid("result.ratings."+dim.Key, "must be between 1 and 5 inclusive")
		}
	}
	return nil
}

// Result is the optional brew outcome descriptor (v0.4).
type Result struct {
	TDS          *float64 `json:"tds,omitempty"`
	EY           *float64 `json:"ey,omitempty"`
	Brix         *float64 `json:"brix,omitempty"`
	TastingNotes *string  `json:"tasting_notes,omitempty"`
	Ratings      *Ratings `json:"ratings,omitempty"`
}

// Validate checks the result descriptor and its ratings sub-descriptor.
func (res *Result) Validate() error {
	if res.TDS != nil && *res.TDS <= 0 {
		return invalid("result.tds", "must be greater than 0")
	}
	if res.EY != nil && *res.EY <= 0 {
		return invalid("result.ey", "must be greater than 0")
	}
	if res.Brix != nil && *res.Brix < 0 {
		return invalid("result.brix", "must be >= 0")
	}
	if res.TastingNotes != nil {
		if strings.TrimSpace(*res.TastingNotes) == "" {
			return invalid("result.tasting_notes", "must not be empty when provided")
		}
		if len(*res.TastingNotes) > MaxNotes {
			return invalid("result.tasting_notes", "must not exceed %d characters", MaxNotes)
		}
	}
	if res.Ratings != nil {
		return res.Ratings.Validate()
	}
	return nil
}

// BrewRecord is one validated brewing session. Nil pointer fields mean the
// attribute is absent; nothing downstream may treat a populated zero value
// as absence.
type BrewRecord struct {
	// Required fields.
	Date         string  `json:"date"`
	Type         string  `json:"type"` // immersion, pour_over, espresso, hybrid
	DoseG        float64 `json:"dose_g"`
	WaterWeightG float64 `json:"water_weight_g"`

	// Optional brew parameters.
	Method        *string  `json:"method,omitempty"`
	WaterVolumeML *float64 `json:"water_volume_ml,omitempty"`
	WaterTempC    *float64 `json:"water_temp_c,omitempty"`
	Grind         *string  `json:"grind,omitempty"`
	DurationS     *int     `json:"duration_s,omitempty"`
	Notes         *string  `json:"notes,omitempty"`

	// Optional composite descriptors (stored flat by the store).
	Coffee    *Coffee    `json:"coffee,omitempty"`
	Water     *Water     `json:"water,omitempty"`
	Equipment *Equipment `json:"equipment,omitempty"`
	Result    *Result    `json:"result,omitempty"`
}

// Validate checks every BrewSpec v0.4 constraint on the record. It returns
// a *ValidationError naming the first offending field, or nil.
func (b *BrewRecord) Validate() error {
	if err := validateDate(b.Date); err != nil {
		return err
	}
	if !contains(BrewTypes, b.Type) {
		return invalid("type", "must be one of: %s", strings.Join(BrewTypes, ", "))
	}
	if b.DoseG <= 0 {
		return invalid("dose_g", "must be greater than 0")
	}
	if b.WaterWeightG <= 0 {
		return invalid("water_weight_g", "must be greater than 0")
	}

	if err := validateShortText("method", b.Method); err != nil {
		return err
	}
	if b.WaterVolumeML != nil && *b.WaterVolumeML <= 0 {
		return invalid("water_volume_ml", "must be greater than 0")
	}
	if b.WaterTempC != nil && (*b.WaterTempC < 0 || *b.WaterTempC > 100) {
		return invalid("water_temp_c", "must be between 0 and 100 inclusive")
	}
	if b.Grind != nil && !contains(GrindLevels, *b.Grind) {
		return invalid("grind", "must be one of: %s", strings.Join(GrindLevels, ", "))
	}
	if b.DurationS != nil && *b.DurationS <= 0 {
		return invalid("duration_s", "must be greater than 0")
	}
	if b.Notes != nil {
		if strings.TrimSpace(*b.Notes) == "" {
			return invalid("notes", "must not be empty when provided")
		}
		if len(*b.Notes) > MaxNotes {
			return invalid("notes", "must not exceed %d characters", MaxNotes)
		}
	}

	if b.Coffee != nil {
		if err := b.Coffee.Validate(); err != nil {
			return err
		}
	}
	if b.Water != nil {
		if err := b.Water.Validate(); err != nil {
			return err
		}
	}
	if b.Equipment != nil {
		if err := b.Equipment.Validate(); err != nil {
			return err
		}
	}
	if b.Result != nil {
		if err := b.Result.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateDate accepts exactly two textual shapes: a full UTC date-time
// ending in "Z", or a bare calendar date.
//
// The full date-time shape is additionally parsed for calendar validity.
// The bare-date shape is pattern-checked only; "2026-02-31" passes. This
// asymmetry is intentional and matches the behaviour documents written
// under earlier format versions rely on. Do not make both shapes strict.
func validateDate(v string) error {
	switch {
	case dateTimePattern.MatchString(v):
		if _, err := time.Parse(dateTimeLayout, v); err != nil {
			return invalid("date", "is not a valid datetime")
		}
		return nil
	case dateOnlyPattern.MatchString(v):
		return nil
	default:
		return invalid("date", "must be ISO 8601 UTC format: YYYY-MM-DDTHH:MM:SSZ or YYYY-MM-DD")
	}
}

// ValidateDateOnly checks the bare calendar date shape (YYYY-MM-DD).
// Pattern check only, consistent with validateDate.
func ValidateDateOnly(v string) error {
	if !dateOnlyPattern.MatchString(v) {
		return fmt.Errorf("must be YYYY-MM-DD")
	}
	return nil
}

func validateShortText(field string, v *string) error {
	if v == nil {
		return nil
	}
	if strings.TrimSpace(*v) == "" {
		return invalid(field, "must not be empty when provided")
	}
	if len(*v) > MaxShortText {
		return invalid(field, "must not exceed %d characters", MaxShortText)
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Ptr helpers used by the CLI and tests to populate optional fields.

// String returns a pointer to v.
func String(v string) *string { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
