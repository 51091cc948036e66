package brewspec

import (
	"testing"
)

// Unquoted YAML scalars that resolve as timestamps must come back as the
// exact text the file held. A midnight date-time in particular must not
// collapse to a bare calendar date.
func TestDecode_UnquotedDatesKeepTheirShape(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"bare date", "2026-02-19"},
		{"midnight datetime", "2026-02-19T00:00:00Z"},
		{"daytime datetime", "2026-02-19T08:30:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []byte("brewspec_version: \"0.4\"\nbrews:\n" +
				"  - date: " + tt.date + "\n" +
				"    type: espresso\n    dose_g: 18\n    water_weight_g: 36\n")
			doc, err := Decode(raw, FormatYAML)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			brew := doc["brews"].([]interface{})[0].(map[string]interface{})
			if got := brew["date"]; got != tt.date {
				t.Errorf("date changed by decode: got %v, want %q", got, tt.date)
			}
			if violations := Validate(doc); len(violations) > 0 {
				t.Errorf("decoded document rejected: %v", violations)
			}
		})
	}
}

// Unquoted dates nested below the brew level get the same treatment.
func TestDecode_UnquotedRoastDate(t *testing.T) {
	raw := []byte("brewspec_version: \"0.4\"\nbrews:\n" +
		"  - date: \"2026-02-19\"\n    type: espresso\n    dose_g: 18\n    water_weight_g: 36\n" +
		"    coffee:\n      roast_date: 2026-02-01\n")
	doc, err := Decode(raw, FormatYAML)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	brew := doc["brews"].([]interface{})[0].(map[string]interface{})
	coffee := brew["coffee"].(map[string]interface{})
	if got := coffee["roast_date"]; got != "2026-02-01" {
		t.Errorf("roast_date = %v (%T), want the string 2026-02-01", got, got)
	}
}
