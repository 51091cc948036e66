package brewspec

import (
	"sort"
	"strings"
	"testing"
)

func validDoc() map[string]interface{} {
	return map[string]interface{}{
		"brewspec_version": "0.4",
		"brews": []interface{}{
			map[string]interface{}{
				"date":           "2026-02-19T08:30:00Z",
				"type":           "pour_over",
				"dose_g":         18.0,
				"water_weight_g": 280.0,
			},
		},
	}
}

func firstBrew(doc map[string]interface{}) map[string]interface{} {
	return doc["brews"].([]interface{})[0].(map[string]interface{})
}

func TestValidate_MinimalDocument(t *testing.T) {
	if violations := Validate(validDoc()); len(violations) > 0 {
		t.Fatalf("minimal document rejected:\n  %s", strings.Join(violations, "\n  "))
	}
}

func TestValidate_FullDocument(t *testing.T) {
	doc := validDoc()
	brew := firstBrew(doc)
	brew["method"] = "V60"
	brew["water_volume_ml"] = 300.0
	brew["water_temp_c"] = 94.0
	brew["grind"] = "medium_fine"
	brew["duration_s"] = 180
	brew["notes"] = "slow bloom"
	brew["coffee"] = map[string]interface{}{
		"roast_date": "2026-02-01",
		"type":       "blend",
		"origin":     []interface{}{"Ethiopia", "Colombia"},
		"varietal":   "Heirloom",
		"process":    "washed",
	}
	brew["water"] = map[string]interface{}{"ppm": 80.0}
	brew["equipment"] = map[string]interface{}{
		"grinder": "Comandante C40",
		"brewer":  "V60-02",
	}
	brew["result"] = map[string]interface{}{
		"tds":           1.38,
		"ey":            20.5,
		"brix":          1.2,
		"tasting_notes": "stone fruit",
		"ratings": map[string]interface{}{
			"overall":   4,
			"fragrance": 5,
			"mouthfeel": 3,
		},
	}
	if violations := Validate(doc); len(violations) > 0 {
		t.Fatalf("full document rejected:\n  %s", strings.Join(violations, "\n  "))
	}
}

func TestValidate_MissingRequiredKeys(t *testing.T) {
	doc := validDoc()
	brew := firstBrew(doc)
	delete(brew, "date")
	delete(brew, "water_weight_g")

	violations := Validate(doc)
	if len(violations) != 2 {
		t.Fatalf("got %d violations, want 2:\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
	if violations[0] != "brews[0].date: missing required key" {
		t.Errorf("unexpected first violation: %s", violations[0])
	}
	if violations[1] != "brews[0].water_weight_g: missing required key" {
		t.Errorf("unexpected second violation: %s", violations[1])
	}
}

func TestValidate_UndeclaredKeys(t *testing.T) {
	doc := validDoc()
	doc["extra_top"] = true
	brew := firstBrew(doc)
	brew["barista"] = "me"
	brew["result"] = map[string]interface{}{"crema": "thick"}

	violations := Validate(doc)
	want := []string{
		"brews[0].barista: undeclared key",
		"brews[0].result.crema: undeclared key",
		"extra_top: undeclared key",
	}
	if len(violations) != len(want) {
		t.Fatalf("got %d violations, want %d:\n  %s", len(violations), len(want), strings.Join(violations, "\n  "))
	}
	for i := range want {
		if violations[i] != want[i] {
			t.Errorf("violation %d = %q, want %q", i, violations[i], want[i])
		}
	}
}

func TestValidate_EmptyBrews(t *testing.T) {
	doc := map[string]interface{}{
		"brewspec_version": "0.4",
		"brews":            []interface{}{},
	}
	violations := Validate(doc)
	if len(violations) != 1 || violations[0] != "brews: must have at least one entry" {
		t.Fatalf("unexpected violations: %v", violations)
	}
}

func TestValidate_GrindEnum(t *testing.T) {
	for _, grind := range grindEnum {
		doc := validDoc()
		firstBrew(doc)["grind"] = grind
		if violations := Validate(doc); len(violations) > 0 {
			t.Errorf("grind %q rejected: %v", grind, violations)
		}
	}

	doc := validDoc()
	firstBrew(doc)["grind"] = "medium-fine"
	violations := Validate(doc)
	if len(violations) != 1 {
		t.Fatalf("hyphenated grind: got %d violations, want 1: %v", len(violations), violations)
	}
	if !strings.HasPrefix(violations[0], "brews[0].grind: must be one of:") {
		t.Errorf("unexpected violation: %s", violations[0])
	}
}

func TestValidate_NumericBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		path   string
	}{
		{"zero dose", func(b map[string]interface{}) { b["dose_g"] = 0.0 }, "brews[0].dose_g"},
		{"temp above 100", func(b map[string]interface{}) { b["water_temp_c"] = 101.0 }, "brews[0].water_temp_c"},
		{"zero duration", func(b map[string]interface{}) { b["duration_s"] = 0 }, "brews[0].duration_s"},
		{"fractional duration", func(b map[string]interface{}) { b["duration_s"] = 90.5 }, "brews[0].duration_s"},
		{"negative ppm", func(b map[string]interface{}) {
			b["water"] = map[string]interface{}{"ppm": -1.0}
		}, "brews[0].water.ppm"},
		{"zero tds", func(b map[string]interface{}) {
			b["result"] = map[string]interface{}{"tds": 0.0}
		}, "brews[0].result.tds"},
		{"rating above 5", func(b map[string]interface{}) {
			b["result"] = map[string]interface{}{
				"ratings": map[string]interface{}{"overall": 6},
			}
		}, "brews[0].result.ratings.overall"},
		{"fractional rating", func(b map[string]interface{}) {
			b["result"] = map[string]interface{}{
				"ratings": map[string]interface{}{"acidity": 3.5},
			}
		}, "brews[0].result.ratings.acidity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.mutate(firstBrew(doc))
			violations := Validate(doc)
			if len(violations) != 1 {
				t.Fatalf("got %d violations, want 1: %v", len(violations), violations)
			}
			if !strings.HasPrefix(violations[0], tt.path+": ") {
				t.Errorf("violation %q not at path %s", violations[0], tt.path)
			}
		})
	}
}

// Whole-valued floats count as integers because JSON decodes every number
// as float64.
func TestValidate_WholeFloatInteger(t *testing.T) {
	doc := validDoc()
	brew := firstBrew(doc)
	brew["duration_s"] = 180.0
	brew["result"] = map[string]interface{}{
		"ratings": map[string]interface{}{"overall": 4.0},
	}
	if violations := Validate(doc); len(violations) > 0 {
		t.Fatalf("whole-valued floats rejected: %v", violations)
	}
}

func TestValidate_ViolationsListedAndSorted(t *testing.T) {
	doc := validDoc()
	brew := firstBrew(doc)
	brew["type"] = "cold_brew"
	brew["dose_g"] = -1.0
	brew["grind"] = "whatever"
	brew["water"] = map[string]interface{}{"ppm": -5.0}

	violations := Validate(doc)
	if len(violations) != 4 {
		t.Fatalf("got %d violations, want all 4 reported:\n  %s", len(violations), strings.Join(violations, "\n  "))
	}
	if !sort.StringsAreSorted(violations) {
		t.Errorf("violations not sorted by path:\n  %s", strings.Join(violations, "\n  "))
	}
}

func TestDecode_FormatsAndShapes(t *testing.T) {
	yamlDoc := []byte("brewspec_version: \"0.4\"\nbrews:\n  - date: \"2026-02-19\"\n    type: espresso\n    dose_g: 18\n    water_weight_g: 36\n")
	doc, err := Decode(yamlDoc, FormatYAML)
	if err != nil {
		t.Fatalf("YAML decode failed: %v", err)
	}
	if violations := Validate(doc); len(violations) > 0 {
		t.Errorf("decoded YAML rejected: %v", violations)
	}

	jsonDoc := []byte(`{"brewspec_version":"0.4","brews":[{"date":"2026-02-19","type":"espresso","dose_g":18,"water_weight_g":36}]}`)
	doc, err = Decode(jsonDoc, FormatJSON)
	if err != nil {
		t.Fatalf("JSON decode failed: %v", err)
	}
	if violations := Validate(doc); len(violations) > 0 {
		t.Errorf("decoded JSON rejected: %v", violations)
	}
}

func TestDecode_Rejections(t *testing.T) {
	if _, err := Decode([]byte("- a\n- b\n"), FormatYAML); err == nil {
		t.Error("top-level YAML list accepted")
	}
	if _, err := Decode([]byte(`[1, 2]`), FormatJSON); err == nil {
		t.Error("top-level JSON array accepted")
	}
	if _, err := Decode([]byte("{not json"), FormatJSON); err == nil {
		t.Error("malformed JSON accepted")
	}
	if _, err := Decode([]byte(""), FormatYAML); err == nil {
		t.Error("empty YAML accepted")
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	doc := validDoc()
	for _, format := range []Format{FormatYAML, FormatJSON} {
		data, err := Encode(doc, format)
		if err != nil {
			t.Fatalf("%s encode failed: %v", format, err)
		}
		decoded, err := Decode(data, format)
		if err != nil {
			t.Fatalf("%s re-decode failed: %v", format, err)
		}
		if violations := Validate(decoded); len(violations) > 0 {
			t.Errorf("%s round trip produced invalid document: %v", format, violations)
		}
	}
}
