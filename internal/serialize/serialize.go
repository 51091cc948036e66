// Package serialize is the single translation boundary between the flat
// stored row and the nested BrewSpec document. Neither the store nor the
// document validator knows the other's shape; everything crosses here.
//
// Row to document (export): optional columns copy across only when
// non-NULL, related columns group into sub-objects, and a sub-object whose
// fields are all absent is omitted entirely. No emitted document ever
// contains a null value. Document to row (import) is the inverse flatten
// and performs no semantic validation of its own: the document is already
// schema-validated when it arrives.
package serialize

import (
	"encoding/json"
	"fmt"

	"github.com/brewspec/brewlog/internal/brewspec"
	"github.com/brewspec/brewlog/internal/model"
	"github.com/brewspec/brewlog/internal/store"
)

// ExportWarning is a non-fatal notice that building a document left a
// stored value behind. The export still succeeds, but the loss must never
// be silent: callers surface every warning alongside the result.
type ExportWarning interface {
	String() string
}

// GrindWarning records a stored grind value that predates the current enum
// and was dropped from an exported document.
type GrindWarning struct {
	BrewID int64
	Value  string
}

func (w GrindWarning) String() string {
	return fmt.Sprintf("brew %d: grind %q is not a valid value under BrewSpec %s and was omitted",
		w.BrewID, w.Value, brewspec.CurrentVersion)
}

// OriginWarning records a coffee_origin column whose stored JSON could not
// be decoded; the origin list is omitted from the exported document.
type OriginWarning struct {
	BrewID int64
	Raw    string
}

func (w OriginWarning) String() string {
	return fmt.Sprintf("brew %d: stored origin list %q is not decodable and was omitted",
		w.BrewID, w.Raw)
}

// ratingKeys pairs BrewSpec rating keys with their column order. Shared by
// both directions so the mapping cannot drift.
var ratingKeys = []string{
	"overall", "fragrance", "aroma", "flavour",
	"aftertaste", "acidity", "sweetness", "mouthfeel",
}

// RowToBrew converts one stored row to a BrewSpec brew object.
//
// A stored grind outside the current enum (written under an older,
// freeform-grind version) is omitted from the object, as is an origin
// column whose JSON will not decode; each omission is reported through
// the warnings return. Emitting either value would fail schema validation
// on the writer's own output.
func RowToBrew(row *store.Row) (map[string]interface{}, []ExportWarning) {
	brew := map[string]interface{}{
		"date":           row.Date,
		"type":           row.Type,
		"dose_g":         row.DoseG,
		"water_weight_g": row.WaterWeightG,
	}

	if row.Method != nil {
		brew["method"] = *row.Method
	}
	if row.WaterVolumeML != nil {
		brew["water_volume_ml"] = *row.WaterVolumeML
	}
	if row.WaterTempC != nil {
		brew["water_temp_c"] = *row.WaterTempC
	}
	if row.DurationS != nil {
		brew["duration_s"] = *row.DurationS
	}
	if row.Notes != nil {
		brew["notes"] = *row.Notes
	}

	var warnings []ExportWarning
	if row.Grind != nil {
		if grindValid(*row.Grind) {
			brew["grind"] = *row.Grind
		} else {
			warnings = append(warnings, GrindWarning{BrewID: row.ID, Value: *row.Grind})
		}
	}

	coffee := map[string]interface{}{}
	if row.CoffeeRoastDate != nil {
		coffee["roast_date"] = *row.CoffeeRoastDate
	}
	if row.CoffeeType != nil {
		coffee["type"] = *row.CoffeeType
	}
	if row.CoffeeOrigin != nil {
		var origin []string
		if err := json.Unmarshal([]byte(*row.CoffeeOrigin), &origin); err != nil {
			warnings = append(warnings, OriginWarning{BrewID: row.ID, Raw: *row.CoffeeOrigin})
		} else {
			// Emitted as []interface{} so the object has the same shape a
			// decoded document has.
			entries := make([]interface{}, len(origin))
			for i, entry := range origin {
				entries[i] = entry
			}
			coffee["origin"] = entries
		}
	}
	if row.CoffeeVarietal != nil {
		coffee["varietal"] = *row.CoffeeVarietal
	}
	if row.CoffeeProcess != nil {
		coffee["process"] = *row.CoffeeProcess
	}
	if len(coffee) > 0 {
		brew["coffee"] = coffee
	}

	if row.WaterPPM != nil {
		brew["water"] = map[string]interface{}{"ppm": *row.WaterPPM}
	}

	equipment := map[string]interface{}{}
	if row.EquipmentGrinder != nil {
		equipment["grinder"] = *row.EquipmentGrinder
	}
	if row.EquipmentBrewer != nil {
		equipment["brewer"] = *row.EquipmentBrewer
	}
	if len(equipment) > 0 {
		brew["equipment"] = equipment
	}

	result := map[string]interface{}{}
	if row.ResultTDS != nil {
		result["tds"] = *row.ResultTDS
	}
	if row.ResultEY != nil {
		result["ey"] = *row.ResultEY
	}
	if row.ResultBrix != nil {
		result["brix"] = *row.ResultBrix
	}
	if row.ResultTastingNotes != nil {
		result["tasting_notes"] = *row.ResultTastingNotes
	}

	// Ratings come exclusively from the individual columns; the legacy
	// blob column is display-layer fallback only and is never read here.
	ratings := map[string]interface{}{}
	for i, col := range row.RatingColumns() {
		if col.Value != nil {
			ratings[ratingKeys[i]] = *col.Value
		}
	}
	if len(ratings) > 0 {
		result["ratings"] = ratings
	}

	if len(result) > 0 {
		brew["result"] = result
	}

	return brew, warnings
}

// RowsToDocument converts rows to a full BrewSpec document tagged with the
// current version, collecting any dropped-value warnings.
func RowsToDocument(rows []*store.Row) (map[string]interface{}, []ExportWarning) {
	brews := make([]interface{}, 0, len(rows))
	var warnings []ExportWarning
	for _, row := range rows {
		brew, rowWarnings := RowToBrew(row)
		warnings = append(warnings, rowWarnings...)
		brews = append(brews, brew)
	}
	doc := map[string]interface{}{
		"brewspec_version": brewspec.CurrentVersion,
		"brews":            brews,
	}
	return doc, warnings
}

// BrewToRow flattens one schema-validated BrewSpec brew object into a row.
// Absent optional fields and sub-objects leave their columns nil. This is
// a pure structural flatten: no value checks happen here.
func BrewToRow(brew map[string]interface{}) (*store.Row, error) {
	row := &store.Row{
		Date:         asString(brew["date"]),
		Type:         asString(brew["type"]),
		DoseG:        asFloat(brew["dose_g"]),
		WaterWeightG: asFloat(brew["water_weight_g"]),

		Method:        optString(brew, "method"),
		WaterVolumeML: optFloat(brew, "water_volume_ml"),
		WaterTempC:    optFloat(brew, "water_temp_c"),
		Grind:         optString(brew, "grind"),
		DurationS:     optInt(brew, "duration_s"),
		Notes:         optString(brew, "notes"),
	}

	if coffee, ok := brew["coffee"].(map[string]interface{}); ok {
		row.CoffeeRoastDate = optString(coffee, "roast_date")
		row.CoffeeType = optString(coffee, "type")
		row.CoffeeVarietal = optString(coffee, "varietal")
		row.CoffeeProcess = optString(coffee, "process")
		if rawOrigin, ok := coffee["origin"].([]interface{}); ok && len(rawOrigin) > 0 {
			origin := make([]string, 0, len(rawOrigin))
			for _, entry := range rawOrigin {
				origin = append(origin, asString(entry))
			}
			encoded, err := json.Marshal(origin)
			if err != nil {
				return nil, fmt.Errorf("failed to encode origin list: %w", err)
			}
			s := string(encoded)
			row.CoffeeOrigin = &s
		}
	}

	if water, ok := brew["water"].(map[string]interface{}); ok {
		row.WaterPPM = optFloat(water, "ppm")
	}

	if equipment, ok := brew["equipment"].(map[string]interface{}); ok {
		row.EquipmentGrinder = optString(equipment, "grinder")
		row.EquipmentBrewer = optString(equipment, "brewer")
	}

	if result, ok := brew["result"].(map[string]interface{}); ok {
		row.ResultTDS = optFloat(result, "tds")
		row.ResultEY = optFloat(result, "ey")
		row.ResultBrix = optFloat(result, "brix")
		row.ResultTastingNotes = optString(result, "tasting_notes")

		// The ratings sub-object populates the individual columns only;
		// the legacy blob column is never written.
		if ratings, ok := result["ratings"].(map[string]interface{}); ok {
			row.RatingOverall = optInt(ratings, "overall")
			row.RatingFragrance = optInt(ratings, "fragrance")
			row.RatingAroma = optInt(ratings, "aroma")
			row.RatingFlavour = optInt(ratings, "flavour")
			row.RatingAftertaste = optInt(ratings, "aftertaste")
			row.RatingAcidity = optInt(ratings, "acidity")
			row.RatingSweetness = optInt(ratings, "sweetness")
			row.RatingMouthfeel = optInt(ratings, "mouthfeel")
		}
	}

	return row, nil
}

// RecordToRow converts a validated BrewRecord to its stored shape,
// JSON-encoding the origins list.
func RecordToRow(rec *model.BrewRecord) (*store.Row, error) {
	row := &store.Row{
		Date:          rec.Date,
		Type:          rec.Type,
		DoseG:         rec.DoseG,
		WaterWeightG:  rec.WaterWeightG,
		Method:        rec.Method,
		WaterVolumeML: rec.WaterVolumeML,
		WaterTempC:    rec.WaterTempC,
		Grind:         rec.Grind,
		DurationS:     rec.DurationS,
		Notes:         rec.Notes,
	}

	if rec.Coffee != nil {
		row.CoffeeRoastDate = rec.Coffee.RoastDate
		row.CoffeeType = rec.Coffee.Type
		row.CoffeeVarietal = rec.Coffee.Varietal
		row.CoffeeProcess = rec.Coffee.Process
		if len(rec.Coffee.Origin) > 0 {
			encoded, err := json.Marshal(rec.Coffee.Origin)
			if err != nil {
				return nil, fmt.Errorf("failed to encode origin list: %w", err)
			}
			s := string(encoded)
			row.CoffeeOrigin = &s
		}
	}
	if rec.Water != nil {
		row.WaterPPM = rec.Water.PPM
	}
	if rec.Equipment != nil {
		row.EquipmentGrinder = rec.Equipment.Grinder
		row.EquipmentBrewer = rec.Equipment.Brewer
	}
	if rec.Result != nil {
		row.ResultTDS = rec.Result.TDS
		row.ResultEY = rec.Result.EY
		row.ResultBrix = rec.Result.Brix
		row.ResultTastingNotes = rec.Result.TastingNotes
		if rec.Result.Ratings != nil {
			r := rec.Result.Ratings
			row.RatingOverall = r.Overall
			row.RatingFragrance = r.Fragrance
			row.RatingAroma = r.Aroma
			row.RatingFlavour = r.Flavour
			row.RatingAftertaste = r.Aftertaste
			row.RatingAcidity = r.Acidity
			row.RatingSweetness = r.Sweetness
			row.RatingMouthfeel = r.Mouthfeel
		}
	}

	return row, nil
}

func grindValid(v string) bool {
	for _, g := range model.GrindLevels {
		if g == v {
			return true
		}
	}
	return false
}

// Coercion helpers for values out of a decoded document. YAML produces
// native ints for whole numbers; JSON produces float64 for every number.

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func optString(obj map[string]interface{}, key string) *string {
	if s, ok := obj[key].(string); ok {
		return &s
	}
	return nil
}

func optFloat(obj map[string]interface{}, key string) *float64 {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case float64:
		f := n
		return &f
	default:
		return nil
	}
}

func optInt(obj map[string]interface{}, key string) *int {
	v, ok := obj[key]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case int:
		i := n
		return &i
	case int64:
		i := int(n)
		return &i
	case float64:
		i := int(n)
		return &i
	default:
		return nil
	}
}
