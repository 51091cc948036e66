package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// Row is the flat persisted shape of one brewing session. Nil pointers are
// NULL columns. coffee_origin holds a JSON-encoded string list; the legacy
// result_ratings blob and flat rating columns are populated only in rows
// written by old releases.
type Row struct {
	ID           int64
	Date         string
	Type         string
	DoseG        float64
	WaterWeightG float64

	Method        *string
	WaterVolumeML *float64
	WaterTempC    *float64
	Grind         *string
	DurationS     *int
	Notes         *string

	CoffeeRoastDate *string
	CoffeeType      *string
	CoffeeOrigin    *string // JSON array
	CoffeeVarietal  *string
	CoffeeProcess   *string

	WaterPPM *float64

	EquipmentGrinder *string
	EquipmentBrewer  *string

	ResultTDS          *float64
	ResultEY           *float64
	ResultBrix         *float64
	ResultTastingNotes *string

	RatingOverall    *int
	RatingFragrance  *int
	RatingAroma      *int
	RatingFlavour    *int
	RatingAftertaste *int
	RatingAcidity    *int
	RatingSweetness  *int
	RatingMouthfeel  *int

	// Legacy read-compatibility columns. Never written by this release.
	LegacyRating      *int
	LegacyRatingsJSON *string
}

// selectColumns is the fixed SELECT order scanRow depends on.
var selectColumns = []string{
	"id", "date", "type", "dose_g", "water_weight_g",
	"method", "water_volume_ml", "water_temp_c", "grind", "duration_s", "notes",
	"coffee_roast_date", "coffee_type", "coffee_origin", "coffee_varietal", "coffee_process",
	"water_ppm",
	"equipment_grinder", "equipment_brewer",
	"result_tds", "result_ey", "result_brix", "result_tasting_notes",
	"result_rating_overall", "result_rating_fragrance", "result_rating_aroma",
	"result_rating_flavour", "result_rating_aftertaste", "result_rating_acidity",
	"result_rating_sweetness", "result_rating_mouthfeel",
	"rating", "result_ratings",
}

var selectStmt = "SELECT " + strings.Join(selectColumns, ", ") + " FROM brews"

// insertArgs returns the row's values in insertColumns order. Legacy
// columns are deliberately absent: all new writes target the individual
// rating columns only.
func (r *Row) insertArgs() []interface{} {
	return []interface{}{
		r.Date, r.Type, strPtr(r.Method), r.DoseG, r.WaterWeightG,
		floatPtr(r.WaterVolumeML), floatPtr(r.WaterTempC), strPtr(r.Grind), intPtr(r.DurationS),
		strPtr(r.Notes),
		strPtr(r.CoffeeRoastDate), strPtr(r.CoffeeType), strPtr(r.CoffeeOrigin),
		strPtr(r.CoffeeVarietal), strPtr(r.CoffeeProcess),
		floatPtr(r.WaterPPM),
		strPtr(r.EquipmentGrinder), strPtr(r.EquipmentBrewer),
		floatPtr(r.ResultTDS), floatPtr(r.ResultEY), floatPtr(r.ResultBrix),
		strPtr(r.ResultTastingNotes),
		intPtr(r.RatingOverall), intPtr(r.RatingFragrance), intPtr(r.RatingAroma),
		intPtr(r.RatingFlavour), intPtr(r.RatingAftertaste), intPtr(r.RatingAcidity),
		intPtr(r.RatingSweetness), intPtr(r.RatingMouthfeel),
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRow(sc scanner) (*Row, error) {
	var (
		row Row

		method, grind, notes                               sql.NullString
		waterVolumeML, waterTempC                          sql.NullFloat64
		durationS                                          sql.NullInt64
		coffeeRoastDate, coffeeType, coffeeOrigin          sql.NullString
		coffeeVarietal, coffeeProcess                      sql.NullString
		waterPPM                                           sql.NullFloat64
		equipmentGrinder, equipmentBrewer                  sql.NullString
		resultTDS, resultEY, resultBrix                    sql.NullFloat64
		resultTastingNotes                                 sql.NullString
		overall, fragrance, aroma, flavour                 sql.NullInt64
		aftertaste, acidity, sweetness, mouthfeel          sql.NullInt64
		legacyRating                                       sql.NullInt64
		legacyRatingsJSON                                  sql.NullString
	)

	err := sc.Scan(
		&row.ID, &row.Date, &row.Type, &row.DoseG, &row.WaterWeightG,
		&method, &waterVolumeML, &waterTempC, &grind, &durationS, &notes,
		&coffeeRoastDate, &coffeeType, &coffeeOrigin, &coffeeVarietal, &coffeeProcess,
		&waterPPM,
		&equipmentGrinder, &equipmentBrewer,
		&resultTDS, &resultEY, &resultBrix, &resultTastingNotes,
		&overall, &fragrance, &aroma, &flavour,
		&aftertaste, &acidity, &sweetness, &mouthfeel,
		&legacyRating, &legacyRatingsJSON,
	)
	if err != nil {
		return nil, err
	}

	row.Method = nullStr(method)
	row.WaterVolumeML = nullFloat(waterVolumeML)
	row.WaterTempC = nullFloat(waterTempC)
	row.Grind = nullStr(grind)
	row.DurationS = nullInt(durationS)
	row.Notes = nullStr(notes)
	row.CoffeeRoastDate = nullStr(coffeeRoastDate)
	row.CoffeeType = nullStr(coffeeType)
	row.CoffeeOrigin = nullStr(coffeeOrigin)
	row.CoffeeVarietal = nullStr(coffeeVarietal)
	row.CoffeeProcess = nullStr(coffeeProcess)
	row.WaterPPM = nullFloat(waterPPM)
	row.EquipmentGrinder = nullStr(equipmentGrinder)
	row.EquipmentBrewer = nullStr(equipmentBrewer)
	row.ResultTDS = nullFloat(resultTDS)
	row.ResultEY = nullFloat(resultEY)
	row.ResultBrix = nullFloat(resultBrix)
	row.ResultTastingNotes = nullStr(resultTastingNotes)
	row.RatingOverall = nullInt(overall)
	row.RatingFragrance = nullInt(fragrance)
	row.RatingAroma = nullInt(aroma)
	row.RatingFlavour = nullInt(flavour)
	row.RatingAftertaste = nullInt(aftertaste)
	row.RatingAcidity = nullInt(acidity)
	row.RatingSweetness = nullInt(sweetness)
	row.RatingMouthfeel = nullInt(mouthfeel)
	row.LegacyRating = nullInt(legacyRating)
	row.LegacyRatingsJSON = nullStr(legacyRatingsJSON)

	return &row, nil
}

func scanRows(rows *sql.Rows) ([]*Row, error) {
	var result []*Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brew: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brews: %w", err)
	}
	return result, nil
}

// OverallRating resolves the overall sensory rating for display, following
// the explicit fallback chain across storage generations:
//
//  1. result_rating_overall (individual column, v0.3+)
//  2. "overall" inside the legacy result_ratings JSON blob (v0.2)
//  3. the legacy flat rating column (v0.1)
//
// Only reads follow this chain; writes target the individual columns.
func (r *Row) OverallRating() *int {
	if r.RatingOverall != nil {
		return r.RatingOverall
	}
	if r.LegacyRatingsJSON != nil {
		var blob map[string]interface{}
		if err := json.Unmarshal([]byte(*r.LegacyRatingsJSON), &blob); err == nil {
			if v, ok := blob["overall"]; ok {
				if f, ok := v.(float64); ok {
					n := int(f)
					return &n
				}
			}
		}
	}
	if r.LegacyRating != nil {
		return r.LegacyRating
	}
	return nil
}

// RatingColumns returns the individual rating columns in BrewSpec key
// order, paired with their column names.
func (r *Row) RatingColumns() []struct {
	Column string
	Value  *int
} {
	return []struct {
		Column string
		Value  *int
	}{
		{"result_rating_overall", r.RatingOverall},
		{"result_rating_fragrance", r.RatingFragrance},
		{"result_rating_aroma", r.RatingAroma},
		{"result_rating_flavour", r.RatingFlavour},
		{"result_rating_aftertaste", r.RatingAftertaste},
		{"result_rating_acidity", r.RatingAcidity},
		{"result_rating_sweetness", r.RatingSweetness},
		{"result_rating_mouthfeel", r.RatingMouthfeel},
	}
}

// Value returns the row's value for a live column name as a generic
// interface, nil for NULL. Used by the flat CSV export, which emits every
// stored column including the legacy ones.
func (r *Row) Value(column string) interface{} {
	switch column {
	case "id":
		return r.ID
	case "date":
		return r.Date
	case "type":
		return r.Type
	case "dose_g":
		return r.DoseG
	case "water_weight_g":
		return r.WaterWeightG
	case "method":
		return strPtr(r.Method)
	case "water_volume_ml":
		return floatPtr(r.WaterVolumeML)
	case "water_temp_c":
		return floatPtr(r.WaterTempC)
	case "grind":
		return strPtr(r.Grind)
	case "duration_s":
		return intPtr(r.DurationS)
	case "notes":
		return strPtr(r.Notes)
	case "coffee_roast_date":
		return strPtr(r.CoffeeRoastDate)
	case "coffee_type":
		return strPtr(r.CoffeeType)
	case "coffee_origin":
		return strPtr(r.CoffeeOrigin)
	case "coffee_varietal":
		return strPtr(r.CoffeeVarietal)
	case "coffee_process":
		return strPtr(r.CoffeeProcess)
	case "water_ppm":
		return floatPtr(r.WaterPPM)
	case "equipment_grinder":
		return strPtr(r.EquipmentGrinder)
	case "equipment_brewer":
		return strPtr(r.EquipmentBrewer)
	case "result_tds":
		return floatPtr(r.ResultTDS)
	case "result_ey":
		return floatPtr(r.ResultEY)
	case "result_brix":
		return floatPtr(r.ResultBrix)
	case "result_tasting_notes":
		return strPtr(r.ResultTastingNotes)
	case "result_ratings":
		return strPtr(r.LegacyRatingsJSON)
	case "rating":
		return intPtr(r.LegacyRating)
	case "result_rating_overall":
		return intPtr(r.RatingOverall)
	case "result_rating_fragrance":
		return intPtr(r.RatingFragrance)
	case "result_rating_aroma":
		return intPtr(r.RatingAroma)
	case "result_rating_flavour":
		return intPtr(r.RatingFlavour)
	case "result_rating_aftertaste":
		return intPtr(r.RatingAftertaste)
	case "result_rating_acidity":
		return intPtr(r.RatingAcidity)
	case "result_rating_sweetness":
		return intPtr(r.RatingSweetness)
	case "result_rating_mouthfeel":
		return intPtr(r.RatingMouthfeel)
	default:
		return nil
	}
}

// Null conversion helpers.

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func strPtr(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatPtr(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intPtr(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

