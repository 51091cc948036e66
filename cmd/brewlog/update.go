package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/model"
)

var updateFlags = struct {
	method   string
	grind    string
	temp     float64
	duration int
	notes    string

	roastDate  string
	coffeeType string
	origin     []string
	varietal   string
	process    string

	waterPPM float64

	grinder string
	brewer  string

	tds          float64
	ey           float64
	brix         float64
	tastingNotes string

	ratings ratingFlags
}{}

var updateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update fields of an existing brew",
	Long: `Update optional fields of a brew. Without an id the most recent
brew is updated. Required fields (date, type, dose, water weight) are
immutable; log a new brew instead.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		updates, err := buildUpdates(cmd)
		if err != nil {
			fail("%v", err)
		}
		if len(updates) == 0 {
			fail("nothing to update: pass at least one field flag")
		}

		st, logger, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		ctx := context.Background()
		var id int64
		if len(args) == 1 {
			id, err = strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fail("invalid brew id %q", args[0])
			}
		} else {
			latest, ok, err := st.LatestID(ctx)
			if err != nil {
				fail("%v", err)
			}
			if !ok {
				fail("no brews logged yet")
			}
			id = latest
		}

		found, err := st.Update(ctx, id, updates)
		if err != nil {
			fail("%v", err)
		}
		if !found {
			fail("No brew found with ID %d.", id)
		}
		logger.Printf("update: brew %d, %d column(s)", id, len(updates))
		fmt.Printf("Updated brew #%d (%d field(s)).\n", id, len(updates))
	},
}

// buildUpdates validates each changed flag and maps it to its column.
func buildUpdates(cmd *cobra.Command) (map[string]interface{}, error) {
	f := &updateFlags
	changed := cmd.Flags().Changed
	updates := make(map[string]interface{})

	if changed("method") {
		if err := shortText("method", f.method); err != nil {
			return nil, err
		}
		updates["method"] = f.method
	}
	if changed("grind") {
		if !containsString(model.GrindLevels, f.grind) {
			return nil, fmt.Errorf("invalid grind: must be one of: %s", strings.Join(model.GrindLevels, ", "))
		}
		updates["grind"] = f.grind
	}
	if changed("temp") {
		if f.temp < 0 || f.temp > 100 {
			return nil, fmt.Errorf("invalid temp: must be between 0 and 100")
		}
		updates["water_temp_c"] = f.temp
	}
	if changed("duration") {
		if f.duration <= 0 {
			return nil, fmt.Errorf("invalid duration: must be greater than 0")
		}
		updates["duration_s"] = f.duration
	}
	if changed("notes") {
		if err := longText("notes", f.notes); err != nil {
			return nil, err
		}
		updates["notes"] = f.notes
	}

	if changed("roast-date") {
		if err := model.ValidateDateOnly(f.roastDate); err != nil {
			return nil, fmt.Errorf("invalid roast-date: %v", err)
		}
		updates["coffee_roast_date"] = f.roastDate
	}
	if changed("coffee-type") {
		if !containsString(model.CoffeeTypes, f.coffeeType) {
			return nil, fmt.Errorf("invalid coffee-type: must be one of: %s", strings.Join(model.CoffeeTypes, ", "))
		}
		updates["coffee_type"] = f.coffeeType
	}
	if changed("origin") {
		if len(f.origin) == 0 {
			return nil, fmt.Errorf("invalid origin: must have at least one entry")
		}
		for _, o := range f.origin {
			if err := shortText("origin", o); err != nil {
				return nil, err
			}
		}
		encoded, err := json.Marshal(f.origin)
		if err != nil {
			return nil, fmt.Errorf("failed to encode origin: %w", err)
		}
		updates["coffee_origin"] = string(encoded)
	}
	if changed("varietal") {
		if err := shortText("varietal", f.varietal); err != nil {
			return nil, err
		}
		updates["coffee_varietal"] = f.varietal
	}
	if changed("process") {
		if err := shortText("process", f.process); err != nil {
			return nil, err
		}
		updates["coffee_process"] = f.process
	}

	if changed("water-ppm") {
		if f.waterPPM < 0 {
			return nil, fmt.Errorf("invalid water-ppm: must be 0 or greater")
		}
		updates["water_ppm"] = f.waterPPM
	}

	if changed("grinder") {
		if err := shortText("grinder", f.grinder); err != nil {
			return nil, err
		}
		updates["equipment_grinder"] = f.grinder
	}
	if changed("brewer") {
		if err := shortText("brewer", f.brewer); err != nil {
			return nil, err
		}
		updates["equipment_brewer"] = f.brewer
	}

	if changed("tds") {
		if f.tds <= 0 {
			return nil, fmt.Errorf("invalid tds: must be greater than 0")
		}
		updates["result_tds"] = f.tds
	}
	if changed("ey") {
		if f.ey <= 0 {
			return nil, fmt.Errorf("invalid ey: must be greater than 0")
		}
		updates["result_ey"] = f.ey
	}
	if changed("brix") {
		if f.brix < 0 {
			return nil, fmt.Errorf("invalid brix: must be 0 or greater")
		}
		updates["result_brix"] = f.brix
	}
	if changed("tasting-notes") {
		if err := longText("tasting-notes", f.tastingNotes); err != nil {
			return nil, err
		}
		updates["result_tasting_notes"] = f.tastingNotes
	}

	ratingFlagMap := []struct {
		flag   string
		column string
		value  *int
	}{
		{"rating-overall", "result_rating_overall", &f.ratings.overall},
		{"rating-fragrance", "result_rating_fragrance", &f.ratings.fragrance},
		{"rating-aroma", "result_rating_aroma", &f.ratings.aroma},
		{"rating-flavour", "result_rating_flavour", &f.ratings.flavour},
		{"rating-aftertaste", "result_rating_aftertaste", &f.ratings.aftertaste},
		{"rating-acidity", "result_rating_acidity", &f.ratings.acidity},
		{"rating-sweetness", "result_rating_sweetness", &f.ratings.sweetness},
		{"rating-mouthfeel", "result_rating_mouthfeel", &f.ratings.mouthfeel},
	}
	for _, rf := range ratingFlagMap {
		if changed(rf.flag) {
			if *rf.value < 1 || *rf.value > 5 {
				return nil, fmt.Errorf("invalid %s: must be between 1 and 5", rf.flag)
			}
			updates[rf.column] = *rf.value
		}
	}

	return updates, nil
}

// Blank-after-trim text may never be stored: the record model rejects it,
// and a stored blank would fail export's own output validation later.
func shortText(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("invalid %s: must not be empty", name)
	}
	if len(v) > model.MaxShortText {
		return fmt.Errorf("invalid %s: must be at most %d characters", name, model.MaxShortText)
	}
	return nil
}

func longText(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("invalid %s: must not be empty", name)
	}
	if len(v) > model.MaxNotes {
		return fmt.Errorf("invalid %s: must be at most %d characters", name, model.MaxNotes)
	}
	return nil
}

func init() {
	f := &updateFlags
	flags := updateCmd.Flags()

	flags.StringVar(&f.method, "method", "", "Brew method description")
	flags.StringVar(&f.grind, "grind", "", "Grind level")
	flags.Float64Var(&f.temp, "temp", 0, "Water temperature in Celsius (0-100)")
	flags.IntVar(&f.duration, "duration", 0, "Brew duration in seconds (> 0)")
	flags.StringVar(&f.notes, "notes", "", "Process notes")

	flags.StringVar(&f.roastDate, "roast-date", "", "Coffee roast date (YYYY-MM-DD)")
	flags.StringVar(&f.coffeeType, "coffee-type", "", "Coffee classification: single_origin or blend")
	flags.StringArrayVar(&f.origin, "origin", nil, "Coffee origin (may be repeated, replaces the stored list)")
	flags.StringVar(&f.varietal, "varietal", "", "Coffee varietal")
	flags.StringVar(&f.process, "process", "", "Coffee processing method")

	flags.Float64Var(&f.waterPPM, "water-ppm", 0, "Water mineral content in ppm (>= 0)")

	flags.StringVar(&f.grinder, "grinder", "", "Grinder name/model")
	flags.StringVar(&f.brewer, "brewer", "", "Brewer/dripper name")

	flags.Float64Var(&f.tds, "tds", 0, "Result TDS percentage (> 0)")
	flags.Float64Var(&f.ey, "ey", 0, "Result extraction yield percentage (> 0)")
	flags.Float64Var(&f.brix, "brix", 0, "Refractometer Brix reading (>= 0)")
	flags.StringVar(&f.tastingNotes, "tasting-notes", "", "Tasting notes")

	flags.IntVar(&f.ratings.overall, "rating-overall", 0, "Overall rating (1-5)")
	flags.IntVar(&f.ratings.fragrance, "rating-fragrance", 0, "Fragrance rating (1-5)")
	flags.IntVar(&f.ratings.aroma, "rating-aroma", 0, "Aroma rating (1-5)")
	flags.IntVar(&f.ratings.flavour, "rating-flavour", 0, "Flavour rating (1-5)")
	flags.IntVar(&f.ratings.aftertaste, "rating-aftertaste", 0, "Aftertaste rating (1-5)")
	flags.IntVar(&f.ratings.acidity, "rating-acidity", 0, "Acidity rating (1-5)")
	flags.IntVar(&f.ratings.sweetness, "rating-sweetness", 0, "Sweetness rating (1-5)")
	flags.IntVar(&f.ratings.mouthfeel, "rating-mouthfeel", 0, "Mouthfeel rating (1-5)")
}
