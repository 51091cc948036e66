package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/model"
	"github.com/brewspec/brewlog/internal/serialize"
)

var addFlags = struct {
	date     string
	brewType string
	dose     float64
	water    float64

	method   string
	volume   float64
	temp     float64
	grind    string
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

// ratingFlags holds the eight sensory dimension flags in BrewSpec order.
type ratingFlags struct {
	overall, fragrance, aroma, flavour, aftertaste, acidity, sweetness, mouthfeel int
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a new brew",
	Long: `Log a new brewing session.

The date accepts either a full UTC date-time (2026-02-19T08:30:00Z) or a
bare calendar date (2026-02-19). All fields are validated before anything
is written; a validation failure names the offending field.`,
	Run: func(cmd *cobra.Command, args []string) {
		rec := buildRecord(cmd)
		if err := rec.Validate(); err != nil {
			var verr *model.ValidationError
			if errors.As(err, &verr) {
				fail("invalid %s", verr.Error())
			}
			fail("%v", err)
		}

		row, err := serialize.RecordToRow(rec)
		if err != nil {
			fail("%v", err)
		}

		st, logger, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		id, err := st.Insert(context.Background(), row)
		if err != nil {
			fail("%v", err)
		}
		logger.Printf("add: inserted brew %d", id)
		fmt.Printf("Logged brew #%d.\n", id)
	},
}

// buildRecord assembles a BrewRecord from the add flags, populating
// optional fields only when their flag was actually given.
func buildRecord(cmd *cobra.Command) *model.BrewRecord {
	f := &addFlags
	changed := cmd.Flags().Changed

	rec := &model.BrewRecord{
		Date:         f.date,
		Type:         f.brewType,
		DoseG:        f.dose,
		WaterWeightG: f.water,
	}

	if changed("method") {
		rec.Method = model.String(f.method)
	}
	if changed("volume") {
		rec.WaterVolumeML = model.Float(f.volume)
	}
	if changed("temp") {
		rec.WaterTempC = model.Float(f.temp)
	}
	if changed("grind") {
		rec.Grind = model.String(f.grind)
	}
	if changed("duration") {
		rec.DurationS = model.Int(f.duration)
	}
	if changed("notes") {
		rec.Notes = model.String(f.notes)
	}

	coffee := &model.Coffee{}
	hasCoffee := false
	if changed("roast-date") {
		coffee.RoastDate = model.String(f.roastDate)
		hasCoffee = true
	}
	if changed("coffee-type") {
		coffee.Type = model.String(f.coffeeType)
		hasCoffee = true
	}
	if changed("origin") {
		coffee.Origin = f.origin
		hasCoffee = true
	}
	if changed("varietal") {
		coffee.Varietal = model.String(f.varietal)
		hasCoffee = true
	}
	if changed("process") {
		coffee.Process = model.String(f.process)
		hasCoffee = true
	}
	if hasCoffee {
		rec.Coffee = coffee
	}

	if changed("water-ppm") {
		rec.Water = &model.Water{PPM: model.Float(f.waterPPM)}
	}

	equipment := &model.Equipment{}
	hasEquipment := false
	if changed("grinder") {
		equipment.Grinder = model.String(f.grinder)
		hasEquipment = true
	}
	if changed("brewer") {
		equipment.Brewer = model.String(f.brewer)
		hasEquipment = true
	}
	if hasEquipment {
		rec.Equipment = equipment
	}

	result := &model.Result{}
	hasResult := false
	if changed("tds") {
		result.TDS = model.Float(f.tds)
		hasResult = true
	}
	if changed("ey") {
		result.EY = model.Float(f.ey)
		hasResult = true
	}
	if changed("brix") {
		result.Brix = model.Float(f.brix)
		hasResult = true
	}
	if changed("tasting-notes") {
		result.TastingNotes = model.String(f.tastingNotes)
		hasResult = true
	}

	ratings := &model.Ratings{}
	hasRatings := false
	ratingFlagMap := []struct {
		flag string
		dst  **int
		src  *int
	}{
		{"rating-overall", &ratings.Overall, &f.ratings.overall},
		{"rating-fragrance", &ratings.Fragrance, &f.ratings.fragrance},
		{"rating-aroma", &ratings.Aroma, &f.ratings.aroma},
		{"rating-flavour", &ratings.Flavour, &f.ratings.flavour},
		{"rating-aftertaste", &ratings.Aftertaste, &f.ratings.aftertaste},
		{"rating-acidity", &ratings.Acidity, &f.ratings.acidity},
		{"rating-sweetness", &ratings.Sweetness, &f.ratings.sweetness},
		{"rating-mouthfeel", &ratings.Mouthfeel, &f.ratings.mouthfeel},
	}
	for _, rf := range ratingFlagMap {
		if changed(rf.flag) {
			*rf.dst = model.Int(*rf.src)
			hasRatings = true
		}
	}
	if hasRatings {
		result.Ratings = ratings
		hasResult = true
	}
	if hasResult {
		rec.Result = result
	}

	return rec
}

func init() {
	f := &addFlags
	flags := addCmd.Flags()

	flags.StringVar(&f.date, "date", "", "Brew date: YYYY-MM-DDTHH:MM:SSZ or YYYY-MM-DD (required)")
	flags.StringVar(&f.brewType, "type", "", "Brew type: immersion, pour_over, espresso, or hybrid (required)")
	flags.Float64Var(&f.dose, "dose", 0, "Coffee dose in grams (required)")
	flags.Float64Var(&f.water, "water", 0, "Water weight in grams (required)")

	flags.StringVar(&f.method, "method", "", "Brew method description (e.g. 'V60')")
	flags.Float64Var(&f.volume, "volume", 0, "Water volume in mL (> 0)")
	flags.Float64Var(&f.temp, "temp", 0, "Water temperature in Celsius (0-100)")
	flags.StringVar(&f.grind, "grind", "", "Grind level: turkish, espresso, fine, medium_fine, medium, medium_coarse, or coarse")
	flags.IntVar(&f.duration, "duration", 0, "Brew duration in seconds (> 0)")
	flags.StringVar(&f.notes, "notes", "", "Process notes")

	flags.StringVar(&f.roastDate, "roast-date", "", "Coffee roast date (YYYY-MM-DD)")
	flags.StringVar(&f.coffeeType, "coffee-type", "", "Coffee classification: single_origin or blend")
	flags.StringArrayVar(&f.origin, "origin", nil, "Coffee origin (may be repeated)")
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

	_ = addCmd.MarkFlagRequired("date")
	_ = addCmd.MarkFlagRequired("type")
	_ = addCmd.MarkFlagRequired("dose")
	_ = addCmd.MarkFlagRequired("water")
}
