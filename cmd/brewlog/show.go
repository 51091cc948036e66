package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/store"
)

var sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one brew in full",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fail("invalid brew id %q", args[0])
		}

		st, _, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		row, err := st.Get(context.Background(), id)
		if err != nil {
			fail("%v", err)
		}
		if row == nil {
			fail("No brew found with ID %d.", id)
		}

		printBrew(row)
	},
}

// printBrew writes the full record, omitting absent fields and empty
// sections entirely.
func printBrew(r *store.Row) {
	fmt.Println(sectionStyle.Render(fmt.Sprintf("Brew #%d", r.ID)))
	field("Date", r.Date)
	field("Type", r.Type)
	field("Dose", formatGrams(r.DoseG))
	field("Water weight", formatGrams(r.WaterWeightG))
	fieldStr("Method", r.Method)
	fieldFloat("Water volume", r.WaterVolumeML, "mL")
	fieldFloat("Water temp", r.WaterTempC, "C")
	fieldStr("Grind", r.Grind)
	fieldInt("Duration", r.DurationS, "s")
	fieldStr("Notes", r.Notes)

	if r.CoffeeRoastDate != nil || r.CoffeeType != nil || r.CoffeeOrigin != nil ||
		r.CoffeeVarietal != nil || r.CoffeeProcess != nil {
		fmt.Println(sectionStyle.Render("Coffee"))
		fieldStr("Roast date", r.CoffeeRoastDate)
		fieldStr("Type", r.CoffeeType)
		if r.CoffeeOrigin != nil {
			var origins []string
			if err := json.Unmarshal([]byte(*r.CoffeeOrigin), &origins); err == nil {
				field("Origin", strings.Join(origins, ", "))
			} else {
				field("Origin", *r.CoffeeOrigin)
			}
		}
		fieldStr("Varietal", r.CoffeeVarietal)
		fieldStr("Process", r.CoffeeProcess)
	}

	if r.WaterPPM != nil {
		fmt.Println(sectionStyle.Render("Water"))
		fieldFloat("Mineral content", r.WaterPPM, " ppm")
	}

	if r.EquipmentGrinder != nil || r.EquipmentBrewer != nil {
		fmt.Println(sectionStyle.Render("Equipment"))
		fieldStr("Grinder", r.EquipmentGrinder)
		fieldStr("Brewer", r.EquipmentBrewer)
	}

	overall := r.OverallRating()
	hasRatings := overall != nil
	for _, rc := range r.RatingColumns() {
		if rc.Value != nil {
			hasRatings = true
		}
	}
	if r.ResultTDS != nil || r.ResultEY != nil || r.ResultBrix != nil ||
		r.ResultTastingNotes != nil || hasRatings {
		fmt.Println(sectionStyle.Render("Result"))
		fieldFloat("TDS", r.ResultTDS, "%")
		fieldFloat("EY", r.ResultEY, "%")
		fieldFloat("Brix", r.ResultBrix, "")
		fieldStr("Tasting notes", r.ResultTastingNotes)
		printRatings(r, overall)
	}
}

// printRatings writes each present dimension. A row whose overall rating
// lives only in a legacy column still gets an Overall line.
func printRatings(r *store.Row, overall *int) {
	labels := []string{
		"Overall", "Fragrance", "Aroma", "Flavour",
		"Aftertaste", "Acidity", "Sweetness", "Mouthfeel",
	}
	for i, rc := range r.RatingColumns() {
		v := rc.Value
		if i == 0 && v == nil {
			v = overall
		}
		if v != nil {
			field(labels[i], fmt.Sprintf("%d/5 %s", *v, strings.Repeat("*", *v)))
		}
	}
}

func field(label, value string) {
	fmt.Printf("  %-16s %s\n", label+":", value)
}

func fieldStr(label string, v *string) {
	if v != nil {
		field(label, *v)
	}
}

func fieldFloat(label string, v *float64, unit string) {
	if v != nil {
		field(label, strconv.FormatFloat(*v, 'f', -1, 64)+unit)
	}
}

func fieldInt(label string, v *int, unit string) {
	if v != nil {
		field(label, strconv.Itoa(*v)+unit)
	}
}
