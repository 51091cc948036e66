package main

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/model"
	"github.com/brewspec/brewlog/internal/store"
)

var listFlags = struct {
	brewType  string
	since     string
	until     string
	ratingMin int
	ratingMax int
	limit     int
	all       bool
}{}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

var dayRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged brews",
	Long: `List brews, newest first.

Date bounds accept YYYY-MM-DD or natural language ("last monday",
"3 days ago"). Rating bounds match only the overall rating; brews whose
rating predates the per-dimension columns are not filtered.`,
	Run: func(cmd *cobra.Command, args []string) {
		f := &listFlags

		if f.brewType != "" && !containsString(model.BrewTypes, f.brewType) {
			fail("invalid --type %q: must be one of: %s", f.brewType, strings.Join(model.BrewTypes, ", "))
		}

		filter := store.Filter{
			Type:  f.brewType,
			Limit: f.limit,
			All:   f.all,
		}
		var err error
		if filter.Since, err = resolveDay("--since", f.since); err != nil {
			fail("%v", err)
		}
		if filter.Until, err = resolveDay("--until", f.until); err != nil {
			fail("%v", err)
		}
		if cmd.Flags().Changed("rating-min") {
			if f.ratingMin < 1 || f.ratingMin > 5 {
				fail("invalid --rating-min: must be between 1 and 5")
			}
			filter.RatingMin = &f.ratingMin
		}
		if cmd.Flags().Changed("rating-max") {
			if f.ratingMax < 1 || f.ratingMax > 5 {
				fail("invalid --rating-max: must be between 1 and 5")
			}
			filter.RatingMax = &f.ratingMax
		}

		st, _, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		ctx := context.Background()
		rows, err := st.List(ctx, filter)
		if err != nil {
			fail("%v", err)
		}

		if len(rows) == 0 {
			total, err := st.Count(ctx)
			if err != nil {
				fail("%v", err)
			}
			if total == 0 {
				fmt.Println("No brews logged yet.")
			} else {
				fmt.Println("No brews match the given filters.")
			}
			return
		}

		printBrewTable(rows)
	},
}

// resolveDay turns a date-bound flag into a YYYY-MM-DD string, first
// accepting the strict form and then falling back to natural language.
func resolveDay(flag, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if dayRe.MatchString(value) {
		return value, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	r, err := w.Parse(value, time.Now())
	if err != nil || r == nil {
		return "", fmt.Errorf("invalid %s %q: use YYYY-MM-DD or a phrase like \"3 days ago\"", flag, value)
	}
	return r.Time.Format("2006-01-02"), nil
}

// printBrewTable renders the rows as aligned columns. Method and Rating
// columns appear only when at least one row populates them.
func printBrewTable(rows []*store.Row) {
	showMethod := false
	showRating := false
	for _, r := range rows {
		if r.Method != nil {
			showMethod = true
		}
		if r.OverallRating() != nil {
			showRating = true
		}
	}

	headers := []string{"ID", "Date", "Type", "Dose", "Water"}
	if showMethod {
		headers = append(headers, "Method")
	}
	if showRating {
		headers = append(headers, "Rating")
	}

	var table [][]string
	for _, r := range rows {
		cells := []string{
			strconv.FormatInt(r.ID, 10),
			r.Date,
			r.Type,
			formatGrams(r.DoseG),
			formatGrams(r.WaterWeightG),
		}
		if showMethod {
			cells = append(cells, derefOr(r.Method, "-"))
		}
		if showRating {
			if rating := r.OverallRating(); rating != nil {
				cells = append(cells, strings.Repeat("*", *rating))
			} else {
				cells = append(cells, "-")
			}
		}
		table = append(table, cells)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range table {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(pad(h, widths[i]))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Println(headerStyle.Render(b.String()))

	for _, row := range table {
		b.Reset()
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		fmt.Println(b.String())
	}

	fmt.Println(dimStyle.Render(fmt.Sprintf("%d brew(s)", len(rows))))
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "g"
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func init() {
	flags := listCmd.Flags()
	flags.StringVar(&listFlags.brewType, "type", "", "Filter by brew type")
	flags.StringVar(&listFlags.since, "since", "", "Only brews on or after this date")
	flags.StringVar(&listFlags.until, "until", "", "Only brews on or before this date")
	flags.IntVar(&listFlags.ratingMin, "rating-min", 0, "Minimum overall rating (1-5)")
	flags.IntVar(&listFlags.ratingMax, "rating-max", 0, "Maximum overall rating (1-5)")
	flags.IntVar(&listFlags.limit, "limit", 20, "Maximum number of brews to show")
	flags.BoolVar(&listFlags.all, "all", false, "Show every brew")
}
