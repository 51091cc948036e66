package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/brewspec"
	"github.com/brewspec/brewlog/internal/serialize"
	"github.com/brewspec/brewlog/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import brews from a BrewSpec document",
	Long: `Import every brew from a BrewSpec YAML or JSON document.

The document's declared version must match the version this release
reads. Validation covers the whole document before anything is written;
the import is all-or-nothing. Imported brews are appended as new rows,
even if identical brews already exist.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		format, err := serialize.ValidateImportPath(path)
		if err != nil {
			fail("%v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			fail("failed to read %s: %v", path, err)
		}

		doc, err := brewspec.Decode(data, format)
		if err != nil {
			fail("%v", err)
		}

		if err := brewspec.CheckVersion(doc); err != nil {
			fail("%v", err)
		}

		if violations := brewspec.Validate(doc); len(violations) > 0 {
			fail("document failed validation:\n  %s", strings.Join(violations, "\n  "))
		}

		brews, _ := doc["brews"].([]interface{})
		rows := make([]*store.Row, 0, len(brews))
		for _, raw := range brews {
			brew, _ := raw.(map[string]interface{})
			row, err := serialize.BrewToRow(brew)
			if err != nil {
				fail("%v", err)
			}
			rows = append(rows, row)
		}

		st, logger, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		if err := st.ImportRows(context.Background(), rows); err != nil {
			fail("%v", err)
		}

		logger.Printf("import: %d brew(s) from %s", len(rows), path)
		fmt.Printf("Imported %d brew(s).\n", len(rows))
	},
}
