package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/brewspec/brewlog/internal/brewspec"
	"github.com/brewspec/brewlog/internal/serialize"
)

var exportFlags = struct {
	format string
	force  bool
}{}

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export every brew to a BrewSpec document or CSV",
	Long: `Export all brews to a file. The format follows the extension
(.yaml/.yml or .json) unless --format overrides it. CSV is write-only
flat output and must be requested explicitly with --format csv even when
the path ends in .csv.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := args[0]

		format, err := resolveExportFormat(path, exportFlags.format)
		if err != nil {
			fail("%v", err)
		}
		if err := serialize.ValidateExportPath(path, format); err != nil {
			fail("%v", err)
		}

		st, logger, err := openStore()
		if err != nil {
			fail("%v", err)
		}
		defer st.Close()

		ctx := context.Background()
		rows, err := st.All(ctx)
		if err != nil {
			fail("%v", err)
		}
		if len(rows) == 0 {
			fmt.Println("No brews to export.")
			return
		}

		var warnings []serialize.ExportWarning
		var data []byte

		switch format {
		case serialize.OutputCSV:
			// Flat column dump. Not a BrewSpec document, so no schema
			// validation applies.
			var buf bytes.Buffer
			if err := serialize.ExportCSV(ctx, st, rows, &buf); err != nil {
				fail("%v", err)
			}
			data = buf.Bytes()
		default:
			doc, docWarnings := serialize.RowsToDocument(rows)
			warnings = docWarnings

			// A document this process writes must pass its own reader's
			// checks; a violation here is a bug, not bad user input.
			if violations := brewspec.Validate(doc); len(violations) > 0 {
				fail("internal error: export produced an invalid document:\n  %s",
					strings.Join(violations, "\n  "))
			}

			docFormat := brewspec.FormatYAML
			if format == serialize.OutputJSON {
				docFormat = brewspec.FormatJSON
			}
			data, err = brewspec.Encode(doc, docFormat)
			if err != nil {
				fail("%v", err)
			}
		}

		// The confirmation comes last: everything that could still fail
		// has already run, so a confirmed overwrite always goes through.
		if !exportFlags.force {
			if _, err := os.Stat(path); err == nil {
				var confirmed bool
				prompt := huh.NewConfirm().
					Title(fmt.Sprintf("Overwrite %s?", path)).
					Value(&confirmed)
				if err := prompt.Run(); err != nil {
					fail("%v", err)
				}
				if !confirmed {
					fmt.Println("Export cancelled.")
					return
				}
			}
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			fail("failed to write %s: %v", path, err)
		}

		logger.Printf("export: %d brew(s) to %s (%s)", len(rows), path, format)
		fmt.Printf("Exported %d brew(s) to %s.\n", len(rows), path)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	},
}

// resolveExportFormat picks the output format: an explicit --format wins,
// otherwise the extension decides. A bare .csv path without --format csv
// is rejected rather than guessed.
func resolveExportFormat(path, explicit string) (serialize.OutputFormat, error) {
	if explicit != "" {
		switch serialize.OutputFormat(explicit) {
		case serialize.OutputYAML, serialize.OutputJSON, serialize.OutputCSV:
			return serialize.OutputFormat(explicit), nil
		default:
			return "", fmt.Errorf("unsupported --format %q: use yaml, json, or csv", explicit)
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return serialize.OutputYAML, nil
	case ".json":
		return serialize.OutputJSON, nil
	case ".csv":
		return "", fmt.Errorf("a .csv path requires --format csv (CSV export is flat and cannot be re-imported)")
	default:
		return "", fmt.Errorf("unrecognised extension %q: use .yaml, .yml, or .json, or pass --format", filepath.Ext(path))
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportFlags.format, "format", "", "Output format: yaml, json, or csv")
	exportCmd.Flags().BoolVar(&exportFlags.force, "force", false, "Overwrite without confirmation")
}
