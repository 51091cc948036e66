package serialize

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/brewspec/brewlog/internal/store"
)

// WriteCSV writes the flat write-only CSV export: every stored column as a
// header, one data row per brew, NULL columns as empty strings. The output
// never contains a literal "None" or "null" for an absent value.
func WriteCSV(w io.Writer, columns []string, rows []*store.Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			record[i] = csvCell(row.Value(col))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// ExportCSV fetches the live column list from the store and streams all
// rows to w.
func ExportCSV(ctx context.Context, s *store.Store, rows []*store.Row, w io.Writer) error {
	columns, err := s.Columns(ctx)
	if err != nil {
		return err
	}
	return WriteCSV(w, columns, rows)
}

func csvCell(v interface{}) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", n)
	}
}
