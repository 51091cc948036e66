package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "brews.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRow(date string) *Row {
	return &Row{
		Date:         date,
		Type:         "pour_over",
		DoseG:        18.0,
		WaterWeightG: 280.0,
	}
}

func TestInsertGet_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row := testRow("2026-02-19T08:30:00Z")
	row.Method = strp("V60")
	row.Grind = strp("medium_fine")
	row.DurationS = intp(180)
	row.CoffeeOrigin = strp(`["Ethiopia","Colombia"]`)
	row.WaterPPM = floatp(80)
	row.ResultTDS = floatp(1.38)
	row.RatingOverall = intp(4)
	row.RatingMouthfeel = intp(3)

	id, err := s.Insert(ctx, row)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if id != 1 {
		t.Errorf("first insert got id %d, want 1", id)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("inserted row not found")
	}
	if got.Date != row.Date || got.Type != row.Type {
		t.Errorf("got date=%q type=%q, want %q %q", got.Date, got.Type, row.Date, row.Type)
	}
	if got.Method == nil || *got.Method != "V60" {
		t.Errorf("method not round-tripped: %v", got.Method)
	}
	if got.CoffeeOrigin == nil || *got.CoffeeOrigin != `["Ethiopia","Colombia"]` {
		t.Errorf("origin not round-tripped: %v", got.CoffeeOrigin)
	}
	if got.ResultTDS == nil || *got.ResultTDS != 1.38 {
		t.Errorf("tds not round-tripped: %v", got.ResultTDS)
	}
	if got.RatingOverall == nil || *got.RatingOverall != 4 {
		t.Errorf("overall rating not round-tripped: %v", got.RatingOverall)
	}
	if got.Notes != nil {
		t.Errorf("absent notes came back non-nil: %q", *got.Notes)
	}
	if got.LegacyRating != nil || got.LegacyRatingsJSON != nil {
		t.Error("new insert populated legacy columns")
	}
}

func TestGet_Missing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Get(context.Background(), 42)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("got row %+v for missing id", got)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brews.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := s.Insert(context.Background(), testRow("2026-02-19")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	// Reopening runs schema init and migration again; both must be no-ops
	// on an up-to-date file and existing rows must survive.
	s, err = Open(path)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	defer s.Close()

	count, err := s.Count(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d rows after reopen, want 1", count)
	}
}

// A database created by an older release lacks the newer optional columns.
// Open must add them without touching existing row data.
func TestMigrate_LegacySchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brews.db")

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		t.Fatalf("failed to open raw database: %v", err)
	}
	legacySchema := `
	CREATE TABLE brews (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		date           TEXT NOT NULL,
		type           TEXT NOT NULL,
		method         TEXT,
		dose_g         REAL NOT NULL,
		water_weight_g REAL NOT NULL,
		water_volume_ml REAL,
		water_temp_c   REAL,
		grind          TEXT,
		duration_s     INTEGER,
		rating         INTEGER,
		notes          TEXT,
		coffee_roast_date TEXT,
		coffee_type    TEXT,
		coffee_origin  TEXT,
		coffee_varietal TEXT,
		coffee_process TEXT,
		water_ppm      REAL,
		equipment_grinder TEXT,
		equipment_brewer  TEXT,
		result_tds     REAL,
		result_ey      REAL,
		result_ratings TEXT
	)`
	if _, err := conn.Exec(legacySchema); err != nil {
		t.Fatalf("failed to create legacy schema: %v", err)
	}
	_, err = conn.Exec(
		`INSERT INTO brews (date, type, dose_g, water_weight_g, grind, rating, result_ratings)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"2025-06-01", "espresso", 18.0, 36.0, "fine-ish", 4, `{"overall": 5, "acidity": 3}`)
	if err != nil {
		t.Fatalf("failed to insert legacy row: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("failed to close raw database: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open on legacy file failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	columns, err := s.Columns(ctx)
	if err != nil {
		t.Fatalf("columns failed: %v", err)
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	for _, want := range []string{
		"result_rating_overall", "result_rating_mouthfeel",
		"result_brix", "result_tasting_notes",
		"rating", "result_ratings",
	} {
		if !have[want] {
			t.Errorf("column %s missing after migration", want)
		}
	}

	row, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get after migration failed: %v", err)
	}
	if row == nil {
		t.Fatal("legacy row lost by migration")
	}
	if row.Grind == nil || *row.Grind != "fine-ish" {
		t.Errorf("legacy freeform grind altered: %v", row.Grind)
	}
	if row.LegacyRating == nil || *row.LegacyRating != 4 {
		t.Errorf("legacy flat rating altered: %v", row.LegacyRating)
	}
	if row.RatingOverall != nil {
		t.Errorf("migration fabricated result_rating_overall=%d", *row.RatingOverall)
	}

	// The overall rating surfaces through the read fallback chain: the
	// legacy JSON blob wins over the flat column.
	if got := row.OverallRating(); got == nil || *got != 5 {
		t.Errorf("fallback overall rating = %v, want 5", got)
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []*Row{
		testRow("2026-02-17"),
		testRow("2026-02-18T06:00:00Z"),
		testRow("2026-02-19T08:30:00Z"),
		testRow("2026-02-20"),
	}
	rows[1].Type = "espresso"
	rows[2].RatingOverall = intp(4)
	rows[3].RatingOverall = intp(2)
	for _, r := range rows {
		if _, err := s.Insert(ctx, r); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	got, err := s.List(ctx, Filter{All: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d rows, want 4", len(got))
	}
	if got[0].Date != "2026-02-20" || got[3].Date != "2026-02-17" {
		t.Errorf("rows not in descending date order: %s ... %s", got[0].Date, got[3].Date)
	}

	// Date bounds are inclusive at day granularity; the full date-time row
	// on the boundary day must match.
	got, err = s.List(ctx, Filter{Since: "2026-02-18", Until: "2026-02-19", All: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("date-bounded list got %d rows, want 2", len(got))
	}

	got, err = s.List(ctx, Filter{Type: "espresso", All: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].Type != "espresso" {
		t.Errorf("type filter got %d rows", len(got))
	}

	min := 3
	got, err = s.List(ctx, Filter{RatingMin: &min, All: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].RatingOverall == nil || *got[0].RatingOverall != 4 {
		t.Errorf("rating filter got %d rows", len(got))
	}

	got, err = s.List(ctx, Filter{Limit: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("limited list got %d rows, want 2", len(got))
	}
}

func TestUpdate_AllowList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, testRow("2026-02-19"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	found, err := s.Update(ctx, id, map[string]interface{}{
		"method":                "Aeropress",
		"result_rating_overall": 5,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !found {
		t.Fatal("update reported row missing")
	}

	row, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.Method == nil || *row.Method != "Aeropress" {
		t.Errorf("method not updated: %v", row.Method)
	}
	if row.RatingOverall == nil || *row.RatingOverall != 5 {
		t.Errorf("rating not updated: %v", row.RatingOverall)
	}
}

func TestUpdate_RejectsDisallowedColumn(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, testRow("2026-02-19"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// One disallowed name fails the whole update, allowed siblings
	// included.
	_, err = s.Update(ctx, id, map[string]interface{}{
		"method":   "V60",
		"evil_col": "x",
	})
	if !errors.Is(err, ErrDisallowedColumn) {
		t.Fatalf("got %v, want ErrDisallowedColumn", err)
	}

	row, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if row.Method != nil {
		t.Errorf("rejected update still wrote method=%q", *row.Method)
	}

	// water_volume_ml is an optional scalar but deliberately outside the
	// allow-list; identity, required fields, and the legacy columns are
	// out too.
	for _, column := range []string{"id", "date", "type", "dose_g", "water_weight_g", "water_volume_ml", "rating", "result_ratings"} {
		_, err := s.Update(ctx, id, map[string]interface{}{column: "x"})
		if !errors.Is(err, ErrDisallowedColumn) {
			t.Errorf("column %s: got %v, want ErrDisallowedColumn", column, err)
		}
	}
}

func TestUpdate_MissingRow(t *testing.T) {
	s := openTestStore(t)
	found, err := s.Update(context.Background(), 99, map[string]interface{}{"method": "V60"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if found {
		t.Error("update reported success for missing row")
	}
}

func TestDelete_IDsNeverReused(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Insert(ctx, testRow("2026-02-18"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	found, err := s.Delete(ctx, first)
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !found {
		t.Fatal("delete reported row missing")
	}

	found, err = s.Delete(ctx, first)
	if err != nil {
		t.Fatalf("second delete failed: %v", err)
	}
	if found {
		t.Error("second delete of same id reported success")
	}

	second, err := s.Insert(ctx, testRow("2026-02-19"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if second == first {
		t.Errorf("id %d reused after delete", first)
	}
}

func TestImportRows_Atomic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []*Row{
		testRow("2026-02-17"),
		testRow("2026-02-18"),
		testRow("2026-02-19"),
	}
	if err := s.ImportRows(ctx, rows); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("got %d rows after import, want 3", count)
	}

	// A mid-batch failure must leave the table exactly as before. A unique
	// index planted underneath makes the second new row fail after the
	// first was already written inside the transaction.
	if _, err := s.conn.Exec("CREATE UNIQUE INDEX idx_test_unique_date ON brews (date)"); err != nil {
		t.Fatalf("failed to create unique index: %v", err)
	}
	bad := []*Row{
		testRow("2026-03-01"),
		testRow("2026-03-01"),
	}
	if err := s.ImportRows(ctx, bad); err == nil {
		t.Fatal("import with conflicting row succeeded")
	}
	count, err = s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 3 {
		t.Errorf("failed import left %d rows, want 3", count)
	}
}

// Importing does not deduplicate: the same rows land again as new rows.
func TestImportRows_NoDeduplication(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []*Row{testRow("2026-02-19"), testRow("2026-02-19")}
	if err := s.ImportRows(ctx, rows); err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if err := s.ImportRows(ctx, rows); err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 4 {
		t.Errorf("got %d rows, want 4", count)
	}
}

func TestLatestID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.LatestID(ctx)
	if err != nil {
		t.Fatalf("latest id failed: %v", err)
	}
	if ok {
		t.Error("empty table reported a latest id")
	}

	if _, err := s.Insert(ctx, testRow("2026-02-18")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	newest, err := s.Insert(ctx, testRow("2026-02-19"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	id, ok, err := s.LatestID(ctx)
	if err != nil {
		t.Fatalf("latest id failed: %v", err)
	}
	if !ok || id != newest {
		t.Errorf("latest id = %d ok=%v, want %d", id, ok, newest)
	}
}

func strp(v string) *string { return &v }

func floatp(v float64) *float64 { return &v }

func intp(v int) *int { return &v }
