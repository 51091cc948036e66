// Package store owns the brews table: its column set, the automatic
// migration of that column set across releases, and row-level CRUD keyed by
// the immutable integer ID.
//
// The database is embedded SQLite (ncruces/go-sqlite3). The schema is a
// flat superset of every historical BrewSpec version's columns: newer
// optional columns are added by migration, older columns (the legacy
// ratings JSON blob, the legacy flat rating integer) are never removed.
//
// All SQL uses ? placeholders; column names in dynamic statements come only
// from fixed in-package lists.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// ErrDisallowedColumn is returned (wrapped, naming the column) when a
// partial update names a column outside UpdatableColumns. Validated input
// can never trigger it; hitting it indicates a programming error.
var ErrDisallowedColumn = errors.New("column not in update allow-list")

// UpdatableColumns is the fixed allow-list for partial updates: the
// composite sub-field columns, all eight rating columns, and the optional
// scalars except water_volume_ml, which has never been updatable. Identity,
// the required fields, the date, and the legacy columns are excluded.
var UpdatableColumns = map[string]struct{}{
	"method":                   {},
	"grind":                    {},
	"water_temp_c":             {},
	"duration_s":               {},
	"notes":                    {},
	"result_tds":               {},
	"result_ey":                {},
	"result_brix":              {},
	"result_tasting_notes":     {},
	"result_rating_overall":    {},
	"result_rating_fragrance":  {},
	"result_rating_aroma":      {},
	"result_rating_flavour":    {},
	"result_rating_aftertaste": {},
	"result_rating_acidity":    {},
	"result_rating_sweetness":  {},
	"result_rating_mouthfeel":  {},
	"coffee_roast_date":        {},
	"coffee_type":              {},
	"coffee_origin":            {},
	"coffee_varietal":          {},
	"coffee_process":           {},
	"water_ppm":                {},
	"equipment_grinder":        {},
	"equipment_brewer":         {},
}

// migrationColumns lists every optional column a newer release may need to
// add to a table created by an older one, with its SQLite type. Ordered so
// migration runs are deterministic. Required NOT NULL columns are absent:
// they have existed since the first release and ALTER TABLE could not add
// them without fabricating data.
var migrationColumns = []struct {
	name    string
	sqlType string
}{
	// v0.3: individual rating dimensions replacing the JSON blob.
	{"result_rating_overall", "INTEGER"},
	{"result_rating_fragrance", "INTEGER"},
	{"result_rating_aroma", "INTEGER"},
	{"result_rating_flavour", "INTEGER"},
	{"result_rating_aftertaste", "INTEGER"},
	{"result_rating_acidity", "INTEGER"},
	{"result_rating_sweetness", "INTEGER"},
	{"result_rating_mouthfeel", "INTEGER"},
	// v0.4: refractometer reading and tasting notes under result.
	{"result_brix", "REAL"},
	{"result_tasting_notes", "TEXT"},
}

// Store wraps the SQLite connection for one brew database file.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if necessary) the brew database at path, then runs
// schema initialization and column migration. Both are idempotent; Open is
// safe to call on every process start. The caller must Close.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	if err := s.migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// initSchema creates the brews table and its date index if they do not
// already exist.
func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS brews (
		id                       INTEGER PRIMARY KEY AUTOINCREMENT,
		date                     TEXT    NOT NULL,
		type                     TEXT    NOT NULL,
		method                   TEXT,
		dose_g                   REAL    NOT NULL,
		water_weight_g           REAL    NOT NULL,
		water_volume_ml          REAL,
		water_temp_c             REAL,
		grind                    TEXT,
		duration_s               INTEGER,
		rating                   INTEGER, -- legacy v0.1/v0.2 flat rating
		notes                    TEXT,
		coffee_roast_date        TEXT,
		coffee_type              TEXT,
		coffee_origin            TEXT,    -- JSON array
		coffee_varietal          TEXT,
		coffee_process           TEXT,
		water_ppm                REAL,
		equipment_grinder        TEXT,
		equipment_brewer         TEXT,
		result_tds               REAL,
		result_ey                REAL,
		result_brix              REAL,
		result_tasting_notes     TEXT,
		result_ratings           TEXT,    -- legacy v0.2 JSON blob
		result_rating_overall    INTEGER,
		result_rating_fragrance  INTEGER,
		result_rating_aroma      INTEGER,
		result_rating_flavour    INTEGER,
		result_rating_aftertaste INTEGER,
		result_rating_acidity    INTEGER,
		result_rating_sweetness  INTEGER,
		result_rating_mouthfeel  INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_brews_date ON brews (date DESC);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// migrate compares the live column set against the full set the current
// release uses and adds any missing columns as nullable. Existing rows are
// never touched. Running migrate twice adds nothing the second time.
func (s *Store) migrate(ctx context.Context) error {
	rows, err := s.conn.QueryContext(ctx, "PRAGMA table_info(brews)")
	if err != nil {
		return fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("failed to scan table info: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating table info: %w", err)
	}

	for _, col := range migrationColumns {
		if _, ok := existing[col.name]; ok {
			continue
		}
		// Column names come from the fixed in-package list above.
		stmt := fmt.Sprintf("ALTER TABLE brews ADD COLUMN %s %s", col.name, col.sqlType)
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to add column %s: %w", col.name, err)
		}
	}
	return nil
}

// Columns returns the live column names of the brews table, in table order.
// Used by the CSV export and by migration tests.
func (s *Store) Columns(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "PRAGMA table_info(brews)")
	if err != nil {
		return nil, fmt.Errorf("failed to read table info: %w", err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table info: %w", err)
	}
	return cols, nil
}

// insertColumns are the columns every insert writes, in statement order.
// New writes populate only the individual rating columns; the legacy
// result_ratings blob and flat rating columns are read-compatibility only.
var insertColumns = []string{
	"date", "type", "method", "dose_g", "water_weight_g",
	"water_volume_ml", "water_temp_c", "grind", "duration_s",
	"notes",
	"coffee_roast_date", "coffee_type", "coffee_origin",
	"coffee_varietal", "coffee_process",
	"water_ppm",
	"equipment_grinder", "equipment_brewer",
	"result_tds", "result_ey", "result_brix",
	"result_tasting_notes",
	"result_rating_overall", "result_rating_fragrance", "result_rating_aroma",
	"result_rating_flavour", "result_rating_aftertaste", "result_rating_acidity",
	"result_rating_sweetness", "result_rating_mouthfeel",
}

var insertStmt = fmt.Sprintf(
	"INSERT INTO brews (%s) VALUES (%s)",
	strings.Join(insertColumns, ", "),
	strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", "),
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Insert appends one row and returns its newly assigned ID. Sequential
// inserts yield strictly increasing IDs, and identical content is never
// deduplicated.
func (s *Store) Insert(ctx context.Context, row *Row) (int64, error) {
	return insertRow(ctx, s.conn, row)
}

func insertRow(ctx context.Context, ex execer, row *Row) (int64, error) {
	res, err := ex.ExecContext(ctx, insertStmt, row.insertArgs()...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert brew: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted id: %w", err)
	}
	return id, nil
}

// ImportRows inserts every row in one transaction: either all rows commit
// or, on the first failure, the transaction rolls back and zero rows are
// persisted.
func (s *Store) ImportRows(ctx context.Context, rows []*Row) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := insertRow(ctx, tx, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get fetches a single brew by ID. Returns (nil, nil) when no row exists.
func (s *Store) Get(ctx context.Context, id int64) (*Row, error) {
	query := selectStmt + " WHERE id = ?"
	row, err := scanRow(s.conn.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brew %d: %w", id, err)
	}
	return row, nil
}

// Filter configures List. Zero values mean "no constraint".
type Filter struct {
	// Type is an exact match on the brew method category.
	Type string
	// Since and Until are inclusive day-granularity date bounds
	// (YYYY-MM-DD). Stored full date-times are truncated to their date
	// portion for comparison.
	Since string
	Until string
	// RatingMin and RatingMax bound result_rating_overall inclusively.
	// Rows whose overall rating lives only in the legacy blob never match.
	RatingMin *int
	RatingMax *int
	// Limit caps the result set; ignored when All is set.
	Limit int
	All   bool
}

// List returns brews ordered by date descending (ties in rowid order,
// which is stable) with the filter's conditions ANDed together.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Row, error) {
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Since != "" {
		// substr compares at day granularity for both stored date shapes.
		conditions = append(conditions, "substr(date, 1, 10) >= ?")
		args = append(args, filter.Since)
	}
	if filter.Until != "" {
		conditions = append(conditions, "substr(date, 1, 10) <= ?")
		args = append(args, filter.Until)
	}
	if filter.RatingMin != nil {
		conditions = append(conditions, "result_rating_overall >= ?")
		args = append(args, *filter.RatingMin)
	}
	if filter.RatingMax != nil {
		conditions = append(conditions, "result_rating_overall <= ?")
		args = append(args, *filter.RatingMax)
	}

	query := selectStmt
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC"
	if !filter.All && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brews: %w", err)
	}
	defer rows.Close()

	return scanRows(rows)
}

// All returns every brew ordered by date descending. Used by export.
func (s *Store) All(ctx context.Context) ([]*Row, error) {
	return s.List(ctx, Filter{All: true})
}

// LatestID returns the ID of the most-recently-dated brew. The second
// return is false when the table is empty.
func (s *Store) LatestID(ctx context.Context) (int64, bool, error) {
	var id int64
	err := s.conn.QueryRowContext(ctx,
		"SELECT id FROM brews ORDER BY date DESC LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get latest brew id: %w", err)
	}
	return id, true, nil
}

// Count returns the number of brews in the database.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM brews").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count brews: %w", err)
	}
	return count, nil
}

// Update sets only the columns named in updates on the row with the given
// ID. Every column name must be a member of UpdatableColumns; any other
// name fails immediately with ErrDisallowedColumn and no row is altered.
// Returns whether a row with that ID existed.
func (s *Store) Update(ctx context.Context, id int64, updates map[string]interface{}) (bool, error) {
	if len(updates) == 0 {
		return false, fmt.Errorf("no columns to update")
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		if _, ok := UpdatableColumns[col]; !ok {
			return false, fmt.Errorf("%w: %q", ErrDisallowedColumn, col)
		}
		cols = append(cols, col)
	}
	// Deterministic statement text for a given column set.
	sort.Strings(cols)

	setClauses := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+1)
	for _, col := range cols {
		setClauses = append(setClauses, col+" = ?")
		args = append(args, updates[col])
	}
	args = append(args, id)

	res, err := s.conn.ExecContext(ctx,
		"UPDATE brews SET "+strings.Join(setClauses, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("failed to update brew %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	return affected > 0, nil
}

// Delete removes the brew with the given ID permanently. IDs are never
// reused; later rows keep their numbers. Returns whether a row was deleted.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM brews WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete brew %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}
