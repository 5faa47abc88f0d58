// Package diagnostics persists consensus traces so a run can be inspected
// after the fact. Traces are stored in SQLite, one row per region per
// combination, grouped by run.
package diagnostics

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tsawler/tablevote/consensus"
	"github.com/tsawler/tablevote/diagnostics/migrations"
)

// ErrNotFound is returned when no trace matches a lookup.
var ErrNotFound = errors.New("trace not found")

// Sink receives the trace of every combination.
type Sink interface {
	Record(ctx context.Context, regionID string, trace *consensus.Trace) error
}

// Record is one stored trace.
type Record struct {
	ID              string
	RunID           string
	RegionID        string
	Mode            consensus.Mode
	PrecisionSource consensus.PrecisionSource
	Tolerance       float64
	AcceptedColumns int
	AcceptedRows    int
	Trace           *consensus.Trace
	CreatedAt       time.Time
}

// Store is a SQLite-backed Sink. Every Store has its own run ID; records
// written through it carry that ID.
type Store struct {
	db    *sql.DB
	path  string
	runID string
	now   func() time.Time
}

var _ Sink = (*Store)(nil)

// Open opens or creates the trace database at path and applies pending
// migrations. The parent directory is created if needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty database path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:    db,
		path:  path,
		runID: uuid.NewString(),
		now:   time.Now,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunID returns the identifier stamped on records written by this Store.
func (s *Store) RunID() string {
	return s.runID
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_traces.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// apply runs one migration and records its version atomically.
func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, s.now().UnixNano()); err != nil {
		return err
	}
	return tx.Commit()
}

// Record stores a trace for regionID under the store's run ID.
func (s *Store) Record(ctx context.Context, regionID string, trace *consensus.Trace) error {
	if trace == nil {
		return fmt.Errorf("recording region %q: nil trace", regionID)
	}

	payload, err := json.Marshal(trace)
	if err != nil {
		return fmt.Errorf("marshalling trace: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO traces (
			id, run_id, region_id, mode, precision_source, spatial_precision,
			accepted_columns, accepted_rows, trace, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), s.runID, regionID, string(trace.Mode), string(trace.PrecisionSource),
		trace.Tolerance, len(trace.Columns.Accepted()), len(trace.Rows.Accepted()),
		string(payload), s.now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("inserting trace for region %q: %w", regionID, err)
	}
	return nil
}

const selectRecord = `
	SELECT id, run_id, region_id, mode, precision_source, spatial_precision,
	       accepted_columns, accepted_rows, trace, created_at
	FROM traces`

// Latest returns the most recently recorded trace for regionID across all
// runs. It returns ErrNotFound when the region has none.
func (s *Store) Latest(ctx context.Context, regionID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectRecord+" WHERE region_id = ? ORDER BY seq DESC LIMIT 1", regionID)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("region %q: %w", regionID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns every record of a run in insertion order.
func (s *Store) List(ctx context.Context, runID string) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectRecord+" WHERE run_id = ? ORDER BY seq", runID)
	if err != nil {
		return nil, fmt.Errorf("querying run %q: %w", runID, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating run %q: %w", runID, err)
	}
	return records, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		rec       Record
		mode      string
		source    string
		payload   string
		createdAt int64
	)

	err := sc.Scan(&rec.ID, &rec.RunID, &rec.RegionID, &mode, &source, &rec.Tolerance,
		&rec.AcceptedColumns, &rec.AcceptedRows, &payload, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning trace: %w", err)
	}

	rec.Mode = consensus.Mode(mode)
	rec.PrecisionSource = consensus.PrecisionSource(source)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()

	rec.Trace = &consensus.Trace{}
	if err := json.Unmarshal([]byte(payload), rec.Trace); err != nil {
		return nil, fmt.Errorf("unmarshalling trace %s: %w", rec.ID, err)
	}

	return &rec, nil
}
