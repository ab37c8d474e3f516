package repository

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every pooled connection to ":memory:" would otherwise get its own
	// empty database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS estimates (
			id TEXT PRIMARY KEY,
			claim_id TEXT NOT NULL,
			party TEXT NOT NULL,
			format TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			file_hash TEXT UNIQUE NOT NULL,
			item_count INTEGER NOT NULL,
			ingested_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_estimates_claim_party ON estimates(claim_id, party, ingested_at)`,

		`CREATE TABLE IF NOT EXISTS line_items (
			estimate_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			code TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			quantity TEXT NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			unit_price TEXT NOT NULL,
			total TEXT NOT NULL,
			PRIMARY KEY (estimate_id, position),
			FOREIGN KEY (estimate_id) REFERENCES estimates(id)
		)`,

		`CREATE TABLE IF NOT EXISTS comparisons (
			id TEXT PRIMARY KEY,
			claim_id TEXT NOT NULL,
			adjuster_estimate_id TEXT NOT NULL,
			contractor_estimate_id TEXT NOT NULL,
			total_variances INTEGER NOT NULL,
			total_delta TEXT NOT NULL,
			high_severity INTEGER NOT NULL,
			medium_severity INTEGER NOT NULL,
			low_severity INTEGER NOT NULL,
			missing_items INTEGER NOT NULL,
			underpaid_items INTEGER NOT NULL,
			qty_mismatches INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (adjuster_estimate_id) REFERENCES estimates(id),
			FOREIGN KEY (contractor_estimate_id) REFERENCES estimates(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comparisons_claim ON comparisons(claim_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS variances (
			comparison_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			kind TEXT NOT NULL,
			description TEXT NOT NULL,
			adjuster_item TEXT,
			contractor_item TEXT,
			delta_total TEXT NOT NULL,
			severity TEXT NOT NULL,
			PRIMARY KEY (comparison_id, position),
			FOREIGN KEY (comparison_id) REFERENCES comparisons(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_variances_kind ON variances(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_variances_severity ON variances(severity)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}
