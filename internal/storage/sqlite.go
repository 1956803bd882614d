package storage

import (
	"database/sql"
	"fmt"

	"github.com/cldf/zeromarking/internal/bibtex"
	"github.com/cldf/zeromarking/internal/reference"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// RebuildStats counts the rows written by Rebuild.
type RebuildStats struct {
	BibKeys   int `json:"bib_keys"`
	Records   int `json:"records"`
	Citations int `json:"citations"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		-- Bibliography keys in file order
		CREATE TABLE IF NOT EXISTS bib_keys (
			key TEXT PRIMARY KEY,
			original_key TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			position INTEGER NOT NULL
		);

		-- One row per record
		CREATE TABLE IF NOT EXISTS records (
			record_id TEXT PRIMARY KEY,
			prose TEXT NOT NULL
		);

		-- Resolved keys per record; bibkey has the page annotation stripped
		CREATE TABLE IF NOT EXISTS source_keys (
			record_id TEXT NOT NULL,
			key TEXT NOT NULL,
			bibkey TEXT NOT NULL,
			PRIMARY KEY (record_id, key)
		);

		CREATE INDEX IF NOT EXISTS idx_source_keys_bibkey ON source_keys(bibkey);
	`

	_, err := db.Exec(schema)
	return err
}

// Rebuild clears the database and loads the bibliography and associations.
func (d *DB) Rebuild(entries []bibtex.Entry, assocs []reference.SourceAssociation) (RebuildStats, error) {
	var stats RebuildStats

	tx, err := d.db.Begin()
	if err != nil {
		return stats, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"bib_keys", "records", "source_keys"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return stats, fmt.Errorf("clearing %s table: %w", table, err)
		}
	}

	bibStmt, err := tx.Prepare(`INSERT INTO bib_keys (key, original_key, entry_type, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing bib_keys insert: %w", err)
	}
	defer bibStmt.Close()

	for i, e := range entries {
		if _, err := bibStmt.Exec(e.Key, e.OriginalKey, e.Type, i); err != nil {
			return stats, fmt.Errorf("inserting bibkey %s: %w", e.Key, err)
		}
		stats.BibKeys++
	}

	recStmt, err := tx.Prepare(`INSERT OR IGNORE INTO records (record_id, prose) VALUES (?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing records insert: %w", err)
	}
	defer recStmt.Close()

	keyStmt, err := tx.Prepare(`INSERT OR IGNORE INTO source_keys (record_id, key, bibkey) VALUES (?, ?, ?)`)
	if err != nil {
		return stats, fmt.Errorf("preparing source_keys insert: %w", err)
	}
	defer keyStmt.Close()

	for _, a := range assocs {
		if _, err := recStmt.Exec(a.RecordID, a.Prose); err != nil {
			return stats, fmt.Errorf("inserting record %s: %w", a.RecordID, err)
		}
		stats.Records++
		for _, k := range a.Keys {
			if _, err := keyStmt.Exec(a.RecordID, k, reference.BaseKey(k)); err != nil {
				return stats, fmt.Errorf("inserting key %s for %s: %w", k, a.RecordID, err)
			}
			stats.Citations++
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing rebuild: %w", err)
	}
	return stats, nil
}

// RebuildFromJSONL reads associations from jsonlPath and calls Rebuild.
func (d *DB) RebuildFromJSONL(entries []bibtex.Entry, jsonlPath string) (RebuildStats, error) {
	assocs, err := ReadAll(jsonlPath)
	if err != nil {
		return RebuildStats{}, fmt.Errorf("reading JSONL: %w", err)
	}
	return d.Rebuild(entries, assocs)
}

// CitedBy returns the IDs of records citing bibkey, with or without pages.
func (d *DB) CitedBy(bibkey string) ([]string, error) {
	return d.queryStrings(`
		SELECT DISTINCT record_id FROM source_keys
		WHERE bibkey = ?
		ORDER BY record_id`, bibkey)
}

// KeysFor returns the resolved keys of a record.
func (d *DB) KeysFor(recordID string) ([]string, error) {
	return d.queryStrings(`
		SELECT key FROM source_keys
		WHERE record_id = ?
		ORDER BY key`, recordID)
}

// Unused returns bibliography keys no record cites, in file order.
func (d *DB) Unused() ([]string, error) {
	return d.queryStrings(`
		SELECT key FROM bib_keys
		WHERE key NOT IN (SELECT bibkey FROM source_keys)
		ORDER BY position`)
}

// Dangling returns cited keys missing from the bibliography. Only manual
// overrides can produce these.
func (d *DB) Dangling() ([]string, error) {
	return d.queryStrings(`
		SELECT DISTINCT bibkey FROM source_keys
		WHERE bibkey NOT IN (SELECT key FROM bib_keys)
		ORDER BY bibkey`)
}

func (d *DB) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
