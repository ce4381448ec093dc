package database

import (
	"database/sql"
	"fmt"
	"time"

	"datasetprep/logging"
	"datasetprep/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase opens the index database at dbPath and creates its tables
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS fingerprints (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		class TEXT NOT NULL,
		filename TEXT NOT NULL,
		hash TEXT NOT NULL,
		format TEXT,
		width INTEGER,
		height INTEGER,
		size INTEGER,
		modified_at TEXT,
		scanned_at TEXT,
		UNIQUE(class, filename)
	);
	CREATE INDEX IF NOT EXISTS idx_fingerprints_hash ON fingerprints(hash);

	CREATE TABLE IF NOT EXISTS relocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		class TEXT NOT NULL,
		filename TEXT NOT NULL,
		source TEXT NOT NULL,
		destination TEXT NOT NULL,
		status TEXT NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_relocations_class ON relocations(class);`

	if _, err = db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, err
	}

	logging.DebugLog("Opened index database %s", dbPath)
	return db, nil
}

// StoreFingerprint stores or replaces the fingerprint of one image
func StoreFingerprint(db *sql.DB, info types.ImageInfo) error {
	stmt, err := db.Prepare(`
		INSERT OR REPLACE INTO fingerprints (
			class, filename, hash, format, width, height, size, modified_at, scanned_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s: %w", info.Filename, err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(
		info.Class,
		info.Filename,
		info.Hash,
		info.Format,
		info.Width,
		info.Height,
		info.Size,
		info.ModifiedAt,
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("cannot insert fingerprint for %s/%s: %w", info.Class, info.Filename, err)
	}
	return nil
}

// RecordRelocation journals the outcome of one file move
func RecordRelocation(db *sql.DB, operation string, r types.Relocation) error {
	_, err := db.Exec(`
		INSERT INTO relocations (operation, class, filename, source, destination, status, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, operation, r.Class, r.Filename, r.Source, r.Destination, string(r.Status), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cannot record relocation of %s/%s: %w", r.Class, r.Filename, err)
	}
	return nil
}

// ListRelocations returns the journaled moves for a class in insertion order
func ListRelocations(db *sql.DB, class string) ([]types.Relocation, error) {
	rows, err := db.Query(`
		SELECT class, filename, source, destination, status FROM relocations
		WHERE class = ? ORDER BY id
	`, class)
	if err != nil {
		return nil, fmt.Errorf("failed to query relocations: %w", err)
	}
	defer rows.Close()

	var out []types.Relocation
	for rows.Next() {
		var r types.Relocation
		var status string
		if err := rows.Scan(&r.Class, &r.Filename, &r.Source, &r.Destination, &status); err != nil {
			return nil, fmt.Errorf("failed to scan relocation: %w", err)
		}
		r.Status = types.RelocationStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ScanStats contains statistics about the fingerprints of one class
type ScanStats struct {
	TotalImages    int
	UniqueHashes   int
	DuplicateFiles int
}

// GetScanStats retrieves statistics about the fingerprints stored for class.
// An empty class covers the whole database.
func GetScanStats(db *sql.DB, class string) (*ScanStats, error) {
	var stats ScanStats

	where := ""
	var args []interface{}
	if class != "" {
		where = " WHERE class = ?"
		args = append(args, class)
	}

	if err := db.QueryRow("SELECT COUNT(*) FROM fingerprints"+where, args...).Scan(&stats.TotalImages); err != nil {
		return nil, fmt.Errorf("failed to get total images: %w", err)
	}

	if err := db.QueryRow("SELECT COUNT(DISTINCT hash) FROM fingerprints"+where, args...).Scan(&stats.UniqueHashes); err != nil {
		return nil, fmt.Errorf("failed to get unique hashes: %w", err)
	}

	stats.DuplicateFiles = stats.TotalImages - stats.UniqueHashes
	return &stats, nil
}
