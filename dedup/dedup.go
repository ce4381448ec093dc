// Package dedup moves files whose fingerprint repeats an earlier record of
// the same class into a quarantine directory.
package dedup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"datasetprep/database"
	"datasetprep/fingerprint"
	"datasetprep/logging"
	"datasetprep/types"
	"datasetprep/utils"
)

// Operation names this pass in the relocation journal
const Operation = "dedup"

// Options configures one duplicate removal pass
type Options struct {
	ClassDir      string
	TablePath     string
	QuarantineDir string
	// Class defaults to the base name of ClassDir
	Class          string
	DB             *sql.DB
	ProgressOutput io.Writer
}

// Result summarizes a pass
type Result struct {
	Class       string
	Records     int
	Unique      int
	Relocations []types.Relocation
}

// Moved counts the files relocated by this pass
func (r *Result) Moved() int {
	return r.count(types.RelocationMoved)
}

// Missing counts duplicates that were already gone from the class directory
func (r *Result) Missing() int {
	return r.count(types.RelocationMissing)
}

func (r *Result) count(status types.RelocationStatus) int {
	n := 0
	for _, rel := range r.Relocations {
		if rel.Status == status {
			n++
		}
	}
	return n
}

// RemoveDuplicates quarantines every file whose hash already appeared earlier
// in the class table. Existing quarantine files are never overwritten: any
// collision aborts the pass before a single file moves. Duplicates already
// gone from the class directory are reported and skipped, so the pass can be
// re-run safely.
func RemoveDuplicates(ctx context.Context, options Options) (*Result, error) {
	if err := utils.RequireDir(options.ClassDir); err != nil {
		return nil, err
	}

	class := options.Class
	if class == "" {
		class = filepath.Base(filepath.Clean(options.ClassDir))
	}

	table, err := fingerprint.ReadTable(options.TablePath)
	if err != nil {
		return nil, fmt.Errorf("class %s: %w", class, err)
	}

	duplicates := fingerprint.Duplicates(table)
	result := &Result{
		Class:   class,
		Records: len(table),
		Unique:  len(table) - len(duplicates),
	}

	if err := utils.EnsureDir(options.QuarantineDir); err != nil {
		return nil, err
	}

	var pending []utils.Move
	var pendingNames []string
	for _, rec := range duplicates {
		move := utils.Move{
			Source:      filepath.Join(options.ClassDir, rec.Filename),
			Destination: filepath.Join(options.QuarantineDir, rec.Filename),
		}
		if _, err := os.Lstat(move.Source); os.IsNotExist(err) {
			result.Relocations = append(result.Relocations, missing(class, rec.Filename, move))
			continue
		}
		pending = append(pending, move)
		pendingNames = append(pendingNames, rec.Filename)
	}

	if err := utils.CheckDestinations(pending); err != nil {
		return nil, fmt.Errorf("class %s: refusing to quarantine duplicates: %w", class, err)
	}

	for _, rel := range result.Relocations {
		if err := journal(options.DB, rel); err != nil {
			return nil, err
		}
	}

	progress := utils.NewProgress(options.ProgressOutput, "Quarantining "+class, len(pending))
	defer progress.Finish()

	for i, move := range pending {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("dedup of class %s interrupted: %w", class, err)
		}

		rel := types.Relocation{
			Class:       class,
			Filename:    pendingNames[i],
			Source:      move.Source,
			Destination: move.Destination,
			Status:      types.RelocationMoved,
		}

		err := utils.MoveFile(move.Source, move.Destination)
		switch {
		case errors.Is(err, utils.ErrSourceMissing):
			rel = missing(class, pendingNames[i], move)
		case err != nil:
			return result, fmt.Errorf("class %s, file %s: %w", class, pendingNames[i], err)
		default:
			logging.LogRelocation(rel)
		}

		result.Relocations = append(result.Relocations, rel)
		if err := journal(options.DB, rel); err != nil {
			return result, err
		}
		progress.Increment()
	}

	return result, nil
}

func missing(class, filename string, move utils.Move) types.Relocation {
	logging.LogWarning("class %s: duplicate %s already removed from %s\n", class, filename, filepath.Dir(move.Source))
	return types.Relocation{
		Class:       class,
		Filename:    filename,
		Source:      move.Source,
		Destination: move.Destination,
		Status:      types.RelocationMissing,
	}
}

func journal(db *sql.DB, rel types.Relocation) error {
	if db == nil {
		return nil
	}
	return database.RecordRelocation(db, Operation, rel)
}
