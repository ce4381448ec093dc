// Package fingerprint reads and writes per-class fingerprint tables and
// computes which records are duplicates of an earlier one.
package fingerprint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"datasetprep/types"
)

// ErrMalformedTable is returned for tables that cannot be used for dedup
var ErrMalformedTable = errors.New("malformed fingerprint table")

const (
	columnFilename = "filename"
	columnHash     = "hash"
)

// TableName returns the conventional table file name for a class
func TableName(class string) string {
	return class + ".csv"
}

// WriteTable writes records as CSV with a filename,hash header. The file is
// written next to path first and renamed into place.
func WriteTable(path string, records types.FingerprintTable) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create table directory: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	defer os.Remove(tmpPath)

	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer file.Close()

	if err := Encode(file, records); err != nil {
		return fmt.Errorf("failed to write table %s: %w", path, err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// Encode writes records as CSV to w
func Encode(w io.Writer, records types.FingerprintTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{columnFilename, columnHash}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Filename, r.Hash}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTable loads a fingerprint table from a CSV file
func ReadTable(path string) (types.FingerprintTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer file.Close()

	table, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// Decode parses CSV from r. Columns are located by header name, so extra
// columns (such as a leading index column) are ignored.
func Decode(r io.Reader) (types.FingerprintTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformedTable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	fileCol, hashCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case columnFilename:
			fileCol = i
		case columnHash:
			hashCol = i
		}
	}
	if fileCol < 0 || hashCol < 0 {
		return nil, fmt.Errorf("%w: header must contain %q and %q columns", ErrMalformedTable, columnFilename, columnHash)
	}

	var table types.FingerprintTable
	seen := make(map[string]int)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		// physical line of the record start; quoted fields may span lines
		line, _ := cr.FieldPos(0)
		if fileCol >= len(row) || hashCol >= len(row) {
			return nil, fmt.Errorf("%w: line %d has %d fields", ErrMalformedTable, line, len(row))
		}

		rec := types.FingerprintRecord{Filename: row[fileCol], Hash: row[hashCol]}
		if rec.Filename == "" || rec.Hash == "" {
			return nil, fmt.Errorf("%w: line %d has an empty filename or hash", ErrMalformedTable, line)
		}
		if rec.Filename != filepath.Base(rec.Filename) || rec.Filename == "." || rec.Filename == ".." {
			return nil, fmt.Errorf("%w: line %d: filename %q is not a plain file name", ErrMalformedTable, line, rec.Filename)
		}
		if prev, ok := seen[rec.Filename]; ok {
			return nil, fmt.Errorf("%w: filename %q repeated on lines %d and %d", ErrMalformedTable, rec.Filename, prev, line)
		}
		seen[rec.Filename] = line
		table = append(table, rec)
	}

	return table, nil
}
