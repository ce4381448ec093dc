package scanner

import (
	"database/sql"
	"io"

	"datasetprep/imageprocessor"
	"datasetprep/types"
)

// ScanOptions defines the options for fingerprinting one class directory
type ScanOptions struct {
	ClassDir string
	// Class defaults to the base name of ClassDir
	Class string
	// DB, when set, also receives every fingerprint
	DB *sql.DB
	// ProgressOutput receives the progress bar; nil disables it
	ProgressOutput io.Writer
	// Registry defaults to imageprocessor.NewImageLoaderRegistry()
	Registry *imageprocessor.ImageLoaderRegistry
}

// ProcessImageResult holds the result of processing one directory entry
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
	Info    types.ImageInfo
}

// ScanResult is the fingerprint table of a class plus skip statistics
type ScanResult struct {
	Class   string
	Records types.FingerprintTable
	Entries int
	Skipped int
}
