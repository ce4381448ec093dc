package types

// FingerprintRecord is one row of a class fingerprint table
type FingerprintRecord struct {
	Filename string `json:"filename"`
	Hash     string `json:"hash"`
}

// FingerprintTable is the ordered set of records for one class directory.
// Order follows the sorted directory listing the table was built from.
type FingerprintTable []FingerprintRecord

// RelocationStatus describes the outcome of a single file move
type RelocationStatus string

const (
	RelocationMoved   RelocationStatus = "moved"
	RelocationMissing RelocationStatus = "missing"
)

// Relocation records a file moved out of (or expected in) a class directory
type Relocation struct {
	Class       string           `json:"class"`
	Filename    string           `json:"filename"`
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Status      RelocationStatus `json:"status"`
}

// ClassCount holds the number of entries found in a class directory
type ClassCount struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

// ImageInfo holds decoded image metadata kept alongside a fingerprint
type ImageInfo struct {
	Class      string `json:"class"`
	Filename   string `json:"filename"`
	Hash       string `json:"hash"`
	Format     string `json:"format"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modified_at"`
}
