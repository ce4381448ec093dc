package scanner

import (
	"database/sql"
	"fmt"

	"datasetprep/database"
	"datasetprep/types"
)

// storeIfIndexed writes the fingerprint to the index database when one is configured
func storeIfIndexed(db *sql.DB, info types.ImageInfo) error {
	if db == nil {
		return nil
	}
	if err := database.StoreFingerprint(db, info); err != nil {
		return fmt.Errorf("cannot index %s/%s: %w", info.Class, info.Filename, err)
	}
	return nil
}
