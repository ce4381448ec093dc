package fingerprint

import "datasetprep/types"

// Deduplicate keeps the first record for each distinct hash, in table order
func Deduplicate(table types.FingerprintTable) types.FingerprintTable {
	kept, _ := partitionByHash(table)
	return kept
}

// Duplicates returns the records dropped by Deduplicate, in table order
func Duplicates(table types.FingerprintTable) types.FingerprintTable {
	_, dropped := partitionByHash(table)
	return dropped
}

// UniqueHashes counts the distinct hashes in a table
func UniqueHashes(table types.FingerprintTable) int {
	kept, _ := partitionByHash(table)
	return len(kept)
}

func partitionByHash(table types.FingerprintTable) (kept, dropped types.FingerprintTable) {
	seen := make(map[string]struct{}, len(table))
	for _, rec := range table {
		if _, ok := seen[rec.Hash]; ok {
			dropped = append(dropped, rec)
			continue
		}
		seen[rec.Hash] = struct{}{}
		kept = append(kept, rec)
	}
	return kept, dropped
}
