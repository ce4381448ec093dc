// Package counter reports how many entries each class directory holds.
package counter

import (
	"fmt"
	"io"
	"path/filepath"

	"datasetprep/types"
	"datasetprep/utils"
)

// CountClasses returns the entry count of every non-hidden subdirectory of
// root, sorted by class name
func CountClasses(root string) ([]types.ClassCount, error) {
	if err := utils.RequireDir(root); err != nil {
		return nil, err
	}

	classes, err := utils.ListClassDirectories(root)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", root, err)
	}

	counts := make([]types.ClassCount, 0, len(classes))
	for _, class := range classes {
		entries, err := utils.ListEntries(filepath.Join(root, class))
		if err != nil {
			return nil, fmt.Errorf("cannot count class %s: %w", class, err)
		}
		counts = append(counts, types.ClassCount{Class: class, Count: len(entries)})
	}
	return counts, nil
}

// PrintCounts writes one "class count" line per class
func PrintCounts(w io.Writer, counts []types.ClassCount) {
	for _, c := range counts {
		fmt.Fprintf(w, "%s %d\n", c.Class, c.Count)
	}
}
