// Package partition splits class directories into train and test sides,
// either by a deterministic sorted prefix or by seeded random sampling.
package partition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"path/filepath"
	"sort"

	"datasetprep/config"
	"datasetprep/database"
	"datasetprep/logging"
	"datasetprep/types"
	"datasetprep/utils"
)

const (
	OperationOrdered = "split-ratio"
	OperationRandom  = "split-random"
)

// ErrNoRandomSource is returned when a random split is requested without a generator
var ErrNoRandomSource = errors.New("random split requires a random source")

// OrderedOptions configures an ordered-ratio split. The first
// floor(count*Ratio) files in name order go to DestRoot/TestDir/<label>,
// the rest to DestRoot/TrainDir/<label>.
type OrderedOptions struct {
	ClassDir string
	DestRoot string
	Ratio    float64
	// Class defaults to the base name of ClassDir
	Class string
	// Files, when non-nil, is used instead of listing ClassDir
	Files          []string
	Labels         LabelMapper
	TrainDir       string
	TestDir        string
	DB             *sql.DB
	ProgressOutput io.Writer
}

// RandomOptions configures a random-sampling split. floor(count*Ratio)
// files drawn without replacement move to DestRoot/<class>; the rest stay.
type RandomOptions struct {
	ClassDir string
	DestRoot string
	Ratio    float64
	Rand     *rand.Rand
	// Class defaults to the base name of ClassDir
	Class string
	// Files, when non-nil, is used instead of listing ClassDir
	Files          []string
	DB             *sql.DB
	ProgressOutput io.Writer
}

// Result lists the files on each side of a split
type Result struct {
	Class       string
	Label       string
	Total       int
	HeldOut     []string
	Kept        []string
	Relocations []types.Relocation
}

// HeldOutCount returns floor(n * ratio)
func HeldOutCount(n int, ratio float64) int {
	k := int(math.Floor(float64(n) * ratio))
	if k < 0 {
		return 0
	}
	if k > n {
		return n
	}
	return k
}

// SampleIndices draws k distinct indices from [0, n) and returns them sorted
func SampleIndices(rng *rand.Rand, n, k int) []int {
	if k <= 0 || n <= 0 {
		return nil
	}
	if k > n {
		k = n
	}
	picked := rng.Perm(n)[:k]
	sort.Ints(picked)
	return picked
}

// SplitOrdered moves the sorted prefix of a class to the test side and the
// remainder to the train side
func SplitOrdered(ctx context.Context, options OrderedOptions) (*Result, error) {
	if err := config.ValidateRatio(options.Ratio); err != nil {
		return nil, err
	}
	trainDir, testDir := options.TrainDir, options.TestDir
	if trainDir == "" {
		trainDir = "Train"
	}
	if testDir == "" {
		testDir = "Test"
	}

	class, files, err := classFiles(options.ClassDir, options.Class, options.Files)
	if err != nil {
		return nil, err
	}

	label := options.Labels.Label(class)
	threshold := HeldOutCount(len(files), options.Ratio)
	result := &Result{
		Class:   class,
		Label:   label,
		Total:   len(files),
		HeldOut: files[:threshold],
		Kept:    files[threshold:],
	}

	testPath := filepath.Join(options.DestRoot, testDir, label)
	trainPath := filepath.Join(options.DestRoot, trainDir, label)

	moves := append(
		utils.JoinAll(options.ClassDir, testPath, result.HeldOut),
		utils.JoinAll(options.ClassDir, trainPath, result.Kept)...,
	)

	logging.DebugLog("Class %s -> %s: %d held out, %d kept", class, label, len(result.HeldOut), len(result.Kept))

	rels, err := relocate(ctx, relocation{
		class:     class,
		operation: OperationOrdered,
		dirs:      []string{testPath, trainPath},
		moves:     moves,
		db:        options.DB,
		progress:  options.ProgressOutput,
	})
	result.Relocations = rels
	return result, err
}

// SplitRandom moves a uniformly sampled subset of a class into
// DestRoot/<class>, leaving the rest in place
func SplitRandom(ctx context.Context, options RandomOptions) (*Result, error) {
	if err := config.ValidateRatio(options.Ratio); err != nil {
		return nil, err
	}
	if options.Rand == nil {
		return nil, ErrNoRandomSource
	}

	class, files, err := classFiles(options.ClassDir, options.Class, options.Files)
	if err != nil {
		return nil, err
	}

	picked := SampleIndices(options.Rand, len(files), HeldOutCount(len(files), options.Ratio))
	result := &Result{Class: class, Label: class, Total: len(files)}

	next := 0
	for i, name := range files {
		if next < len(picked) && picked[next] == i {
			result.HeldOut = append(result.HeldOut, name)
			next++
			continue
		}
		result.Kept = append(result.Kept, name)
	}

	testPath := filepath.Join(options.DestRoot, class)
	logging.DebugLog("Class %s: sampled %d of %d files into %s", class, len(result.HeldOut), len(files), testPath)

	rels, err := relocate(ctx, relocation{
		class:     class,
		operation: OperationRandom,
		dirs:      []string{testPath},
		moves:     utils.JoinAll(options.ClassDir, testPath, result.HeldOut),
		db:        options.DB,
		progress:  options.ProgressOutput,
	})
	result.Relocations = rels
	return result, err
}

// ListClassFiles returns the sorted regular, non-hidden files of a class
// directory. The result is never nil, so it can be passed as Files to pin a
// listing taken before other classes start moving files around.
func ListClassFiles(classDir string) ([]string, error) {
	if err := utils.RequireDir(classDir); err != nil {
		return nil, err
	}
	files, err := utils.ListFiles(classDir)
	if err != nil {
		return nil, fmt.Errorf("cannot list %s: %w", classDir, err)
	}
	if files == nil {
		files = []string{}
	}
	return files, nil
}

// classFiles resolves the class name and the files to split. A non-nil
// listing is used as given.
func classFiles(classDir, class string, listing []string) (string, []string, error) {
	if err := utils.RequireDir(classDir); err != nil {
		return "", nil, err
	}
	if class == "" {
		class = filepath.Base(filepath.Clean(classDir))
	}
	if listing != nil {
		return class, append([]string(nil), listing...), nil
	}

	files, err := ListClassFiles(classDir)
	if err != nil {
		return "", nil, fmt.Errorf("class %s: %w", class, err)
	}
	return class, files, nil
}

type relocation struct {
	class     string
	operation string
	dirs      []string
	moves     []utils.Move
	db        *sql.DB
	progress  io.Writer
}

// relocate creates the destination directories, checks that no destination
// exists yet and then moves every file. A collision stops the split before
// any file has moved.
func relocate(ctx context.Context, r relocation) ([]types.Relocation, error) {
	for _, dir := range r.dirs {
		if err := utils.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	r.moves = withoutInPlace(r.moves)
	if err := utils.CheckDestinations(r.moves); err != nil {
		return nil, fmt.Errorf("class %s: refusing to split: %w", r.class, err)
	}

	progress := utils.NewProgress(r.progress, "Splitting "+r.class, len(r.moves))
	defer progress.Finish()

	var done []types.Relocation
	for _, m := range r.moves {
		if err := ctx.Err(); err != nil {
			return done, fmt.Errorf("split of class %s interrupted: %w", r.class, err)
		}

		rel := types.Relocation{
			Class:       r.class,
			Filename:    filepath.Base(m.Source),
			Source:      m.Source,
			Destination: m.Destination,
			Status:      types.RelocationMoved,
		}
		if err := utils.MoveFile(m.Source, m.Destination); err != nil {
			return done, fmt.Errorf("class %s, file %s: %w", r.class, rel.Filename, err)
		}
		logging.LogRelocation(rel)
		done = append(done, rel)

		if r.db != nil {
			if err := database.RecordRelocation(r.db, r.operation, rel); err != nil {
				return done, err
			}
		}
		progress.Increment()
	}

	return done, nil
}

// withoutInPlace drops moves whose source already sits at its destination,
// as when the kept side of a split is the class directory itself
func withoutInPlace(moves []utils.Move) []utils.Move {
	out := moves[:0:0]
	for _, m := range moves {
		src, srcErr := filepath.Abs(m.Source)
		dst, dstErr := filepath.Abs(m.Destination)
		if srcErr == nil && dstErr == nil && src == dst {
			continue
		}
		out = append(out, m)
	}
	return out
}
