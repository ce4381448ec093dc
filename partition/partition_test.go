package partition

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"datasetprep/config"
	"datasetprep/database"
	"datasetprep/types"
	"datasetprep/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeClass creates dir with n files named f00.jpg, f01.jpg, ...
func makeClass(t *testing.T, dir string, n int) []string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("f%02d.jpg", i)
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
		names = append(names, name)
	}
	return names
}

func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	files, err := utils.ListFiles(dir)
	require.NoError(t, err)
	return files
}

func TestHeldOutCount(t *testing.T) {
	tests := []struct {
		n     int
		ratio float64
		want  int
	}{
		{10, 0.2, 2},
		{3, 0.2, 0},
		{7, 0.5, 3},
		{10, 0.3, 3},
		{10, 0.7, 7},
		{5, 1, 5},
		{5, 0, 0},
		{0, 0.5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HeldOutCount(tt.n, tt.ratio), "n=%d ratio=%v", tt.n, tt.ratio)
	}
}

func TestSampleIndices(t *testing.T) {
	picked := SampleIndices(rand.New(rand.NewSource(3)), 20, 6)

	require.Len(t, picked, 6)
	assert.IsIncreasing(t, picked)
	for _, i := range picked {
		assert.True(t, i >= 0 && i < 20)
	}

	assert.Nil(t, SampleIndices(rand.New(rand.NewSource(3)), 20, 0))
	assert.Len(t, SampleIndices(rand.New(rand.NewSource(3)), 4, 9), 4)
}

func TestLabelMapper(t *testing.T) {
	none := LabelMapper{}
	assert.Equal(t, "pyrite", none.Label("pyrite"))

	positive := LabelMapper{Positive: "chalcopyrite", Other: "etc"}
	assert.Equal(t, "chalcopyrite", positive.Label("chalcopyrite"))
	assert.Equal(t, "etc", positive.Label("pyrite"))
	assert.Equal(t, "etc", positive.Label("quartz"))
}

func TestSplitOrdered(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Stone", "chalcopyrite")
	names := makeClass(t, classDir, 10)
	dest := filepath.Join(root, "data")

	result, err := SplitOrdered(context.Background(), OrderedOptions{
		ClassDir: classDir,
		DestRoot: dest,
		Ratio:    0.2,
		Labels:   LabelMapper{Positive: "chalcopyrite", Other: "etc"},
	})
	require.NoError(t, err)

	assert.Equal(t, "chalcopyrite", result.Label)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, names[:2], result.HeldOut)
	assert.Equal(t, names[2:], result.Kept)
	assert.Len(t, result.Relocations, 10)

	assert.Equal(t, names[:2], listFiles(t, filepath.Join(dest, "Test", "chalcopyrite")))
	assert.Equal(t, names[2:], listFiles(t, filepath.Join(dest, "Train", "chalcopyrite")))
	assert.Empty(t, listFiles(t, classDir))
}

func TestSplitOrderedCollapsesOtherClasses(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "data")
	labels := LabelMapper{Positive: "chalcopyrite", Other: "etc"}

	makeClass(t, filepath.Join(root, "Stone", "pyrite"), 5)
	quartz := filepath.Join(root, "Stone", "quartz")
	require.NoError(t, os.MkdirAll(quartz, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(quartz, "q.jpg"), []byte("q"), 0644))

	for _, class := range []string{"pyrite", "quartz"} {
		result, err := SplitOrdered(context.Background(), OrderedOptions{
			ClassDir: filepath.Join(root, "Stone", class),
			DestRoot: dest,
			Ratio:    0.4,
			Labels:   labels,
		})
		require.NoError(t, err)
		assert.Equal(t, "etc", result.Label)
	}

	assert.Equal(t, []string{"f00.jpg", "f01.jpg"}, listFiles(t, filepath.Join(dest, "Test", "etc")))
	assert.Equal(t, []string{"f02.jpg", "f03.jpg", "f04.jpg", "q.jpg"}, listFiles(t, filepath.Join(dest, "Train", "etc")))
}

func TestSplitOrderedSmallClass(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Stone", "rare")
	names := makeClass(t, classDir, 3)
	dest := filepath.Join(root, "data")

	result, err := SplitOrdered(context.Background(), OrderedOptions{ClassDir: classDir, DestRoot: dest, Ratio: 0.2})
	require.NoError(t, err)

	assert.Empty(t, result.HeldOut)
	assert.DirExists(t, filepath.Join(dest, "Test", "rare"))
	assert.Empty(t, listFiles(t, filepath.Join(dest, "Test", "rare")))
	assert.Equal(t, names, listFiles(t, filepath.Join(dest, "Train", "rare")))
}

func TestSplitOrderedInPlace(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Train", "pyrite")
	names := makeClass(t, classDir, 4)

	result, err := SplitOrdered(context.Background(), OrderedOptions{ClassDir: classDir, DestRoot: root, Ratio: 0.5})
	require.NoError(t, err)

	assert.Len(t, result.Relocations, 2)
	assert.Equal(t, names[:2], listFiles(t, filepath.Join(root, "Test", "pyrite")))
	assert.Equal(t, names[2:], listFiles(t, classDir))
}

func TestSplitOrderedRefusesToOverwrite(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Stone", "pyrite")
	names := makeClass(t, classDir, 5)
	dest := filepath.Join(root, "data")

	taken := filepath.Join(dest, "Train", "pyrite", "f04.jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(taken), 0755))
	require.NoError(t, os.WriteFile(taken, []byte("earlier"), 0644))

	_, err := SplitOrdered(context.Background(), OrderedOptions{ClassDir: classDir, DestRoot: dest, Ratio: 0.2})
	assert.ErrorIs(t, err, utils.ErrDestinationExists)

	assert.Equal(t, names, listFiles(t, classDir))
	assert.Empty(t, listFiles(t, filepath.Join(dest, "Test", "pyrite")))
	data, err := os.ReadFile(taken)
	require.NoError(t, err)
	assert.Equal(t, "earlier", string(data))
}

func TestSplitOrderedCustomDirs(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Stone", "pyrite")
	makeClass(t, classDir, 4)
	dest := filepath.Join(root, "data")

	_, err := SplitOrdered(context.Background(), OrderedOptions{
		ClassDir: classDir,
		DestRoot: dest,
		Ratio:    0.25,
		TrainDir: "fit",
		TestDir:  "holdout",
	})
	require.NoError(t, err)

	assert.Len(t, listFiles(t, filepath.Join(dest, "holdout", "pyrite")), 1)
	assert.Len(t, listFiles(t, filepath.Join(dest, "fit", "pyrite")), 3)
}

func TestSplitOrderedInvalidRatio(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "pyrite")
	makeClass(t, classDir, 2)

	_, err := SplitOrdered(context.Background(), OrderedOptions{ClassDir: classDir, DestRoot: root, Ratio: 1.2})
	assert.ErrorIs(t, err, config.ErrInvalidRatio)
	assert.Len(t, listFiles(t, classDir), 2)
}

func TestSplitRandom(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Train", "etc")
	names := makeClass(t, classDir, 10)
	dest := filepath.Join(root, "Test")

	result, err := SplitRandom(context.Background(), RandomOptions{
		ClassDir: classDir,
		DestRoot: dest,
		Ratio:    0.3,
		Rand:     rand.New(rand.NewSource(42)),
	})
	require.NoError(t, err)

	assert.Len(t, result.HeldOut, 3)
	assert.Len(t, result.Kept, 7)

	moved := listFiles(t, filepath.Join(dest, "etc"))
	stayed := listFiles(t, classDir)
	assert.Equal(t, result.HeldOut, moved)
	assert.Equal(t, result.Kept, stayed)
	assert.ElementsMatch(t, names, append(append([]string{}, moved...), stayed...))
}

func TestSplitRandomReproducible(t *testing.T) {
	split := func() []string {
		root := t.TempDir()
		classDir := filepath.Join(root, "Train", "etc")
		makeClass(t, classDir, 25)

		result, err := SplitRandom(context.Background(), RandomOptions{
			ClassDir: classDir,
			DestRoot: filepath.Join(root, "Test"),
			Ratio:    0.2,
			Rand:     rand.New(rand.NewSource(7)),
		})
		require.NoError(t, err)
		return result.HeldOut
	}

	first := split()
	assert.Len(t, first, 5)
	assert.Equal(t, first, split())
}

func TestSplitRandomRequiresSource(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "etc")
	makeClass(t, classDir, 3)

	_, err := SplitRandom(context.Background(), RandomOptions{ClassDir: classDir, DestRoot: root, Ratio: 0.5})
	assert.ErrorIs(t, err, ErrNoRandomSource)
}

func TestSplitRandomJournalsMoves(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Train", "etc")
	makeClass(t, classDir, 4)

	db, err := database.InitDatabase(filepath.Join(root, "index.db"))
	require.NoError(t, err)
	defer db.Close()

	result, err := SplitRandom(context.Background(), RandomOptions{
		ClassDir: classDir,
		DestRoot: filepath.Join(root, "Test"),
		Ratio:    0.5,
		Rand:     rand.New(rand.NewSource(1)),
		DB:       db,
	})
	require.NoError(t, err)

	rels, err := database.ListRelocations(db, "etc")
	require.NoError(t, err)
	require.Len(t, rels, 2)
	for i, rel := range rels {
		assert.Equal(t, result.HeldOut[i], rel.Filename)
		assert.Equal(t, types.RelocationMoved, rel.Status)
	}
}

func TestSplitCancelled(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Stone", "pyrite")
	makeClass(t, classDir, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SplitOrdered(ctx, OrderedOptions{ClassDir: classDir, DestRoot: filepath.Join(root, "data"), Ratio: 0.5})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, listFiles(t, classDir), 4)
}

func TestSplitOrderedRatioBounds(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "data")

	all := makeClass(t, filepath.Join(root, "Stone", "pyrite"), 4)
	_, err := SplitOrdered(context.Background(), OrderedOptions{ClassDir: filepath.Join(root, "Stone", "pyrite"), DestRoot: dest, Ratio: 1})
	require.NoError(t, err)
	assert.Equal(t, all, listFiles(t, filepath.Join(dest, "Test", "pyrite")))
	assert.Empty(t, listFiles(t, filepath.Join(dest, "Train", "pyrite")))

	none := makeClass(t, filepath.Join(root, "Stone", "quartz"), 4)
	_, err = SplitOrdered(context.Background(), OrderedOptions{ClassDir: filepath.Join(root, "Stone", "quartz"), DestRoot: dest, Ratio: 0})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(dest, "Test", "quartz"))
	assert.Empty(t, listFiles(t, filepath.Join(dest, "Test", "quartz")))
	assert.Equal(t, none, listFiles(t, filepath.Join(dest, "Train", "quartz")))
}

func TestSplitRandomRatioBounds(t *testing.T) {
	root := t.TempDir()
	dest := filepath.Join(root, "Test")

	allDir := filepath.Join(root, "Train", "pyrite")
	all := makeClass(t, allDir, 5)
	result, err := SplitRandom(context.Background(), RandomOptions{
		ClassDir: allDir,
		DestRoot: dest,
		Ratio:    1,
		Rand:     rand.New(rand.NewSource(5)),
	})
	require.NoError(t, err)
	assert.Equal(t, all, result.HeldOut)
	assert.Equal(t, all, listFiles(t, filepath.Join(dest, "pyrite")))
	assert.Empty(t, listFiles(t, allDir))

	noneDir := filepath.Join(root, "Train", "quartz")
	none := makeClass(t, noneDir, 5)
	result, err = SplitRandom(context.Background(), RandomOptions{
		ClassDir: noneDir,
		DestRoot: dest,
		Ratio:    0,
		Rand:     rand.New(rand.NewSource(5)),
	})
	require.NoError(t, err)
	assert.Empty(t, result.HeldOut)
	assert.DirExists(t, filepath.Join(dest, "quartz"))
	assert.Empty(t, listFiles(t, filepath.Join(dest, "quartz")))
	assert.Equal(t, none, listFiles(t, noneDir))
}

func TestLabelMapperDefaultsOther(t *testing.T) {
	m := LabelMapper{Positive: "chalcopyrite"}

	assert.Equal(t, "chalcopyrite", m.Label("chalcopyrite"))
	assert.Equal(t, config.DefaultOtherLabel, m.Label("pyrite"))
}

func TestSplitOrderedWithoutOtherLabel(t *testing.T) {
	root := t.TempDir()
	classDir := filepath.Join(root, "Stone", "pyrite")
	names := makeClass(t, classDir, 2)
	dest := filepath.Join(root, "data")

	result, err := SplitOrdered(context.Background(), OrderedOptions{
		ClassDir: classDir,
		DestRoot: dest,
		Ratio:    0.5,
		Labels:   LabelMapper{Positive: "chalcopyrite"},
	})
	require.NoError(t, err)

	assert.Equal(t, "etc", result.Label)
	assert.Equal(t, names[:1], listFiles(t, filepath.Join(dest, "Test", "etc")))
	assert.Equal(t, names[1:], listFiles(t, filepath.Join(dest, "Train", "etc")))
	assert.Empty(t, listFiles(t, filepath.Join(dest, "Train")))
}

func writeNamed(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0644))
	}
}

// Splitting Train in place with a positive class moves biotite's kept files
// into Train/etc before etc itself is split. Listings taken up front keep
// those files out of etc's split.
func TestSplitOrderedPinnedListings(t *testing.T) {
	root := t.TempDir()
	train := filepath.Join(root, "Train")
	writeNamed(t, filepath.Join(train, "biotite"), "b1.jpg", "b2.jpg", "b3.jpg", "b4.jpg")
	writeNamed(t, filepath.Join(train, "chalcopyrite"), "c1.jpg", "c2.jpg")
	writeNamed(t, filepath.Join(train, "etc"), "e1.jpg", "e2.jpg", "e3.jpg", "e4.jpg")

	classes := []string{"biotite", "chalcopyrite", "etc"}
	listings := make(map[string][]string)
	for _, class := range classes {
		files, err := ListClassFiles(filepath.Join(train, class))
		require.NoError(t, err)
		listings[class] = files
	}

	labels := LabelMapper{Positive: "chalcopyrite", Other: "etc"}
	results := make(map[string]*Result)
	for _, class := range classes {
		result, err := SplitOrdered(context.Background(), OrderedOptions{
			ClassDir: filepath.Join(train, class),
			Class:    class,
			Files:    listings[class],
			DestRoot: root,
			Ratio:    0.5,
			Labels:   labels,
		})
		require.NoError(t, err)
		results[class] = result
	}

	assert.Equal(t, 4, results["etc"].Total)
	assert.Equal(t, []string{"e1.jpg", "e2.jpg"}, results["etc"].HeldOut)
	assert.Equal(t, []string{"b1.jpg", "b2.jpg", "e1.jpg", "e2.jpg"}, listFiles(t, filepath.Join(root, "Test", "etc")))
	assert.Equal(t, []string{"b3.jpg", "b4.jpg", "e3.jpg", "e4.jpg"}, listFiles(t, filepath.Join(train, "etc")))
	assert.Equal(t, []string{"c1.jpg"}, listFiles(t, filepath.Join(root, "Test", "chalcopyrite")))
	assert.Equal(t, []string{"c2.jpg"}, listFiles(t, filepath.Join(train, "chalcopyrite")))
}

func TestListClassFilesEmptyIsNotNil(t *testing.T) {
	files, err := ListClassFiles(t.TempDir())
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	_, err = ListClassFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
