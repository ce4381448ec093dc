package counter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"datasetprep/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountClasses(t *testing.T) {
	root := t.TempDir()
	for class, n := range map[string]int{"A": 3, "B": 0, "C": 5} {
		dir := filepath.Join(root, class)
		require.NoError(t, os.MkdirAll(dir, 0755))
		for i := 0; i < n; i++ {
			require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("%d.jpg", i)), nil, 0644))
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".cache"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), nil, 0644))

	counts, err := CountClasses(root)
	require.NoError(t, err)
	assert.Equal(t, []types.ClassCount{
		{Class: "A", Count: 3},
		{Class: "B", Count: 0},
		{Class: "C", Count: 5},
	}, counts)

	var buf bytes.Buffer
	PrintCounts(&buf, counts)
	assert.Equal(t, "A 3\nB 0\nC 5\n", buf.String())
}

func TestCountClassesMissingRoot(t *testing.T) {
	_, err := CountClasses(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
