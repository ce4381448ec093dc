package utils

import (
	"testing"

	"datasetprep/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	args := ParseArguments([]string{
		"split-ratio", "--each", "data/Stone", "data",
		"--positive=chalcopyrite", "--seed", "42", "0.2",
	})

	assert.Equal(t, "split-ratio", args.Command)
	assert.True(t, args.Bool("each"))
	assert.False(t, args.Bool("debug"))
	assert.Equal(t, []string{"data/Stone", "data", "0.2"}, args.Positional)

	positive, ok := args.Flag("positive")
	require.True(t, ok)
	assert.Equal(t, "chalcopyrite", positive)

	seed, ok := args.Flag("seed")
	require.True(t, ok)
	assert.Equal(t, "42", seed)
}

func TestParseArgumentsTrailingFlag(t *testing.T) {
	args := ParseArguments([]string{"count", "data", "--logfile"})

	assert.Equal(t, "count", args.Command)
	assert.Equal(t, []string{"data"}, args.Positional)
	v, ok := args.Flag("logfile")
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestParseArgumentsUnknownCommand(t *testing.T) {
	args := ParseArguments([]string{"resize", "data"})

	assert.Empty(t, args.Command)
	assert.Equal(t, []string{"resize", "data"}, args.Positional)
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.2", 0.2},
		{"20%", 0.2},
		{" 0.5 ", 0.5},
		{"0", 0},
		{"1", 1},
		{"100%", 1},
	}
	for _, tt := range tests {
		got, err := ParseRatio(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-12, tt.in)
	}
}

func TestParseRatioRejectsInvalid(t *testing.T) {
	for _, in := range []string{"1.5", "-0.1", "150%", "NaN"} {
		_, err := ParseRatio(in)
		assert.ErrorIs(t, err, config.ErrInvalidRatio, in)
	}

	_, err := ParseRatio("fifth")
	assert.Error(t, err)
}

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), seed)

	_, err = ParseSeed("forty-two")
	assert.Error(t, err)
}
