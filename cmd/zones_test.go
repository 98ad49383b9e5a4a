package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWeightsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadWeightsFile(t *testing.T) {
	path := writeWeightsFile(t, `
category_weights:
  Earthquakes: 95
  Meteor Strikes: 100
default_weight: 15
`)

	scoring, err := loadWeightsFile(path)
	require.NoError(t, err)
	assert.Equal(t, 95, scoring.CategoryWeights["Earthquakes"])
	assert.Equal(t, 100, scoring.CategoryWeights["Meteor Strikes"])
	assert.Equal(t, 15, scoring.DefaultWeight)
	// Recency tiers keep their defaults when the file omits them.
	assert.NotEmpty(t, scoring.RecencyTiers)
}

func TestLoadWeightsFileRejectsInvalid(t *testing.T) {
	path := writeWeightsFile(t, `
category_weights:
  Earthquakes: -5
`)

	_, err := loadWeightsFile(path)
	require.Error(t, err)
}

func TestLoadWeightsFileMissing(t *testing.T) {
	_, err := loadWeightsFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "fetch", "zones", "serve"} {
		assert.True(t, names[want], want)
	}
}
