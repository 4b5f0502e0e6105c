package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "illinois.sq3", cfg.MapDBPath)
	assert.Equal(t, ".sq3", cfg.StoreSuffix)
	assert.Equal(t, int64(5000), cfg.SampleIntervalMs)
	assert.Equal(t, int64(1000), cfg.OutputStepMs)
	assert.Equal(t, 40, cfg.MinStoreLines)
	assert.Equal(t, 0.005, cfg.SearchRadiusDeg)
	assert.Equal(t, 0.01, cfg.ThresholdMiles)
	assert.Equal(t, "cosines", cfg.MatchDistance)
	assert.Equal(t, "sql", cfg.NodeIndex)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MetricsTextfile)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MAP_DB_PATH", "/data/seattle.sq3")
	t.Setenv("MATCH_DISTANCE", "haversine")
	t.Setenv("MATCH_THRESHOLD_MILES", "0.02")
	t.Setenv("NODE_INDEX", "rtree")
	t.Setenv("MIN_STORE_LINES", "20")
	t.Setenv("METRICS_TEXTFILE", "/var/lib/node_exporter/traceprep.prom")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/data/seattle.sq3", cfg.MapDBPath)
	assert.Equal(t, "haversine", cfg.MatchDistance)
	assert.Equal(t, 0.02, cfg.ThresholdMiles)
	assert.Equal(t, "rtree", cfg.NodeIndex)
	assert.Equal(t, 20, cfg.MinStoreLines)
	assert.Equal(t, "/var/lib/node_exporter/traceprep.prom", cfg.MetricsTextfile)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unparsable interval", "SAMPLE_INTERVAL_MS", "five"},
		{"negative radius", "SEARCH_RADIUS_DEG", "-0.1"},
		{"unknown formula", "MATCH_DISTANCE", "vincenty"},
		{"unknown index", "NODE_INDEX", "btree"},
		{"step longer than interval", "OUTPUT_STEP_MS", "6000"},
		{"step not dividing interval", "OUTPUT_STEP_MS", "3000"},
		{"suffix without dot", "STORE_SUFFIX", "sq3"},
		{"zero threshold", "MATCH_THRESHOLD_MILES", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
