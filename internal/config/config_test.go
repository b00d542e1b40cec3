package config

import (
	"testing"

	"survivalvolume/domain/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "", cfg.Database.URL)
	assert.Equal(t, 700.0, cfg.Data.Threshold)
	assert.Equal(t, 0.95, cfg.Stats.ConfidenceLevel)
	assert.Equal(t, string(study.IntervalNormal), cfg.Stats.IntervalMethod)
	assert.Equal(t, 1, cfg.Stats.MinGroupSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CONFIDENCE_LEVEL", "0.9")
	t.Setenv("INTERVAL_METHOD", "t")
	t.Setenv("MIN_GROUP_SIZE", "3")
	t.Setenv("REQUIRE_TWO_POINTS", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Stats.ConfidenceLevel)
	assert.Equal(t, "t", cfg.Stats.IntervalMethod)
	assert.Equal(t, 3, cfg.Stats.MinGroupSize)
	assert.True(t, cfg.Stats.RequireTwoPoints)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"CONFIDENCE_LEVEL":   "1.5",
		"INTERVAL_METHOD":    "bootstrap",
		"ENDPOINT_THRESHOLD": "-10",
		"MIN_GROUP_SIZE":     "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestStudyStats(t *testing.T) {
	t.Setenv("INTERVAL_METHOD", "t")
	cfg, err := Load()
	require.NoError(t, err)

	stats := cfg.StudyStats()
	assert.Equal(t, study.IntervalStudentT, stats.IntervalMethod)
	assert.Equal(t, 0.95, stats.ConfidenceLevel)
}
