package config

import (
	"fmt"
	"os"
	"strconv"

	"survivalvolume/domain/study"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Stats    StatsConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds optional results-store connection settings. An
// empty URL disables persistence entirely; the analysis pipeline never
// needs it.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds ingestion settings
type DataConfig struct {
	ExcelFile string
	Sheet     string
	Threshold float64
}

// StatsConfig holds the statistical defaults passed into each analysis
// invocation.
type StatsConfig struct {
	ConfidenceLevel  float64
	IntervalMethod   string
	MinGroupSize     int
	RequireTwoPoints bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Data: DataConfig{
			ExcelFile: getEnvOrDefault("EXCEL_FILE", ""),
			Sheet:     getEnvOrDefault("EXCEL_SHEET", "Sheet1"),
			Threshold: getEnvFloatOrDefault("ENDPOINT_THRESHOLD", 700),
		},
		Stats: StatsConfig{
			ConfidenceLevel:  getEnvFloatOrDefault("CONFIDENCE_LEVEL", 0.95),
			IntervalMethod:   getEnvOrDefault("INTERVAL_METHOD", string(study.IntervalNormal)),
			MinGroupSize:     getEnvIntOrDefault("MIN_GROUP_SIZE", 1),
			RequireTwoPoints: getEnvBoolOrDefault("REQUIRE_TWO_POINTS", false),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// StudyStats converts the loaded stats settings into the per-invocation
// configuration the analysis components take.
func (c *Config) StudyStats() study.StatsConfig {
	return study.StatsConfig{
		ConfidenceLevel:  c.Stats.ConfidenceLevel,
		IntervalMethod:   study.IntervalMethod(c.Stats.IntervalMethod),
		MinGroupSize:     c.Stats.MinGroupSize,
		RequireTwoPoints: c.Stats.RequireTwoPoints,
	}
}

func validate(cfg *Config) error {
	if cfg.Stats.ConfidenceLevel <= 0 || cfg.Stats.ConfidenceLevel >= 1 {
		return fmt.Errorf("CONFIDENCE_LEVEL must be in (0,1), got %v", cfg.Stats.ConfidenceLevel)
	}
	switch study.IntervalMethod(cfg.Stats.IntervalMethod) {
	case study.IntervalNormal, study.IntervalStudentT:
	default:
		return fmt.Errorf("INTERVAL_METHOD must be %q or %q, got %q",
			study.IntervalNormal, study.IntervalStudentT, cfg.Stats.IntervalMethod)
	}
	if cfg.Data.Threshold <= 0 {
		return fmt.Errorf("ENDPOINT_THRESHOLD must be positive, got %v", cfg.Data.Threshold)
	}
	if cfg.Stats.MinGroupSize < 1 {
		return fmt.Errorf("MIN_GROUP_SIZE must be at least 1, got %d", cfg.Stats.MinGroupSize)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
