// Package common provides shared configuration and telemetry for the
// sndata applications.
package common

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds common configuration for all applications.
type Config struct {
	ClickHouseHost     string
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	DataDir            string
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ClickHouseHost:     getEnv("CLICKHOUSE_HOST", "127.0.0.1:9000"),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "sndata"),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		DataDir:            defaultDataDir(),
	}
}

// ReleaseDir returns the directory where files for a survey / data release
// are cached. Survey and release names are lowercased and spaces replaced
// with underscores so the on-disk layout is stable across platforms.
func (c *Config) ReleaseDir(surveyAbbrev, release string) string {
	return filepath.Join(c.DataDir, safeName(surveyAbbrev), safeName(release))
}

// ParquetDir returns the directory used for Parquet exports.
func (c *Config) ParquetDir() string {
	return filepath.Join(c.DataDir, "parquet")
}

func safeName(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "_")
}

func defaultDataDir() string {
	if dir := os.Getenv("SNDATA_DIR"); dir != "" {
		return dir
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "sndata")
	}
	return filepath.Join(home, ".sndata")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
