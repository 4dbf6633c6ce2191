// Package config provides the segmenter configuration loaded from environment variables.
// CLI flags in cmd/segmenter override whatever is loaded here.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	SourceCSV   = "csv"
	SourceMySQL = "mysql"
)

// Config holds all segmenter configuration.
type Config struct {
	LogLevel string

	// Input
	Source     string // csv | mysql
	Input      string // CSV path
	MySQLDSN   string
	MySQLTable string

	// Output
	OutputDir   string
	MetricsFile string // node-exporter textfile; empty disables

	// Cleaning
	Clean bool // drop rows without amount and clip amount outliers

	// Features
	UseRating            bool
	MissingRating        string // impute-median | drop
	DropConstantFeatures bool

	// Clustering
	K        int
	Seed     int64
	MinK     int
	MaxK     int
	NInit    int
	MaxIter  int
	Workers  int
	Diagnose bool // run the cluster-count diagnostics
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Source:     getEnv("SEGMENTER_SOURCE", SourceCSV),
		Input:      getEnv("SEGMENTER_INPUT", "Fashion_Retail_Sales.csv"),
		MySQLDSN:   getEnv("SEGMENTER_MYSQL_DSN", ""),
		MySQLTable: getEnv("SEGMENTER_MYSQL_TABLE", "transactions"),

		OutputDir:   getEnv("SEGMENTER_OUTPUT_DIR", "reports/"),
		MetricsFile: getEnv("SEGMENTER_METRICS_FILE", ""),

		Clean: getEnvBool("SEGMENTER_CLEAN", true),

		UseRating:            getEnvBool("SEGMENTER_USE_RATING", true),
		MissingRating:        getEnv("SEGMENTER_MISSING_RATING", "impute-median"),
		DropConstantFeatures: getEnvBool("SEGMENTER_DROP_CONSTANT", false),

		K:        getEnvInt("SEGMENTER_K", 4),
		Seed:     int64(getEnvInt("SEGMENTER_SEED", 42)),
		MinK:     getEnvInt("SEGMENTER_MIN_K", 1),
		MaxK:     getEnvInt("SEGMENTER_MAX_K", 10),
		NInit:    getEnvInt("SEGMENTER_N_INIT", 10),
		MaxIter:  getEnvInt("SEGMENTER_MAX_ITER", 300),
		Workers:  getEnvInt("SEGMENTER_WORKERS", 4),
		Diagnose: getEnvBool("SEGMENTER_DIAGNOSE", true),
	}
}

// Validate checks values that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if c.Input == "" {
			return fmt.Errorf("csv source needs an input path")
		}
	case SourceMySQL:
		if c.MySQLDSN == "" {
			return fmt.Errorf("mysql source needs a DSN")
		}
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", c.Source, SourceCSV, SourceMySQL)
	}
	if c.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d", c.K)
	}
	if c.Diagnose && (c.MinK < 1 || c.MaxK < c.MinK) {
		return fmt.Errorf("invalid diagnostic range [%d, %d]", c.MinK, c.MaxK)
	}
	return nil
}

// getEnv returns the environment variable value or a default.
func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
