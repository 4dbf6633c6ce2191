package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, SourceCSV, cfg.Source)
	assert.Equal(t, 4, cfg.K)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 1, cfg.MinK)
	assert.Equal(t, 10, cfg.MaxK)
	assert.Equal(t, "impute-median", cfg.MissingRating)
	assert.True(t, cfg.UseRating)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SEGMENTER_SOURCE", "mysql")
	t.Setenv("SEGMENTER_MYSQL_DSN", "mysql://u:p@db:3306/retail")
	t.Setenv("SEGMENTER_K", "6")
	t.Setenv("SEGMENTER_SEED", "7")
	t.Setenv("SEGMENTER_USE_RATING", "false")
	t.Setenv("SEGMENTER_WORKERS", "not-a-number")

	cfg := Load()

	assert.Equal(t, SourceMySQL, cfg.Source)
	assert.Equal(t, 6, cfg.K)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.False(t, cfg.UseRating)
	assert.Equal(t, 4, cfg.Workers, "unparsable values fall back to the default")
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown source", mutate: func(c *Config) { c.Source = "parquet" }},
		{name: "csv without input", mutate: func(c *Config) { c.Input = "" }},
		{name: "mysql without dsn", mutate: func(c *Config) { c.Source = SourceMySQL; c.MySQLDSN = "" }},
		{name: "k below one", mutate: func(c *Config) { c.K = 0 }},
		{name: "inverted range", mutate: func(c *Config) { c.MinK, c.MaxK = 5, 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
