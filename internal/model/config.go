package model

import (
	"runtime"
	"time"
)

// Config is the complete medimatch configuration. The zero value is not
// usable; start from DefaultConfig and override.
type Config struct {
	Engine      EngineConfig      `yaml:"engine" mapstructure:"engine"`
	Normalizer  NormalizerConfig  `yaml:"normalizer" mapstructure:"normalizer"`
	Data        DataConfig        `yaml:"data" mapstructure:"data"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// EngineConfig tunes scoring and the decision policy
type EngineConfig struct {
	ConfidenceThreshold   float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	DefaultSeverityWeight float64 `yaml:"default_severity_weight" mapstructure:"default_severity_weight"`
	MaxMissing            int     `yaml:"max_missing" mapstructure:"max_missing"` // 0 = report every missing symptom
}

// NormalizerConfig controls input tokenization
type NormalizerConfig struct {
	SymptomDelimiter string `yaml:"symptom_delimiter" mapstructure:"symptom_delimiter"`
}

// DataConfig selects where reference tables come from
type DataConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // CSV dataset directory; empty = embedded sample
	DB  string `yaml:"db" mapstructure:"db"`   // SQLite path; takes precedence over Dir when set
}

// CacheConfig controls the result cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"` // optional on-disk layer for batch runs
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string        `yaml:"addr" mapstructure:"addr"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// Defaults for the matching engine and normalizer
const (
	DefaultConfidenceThreshold = 0.4
	DefaultSeverityWeight      = 1.0
	DefaultSymptomDelimiter    = ","
)

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ConfidenceThreshold:   DefaultConfidenceThreshold,
			DefaultSeverityWeight: DefaultSeverityWeight,
			MaxMissing:            0,
		},
		Normalizer: NormalizerConfig{
			SymptomDelimiter: DefaultSymptomDelimiter,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerSecond: 10,
			Burst:             20,
			ShutdownTimeout:   10 * time.Second,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
