package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Config represents the complete canon configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Index    IndexConfig    `json:"index" mapstructure:"index"`
	Baseline BaselineConfig `json:"baseline" mapstructure:"baseline"`
	Cache    CacheConfig    `json:"cache" mapstructure:"cache"`
	Search   SearchConfig   `json:"search" mapstructure:"search"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// IndexConfig controls which files of the local tree are indexed.
type IndexConfig struct {
	Include []string `json:"include" mapstructure:"include"`
	Exclude []string `json:"exclude" mapstructure:"exclude"`
}

// BaselineConfig describes the shared remote corpus.
type BaselineConfig struct {
	// Repo is a reference such as "acme/governance" or "https://github.com/acme/governance".
	// Empty disables the baseline.
	Repo            string   `json:"repo" mapstructure:"repo"`
	Ref             string   `json:"ref" mapstructure:"ref"`
	Token           string   `json:"token,omitempty" mapstructure:"token"`
	GovernedDirs    []string `json:"governedDirs" mapstructure:"governedDirs"`
	Extensions      []string `json:"extensions" mapstructure:"extensions"`
	CheckTimeoutMs  int      `json:"checkTimeoutMs" mapstructure:"checkTimeoutMs"`
	FetchTimeoutMs  int      `json:"fetchTimeoutMs" mapstructure:"fetchTimeoutMs"`
	MaxArchiveBytes int64    `json:"maxArchiveBytes" mapstructure:"maxArchiveBytes"`
	RequestsPerHour int      `json:"requestsPerHour" mapstructure:"requestsPerHour"`
}

// CacheConfig contains TTLs for the baseline cache entries.
type CacheConfig struct {
	IndexTtlSeconds   int `json:"indexTtlSeconds" mapstructure:"indexTtlSeconds"`
	ArchiveTtlSeconds int `json:"archiveTtlSeconds" mapstructure:"archiveTtlSeconds"`
	FileTtlSeconds    int `json:"fileTtlSeconds" mapstructure:"fileTtlSeconds"`
	ShaTtlSeconds     int `json:"shaTtlSeconds" mapstructure:"shaTtlSeconds"`
}

// SearchConfig tunes evidence selection and the advisory threshold.
type SearchConfig struct {
	MinEvidence       int     `json:"minEvidence" mapstructure:"minEvidence"`
	MaxEvidence       int     `json:"maxEvidence" mapstructure:"maxEvidence"`
	AdvisoryThreshold float64 `json:"advisoryThreshold" mapstructure:"advisoryThreshold"`
	MinQuoteWords     int     `json:"minQuoteWords" mapstructure:"minQuoteWords"`
	MaxQuoteWords     int     `json:"maxQuoteWords" mapstructure:"maxQuoteWords"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"` // "json" or "human"
	Level  string `json:"level" mapstructure:"level"`   // "debug", "info", "warn", "error"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Index: IndexConfig{
			Include: []string{"**/*.md", "**/*.markdown"},
			Exclude: []string{".git/**", "node_modules/**", ".canon/**", "vendor/**"},
		},
		Baseline: BaselineConfig{
			GovernedDirs:    []string{"canon", "pattern-library", "patterns", "docs"},
			Extensions:      []string{".md", ".markdown"},
			CheckTimeoutMs:  5000,
			FetchTimeoutMs:  30000,
			MaxArchiveBytes: 64 << 20,
			RequestsPerHour: 60,
		},
		Cache: CacheConfig{
			IndexTtlSeconds:   600,
			ArchiveTtlSeconds: 86400,
			FileTtlSeconds:    86400,
			ShaTtlSeconds:     86400,
		},
		Search: SearchConfig{
			MinEvidence:       2,
			MaxEvidence:       5,
			AdvisoryThreshold: 0.6,
			MinQuoteWords:     8,
			MaxQuoteWords:     60,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .canon/config.json, layered over the
// defaults and overridden by CANON_* environment variables
// (e.g. CANON_BASELINE_TOKEN, CANON_LOGGING_LEVEL).
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".canon"))

	v.SetEnvPrefix("CANON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)
	v.SetDefault("index.include", d.Index.Include)
	v.SetDefault("index.exclude", d.Index.Exclude)
	v.SetDefault("baseline.repo", d.Baseline.Repo)
	v.SetDefault("baseline.ref", d.Baseline.Ref)
	v.SetDefault("baseline.token", d.Baseline.Token)
	v.SetDefault("baseline.governedDirs", d.Baseline.GovernedDirs)
	v.SetDefault("baseline.extensions", d.Baseline.Extensions)
	v.SetDefault("baseline.checkTimeoutMs", d.Baseline.CheckTimeoutMs)
	v.SetDefault("baseline.fetchTimeoutMs", d.Baseline.FetchTimeoutMs)
	v.SetDefault("baseline.maxArchiveBytes", d.Baseline.MaxArchiveBytes)
	v.SetDefault("baseline.requestsPerHour", d.Baseline.RequestsPerHour)
	v.SetDefault("cache.indexTtlSeconds", d.Cache.IndexTtlSeconds)
	v.SetDefault("cache.archiveTtlSeconds", d.Cache.ArchiveTtlSeconds)
	v.SetDefault("cache.fileTtlSeconds", d.Cache.FileTtlSeconds)
	v.SetDefault("cache.shaTtlSeconds", d.Cache.ShaTtlSeconds)
	v.SetDefault("search.minEvidence", d.Search.MinEvidence)
	v.SetDefault("search.maxEvidence", d.Search.MaxEvidence)
	v.SetDefault("search.advisoryThreshold", d.Search.AdvisoryThreshold)
	v.SetDefault("search.minQuoteWords", d.Search.MinQuoteWords)
	v.SetDefault("search.maxQuoteWords", d.Search.MaxQuoteWords)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Save writes the configuration to .canon/config.json. The token is never written.
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".canon")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	out := *c
	out.Baseline.Token = ""
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if len(c.Index.Include) == 0 {
		return &ConfigError{Field: "index.include", Message: "at least one include pattern is required"}
	}
	if c.Search.MinEvidence < 1 {
		return &ConfigError{Field: "search.minEvidence", Message: "must be at least 1"}
	}
	if c.Search.MaxEvidence < c.Search.MinEvidence {
		return &ConfigError{Field: "search.maxEvidence", Message: "must not be smaller than minEvidence"}
	}
	if c.Search.AdvisoryThreshold < 0 || c.Search.AdvisoryThreshold > 1 {
		return &ConfigError{Field: "search.advisoryThreshold", Message: "must be within [0,1]"}
	}
	if c.Search.MinQuoteWords < 1 || c.Search.MaxQuoteWords < c.Search.MinQuoteWords {
		return &ConfigError{Field: "search.maxQuoteWords", Message: "quote word bounds are inconsistent"}
	}
	if c.Baseline.CheckTimeoutMs <= 0 || c.Baseline.FetchTimeoutMs <= 0 {
		return &ConfigError{Field: "baseline", Message: "timeouts must be positive"}
	}
	if c.Cache.IndexTtlSeconds <= 0 || c.Cache.ArchiveTtlSeconds <= 0 ||
		c.Cache.FileTtlSeconds <= 0 || c.Cache.ShaTtlSeconds <= 0 {
		return &ConfigError{Field: "cache", Message: "TTLs must be positive"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'human' or 'json'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
