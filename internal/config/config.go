package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (A11YHUB_FORMAT, ...)
const EnvPrefix = "A11YHUB"

var idPrefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Config holds all configuration for a11yhub
type Config struct {
	// Storage configuration
	StorageDir string `mapstructure:"storage_dir"`

	// Output format (text, json, markdown)
	Format string `mapstructure:"format"`

	// Number of last runs to analyze
	LastRuns int `mapstructure:"last_runs"`

	Verbose bool `mapstructure:"verbose"`
	Debug   bool `mapstructure:"debug"`

	// Checklist template; empty means the embedded default
	TemplateFile string `mapstructure:"template_file"`

	// Finding id prefix (A11Y -> A11Y-001)
	IDPrefix string `mapstructure:"id_prefix"`

	// Workers reading scan files
	Workers int `mapstructure:"workers"`

	// Report front matter
	Project    string `mapstructure:"project"`
	Auditor    string `mapstructure:"auditor"`
	WCAGTarget string `mapstructure:"wcag_target"`
	Scope      string `mapstructure:"scope"`

	// Prometheus textfile; empty disables metrics export
	MetricsFile string `mapstructure:"metrics_file"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		StorageDir: ".a11yhub",
		Format:     "text",
		LastRuns:   7,
		IDPrefix:   "A11Y",
		Workers:    10,
		Auditor:    "Accessibility Team",
		WCAGTarget: "WCAG 2.1 AA",
		Scope:      "In-scope pages and key user flows",
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (./a11yhub.yaml, ~/a11yhub.yaml, $XDG_CONFIG_HOME/a11yhub/a11yhub.yaml)
// 3. Environment variables (A11YHUB_*)
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path
// If path is empty, it searches for config in standard locations
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("storage_dir", defaults.StorageDir)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("last_runs", defaults.LastRuns)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("template_file", defaults.TemplateFile)
	v.SetDefault("id_prefix", defaults.IDPrefix)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("project", defaults.Project)
	v.SetDefault("auditor", defaults.Auditor)
	v.SetDefault("wcag_target", defaults.WCAGTarget)
	v.SetDefault("scope", defaults.Scope)
	v.SetDefault("metrics_file", defaults.MetricsFile)

	v.SetConfigName("a11yhub")
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}

		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "a11yhub"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is OK, we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ValidFormats lists the accepted report formats
var ValidFormats = []string{"text", "json", "markdown"}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !IsValidFormat(c.Format) {
		return fmt.Errorf("invalid format: %s (must be %s)", c.Format, strings.Join(ValidFormats, ", "))
	}

	if c.LastRuns <= 0 {
		return fmt.Errorf("last_runs must be positive")
	}

	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir cannot be empty")
	}

	if !idPrefixPattern.MatchString(c.IDPrefix) {
		return fmt.Errorf("invalid id_prefix %q (letters, digits and underscores, starting with a letter)", c.IDPrefix)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}

	return nil
}

// IsValidFormat reports whether format is one of ValidFormats
func IsValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// GetStoragePath returns the absolute path to the storage directory
func (c *Config) GetStoragePath() (string, error) {
	if strings.HasPrefix(c.StorageDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, c.StorageDir[2:]), nil
	}

	absPath, err := filepath.Abs(c.StorageDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GenerateSampleConfig generates a sample configuration file content
func GenerateSampleConfig() string {
	return `# a11yhub configuration
# Save this file as ./a11yhub.yaml or ~/a11yhub.yaml
# Every key can be overridden with A11YHUB_<KEY>, e.g. A11YHUB_FORMAT=json

# Directory to store gate-passed audit runs
storage_dir: .a11yhub

# Output format: text, json, or markdown
format: text

# Number of last runs to analyze in summarize command
last_runs: 7

# Checklist template (empty = built-in WCAG checklist)
template_file: ""

# Finding id prefix: A11Y -> A11Y-001
id_prefix: A11Y

# Concurrent scan file readers
workers: 10

# Report front matter
project: ""
auditor: Accessibility Team
wcag_target: WCAG 2.1 AA
scope: In-scope pages and key user flows

# Prometheus textfile (empty = disabled)
metrics_file: ""

verbose: false
debug: false
`
}
