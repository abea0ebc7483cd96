package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrInvalidChunkBudget = errors.New("chunk budget must be positive")
	ErrInvalidConcurrency = errors.New("concurrency must be positive")
	ErrInvalidRate        = errors.New("requests per second must be positive")
	ErrInvalidRetries     = errors.New("max retries must not be negative")
	ErrInvalidFailOn      = errors.New("fail-on must be none, low, medium, or high")
	ErrInvalidFormat      = errors.New("format must be text, json, markdown, or sarif")
)

// Config holds the effective codecheck configuration.
type Config struct {
	Provider          string      `mapstructure:"provider" yaml:"provider"`
	Model             string      `mapstructure:"model" yaml:"model"`
	Credential        string      `mapstructure:"credential" yaml:"credential,omitempty"`
	BaseURL           string      `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Exclude           []string    `mapstructure:"exclude" yaml:"exclude"`
	ChunkBudget       int         `mapstructure:"chunk_budget" yaml:"chunk_budget"`
	MaxRetries        int         `mapstructure:"max_retries" yaml:"max_retries"`
	Concurrency       int         `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerSecond float64     `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	MaxComments       int         `mapstructure:"max_comments" yaml:"max_comments"`
	ContextLines      int         `mapstructure:"context_lines" yaml:"context_lines"`
	Guidelines        string      `mapstructure:"guidelines" yaml:"guidelines,omitempty"`
	Redact            bool        `mapstructure:"redact" yaml:"redact"`
	RedactPaths       []string    `mapstructure:"redact_paths" yaml:"redact_paths,omitempty"`
	Summary           bool        `mapstructure:"summary" yaml:"summary"`
	FailOn            string      `mapstructure:"fail_on" yaml:"fail_on"`
	Format            string      `mapstructure:"format" yaml:"format"`
	Cache             CacheConfig `mapstructure:"cache" yaml:"cache"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir,omitempty"`
	TTL     int    `mapstructure:"ttl" yaml:"ttl"` // seconds
}

var knownProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"gemini":    true,
	"google":    true,
	"ollama":    true,
	"lmstudio":  true,
}

// Load builds the effective configuration: defaults, then the config file,
// then CODECHECK_* environment variables, then explicit overrides (typically
// CLI flags). configPath forces a specific file; otherwise .codecheck.yaml is
// searched in the working directory and the user config directory, and its
// absence is not an error.
func Load(configPath string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".codecheck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix("CODECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	for key, val := range overrides {
		v.Set(key, val)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "openai")
	v.SetDefault("model", "gpt-4o")
	v.SetDefault("credential", "")
	v.SetDefault("base_url", "")
	v.SetDefault("exclude", []string{"**/*.json", "**/*.md"})
	v.SetDefault("chunk_budget", 12000)
	v.SetDefault("max_retries", 3)
	v.SetDefault("concurrency", 4)
	v.SetDefault("requests_per_second", 1.0)
	v.SetDefault("max_comments", 25)
	v.SetDefault("context_lines", 3)
	v.SetDefault("guidelines", "")
	v.SetDefault("redact", true)
	v.SetDefault("redact_paths", []string{"**/.env", "**/*secrets*"})
	v.SetDefault("summary", true)
	v.SetDefault("fail_on", "none")
	v.SetDefault("format", "text")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", 86400)
}

// Validate checks the configuration for values no command could run with.
func (c *Config) Validate() error {
	if !knownProviders[c.Provider] {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.ChunkBudget <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkBudget, c.ChunkBudget)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidConcurrency, c.Concurrency)
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidRate, c.RequestsPerSecond)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRetries, c.MaxRetries)
	}
	switch c.FailOn {
	case "none", "low", "medium", "high":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFailOn, c.FailOn)
	}
	switch c.Format {
	case "text", "json", "markdown", "sarif":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}
	return nil
}

// Dir returns the platform-appropriate config directory for codecheck.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "codecheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "codecheck"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "codecheck"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "codecheck"), nil
	default:
		return filepath.Join(home, ".config", "codecheck"), nil
	}
}

const defaultFileContent = `# codecheck configuration
provider: openai # openai | anthropic | gemini | ollama
model: gpt-4o
# credential: "" # falls back to OPENAI_API_KEY / ANTHROPIC_API_KEY / GEMINI_API_KEY

# Glob patterns excluded from review.
exclude:
  - "**/*.json"
  - "**/*.md"

chunk_budget: 12000 # characters of diff per model request
max_retries: 3
concurrency: 4
requests_per_second: 1
max_comments: 25

# Strip secret-looking tokens from diffs before sending.
redact: true

# Include a summary body with the review.
summary: true

# Gate for patch mode and the pre-commit hook: none | low | medium | high.
fail_on: none

# Report format for patch mode: text | json | markdown | sarif.
format: text

cache:
  enabled: true
  ttl: 86400 # seconds
`

// WriteDefault writes a commented starter config file. It refuses to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, []byte(defaultFileContent), 0o644)
}
