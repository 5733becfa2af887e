package runtimeconfig

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrLanguagesRequired = errors.New("polyglot config: at least one language is required")
var ErrLanguagePrefixInvalid = errors.New("polyglot config: language prefix is invalid")
var ErrLanguageNameRequired = errors.New("polyglot config: language name is required")
var ErrDuplicateLanguage = errors.New("polyglot config: duplicate language prefix")
var ErrStorageProviderUnknown = errors.New("polyglot config: storage provider is invalid")
var ErrStorageDSNRequired = errors.New("polyglot config: storage dsn is required")
var ErrCacheTTLInvalid = errors.New("polyglot config: cache ttl must be positive when cache is enabled")
var ErrHTTPAddrRequired = errors.New("polyglot config: http address is required")
var ErrLoggingProviderUnknown = errors.New("polyglot config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("polyglot config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("polyglot config: logging format is invalid")

var prefixPattern = regexp.MustCompile(`^[a-z]{2,8}$`)

// Config aggregates the runtime options of the polyglot module. File values
// are overlaid on DefaultConfig and environment variables win over both.
type Config struct {
	Languages []LanguageConfig `yaml:"languages" json:"languages" toml:"languages"`
	Storage   StorageConfig    `yaml:"storage" json:"storage" toml:"storage"`
	Cache     CacheConfig      `yaml:"cache" json:"cache" toml:"cache"`
	HTTP      HTTPConfig       `yaml:"http" json:"http" toml:"http"`
	Logging   LoggingConfig    `yaml:"logging" json:"logging" toml:"logging"`
	Features  Features         `yaml:"features" json:"features" toml:"features"`
}

// LanguageConfig declares one supported language.
type LanguageConfig struct {
	Prefix string `yaml:"prefix" json:"prefix" toml:"prefix"`
	Name   string `yaml:"name" json:"name" toml:"name"`
}

// StorageConfig selects the database backend.
type StorageConfig struct {
	Provider     string `yaml:"provider" json:"provider" toml:"provider" env:"POLYGLOT_STORAGE_PROVIDER"`
	DSN          string `yaml:"dsn" json:"dsn" toml:"dsn" env:"POLYGLOT_STORAGE_DSN"`
	MaxOpenConns int    `yaml:"max_open_conns" json:"max_open_conns" toml:"max_open_conns" env:"POLYGLOT_STORAGE_MAX_OPEN_CONNS"`
	AutoMigrate  bool   `yaml:"auto_migrate" json:"auto_migrate" toml:"auto_migrate" env:"POLYGLOT_STORAGE_AUTO_MIGRATE"`
}

// CacheConfig captures the language registry cache.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled" toml:"enabled" env:"POLYGLOT_CACHE_ENABLED"`
	LanguageTTL time.Duration `yaml:"language_ttl" json:"language_ttl" toml:"language_ttl" env:"POLYGLOT_CACHE_LANGUAGE_TTL"`
}

// HTTPConfig captures the server boundary.
type HTTPConfig struct {
	Addr           string        `yaml:"addr" json:"addr" toml:"addr" env:"POLYGLOT_HTTP_ADDR"`
	ReadTimeout    time.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout" env:"POLYGLOT_HTTP_READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout" env:"POLYGLOT_HTTP_WRITE_TIMEOUT"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout" toml:"request_timeout" env:"POLYGLOT_HTTP_REQUEST_TIMEOUT"`
	CORSOrigins    []string      `yaml:"cors_origins" json:"cors_origins" toml:"cors_origins" env:"POLYGLOT_HTTP_CORS_ORIGINS" env-separator:","`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" json:"provider" toml:"provider" env:"POLYGLOT_LOG_PROVIDER"`
	Level     string   `yaml:"level" json:"level" toml:"level" env:"POLYGLOT_LOG_LEVEL"`
	Format    string   `yaml:"format" json:"format" toml:"format" env:"POLYGLOT_LOG_FORMAT"`
	AddSource bool     `yaml:"add_source" json:"add_source" toml:"add_source" env:"POLYGLOT_LOG_ADD_SOURCE"`
	Focus     []string `yaml:"focus" json:"focus" toml:"focus" env:"POLYGLOT_LOG_FOCUS" env-separator:","`
}

// Features toggles optional functionality.
type Features struct {
	Metrics       bool `yaml:"metrics" json:"metrics" toml:"metrics" env:"POLYGLOT_FEATURE_METRICS"`
	SeedLanguages bool `yaml:"seed_languages" json:"seed_languages" toml:"seed_languages" env:"POLYGLOT_FEATURE_SEED_LANGUAGES"`
}

// DefaultConfig returns the defaults used when no file or environment overrides exist.
func DefaultConfig() Config {
	return Config{
		Languages: []LanguageConfig{
			{Prefix: "ua", Name: "Ukrainian"},
			{Prefix: "ru", Name: "Russian"},
			{Prefix: "en", Name: "English"},
		},
		Storage: StorageConfig{
			Provider:     "sqlite",
			DSN:          "file:polyglot.db?cache=shared&_foreign_keys=on",
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
		Cache: CacheConfig{
			Enabled:     true,
			LanguageTTL: 5 * time.Minute,
		},
		HTTP: HTTPConfig{
			Addr:           ":8080",
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 15 * time.Second,
			CORSOrigins:    []string{"*"},
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		Features: Features{
			Metrics:       true,
			SeedLanguages: true,
		},
	}
}

// Load starts from DefaultConfig, overlays the file at path when provided,
// applies POLYGLOT_* environment variables and validates the result.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	var err error
	if strings.TrimSpace(path) != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("polyglot config: load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if len(cfg.Languages) == 0 {
		return ErrLanguagesRequired
	}
	seen := make(map[string]struct{}, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		prefix := NormalizePrefix(lang.Prefix)
		if !prefixPattern.MatchString(prefix) {
			return fmt.Errorf("%w: %q", ErrLanguagePrefixInvalid, lang.Prefix)
		}
		if strings.TrimSpace(lang.Name) == "" {
			return fmt.Errorf("%w: %s", ErrLanguageNameRequired, prefix)
		}
		if _, dup := seen[prefix]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLanguage, prefix)
		}
		seen[prefix] = struct{}{}
	}

	switch normalize(cfg.Storage.Provider) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return ErrStorageDSNRequired
	}

	if cfg.Cache.Enabled && cfg.Cache.LanguageTTL <= 0 {
		return ErrCacheTTLInvalid
	}

	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Logging.Provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// LanguagePrefixes returns the normalized prefixes in declaration order.
func (cfg Config) LanguagePrefixes() []string {
	out := make([]string, 0, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		out = append(out, NormalizePrefix(lang.Prefix))
	}
	return out
}

// NormalizePrefix lower-cases and trims a language prefix.
func NormalizePrefix(prefix string) string {
	return strings.ToLower(strings.TrimSpace(prefix))
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger", "noop":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
