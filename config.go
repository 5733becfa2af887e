package polyglot

import "github.com/goliatone/go-polyglot/internal/runtimeconfig"

var (
	ErrLanguagesRequired      = runtimeconfig.ErrLanguagesRequired
	ErrLanguagePrefixInvalid  = runtimeconfig.ErrLanguagePrefixInvalid
	ErrLanguageNameRequired   = runtimeconfig.ErrLanguageNameRequired
	ErrDuplicateLanguage      = runtimeconfig.ErrDuplicateLanguage
	ErrStorageProviderUnknown = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired     = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid        = runtimeconfig.ErrCacheTTLInvalid
	ErrHTTPAddrRequired       = runtimeconfig.ErrHTTPAddrRequired
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config         = runtimeconfig.Config
	LanguageConfig = runtimeconfig.LanguageConfig
	StorageConfig  = runtimeconfig.StorageConfig
	CacheConfig    = runtimeconfig.CacheConfig
	HTTPConfig     = runtimeconfig.HTTPConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	Features       = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads defaults, an optional config file and POLYGLOT_*
// environment variables.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
