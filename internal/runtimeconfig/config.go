package runtimeconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-delivery/internal/locale"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	ErrDefaultLocaleRequired    = errors.New("delivery config: default locale is required")
	ErrDefaultLocaleUnsupported = errors.New("delivery config: default locale must be listed in locales")
	ErrLocaleInvalid            = errors.New("delivery config: locale is not a valid language tag")
	ErrSourceProviderUnknown    = errors.New("delivery config: source provider is invalid")
	ErrSourceBaseURLRequired    = errors.New("delivery config: source base url is required for the http provider")
	ErrSourceContentDirRequired = errors.New("delivery config: content dir is required for the filesystem provider")
	ErrSourceTimeoutInvalid     = errors.New("delivery config: source timeout must be zero or positive")
	ErrCacheSettingsInvalid     = errors.New("delivery config: cache ttl, capacity and shards must be positive when cache is enabled")
	ErrStructuralSlugRequired   = errors.New("delivery config: header and footer slugs are required")
	ErrPageTypesRequired        = errors.New("delivery config: assembler page types are required")
	ErrHTTPAddrRequired         = errors.New("delivery config: http address is required")
	ErrLoggingProviderUnknown   = errors.New("delivery config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("delivery config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("delivery config: logging format is invalid")
	ErrConfigDecode             = errors.New("delivery config: cannot decode file")
)

// Source providers.
const (
	SourceHTTP       = "http"
	SourceFilesystem = "filesystem"
	SourceMemory     = "memory"
)

// Logging providers.
const (
	LoggingConsole  = "console"
	LoggingGoLogger = "gologger"
	LoggingZap      = "zap"
)

// Environment variables read by ApplyEnv.
const (
	EnvAPIKey           = "DELIVERY_API_KEY"
	EnvSourceURL        = "DELIVERY_SOURCE_URL"
	EnvContentDir       = "DELIVERY_CONTENT_DIR"
	EnvPreviewSecret    = "DELIVERY_PREVIEW_SECRET"
	EnvRevalidateSecret = "DELIVERY_REVALIDATE_SECRET"
)

// Config aggregates the delivery pipeline settings.
type Config struct {
	DefaultLocale string          `yaml:"default_locale"`
	Locales       []string        `yaml:"locales"`
	Source        SourceConfig    `yaml:"source"`
	Cache         CacheConfig     `yaml:"cache"`
	Assembler     AssemblerConfig `yaml:"assembler"`
	Routing       RoutingConfig   `yaml:"routing"`
	HTTP          HTTPConfig      `yaml:"http"`
	Logging       LoggingConfig   `yaml:"logging"`
}

// SourceConfig selects and configures the content source adapter.
type SourceConfig struct {
	Provider   string        `yaml:"provider"`
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	Timeout    time.Duration `yaml:"timeout"`
	ContentDir string        `yaml:"content_dir"`
}

// CacheConfig sizes the revalidation cache in front of the source.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	TTL      time.Duration `yaml:"ttl"`
	Capacity int           `yaml:"capacity"`
	Shards   int           `yaml:"shards"`

	// RefreshCron schedules a full invalidation when commands are
	// registered with a cron runner. Empty disables it.
	RefreshCron string `yaml:"refresh_cron"`
}

// AssemblerConfig names the structural pages and the page types accepted
// per part.
type AssemblerConfig struct {
	HeaderSlug  string   `yaml:"header_slug"`
	FooterSlug  string   `yaml:"footer_slug"`
	PageTypes   []string `yaml:"page_types"`
	HeaderTypes []string `yaml:"header_types"`
	FooterTypes []string `yaml:"footer_types"`
	PageSize    int      `yaml:"page_size"`
}

// RoutingConfig lists path prefixes the locale middleware leaves alone.
type RoutingConfig struct {
	Exclusions []string `yaml:"exclusions"`
}

// HTTPConfig configures the delivery server.
type HTTPConfig struct {
	Addr             string `yaml:"addr"`
	PreviewSecret    string `yaml:"preview_secret"`
	RevalidateSecret string `yaml:"revalidate_secret"`
	EditorURL        string `yaml:"editor_url"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns opinionated defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Locales:       []string{"en", "fr", "de", "es"},
		Source: SourceConfig{
			Provider: SourceHTTP,
			BaseURL:  "http://localhost:4000",
			Timeout:  5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:  true,
			TTL:      time.Minute,
			Capacity: 10000,
			Shards:   10,
		},
		Assembler: AssemblerConfig{
			HeaderSlug:  "header",
			FooterSlug:  "footer",
			PageTypes:   []string{"page", "blog-post"},
			HeaderTypes: []string{"header"},
			FooterTypes: []string{"footer"},
			PageSize:    20,
		},
		Routing: RoutingConfig{
			Exclusions: append([]string(nil), locale.DefaultExclusions...),
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Provider: LoggingConsole,
			Level:    "info",
		},
	}
}

// Load reads a YAML file over DefaultConfig. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("delivery config: read %s: %w", path, err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode reads YAML from r over DefaultConfig.
func Decode(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrConfigDecode, err)
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func (cfg *Config) ApplyEnv() {
	cfg.ApplyEnvFrom(os.LookupEnv)
}

// ApplyEnvFrom is ApplyEnv over an arbitrary lookup.
func (cfg *Config) ApplyEnvFrom(lookup func(string) (string, bool)) {
	if lookup == nil {
		return
	}
	set := func(key string, target *string) {
		if value, ok := lookup(key); ok {
			*target = strings.TrimSpace(value)
		}
	}
	set(EnvAPIKey, &cfg.Source.APIKey)
	set(EnvSourceURL, &cfg.Source.BaseURL)
	set(EnvContentDir, &cfg.Source.ContentDir)
	set(EnvPreviewSecret, &cfg.HTTP.PreviewSecret)
	set(EnvRevalidateSecret, &cfg.HTTP.RevalidateSecret)
}

// Validate performs consistency checks. A missing API key is not a
// configuration error; it surfaces per request instead.
func (cfg Config) Validate() error {
	if err := cfg.validateLocales(); err != nil {
		return err
	}
	if err := cfg.Source.validate(); err != nil {
		return err
	}
	if cfg.Cache.Enabled {
		err := validation.ValidateStruct(&cfg.Cache,
			validation.Field(&cfg.Cache.TTL, validation.Required, validation.Min(time.Millisecond)),
			validation.Field(&cfg.Cache.Capacity, validation.Required, validation.Min(1)),
			validation.Field(&cfg.Cache.Shards, validation.Required, validation.Min(1)),
		)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSettingsInvalid, err)
		}
	}
	if strings.TrimSpace(cfg.Assembler.HeaderSlug) == "" || strings.TrimSpace(cfg.Assembler.FooterSlug) == "" {
		return ErrStructuralSlugRequired
	}
	if len(cfg.Assembler.PageTypes) == 0 {
		return ErrPageTypesRequired
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	return cfg.Logging.validate()
}

func (cfg Config) validateLocales() error {
	def := strings.TrimSpace(cfg.DefaultLocale)
	if def == "" {
		return ErrDefaultLocaleRequired
	}
	err := validation.Validate(append([]string{def}, cfg.Locales...), validation.Each(validation.By(languageTag)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLocaleInvalid, err)
	}
	for _, code := range cfg.Locales {
		if strings.EqualFold(strings.TrimSpace(code), def) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrDefaultLocaleUnsupported, def)
}

func languageTag(value any) error {
	code, _ := value.(string)
	code = strings.TrimSpace(code)
	if code == "" {
		return errors.New("must not be empty")
	}
	if strings.Contains(code, "/") {
		return fmt.Errorf("%q must not contain a slash", code)
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("%q: %v", code, err)
	}
	return nil
}

func (s SourceConfig) validate() error {
	provider := normalize(s.Provider)
	if err := validation.Validate(provider, validation.Required, validation.In(SourceHTTP, SourceFilesystem, SourceMemory)); err != nil {
		return fmt.Errorf("%w: %q", ErrSourceProviderUnknown, s.Provider)
	}
	if s.Timeout < 0 {
		return ErrSourceTimeoutInvalid
	}
	switch provider {
	case SourceHTTP:
		if err := validation.Validate(strings.TrimSpace(s.BaseURL), validation.Required, isURL); err != nil {
			return fmt.Errorf("%w: %v", ErrSourceBaseURLRequired, err)
		}
	case SourceFilesystem:
		if strings.TrimSpace(s.ContentDir) == "" {
			return ErrSourceContentDirRequired
		}
	}
	return nil
}

var isURL = validation.NewStringRuleWithError(func(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}, validation.NewError("validation_is_http_url", "must be an http or https url"))

func (l LoggingConfig) validate() error {
	provider := normalize(l.Provider)
	if err := validation.Validate(provider, validation.In(LoggingConsole, LoggingGoLogger, LoggingZap)); err != nil || provider == "" {
		return fmt.Errorf("%w: %q", ErrLoggingProviderUnknown, l.Provider)
	}
	if level := strings.TrimSpace(l.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if format := strings.TrimSpace(l.Format); format != "" && !isSupportedFormat(provider, format) {
		return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(provider, format string) bool {
	switch provider {
	case LoggingGoLogger:
		switch normalize(format) {
		case "json", "console", "pretty":
			return true
		}
	case LoggingZap:
		switch normalize(format) {
		case "production", "development":
			return true
		}
	}
	return false
}
