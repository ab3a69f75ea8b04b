package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultEnvFile = ".env"
	envPrefix      = "SITE_WEB_"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig    `envPrefix:"SERVER_"`
	CMS       CMSConfig       `envPrefix:"CMS_"`
	I18n      I18nConfig      `envPrefix:"I18N_"`
	Site      SiteConfig      `envPrefix:"SITE_"`
	Form      FormConfig      `envPrefix:"FORM_"`
	Analytics AnalyticsConfig `envPrefix:"ANALYTICS_"`
	LogLevel  string          `env:"LOG_LEVEL" envDefault:"info"`
	DevMode   bool            `env:"DEV"`
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Addr              string        `env:"ADDR"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// CMSConfig points at the content API. BuildEndpoint serves the build-time
// query, LiveEndpoint the refresh query issued on page views.
type CMSConfig struct {
	BuildEndpoint string        `env:"BUILD_ENDPOINT"`
	LiveEndpoint  string        `env:"LIVE_ENDPOINT"`
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"5s"`
	ContentDir    string        `env:"CONTENT_DIR" envDefault:"content"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// I18nConfig lists the locales the site is generated for.
type I18nConfig struct {
	DefaultLocale string   `env:"DEFAULT_LOCALE" envDefault:"en"`
	Locales       []string `env:"LOCALES" envDefault:"en,uk,ru" envSeparator:","`
}

// SiteConfig holds public-facing settings.
type SiteConfig struct {
	BaseURL      string `env:"BASE_URL"`
	RefreshPath  string `env:"REFRESH_PATH" envDefault:"/contact/refresh"`
	CookieSecure bool   `env:"COOKIE_SECURE"`
}

// FormConfig configures contact form persistence. An empty DBPath keeps
// submissions in memory.
type FormConfig struct {
	DBPath string `env:"DB_PATH"`
}

// AnalyticsConfig carries client instrumentation identifiers surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string `env:"GA4_MEASUREMENT_ID"`
	GTMContainerID   string `env:"GTM_CONTAINER_ID"`
}

// ValidationError is returned when configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides. An empty
// path disables the file.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects explicit values which take precedence over the system environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// EnvironmentValues returns the effective environment after applying the
// precedence dotenv < OS env < explicit map.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	merge := func(source map[string]string) {
		for key, value := range source {
			values[key] = value
		}
	}
	merge(dotEnvValues)
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if !ok || strings.TrimSpace(key) == "" {
				continue
			}
			values[strings.TrimSpace(key)] = value
		}
	}
	merge(options.envMap)
	return values, nil
}

// Load assembles the configuration from defaults, .env overrides, the
// environment and explicit values.
func Load(opts ...Option) (Config, error) {
	values, err := EnvironmentValues(opts...)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{
		Environment: values,
		Prefix:      envPrefix,
	}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	// Cloud Run injects PORT; honour it when no address is configured.
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		port := strings.TrimSpace(values["PORT"])
		if port == "" {
			port = "8080"
		}
		cfg.Server.Addr = ":" + port
	}

	cfg.I18n.DefaultLocale = strings.ToLower(strings.TrimSpace(cfg.I18n.DefaultLocale))
	locales := make([]string, 0, len(cfg.I18n.Locales))
	seen := map[string]struct{}{}
	for _, l := range cfg.I18n.Locales {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		locales = append(locales, l)
	}
	cfg.I18n.Locales = locales
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if cfg.CMS.Timeout <= 0 {
		missing = append(missing, "CMS.Timeout")
	}
	if cfg.CMS.CacheTTL < 0 {
		missing = append(missing, "CMS.CacheTTL")
	}
	if len(cfg.I18n.Locales) == 0 {
		missing = append(missing, "I18n.Locales")
	}
	if cfg.I18n.DefaultLocale == "" {
		missing = append(missing, "I18n.DefaultLocale")
	} else {
		found := false
		for _, l := range cfg.I18n.Locales {
			if l == cfg.I18n.DefaultLocale {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, "I18n.DefaultLocale")
		}
	}
	if !strings.HasPrefix(cfg.Site.RefreshPath, "/") {
		missing = append(missing, "Site.RefreshPath")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}
