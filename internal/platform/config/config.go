package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"finitefield.org/storefront-web/internal/carousel"
)

const defaultEnvFile = ".env"

// Config aggregates runtime configuration for the storefront web server.
type Config struct {
	Server     ServerConfig
	Storefront StorefrontConfig
	Carousel   CarouselConfig
	Session    SessionConfig
	I18n       I18nConfig
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Addr           string        `env:"STOREFRONT_WEB_ADDR"`
	Port           string        `env:"PORT"`
	ReadTimeout    time.Duration `env:"STOREFRONT_WEB_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `env:"STOREFRONT_WEB_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout    time.Duration `env:"STOREFRONT_WEB_IDLE_TIMEOUT" envDefault:"60s"`
	RequestTimeout time.Duration `env:"STOREFRONT_WEB_REQUEST_TIMEOUT" envDefault:"30s"`
	PublicDir      string        `env:"STOREFRONT_WEB_PUBLIC_DIR" envDefault:"public"`
}

// StorefrontConfig selects and tunes the storefront data source.
type StorefrontConfig struct {
	Domain        string        `env:"PUBLIC_STORE_DOMAIN"`
	Token         string        `env:"PUBLIC_STOREFRONT_API_TOKEN"`
	APIVersion    string        `env:"PUBLIC_STOREFRONT_API_VERSION" envDefault:"2024-01"`
	FixtureFile   string        `env:"STOREFRONT_FIXTURE_FILE"`
	CacheTTL      time.Duration `env:"STOREFRONT_CACHE_TTL" envDefault:"10s"`
	RatePerSecond float64       `env:"STOREFRONT_RATE_PER_SECOND" envDefault:"10"`
	RateBurst     int           `env:"STOREFRONT_RATE_BURST" envDefault:"20"`
	Timeout       time.Duration `env:"STOREFRONT_TIMEOUT" envDefault:"8s"`
}

// Static reports whether the fixture-backed service should be used.
func (c StorefrontConfig) Static() bool {
	return strings.TrimSpace(c.Domain) == ""
}

// CarouselConfig holds controller timings and the overlap policy.
type CarouselConfig struct {
	AutoAdvance time.Duration `env:"CAROUSEL_AUTO_ADVANCE" envDefault:"7s"`
	Cooldown    time.Duration `env:"CAROUSEL_COOLDOWN" envDefault:"3s"`
	Overlap     string        `env:"CAROUSEL_OVERLAP" envDefault:"ignore"`
	IdleTTL     time.Duration `env:"CAROUSEL_IDLE_TTL" envDefault:"10m"`
}

// OverlapPolicy parses the configured overlap policy.
func (c CarouselConfig) OverlapPolicy() carousel.OverlapPolicy {
	return carousel.ParseOverlapPolicy(c.Overlap)
}

// SessionConfig configures the visitor cookie.
type SessionConfig struct {
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sf_session"`
	HashKey    string `env:"SESSION_HASH_KEY"`
	BlockKey   string `env:"SESSION_BLOCK_KEY"`
	Secure     bool   `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// I18nConfig lists supported locales.
type I18nConfig struct {
	DefaultLocale string   `env:"I18N_DEFAULT_LOCALE" envDefault:"en-us"`
	Supported     []string `env:"I18N_SUPPORTED" envDefault:"en-us,en-ca,ja-jp" envSeparator:","`
}

// ValidationError is returned when required configuration fields are missing or invalid.
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

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map. Values in the map take
// precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from defaults, .env overrides, environment
// variables and explicit maps, in increasing precedence.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	values, err := environmentValues(options)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: values}); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	normalize(&cfg)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func environmentValues(options loaderOptions) (map[string]string, error) {
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
		merge(env.ToMap(os.Environ()))
	}
	merge(options.envMap)
	return values, nil
}

func normalize(cfg *Config) {
	cfg.Server.Addr = strings.TrimSpace(cfg.Server.Addr)
	if cfg.Server.Addr == "" {
		if port := strings.TrimSpace(cfg.Server.Port); port != "" {
			cfg.Server.Addr = ":" + port
		} else {
			cfg.Server.Addr = ":8080"
		}
	}
	cfg.Storefront.Domain = strings.TrimSpace(cfg.Storefront.Domain)
	cfg.Storefront.Token = strings.TrimSpace(cfg.Storefront.Token)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.I18n.DefaultLocale = strings.ToLower(strings.TrimSpace(cfg.I18n.DefaultLocale))

	supported := make([]string, 0, len(cfg.I18n.Supported))
	seen := map[string]struct{}{}
	for _, loc := range cfg.I18n.Supported {
		loc = strings.ToLower(strings.TrimSpace(loc))
		if loc == "" {
			continue
		}
		if _, ok := seen[loc]; ok {
			continue
		}
		seen[loc] = struct{}{}
		supported = append(supported, loc)
	}
	cfg.I18n.Supported = supported
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.IdleTimeout <= 0 {
		missing = append(missing, "Server.IdleTimeout")
	}
	if cfg.Server.RequestTimeout <= 0 {
		missing = append(missing, "Server.RequestTimeout")
	}
	if !cfg.Storefront.Static() && cfg.Storefront.Token == "" {
		missing = append(missing, "Storefront.Token")
	}
	if cfg.Storefront.Timeout <= 0 {
		missing = append(missing, "Storefront.Timeout")
	}
	if cfg.Carousel.AutoAdvance <= 0 {
		missing = append(missing, "Carousel.AutoAdvance")
	}
	if cfg.Carousel.Cooldown <= 0 {
		missing = append(missing, "Carousel.Cooldown")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Carousel.Overlap)) {
	case "ignore", "allow":
	default:
		missing = append(missing, "Carousel.Overlap")
	}
	if strings.TrimSpace(cfg.Session.CookieName) == "" {
		missing = append(missing, "Session.CookieName")
	}
	if len(cfg.I18n.Supported) == 0 {
		missing = append(missing, "I18n.Supported")
	}
	if !containsString(cfg.I18n.Supported, cfg.I18n.DefaultLocale) {
		missing = append(missing, "I18n.DefaultLocale")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
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
