package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile     string `envconfig:"LOG_FILE" default:""`

	SettingsPath string `envconfig:"TRANSLATOR_SETTINGS_PATH" default:""`
	Locale       string `envconfig:"TRANSLATOR_LOCALE" default:"en"`
	LocalBinary  string `envconfig:"TRANSLATOR_LOCAL_BINARY" default:"translateLocally"`

	HTTPProxy    string        `envconfig:"TRANSLATOR_HTTP_PROXY" default:""`
	HTTPTimeout  time.Duration `envconfig:"TRANSLATOR_HTTP_TIMEOUT" default:"60s"`
	GoogleURL    string        `envconfig:"TRANSLATOR_GOOGLE_URL" default:""`
	DeeplFreeURL string        `envconfig:"TRANSLATOR_DEEPL_FREE_URL" default:""`
	DeeplProURL  string        `envconfig:"TRANSLATOR_DEEPL_PRO_URL" default:""`
	YandexURL    string        `envconfig:"TRANSLATOR_YANDEX_URL" default:""`

	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"TRANSLATOR_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"TRANSLATOR_DB_MAX_CONNS" default:"4"`

	APITokenHash       string `envconfig:"API_TOKEN_HASH" default:""`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("TRANSLATOR_HTTP_TIMEOUT must be > 0")
	}
	if strings.TrimSpace(c.Locale) == "" {
		return fmt.Errorf("TRANSLATOR_LOCALE is required")
	}
	if proxy := strings.TrimSpace(c.HTTPProxy); proxy != "" {
		parsed, err := url.Parse(proxy)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("TRANSLATOR_HTTP_PROXY must be an absolute URL, got %q", proxy)
		}
	}
	for name, endpoint := range map[string]string{
		"TRANSLATOR_GOOGLE_URL":     c.GoogleURL,
		"TRANSLATOR_DEEPL_FREE_URL": c.DeeplFreeURL,
		"TRANSLATOR_DEEPL_PRO_URL":  c.DeeplProURL,
		"TRANSLATOR_YANDEX_URL":     c.YandexURL,
	} {
		if strings.TrimSpace(endpoint) == "" {
			continue
		}
		parsed, err := url.Parse(strings.TrimSpace(endpoint))
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, endpoint)
		}
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("TRANSLATOR_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("TRANSLATOR_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("TRANSLATOR_DB_MIN_CONNS (%d) cannot exceed TRANSLATOR_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}

// UsesDatabase reports whether usage statistics go to Postgres.
func (c *Config) UsesDatabase() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
