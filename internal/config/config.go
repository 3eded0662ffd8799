package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Browser  BrowserConfig  `yaml:"browser" mapstructure:"browser"`
	Scrape   ScrapeConfig   `yaml:"scrape" mapstructure:"scrape"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Fetch    FetchConfig    `yaml:"fetch" mapstructure:"fetch"`
	PDF      PDFConfig      `yaml:"pdf" mapstructure:"pdf"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Trigger  TriggerConfig  `yaml:"trigger" mapstructure:"trigger"`
	Schedule ScheduleConfig `yaml:"schedule" mapstructure:"schedule"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BrowserConfig configures the headless Chrome session.
type BrowserConfig struct {
	Headless              bool   `yaml:"headless" mapstructure:"headless"`
	ChromePath            string `yaml:"chrome_path" mapstructure:"chrome_path"`
	UserAgent             string `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage        string `yaml:"accept_language" mapstructure:"accept_language"`
	NavigationTimeoutSecs int    `yaml:"navigation_timeout_secs" mapstructure:"navigation_timeout_secs"`
	ActionTimeoutSecs     int    `yaml:"action_timeout_secs" mapstructure:"action_timeout_secs"`
	SettleMs              int    `yaml:"settle_ms" mapstructure:"settle_ms"`
	NavAttempts           int    `yaml:"nav_attempts" mapstructure:"nav_attempts"`
	NavBackoffMs          int    `yaml:"nav_backoff_ms" mapstructure:"nav_backoff_ms"`
}

// ScrapeConfig configures scrape runs.
type ScrapeConfig struct {
	Timezone        string `yaml:"timezone" mapstructure:"timezone"`
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
	RestaurantsFile string `yaml:"restaurants_file" mapstructure:"restaurants_file"`
}

// Location resolves the configured timezone, falling back to UTC.
func (c ScrapeConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		zap.L().Warn("config: unknown timezone, using UTC", zap.String("timezone", c.Timezone), zap.Error(err))
		return time.UTC
	}
	return loc
}

// StoreConfig configures where dated collections are persisted.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RetentionDays int    `yaml:"retention_days" mapstructure:"retention_days"`
}

// FetchConfig configures document downloads.
type FetchConfig struct {
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// PDFConfig configures PDF text extraction.
type PDFConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"`
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// TriggerConfig configures the refresh endpoint and the workflow it starts.
type TriggerConfig struct {
	CooldownMins int    `yaml:"cooldown_mins" mapstructure:"cooldown_mins"`
	GitHubToken  string `yaml:"github_token" mapstructure:"github_token"`
	Owner        string `yaml:"owner" mapstructure:"owner"`
	Repo         string `yaml:"repo" mapstructure:"repo"`
	Workflow     string `yaml:"workflow" mapstructure:"workflow"`
	Ref          string `yaml:"ref" mapstructure:"ref"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
	Simulate     bool   `yaml:"simulate" mapstructure:"simulate"`
	RedisURL     string `yaml:"redis_url" mapstructure:"redis_url"`
}

// Cooldown is the minimum interval between accepted triggers.
func (c TriggerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMins) * time.Minute
}

// ScheduleConfig configures the in-process scrape schedule.
type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Spec    string `yaml:"spec" mapstructure:"spec"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The automation token is commonly provided under its conventional name.
	if err := v.BindEnv("trigger.github_token", "LUNCH_TRIGGER_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.accept_language", "cs-CZ,cs;q=0.9")
	v.SetDefault("browser.navigation_timeout_secs", 45)
	v.SetDefault("browser.action_timeout_secs", 15)
	v.SetDefault("browser.settle_ms", 1000)
	v.SetDefault("browser.nav_attempts", 3)
	v.SetDefault("browser.nav_backoff_ms", 1000)
	v.SetDefault("scrape.timezone", "Europe/Prague")
	v.SetDefault("scrape.concurrency", 1)
	v.SetDefault("scrape.restaurants_file", "")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "public/data/menus")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.retention_days", 7)
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 3)
	v.SetDefault("fetch.user_agent", "lunch-cli/1.0")
	v.SetDefault("fetch.requests_per_second", 1.0)
	v.SetDefault("pdf.provider", "pdftotext")
	v.SetDefault("pdf.pdftotext_path", "pdftotext")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("trigger.cooldown_mins", 10)
	v.SetDefault("trigger.owner", "stechermichal")
	v.SetDefault("trigger.repo", "scrapetizer")
	v.SetDefault("trigger.workflow", "manual-scrape.yml")
	v.SetDefault("trigger.ref", "master")
	v.SetDefault("trigger.base_url", "https://api.github.com")
	v.SetDefault("trigger.simulate", false)
	v.SetDefault("trigger.redis_url", "")
	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.spec", "CRON_TZ=Europe/Prague 30 9,10,11 * * 1-5")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
