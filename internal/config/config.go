// Package config provides configuration management for the pipeline.
// Configuration is loaded from a YAML file with environment variable
// overrides and validated before any network activity starts.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
)

// Default configuration values.
const (
	defaultMaxScrollIterations = 10
	defaultStabilityThreshold  = 2
	defaultBotWallBackoff      = 15 * time.Second
	defaultRequestTimeout      = 30 * time.Second
	defaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
	defaultConcurrency       = 3
	defaultInterRequestDelay = 500 * time.Millisecond
	defaultOutputDir         = "."
	defaultFilenamePrefix    = "events"
	defaultServerPort        = 8080
	defaultCity              = "Tbilisi"
	defaultCountry           = "GE"
	defaultLocation          = "Tbilisi, Georgia"
)

// Config is the root configuration for a pipeline run.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   logger.Config   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
}

// CrawlerConfig holds listing-crawl settings.
type CrawlerConfig struct {
	// MaxScrollIterations bounds the number of listing iterations per source.
	MaxScrollIterations int `mapstructure:"max_scroll_iterations"`
	// StabilityThreshold is the number of consecutive iterations with an
	// unchanged candidate count required to stop early.
	StabilityThreshold int `mapstructure:"stability_threshold"`
	// BotWallBackoff is the single wait applied after a challenge page
	// before the one re-check.
	BotWallBackoff time.Duration `mapstructure:"bot_wall_backoff"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// SchedulerConfig holds detail-fetch scheduling settings.
type SchedulerConfig struct {
	// Concurrency is the ceiling on in-flight detail extractions.
	Concurrency int `mapstructure:"concurrency"`
	// InterRequestDelay is applied between extractions when Concurrency is 1,
	// for sources with strict rate limits.
	InterRequestDelay time.Duration `mapstructure:"inter_request_delay"`
}

// SourceConfig enables and parameterizes one source adapter.
type SourceConfig struct {
	ID      domain.SourceID `mapstructure:"id"`
	Enabled bool            `mapstructure:"enabled"`
	City    string          `mapstructure:"city"`
	Country string          `mapstructure:"country"`
	// MaxCandidates caps per-source candidates, 0 means unlimited.
	MaxCandidates int `mapstructure:"max_candidates"`
}

// OutputConfig controls snapshot file naming.
type OutputConfig struct {
	Dir            string `mapstructure:"dir"`
	FilenamePrefix string `mapstructure:"filename_prefix"`
	Location       string `mapstructure:"location"`
}

// ServerConfig holds settings for the read-only snapshot server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScheduleConfig holds recurring-crawl settings.
type ScheduleConfig struct {
	// Cron is a standard cron expression, e.g. "0 */6 * * *".
	Cron string `mapstructure:"cron"`
}

// Load reads the configuration file (if present), applies environment
// overrides and defaults, and validates the result.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("eventscout")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.eventscout")
	}

	v.SetEnvPrefix("EVENTSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine: defaults cover a full run.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyFallbacks(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "eventscout")
	v.SetDefault("app.environment", "development")
	v.SetDefault("crawler.max_scroll_iterations", defaultMaxScrollIterations)
	v.SetDefault("crawler.stability_threshold", defaultStabilityThreshold)
	v.SetDefault("crawler.bot_wall_backoff", defaultBotWallBackoff)
	v.SetDefault("crawler.request_timeout", defaultRequestTimeout)
	v.SetDefault("crawler.user_agent", defaultUserAgent)
	v.SetDefault("scheduler.concurrency", defaultConcurrency)
	v.SetDefault("scheduler.inter_request_delay", defaultInterRequestDelay)
	v.SetDefault("output.dir", defaultOutputDir)
	v.SetDefault("output.filename_prefix", defaultFilenamePrefix)
	v.SetDefault("output.location", defaultLocation)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("server.port", defaultServerPort)
}

// applyFallbacks fills per-source defaults and the default source set.
func applyFallbacks(cfg *Config) {
	if len(cfg.Sources) == 0 {
		cfg.Sources = []SourceConfig{
			{ID: domain.SourceRA, Enabled: true},
			{ID: domain.SourceTKT, Enabled: true},
			{ID: domain.SourceBandsintown, Enabled: true},
		}
	}
	for i := range cfg.Sources {
		if cfg.Sources[i].City == "" {
			cfg.Sources[i].City = defaultCity
		}
		if cfg.Sources[i].Country == "" {
			cfg.Sources[i].Country = defaultCountry
		}
	}
}

// Validate checks the configuration before any network activity.
func (c *Config) Validate() error {
	if c.Crawler.MaxScrollIterations <= 0 {
		return fmt.Errorf("invalid config: max_scroll_iterations must be positive, got %d",
			c.Crawler.MaxScrollIterations)
	}
	if c.Crawler.StabilityThreshold < 1 {
		return fmt.Errorf("invalid config: stability_threshold must be at least 1, got %d",
			c.Crawler.StabilityThreshold)
	}
	if c.Crawler.BotWallBackoff < 0 {
		return errors.New("invalid config: bot_wall_backoff must be non-negative")
	}
	if c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("invalid config: concurrency must be positive, got %d",
			c.Scheduler.Concurrency)
	}
	if c.Scheduler.InterRequestDelay < 0 {
		return errors.New("invalid config: inter_request_delay must be non-negative")
	}
	if len(c.EnabledSources()) == 0 {
		return errors.New("invalid config: no sources enabled")
	}
	for _, src := range c.Sources {
		if !src.ID.Valid() {
			return fmt.Errorf("invalid config: unknown source %q", src.ID)
		}
	}
	return nil
}

// EnabledSources returns the enabled source configurations.
func (c *Config) EnabledSources() []SourceConfig {
	enabled := make([]SourceConfig, 0, len(c.Sources))
	for _, src := range c.Sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}
