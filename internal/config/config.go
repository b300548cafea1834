package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is constructed once at
// startup and passed explicitly to every component; there is no package-level
// mutable state.
type Config struct {
	Google GoogleConfig `yaml:"google" mapstructure:"google"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Emails EmailsConfig `yaml:"emails" mapstructure:"emails"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// GoogleConfig holds Maps API credentials and request pacing.
type GoogleConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	PageDelaySecs  int     `yaml:"page_delay_secs" mapstructure:"page_delay_secs"`
	MaxPages       int     `yaml:"max_pages" mapstructure:"max_pages"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PageDelay returns the minimum wait before a nearby-search continuation page.
func (g GoogleConfig) PageDelay() time.Duration {
	return time.Duration(g.PageDelaySecs) * time.Second
}

// OutputConfig configures where CSVs and skip logs are written.
type OutputConfig struct {
	Root        string `yaml:"root" mapstructure:"root"`
	PostalTable string `yaml:"postal_table" mapstructure:"postal_table"`
}

// CacheConfig configures the viewport cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// EmailsConfig configures the email augmenter.
type EmailsConfig struct {
	TimeoutSecs     int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxContactPages int `yaml:"max_contact_pages" mapstructure:"max_contact_pages"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a meaningful default still need a registration
	// here; AutomaticEnv alone does not surface env values to Unmarshal.
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "")
	v.SetDefault("google.requests_per_sec", 10.0)
	v.SetDefault("google.page_delay_secs", 2)
	v.SetDefault("google.max_pages", 3)
	v.SetDefault("google.timeout_secs", 10)
	v.SetDefault("output.root", "data")
	v.SetDefault("output.postal_table", "us_postal_codes.csv")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "viewports.db")
	v.SetDefault("emails.timeout_secs", 10)
	v.SetDefault("emails.max_contact_pages", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

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
