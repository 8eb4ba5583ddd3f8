package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// IngestConfig configures the lead ingestion pipeline.
type IngestConfig struct {
	BatchSize   int          `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency int          `yaml:"concurrency" mapstructure:"concurrency"`
	RatePerSec  float64      `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Defaults    LeadDefaults `yaml:"defaults" mapstructure:"defaults"`
	Thresholds  Thresholds   `yaml:"thresholds" mapstructure:"thresholds"`
}

// LeadDefaults fills gaps in leads that carry no service/area data.
type LeadDefaults struct {
	Services     []string `yaml:"services" mapstructure:"services"`
	ServiceAreas []string `yaml:"service_areas" mapstructure:"service_areas"`
}

// Thresholds names the confidence policy knobs so tuning them never touches
// control flow. AutoUpdate is the floor for automatic draft writes; the tier
// values are what each matcher tier reports; Suggestion is the fixed
// confidence attached to generated field suggestions.
type Thresholds struct {
	AutoUpdate float64 `yaml:"auto_update" mapstructure:"auto_update"`
	ExternalID float64 `yaml:"external_id" mapstructure:"external_id"`
	Domain     float64 `yaml:"domain" mapstructure:"domain"`
	Phone      float64 `yaml:"phone" mapstructure:"phone"`
	NameSuburb float64 `yaml:"name_suburb" mapstructure:"name_suburb"`
	Suggestion float64 `yaml:"suggestion" mapstructure:"suggestion"`
}

// ServerConfig configures the admin API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. database_url defaults empty so the env override is always
	// visible to Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("ingest.batch_size", 20)
	v.SetDefault("ingest.concurrency", 4)
	v.SetDefault("ingest.rate_per_sec", 10)
	v.SetDefault("ingest.defaults.services", []string{"general-plumbing"})
	v.SetDefault("ingest.defaults.service_areas", []string{"perth"})
	v.SetDefault("ingest.thresholds.auto_update", 0.95)
	v.SetDefault("ingest.thresholds.external_id", 1.0)
	v.SetDefault("ingest.thresholds.domain", 0.95)
	v.SetDefault("ingest.thresholds.phone", 0.90)
	v.SetDefault("ingest.thresholds.name_suburb", 0.60)
	v.SetDefault("ingest.thresholds.suggestion", 0.85)

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

// Validate checks the configuration for a given command mode.
func (c *Config) Validate(mode string) error {
	var missing []string

	checkThreshold := func(name string, v float64) {
		if v < 0 || v > 1 {
			missing = append(missing, "ingest.thresholds."+name+" must be between 0 and 1")
		}
	}

	switch mode {
	case "ingest", "migrate":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
	case "serve":
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Ingest.BatchSize < 1 || c.Ingest.BatchSize > 500 {
		missing = append(missing, "ingest.batch_size must be between 1 and 500")
	}
	if c.Ingest.Concurrency < 1 || c.Ingest.Concurrency > 50 {
		missing = append(missing, "ingest.concurrency must be between 1 and 50")
	}
	checkThreshold("auto_update", c.Ingest.Thresholds.AutoUpdate)
	checkThreshold("external_id", c.Ingest.Thresholds.ExternalID)
	checkThreshold("domain", c.Ingest.Thresholds.Domain)
	checkThreshold("phone", c.Ingest.Thresholds.Phone)
	checkThreshold("name_suburb", c.Ingest.Thresholds.NameSuburb)
	checkThreshold("suggestion", c.Ingest.Thresholds.Suggestion)

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
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
