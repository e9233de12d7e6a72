package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TomasB/geolocation/internal/data"
	"github.com/spf13/viper"
)

// Config is the service configuration. Every key can be set from a config
// file, the environment (upper-cased key, e.g. MMDB_PATH) or a flag.
type Config struct {
	Port             string        `mapstructure:"port"`
	GRPCPort         string        `mapstructure:"grpc_port"`
	LogLevel         string        `mapstructure:"log_level"`
	Engine           string        `mapstructure:"engine"`
	MMDBPath         string        `mapstructure:"mmdb_path"`
	IP2LocationPath  string        `mapstructure:"ip2location_path"`
	WatchDatabase    bool          `mapstructure:"watch_database"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
}

// New returns a viper instance with a default for every Config key and
// environment lookup enabled.
func New() *viper.Viper {
	vip := viper.New()

	vip.SetDefault("port", "8080")
	vip.SetDefault("grpc_port", "")
	vip.SetDefault("log_level", "info")
	vip.SetDefault("engine", data.EngineMMDB)
	vip.SetDefault("mmdb_path", "")
	vip.SetDefault("ip2location_path", "")
	vip.SetDefault("watch_database", false)
	vip.SetDefault("batch_concurrency", 8)
	vip.SetDefault("shutdown_timeout", 30*time.Second)

	vip.AutomaticEnv()

	return vip
}

var errInvalidConfig = errors.New("invalid configuration")

// Load reads the optional config file and decodes vip into a validated Config.
func Load(vip *viper.Viper, file string) (Config, error) {
	if file != "" {
		vip.SetConfigFile(file)
		if err := vip.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected engine has a database path.
func (c Config) Validate() error {
	switch c.Engine {
	case data.EngineMMDB:
		if c.MMDBPath == "" {
			return fmt.Errorf("%w: MMDB_PATH is required for engine %q", errInvalidConfig, c.Engine)
		}
	case data.EngineIP2Location:
		if c.IP2LocationPath == "" {
			return fmt.Errorf("%w: IP2LOCATION_PATH is required for engine %q", errInvalidConfig, c.Engine)
		}
	default:
		return fmt.Errorf("%w: unknown engine %q", errInvalidConfig, c.Engine)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("%w: batch_concurrency must be at least 1", errInvalidConfig)
	}
	return nil
}

// DatabasePath is the path of the selected engine's database file.
func (c Config) DatabasePath() string {
	if c.Engine == data.EngineIP2Location {
		return c.IP2LocationPath
	}
	return c.MMDBPath
}

// SlogLevel converts the configured log level to slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
