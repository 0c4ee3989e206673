package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends selectable at startup.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type Config struct {
	Server struct {
		Port            string        `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`
	Store struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"store"`
	Database struct {
		Host         string        `mapstructure:"host"`
		Port         string        `mapstructure:"port"`
		User         string        `mapstructure:"user"`
		Password     string        `mapstructure:"password"`
		Name         string        `mapstructure:"name"`
		SSLMode      string        `mapstructure:"sslmode"`
		MaxOpenConns int           `mapstructure:"max_open_conns"`
		LockTimeout  time.Duration `mapstructure:"lock_timeout"`
	} `mapstructure:"database"`
	Redis struct {
		Enabled    bool          `mapstructure:"enabled"`
		Host       string        `mapstructure:"host"`
		Port       string        `mapstructure:"port"`
		Password   string        `mapstructure:"password"`
		DB         int           `mapstructure:"db"`
		BalanceTTL time.Duration `mapstructure:"balance_ttl"`
	} `mapstructure:"redis"`
	Ledger struct {
		Strategy         string        `mapstructure:"strategy"`
		MaxRetries       int           `mapstructure:"max_retries"`
		RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
		MaxRetryDelay    time.Duration `mapstructure:"max_retry_delay"`
		OperationTimeout time.Duration `mapstructure:"operation_timeout"`
	} `mapstructure:"ledger"`
	JWT struct {
		SecretKey string `mapstructure:"secret_key"`
	} `mapstructure:"jwt"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("store.backend", BackendMemory)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "ledger")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "ledger")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.lock_timeout", 5*time.Second)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.balance_ttl", 30*time.Second)

	v.SetDefault("ledger.strategy", "pessimistic")
	v.SetDefault("ledger.max_retries", 5)
	v.SetDefault("ledger.retry_base_delay", 10*time.Millisecond)
	v.SetDefault("ledger.max_retry_delay", time.Second)
	v.SetDefault("ledger.operation_timeout", 10*time.Second)

	v.SetDefault("jwt.secret_key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads config.yml from path (when present) and the LEDGER_*
// environment into AppConfig. A missing file is not an error.
func LoadConfig(path string) error {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix("ledger")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unable to decode into struct: %w", err)
	}

	switch cfg.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	AppConfig = cfg
	return nil
}
