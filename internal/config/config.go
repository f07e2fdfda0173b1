package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RateLimitRPM    int           `mapstructure:"rate_limit_rpm"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
	MinConnections int    `mapstructure:"min_connections"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type AuthConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
}

type StorageConfig struct {
	Root    string `mapstructure:"root"`
	BaseURL string `mapstructure:"base_url"`
}

type WorkerConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres" или "inmemory"
}

// Load читает config.yml и переменные окружения с префиксом TASKMANAGER_.
// Переменные окружения перекрывают файл; файл может отсутствовать.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TASKMANAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv подхватывает только известные viper ключи; у обязательных
	// значений дефолтов нет, без явного BindEnv они из окружения не читаются
	for _, key := range []string{"database.url", "auth.access_secret", "auth.refresh_secret"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("привязка переменной окружения %s: %w", key, err)
		}
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit_rpm", 300)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.migrations_path", "migrations")
	v.SetDefault("auth.access_ttl", 15*time.Minute)
	v.SetDefault("auth.refresh_ttl", 720*time.Hour)
	v.SetDefault("storage.root", "data/uploads")
	v.SetDefault("storage.base_url", "http://localhost:8080/files")
	v.SetDefault("worker.sweep_interval", 10*time.Minute)
	v.SetDefault("logging.development", false)
	v.SetDefault("repository.type", "postgres")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("ошибка чтения config.yml: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфигурации: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Repository.Type == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("database.url обязателен для repository.type=postgres")
	}
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return fmt.Errorf("auth.access_secret и auth.refresh_secret обязательны")
	}
	if c.Repository.Type != "postgres" && c.Repository.Type != "inmemory" {
		return fmt.Errorf("неизвестный repository.type: %s", c.Repository.Type)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
