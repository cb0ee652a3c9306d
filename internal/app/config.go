package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vladislavdragonenkov/checkout/internal/messaging/kafka"
)

// StorageDriver — тип хранилища заказов и каталога.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverSQLite   StorageDriver = "sqlite"
	StorageDriverMySQL    StorageDriver = "mysql"
	StorageDriverPostgres StorageDriver = "postgres"
	StorageDriverRedis    StorageDriver = "redis"
)

// ParseStorageDriver нормализует имя драйвера.
func ParseStorageDriver(raw string) (StorageDriver, error) {
	driver := StorageDriver(strings.ToLower(strings.TrimSpace(raw)))
	switch driver {
	case StorageDriverMemory, StorageDriverSQLite, StorageDriverMySQL, StorageDriverPostgres, StorageDriverRedis:
		return driver, nil
	default:
		return "", fmt.Errorf("unsupported storage driver %q", raw)
	}
}

// OutboxConfig — параметры outbox relay.
type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	MaxPending   int           `yaml:"max_pending"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	GRPCAddr    string `yaml:"grpc_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`

	StorageDriver       StorageDriver `yaml:"storage_driver"`
	SQLitePath          string        `yaml:"sqlite_path"`
	MySQLDSN            string        `yaml:"mysql_dsn"`
	PostgresDSN         string        `yaml:"postgres_dsn"`
	PostgresAutoMigrate bool          `yaml:"postgres_auto_migrate"`
	RedisAddr           string        `yaml:"redis_addr"`
	RedisDB             int           `yaml:"redis_db"`

	KafkaBrokers  []string `yaml:"kafka_brokers"`
	KafkaTopic    string   `yaml:"kafka_topic"`
	KafkaDLQTopic string   `yaml:"kafka_dlq_topic"`
	KafkaClientID string   `yaml:"kafka_client_id"`

	Outbox OutboxConfig `yaml:"outbox"`
}

// DefaultConfig возвращает конфигурацию для локального запуска на in-memory хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		LogLevel:            "info",
		StorageDriver:       StorageDriverMemory,
		SQLitePath:          "checkout.db",
		PostgresAutoMigrate: true,
		RedisAddr:           "localhost:6379",
		KafkaDLQTopic:       kafka.TopicDeadLetterQueue,
		KafkaClientID:       "checkout-service",
		Outbox: OutboxConfig{
			PollInterval: time.Second,
			BatchSize:    100,
			MaxAttempts:  3,
			RetryDelay:   50 * time.Millisecond,
			MaxPending:   1000,
			MaxAge:       5 * time.Minute,
		},
	}
}

// LoadConfigFile накладывает YAML-файл поверх base. Отсутствующие ключи сохраняют значения base.
func LoadConfigFile(path string, base Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}

	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек хранилища.
func (c Config) Validate() error {
	if _, err := ParseStorageDriver(string(c.StorageDriver)); err != nil {
		return err
	}

	var errs []error
	switch c.StorageDriver {
	case StorageDriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite path is required for sqlite storage"))
		}
	case StorageDriverMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("mysql dsn is required for mysql storage"))
		}
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
		}
	case StorageDriverRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("redis addr is required for redis storage"))
		}
	}
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http addr is required"))
	}
	return errors.Join(errs...)
}
