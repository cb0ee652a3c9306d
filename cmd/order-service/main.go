package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/app"
	"github.com/vladislavdragonenkov/checkout/internal/version"
)

const (
	envConfigFile          = "CHECKOUT_CONFIG"
	envHTTPAddr            = "CHECKOUT_HTTP_ADDR"
	envGRPCAddr            = "CHECKOUT_GRPC_ADDR"
	envMetricsAddr         = "CHECKOUT_METRICS_ADDR"
	envLogLevel            = "CHECKOUT_LOG_LEVEL"
	envStorageDriver       = "CHECKOUT_STORAGE_DRIVER"
	envSQLitePath          = "CHECKOUT_SQLITE_PATH"
	envMySQLDSN            = "CHECKOUT_MYSQL_DSN"
	envPostgresDSN         = "CHECKOUT_POSTGRES_DSN"
	envPostgresAutoMigrate = "CHECKOUT_POSTGRES_AUTO_MIGRATE"
	envRedisAddr           = "CHECKOUT_REDIS_ADDR"
	envRedisDB             = "CHECKOUT_REDIS_DB"
	envKafkaBrokers        = "CHECKOUT_KAFKA_BROKERS"
	envKafkaTopic          = "CHECKOUT_KAFKA_TOPIC"
	envKafkaDLQTopic       = "CHECKOUT_KAFKA_DLQ_TOPIC"
	envOutboxPollInterval  = "CHECKOUT_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize     = "CHECKOUT_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts   = "CHECKOUT_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay    = "CHECKOUT_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending    = "CHECKOUT_OUTBOX_MAX_PENDING"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// readConfigFromEnv собирает конфигурацию: defaults, затем YAML из CHECKOUT_CONFIG, затем CHECKOUT_*.
// Некорректные значения не прерывают запуск: остаётся предыдущее значение и добавляется предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string
	warn := func(key, value string, err error) {
		warnings = append(warnings, fmt.Sprintf("ignore %s=%q: %v", key, value, err))
	}

	if path, ok := lookupTrimmed(lookup, envConfigFile); ok {
		loaded, err := app.LoadConfigFile(path, cfg)
		if err != nil {
			warn(envConfigFile, path, err)
		} else {
			cfg = loaded
		}
	}

	for key, target := range map[string]*string{
		envHTTPAddr:      &cfg.HTTPAddr,
		envGRPCAddr:      &cfg.GRPCAddr,
		envMetricsAddr:   &cfg.MetricsAddr,
		envSQLitePath:    &cfg.SQLitePath,
		envMySQLDSN:      &cfg.MySQLDSN,
		envPostgresDSN:   &cfg.PostgresDSN,
		envRedisAddr:     &cfg.RedisAddr,
		envKafkaTopic:    &cfg.KafkaTopic,
		envKafkaDLQTopic: &cfg.KafkaDLQTopic,
	} {
		if v, ok := lookupTrimmed(lookup, key); ok {
			*target = v
		}
	}

	if v, ok := lookupTrimmed(lookup, envLogLevel); ok {
		if _, err := log.ParseLevel(v); err != nil {
			warn(envLogLevel, v, err)
		} else {
			cfg.LogLevel = v
		}
	}
	if v, ok := lookupTrimmed(lookup, envStorageDriver); ok {
		driver, err := app.ParseStorageDriver(v)
		if err != nil {
			warn(envStorageDriver, v, err)
		} else {
			cfg.StorageDriver = driver
		}
	}
	if v, ok := lookupTrimmed(lookup, envPostgresAutoMigrate); ok {
		parsed, err := parseBool(v)
		if err != nil {
			warn(envPostgresAutoMigrate, v, err)
		} else {
			cfg.PostgresAutoMigrate = parsed
		}
	}
	if v, ok := lookupTrimmed(lookup, envKafkaBrokers); ok {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}

	nonNegative := func(v int) bool { return v >= 0 }
	positive := func(v int) bool { return v > 0 }
	intSettings := []struct {
		key    string
		target *int
		valid  func(int) bool
		rule   string
	}{
		{envRedisDB, &cfg.RedisDB, nonNegative, "must be >= 0"},
		{envOutboxBatchSize, &cfg.Outbox.BatchSize, positive, "must be > 0"},
		{envOutboxMaxAttempts, &cfg.Outbox.MaxAttempts, positive, "must be > 0"},
		{envOutboxMaxPending, &cfg.Outbox.MaxPending, nonNegative, "must be >= 0"},
	}
	for _, s := range intSettings {
		v, ok := lookupTrimmed(lookup, s.key)
		if !ok {
			continue
		}
		parsed, err := parseInt(v, s.valid, s.rule)
		if err != nil {
			warn(s.key, v, err)
			continue
		}
		*s.target = parsed
	}

	durationSettings := []struct {
		key    string
		target *time.Duration
		valid  func(time.Duration) bool
		rule   string
	}{
		{envOutboxPollInterval, &cfg.Outbox.PollInterval, func(d time.Duration) bool { return d > 0 }, "must be > 0"},
		{envOutboxRetryDelay, &cfg.Outbox.RetryDelay, func(d time.Duration) bool { return d >= 0 }, "must be >= 0"},
	}
	for _, s := range durationSettings {
		v, ok := lookupTrimmed(lookup, s.key)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v, s.valid, s.rule)
		if err != nil {
			warn(s.key, v, err)
			continue
		}
		*s.target = parsed
	}

	return cfg, warnings
}

func lookupTrimmed(lookup envLookup, key string) (string, bool) {
	v, ok := lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, errors.New(rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(v) {
		return 0, errors.New(rule)
	}
	return v, nil
}

func main() {
	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	setupLogger(cfg.LogLevel)
	for _, w := range warnings {
		log.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"version":      version.String(),
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
	}).Info("запускаем checkout service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("checkout service остановлен")
}
