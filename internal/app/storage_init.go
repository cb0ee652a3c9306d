package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/checkout/internal/health"
	"github.com/vladislavdragonenkov/checkout/internal/storage/memory"
	"github.com/vladislavdragonenkov/checkout/internal/storage/postgres"
	"github.com/vladislavdragonenkov/checkout/internal/storage/redis"
	"github.com/vladislavdragonenkov/checkout/internal/storage/sqldb"
)

// runtimeDependencies — репозитории выбранного хранилища и его обвязка.
type runtimeDependencies struct {
	orders     domain.OrderRepository
	customers  domain.CustomerRepository
	products   domain.ProductRepository
	outboxRepo domain.OutboxRepository

	storageChecker healthcheck.Checker
	closeFn        func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.closeFn == nil {
		return
	}
	if err := d.closeFn(); err != nil {
		logger.WithError(err).Warn("failed to close storage")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	driver, err := ParseStorageDriver(string(cfg.StorageDriver))
	if err != nil {
		return nil, err
	}
	entry := logger.WithField("storage", driver)

	switch driver {
	case StorageDriverMemory:
		entry.Info("using in-memory storage")
		return &runtimeDependencies{
			orders:     memory.NewOrderRepository(),
			customers:  memory.NewCustomerRepository(),
			products:   memory.NewProductRepository(),
			outboxRepo: memory.NewOutboxRepository(),
		}, nil

	case StorageDriverSQLite, StorageDriverMySQL:
		store, err := openSQLStore(ctx, driver, cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure %s schema: %w", driver, err)
		}
		entry.Info("sql storage initialized")
		return &runtimeDependencies{
			orders:         sqldb.NewOrderRepository(store),
			customers:      sqldb.NewCustomerRepository(store),
			products:       sqldb.NewProductRepository(store),
			outboxRepo:     sqldb.NewOutboxRepository(store),
			storageChecker: healthcheck.NewPingChecker(string(driver), store),
			closeFn:        store.Close,
		}, nil

	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn is required for storage driver %q", driver)
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply postgres migrations: %w", err)
			}
		} else if state, err := store.MigrationStatus(ctx); err != nil {
			entry.WithError(err).Warn("failed to read migration status")
		} else if state.Pending() > 0 {
			entry.WithField("pending", state.Pending()).Warn("postgres schema has pending migrations, run cmd/migrate up")
		}
		entry.Info("postgres storage initialized")
		return &runtimeDependencies{
			orders:         postgres.NewOrderRepository(store),
			customers:      postgres.NewCustomerRepository(store),
			products:       postgres.NewProductRepository(store),
			outboxRepo:     postgres.NewOutboxRepository(store),
			storageChecker: healthcheck.NewPingChecker("postgres", store),
			closeFn:        store.Close,
		}, nil

	case StorageDriverRedis:
		store, err := redis.Open(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		// Outbox в Redis не хранится: события живут в памяти процесса.
		entry.Warn("redis storage keeps outbox in memory, undelivered events are lost on restart")
		return &runtimeDependencies{
			orders:         redis.NewOrderRepository(store),
			customers:      redis.NewCustomerRepository(store),
			products:       redis.NewProductRepository(store),
			outboxRepo:     memory.NewOutboxRepository(),
			storageChecker: healthcheck.NewPingChecker("redis", store),
			closeFn:        store.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", driver)
}

func openSQLStore(ctx context.Context, driver StorageDriver, cfg Config) (*sqldb.Store, error) {
	switch driver {
	case StorageDriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("sqlite path is required for storage driver %q", driver)
		}
		return sqldb.OpenSQLite(ctx, cfg.SQLitePath)
	case StorageDriverMySQL:
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("mysql dsn is required for storage driver %q", driver)
		}
		return sqldb.OpenMySQL(ctx, cfg.MySQLDSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
