package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bms/internal/domain"
	"github.com/vladislavdragonenkov/bms/internal/health"
	"github.com/vladislavdragonenkov/bms/internal/service/orders"
	"github.com/vladislavdragonenkov/bms/internal/storage/memory"
	"github.com/vladislavdragonenkov/bms/internal/storage/postgres"
	"github.com/vladislavdragonenkov/bms/internal/storage/rediscache"
)

// runtimeDependencies содержит хранилища, выбранные по конфигурации.
type runtimeDependencies struct {
	orderRepos map[domain.OrderKind]domain.OrderRepository
	catalog    domain.CatalogStore
	outboxRepo domain.OutboxRepository

	// memoryCatalog заполнен только для memory-драйвера: каталог наполняет встраивающий код.
	memoryCatalog *memory.CatalogStore

	probes         map[string]health.ProbeFunc
	optionalProbes map[string]health.ProbeFunc
	closers        []func() error
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.WithError(err).Warn("failed to release dependency")
		}
	}
	d.closers = nil
}

func (d *runtimeDependencies) registerProbes(h *health.Handler) {
	for name, probe := range d.probes {
		h.Register(name, probe)
	}
	for name, probe := range d.optionalProbes {
		h.RegisterOptional(name, probe)
	}
}

// initRuntimeDependencies открывает хранилища по выбранному драйверу.
func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{
		orderRepos:     make(map[domain.OrderKind]domain.OrderRepository, 3),
		probes:         make(map[string]health.ProbeFunc),
		optionalProbes: make(map[string]health.ProbeFunc),
	}

	var err error
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		initMemoryStorage(deps)
	case StorageDriverPostgres:
		err = initPostgresStorage(ctx, cfg, deps, logger)
	default:
		err = fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
	if err != nil {
		deps.close(logger)
		return nil, err
	}

	if cfg.RedisAddr != "" {
		if err := initCatalogCache(cfg, deps, logger); err != nil {
			deps.close(logger)
			return nil, err
		}
	}

	logger.WithFields(log.Fields{
		"storage_driver": cfg.StorageDriver,
		"catalog_cache":  cfg.RedisAddr != "",
	}).Info("storage initialized")
	return deps, nil
}

func initMemoryStorage(deps *runtimeDependencies) {
	for _, kind := range orders.Kinds() {
		deps.orderRepos[kind.Kind] = memory.NewOrderRepository(kind.Kind)
	}
	deps.memoryCatalog = memory.NewCatalogStore()
	deps.catalog = deps.memoryCatalog
	deps.outboxRepo = memory.NewOutboxRepository()
}

func initPostgresStorage(ctx context.Context, cfg Config, deps *runtimeDependencies, logger *log.Entry) error {
	if cfg.PostgresDSN == "" {
		return errors.New("postgres dsn is required for postgres storage driver")
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	deps.closers = append(deps.closers, store.Close)

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	for _, kind := range orders.Kinds() {
		repo, err := postgres.NewOrderRepository(store, kind.Kind)
		if err != nil {
			return err
		}
		deps.orderRepos[kind.Kind] = repo
	}
	deps.catalog = postgres.NewCatalogStore(store)
	deps.outboxRepo = postgres.NewOutboxRepository(store)
	deps.probes["postgres"] = store.Ping
	return nil
}

func initCatalogCache(cfg Config, deps *runtimeDependencies, logger *log.Entry) error {
	client := rediscache.NewClient(cfg.RedisAddr)
	deps.closers = append(deps.closers, client.Close)

	cache, err := rediscache.NewCatalogCache(
		client,
		deps.catalog,
		rediscache.WithTTL(cfg.CatalogCacheTTL),
		rediscache.WithLogger(logger.WithField("component", "catalog-cache")),
	)
	if err != nil {
		return fmt.Errorf("init catalog cache: %w", err)
	}
	deps.catalog = cache
	deps.optionalProbes["redis"] = cache.Ping
	return nil
}
