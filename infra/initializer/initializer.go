// Package initializer builds the process dependency graph from config.
package initializer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ccxiaoji/autoledger/infra"
	infradedup "github.com/ccxiaoji/autoledger/infra/dedup"
	infrabus "github.com/ccxiaoji/autoledger/infra/eventbus"
	infrakv "github.com/ccxiaoji/autoledger/infra/kvstore"
	infrarepo "github.com/ccxiaoji/autoledger/infra/repository"
	repodedup "github.com/ccxiaoji/autoledger/infra/repository/dedup"
	"github.com/ccxiaoji/autoledger/pkg/config"
	"github.com/ccxiaoji/autoledger/pkg/dedup"
	"github.com/ccxiaoji/autoledger/pkg/eventbus"
	"github.com/ccxiaoji/autoledger/pkg/kvstore"
)

// InitializeDependencies connects the database and the configured backends
// and assembles them into the dependency set the services are built from.
func InitializeDependencies(ctx context.Context, cfg *config.App, logger *slog.Logger) (*config.Deps, error) {
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := infra.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	uow := infrarepo.NewUoW(db)

	var client *redis.Client
	if cfg.Bus.Kind == "redis" || cfg.DedupStore.Kind == "redis" || cfg.KVStore.Kind == "redis" {
		client, err = newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
	}

	bus, err := newBus(cfg, client, logger)
	if err != nil {
		return nil, err
	}

	kv, err := newKVStore(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	settings, err := config.NewSettingsSource(ctx, kv, logger)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	dedupStore, err := newDedupStore(cfg, client, db)
	if err != nil {
		return nil, err
	}
	checker := dedup.NewChecker(dedupStore, dedup.Config{
		Window:             settings.Snapshot().DedupWindow,
		MaxPerSourceWindow: cfg.Pipeline.MaxPerSourceWindow,
		RetentionTTL:       cfg.Pipeline.DedupRetention,
	}, logger)

	return &config.Deps{
		Uow:      uow,
		EventBus: bus,
		Dedup:    checker,
		Settings: settings,
		KVStore:  kv,
		Logger:   logger,
		Config:   cfg,
	}, nil
}

func newRedisClient(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = cfg.DialTimeout
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func newBus(cfg *config.App, client *redis.Client, logger *slog.Logger) (eventbus.Bus, error) {
	switch cfg.Bus.Kind {
	case "memory":
		return infrabus.NewMemoryBus(logger), nil
	case "redis":
		return infrabus.NewRedisBus(client, logger), nil
	case "kafka":
		return infrabus.NewKafkaBus(infrabus.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown bus kind %q", cfg.Bus.Kind)
	}
}

func newKVStore(cfg *config.App, client *redis.Client, logger *slog.Logger) (kvstore.Store, error) {
	switch cfg.KVStore.Kind {
	case "memory":
		return infrakv.NewMemoryStore(), nil
	case "redis":
		return infrakv.NewRedisStore(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown kv store kind %q", cfg.KVStore.Kind)
	}
}

func newDedupStore(cfg *config.App, client *redis.Client, db *gorm.DB) (dedup.Store, error) {
	switch cfg.DedupStore.Kind {
	case "memory":
		return infradedup.NewMemoryStore(), nil
	case "redis":
		return infradedup.NewRedisStore(client), nil
	case "db":
		return repodedup.New(db), nil
	default:
		return nil, fmt.Errorf("unknown dedup store kind %q", cfg.DedupStore.Kind)
	}
}
