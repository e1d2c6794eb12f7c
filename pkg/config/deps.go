package config

import (
	"log/slog"

	"github.com/ccxiaoji/autoledger/pkg/dedup"
	"github.com/ccxiaoji/autoledger/pkg/eventbus"
	"github.com/ccxiaoji/autoledger/pkg/kvstore"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// Deps holds the infrastructure dependencies for building the services.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Dedup    *dedup.Checker
	Settings *SettingsSource
	KVStore  kvstore.Store
	Logger   *slog.Logger
	Config   *App
}
