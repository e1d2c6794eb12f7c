// Package infra wires the persistence backends behind the pkg interfaces.
package infra

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ccxiaoji/autoledger/infra/repository/account"
	"github.com/ccxiaoji/autoledger/infra/repository/category"
	"github.com/ccxiaoji/autoledger/infra/repository/debug"
	"github.com/ccxiaoji/autoledger/infra/repository/dedup"
	"github.com/ccxiaoji/autoledger/infra/repository/ledger"
	"github.com/ccxiaoji/autoledger/infra/repository/ledgerlink"
	"github.com/ccxiaoji/autoledger/infra/repository/relation"
	"github.com/ccxiaoji/autoledger/infra/repository/transaction"
	"github.com/ccxiaoji/autoledger/pkg/config"
)

// NewDBConnection opens the postgres connection described by cnf.
func NewDBConnection(cnf config.DB, appEnv string) (*gorm.DB, error) {
	databaseUrl := cnf.Url
	if databaseUrl == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var logMode logger.LogLevel
	if appEnv == "development" {
		logMode = logger.Info
	} else {
		logMode = logger.Silent
	}

	connection, err := gorm.Open(postgres.Open(databaseUrl), &gorm.Config{
		Logger:                 logger.Default.LogMode(logMode),
		SkipDefaultTransaction: true})
	if err != nil {
		return nil, err
	}

	sqlDB, err := connection.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(1 * time.Hour)

	return connection, nil
}

// Migrate creates or updates the schema for every persisted entity.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&account.Account{},
		&category.Category{},
		&ledger.Ledger{},
		&transaction.Transaction{},
		&ledgerlink.LedgerLink{},
		&relation.TransactionLedgerRelation{},
		&debug.DebugRecord{},
		&dedup.DedupKey{},
		&dedup.DedupCounter{},
	)
}
