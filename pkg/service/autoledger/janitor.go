package autoledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ccxiaoji/autoledger/pkg/dedup"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// Janitor periodically expires dedup keys and prunes old audit rows.
type Janitor struct {
	checker   *dedup.Checker
	uow       repository.UnitOfWork
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewJanitor schedules cleanup per spec, a six-field cron expression with
// seconds.
func NewJanitor(checker *dedup.Checker, uow repository.UnitOfWork, retention time.Duration, spec string, logger *slog.Logger) (*Janitor, error) {
	j := &Janitor{
		checker:   checker,
		uow:       uow,
		retention: retention,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "janitor"),
	}
	if _, err := j.cron.AddFunc(spec, j.runOnce); err != nil {
		return nil, fmt.Errorf("schedule cleanup %q: %w", spec, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("🧹 janitor scheduled")
}

// Stop halts scheduling and waits for a running cleanup to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	j.RunCleanup(ctx)
}

// RunCleanup performs one cleanup pass.
func (j *Janitor) RunCleanup(ctx context.Context) {
	if _, err := j.checker.Cleanup(ctx); err != nil {
		j.logger.Error("❌ dedup cleanup failed", "error", err)
	}
	removed, err := j.uow.DebugRecords().DeleteOlderThan(ctx, time.Now().Add(-j.retention))
	if err != nil {
		j.logger.Error("❌ audit cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.Info("🧹 audit rows pruned", "removed", removed)
	}
}
