// Package autoledger is the notification booking pipeline: raw events come
// in from the bus, pass the dedup gate, the parser, the recommender and the
// decision engine, and leave as exactly one result event each.
package autoledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ccxiaoji/autoledger/pkg/config"
	"github.com/ccxiaoji/autoledger/pkg/dedup"
	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/domain/events"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/eventbus"
	"github.com/ccxiaoji/autoledger/pkg/fingerprint"
	"github.com/ccxiaoji/autoledger/pkg/parser"
	"github.com/ccxiaoji/autoledger/pkg/recommend"
	"github.com/ccxiaoji/autoledger/pkg/repository"
	"github.com/ccxiaoji/autoledger/pkg/service/txcreate"
)

// Config sizes the pipeline.
type Config struct {
	// UserID is the owner all bookings are made for.
	UserID    string
	Workers   int
	QueueSize int
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	return c
}

// Service runs the pipeline over a bounded worker pool.
type Service struct {
	cfg         Config
	uow         repository.UnitOfWork
	bus         eventbus.Bus
	checker     *dedup.Checker
	parse       parser.Parser
	recommender *recommend.Recommender
	lastUsed    *recommend.LastUsed
	creator     *txcreate.Service
	settings    *config.SettingsSource
	logger      *slog.Logger

	mu      sync.Mutex
	queue   chan domain.RawEvent
	wg      sync.WaitGroup
	started bool
}

func New(
	cfg Config,
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	checker *dedup.Checker,
	p parser.Parser,
	recommender *recommend.Recommender,
	lastUsed *recommend.LastUsed,
	creator *txcreate.Service,
	settings *config.SettingsSource,
	logger *slog.Logger,
) *Service {
	return &Service{
		cfg:         cfg.withDefaults(),
		uow:         uow,
		bus:         bus,
		checker:     checker,
		parse:       p,
		recommender: recommender,
		lastUsed:    lastUsed,
		creator:     creator,
		settings:    settings,
		logger:      logger.With("component", "autoledger"),
	}
}

// Start spins up the worker pool and subscribes to raw notifications.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("pipeline already started")
	}
	s.started = true
	s.queue = make(chan domain.RawEvent, s.cfg.QueueSize)

	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.bus.Subscribe(events.EventRawNotification, s.enqueue)
	s.logger.Info("🚀 pipeline started", "workers", s.cfg.Workers, "queue_size", s.cfg.QueueSize)
	return nil
}

// Stop stops intake and drains the queue; queued events still process.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("🛑 pipeline stopped")
}

func (s *Service) enqueue(_ context.Context, e domain.Event) error {
	raw, err := asRawEvent(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("pipeline stopped")
	}
	select {
	case s.queue <- raw:
		return nil
	default:
		s.logger.Warn("⚠️ queue full, event dropped", "package", raw.PackageName)
		return fmt.Errorf("queue full")
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for e := range s.queue {
		s.Process(ctx, e)
	}
}

// Process runs one raw event through the full pipeline and publishes its
// single result event.
func (s *Service) Process(ctx context.Context, e domain.RawEvent) {
	start := time.Now()
	settings := s.settings.Snapshot()

	gate := s.checker.ShouldProcess(ctx, e)
	switch {
	case gate.IsError():
		s.failProcessing(ctx, e, nil, gate.Err(), start)
		return
	case gate.IsSkip():
		s.skip(ctx, e, nil, gate.Reason(), start)
		return
	}

	result := s.parse.Parse(ctx, e)
	switch {
	case result.IsError():
		s.failProcessing(ctx, e, nil, fmt.Errorf("%w: %v", domain.ErrParse, result.Err()), start)
		return
	case result.IsUnsupported():
		s.skip(ctx, e, nil, dedup.ReasonUnsupportedSource, start)
		return
	case result.IsSkipped():
		s.skip(ctx, e, nil, result.Reason(), start)
		return
	case result.IsFailed():
		s.parseFailed(ctx, e, result.Reason(), start)
		return
	}

	n := result.Notification()
	if n.Fingerprint == "" {
		n.Fingerprint = fingerprint.ForNotification(n, settings.DedupWindow.Milliseconds())
	}

	duplicate, err := s.checker.RecordProcessed(ctx, n)
	if err != nil {
		s.failProcessing(ctx, e, &n, err, start)
		return
	}
	if duplicate {
		s.skip(ctx, e, &n, dedup.ReasonDuplicateEvent, start)
		return
	}

	if rec, sel, ok := s.alipayDirectEntry(ctx, settings, n); ok {
		s.autoCreate(ctx, e, n, rec, sel, start)
		return
	}

	rec := s.recommender.Recommend(ctx, s.cfg.UserID, n)
	decision := decide(settings, n, rec)
	if !decision.auto {
		s.requestConfirmation(ctx, e, n, rec, settings, decision.reason, start)
		return
	}
	s.autoCreate(ctx, e, n, rec, s.resolveSelection(ctx, n, rec), start)
}

// alipayDirectEntry books an alipay notification straight into the configured
// default account and per-direction category, skipping recommendation and the
// confidence gate. It only fires when both ids are configured and the
// direction books unambiguously; anything else falls through to the normal
// flow.
func (s *Service) alipayDirectEntry(ctx context.Context, settings config.Settings, n domain.ParsedNotification) (domain.Recommendation, selection, bool) {
	if !settings.AlipayDirectEntry || n.SourceType != domain.SourceAlipay {
		return domain.Recommendation{}, selection{}, false
	}
	categoryID := settings.DefaultExpenseCategoryID
	if n.Direction == domain.DirectionIncome {
		categoryID = settings.DefaultIncomeCategoryID
	} else if n.Direction != domain.DirectionExpense {
		return domain.Recommendation{}, selection{}, false
	}
	if settings.AlipayDefaultAccountID == "" || categoryID == "" {
		s.logger.Warn("⚠️ alipay direct entry unconfigured, falling back to normal flow",
			"account_configured", settings.AlipayDefaultAccountID != "", "category_configured", categoryID != "")
		return domain.Recommendation{}, selection{}, false
	}

	ledger, err := s.uow.Ledgers().GetDefault(ctx, s.cfg.UserID)
	if err != nil || ledger == nil {
		s.logger.Warn("⚠️ alipay direct entry missing default ledger, falling back to normal flow", "error", err)
		return domain.Recommendation{}, selection{}, false
	}

	sel := selection{AccountID: settings.AlipayDefaultAccountID, CategoryID: categoryID, LedgerID: ledger.ID}
	rec := domain.Recommendation{
		AccountID:  sel.AccountID,
		CategoryID: sel.CategoryID,
		LedgerID:   sel.LedgerID,
		Confidence: 1.0,
		Reason:     "alipay-direct-entry",
	}
	return rec, sel, true
}

// ConfirmManual books a user-confirmed candidate and remembers the choice
// at full confidence.
func (s *Service) ConfirmManual(ctx context.Context, n domain.ParsedNotification, chosen domain.Transaction) (*domain.Transaction, error) {
	date := chosen.TransactionDate
	if date == nil {
		d := n.PostedTime
		date = &d
	}
	tx, err := s.creator.Create(ctx, dto.TransactionCreate{
		ID:              uuid.NewString(),
		AccountID:       chosen.AccountID,
		AmountCents:     chosen.AmountCents,
		CategoryID:      chosen.CategoryID,
		Note:            chosen.Note,
		LedgerID:        chosen.LedgerID,
		TransactionDate: date,
	})
	if err != nil {
		return nil, err
	}

	s.remember(ctx, n, *tx)
	s.publish(ctx, events.ManualConfirmed{Transaction: *tx, Notification: n})
	s.record(ctx, domain.DebugRecord{
		Status:        domain.DebugSuccessManual,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		CategoryID:    tx.CategoryID,
		LedgerID:      tx.LedgerID,
		Confidence:    1.0,
		Reason:        "manual",
	}, nil, &n, 0)
	return tx, nil
}

func (s *Service) autoCreate(ctx context.Context, e domain.RawEvent, n domain.ParsedNotification, rec domain.Recommendation, sel selection, start time.Time) {
	date := n.PostedTime
	tx, err := s.creator.Create(ctx, dto.TransactionCreate{
		ID:              uuid.NewString(),
		AccountID:       sel.AccountID,
		AmountCents:     n.AmountCents,
		CategoryID:      sel.CategoryID,
		Note:            note(n),
		LedgerID:        sel.LedgerID,
		TransactionDate: &date,
	})
	if err != nil {
		s.publish(ctx, events.ProcessingFailed{Message: err.Error()})
		s.record(ctx, domain.DebugRecord{
			Status: domain.DebugProcessFailed,
			Error:  err.Error(),
			Reason: rec.Reason,
		}, &e, &n, elapsedMs(start))
		return
	}

	s.remember(ctx, n, *tx)
	s.publish(ctx, events.TransactionCreated{Transaction: *tx, Notification: n, Recommendation: rec})
	s.record(ctx, domain.DebugRecord{
		Status:        domain.DebugSuccessAuto,
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		CategoryID:    tx.CategoryID,
		LedgerID:      tx.LedgerID,
		Confidence:    rec.Confidence,
		Reason:        rec.Reason,
		Automatic:     true,
	}, &e, &n, elapsedMs(start))
	s.logger.Info("✅ transaction auto-created",
		"transaction_id", tx.ID, "amount_cents", tx.AmountCents, "confidence", rec.Confidence, "reason", rec.Reason)
}

func (s *Service) requestConfirmation(ctx context.Context, e domain.RawEvent, n domain.ParsedNotification, rec domain.Recommendation, settings config.Settings, reason string, start time.Time) {
	s.publish(ctx, events.ConfirmationRequired{
		Notification:   n,
		Recommendation: rec,
		Candidates:     s.candidates(ctx, n, rec),
	})
	if n.Confidence < settings.ConfidenceThreshold {
		s.record(ctx, domain.DebugRecord{
			Status:     domain.DebugSkippedLowConfidence,
			AccountID:  rec.AccountID,
			CategoryID: rec.CategoryID,
			LedgerID:   rec.LedgerID,
			Confidence: rec.Confidence,
			Reason:     rec.Reason,
		}, &e, &n, elapsedMs(start))
	}
	s.logger.Info("❓ confirmation requested",
		"merchant", n.NormalizedMerchant, "confidence", rec.Confidence, "gate", reason)
}

func (s *Service) skip(ctx context.Context, e domain.RawEvent, n *domain.ParsedNotification, reason string, start time.Time) {
	s.publish(ctx, events.Skipped{PackageName: e.PackageName, Reason: reason})
	if reason == dedup.ReasonDuplicateText || reason == dedup.ReasonDuplicateEvent {
		s.record(ctx, domain.DebugRecord{Status: domain.DebugSkippedDuplicate, Reason: reason}, &e, n, elapsedMs(start))
	}
	s.logger.Debug("⏭️ event skipped", "package", e.PackageName, "reason", reason)
}

func (s *Service) parseFailed(ctx context.Context, e domain.RawEvent, reason string, start time.Time) {
	s.publish(ctx, events.ParseFailed{PackageName: e.PackageName, Reason: reason})
	s.record(ctx, domain.DebugRecord{Status: domain.DebugParseFailed, Error: reason}, &e, nil, elapsedMs(start))
	s.logger.Warn("🧩 parse failed", "package", e.PackageName, "reason", reason)
}

func (s *Service) failProcessing(ctx context.Context, e domain.RawEvent, n *domain.ParsedNotification, err error, start time.Time) {
	s.publish(ctx, events.ProcessingFailed{Message: err.Error()})
	s.record(ctx, domain.DebugRecord{Status: domain.DebugUnknownError, Error: err.Error()}, &e, n, elapsedMs(start))
	s.logger.Error("❌ event processing failed", "package", e.PackageName, "error", err)
}

// remember persists the confirmed or auto-booked choice before returning,
// so the next notification already sees the habit.
func (s *Service) remember(ctx context.Context, n domain.ParsedNotification, tx domain.Transaction) {
	err := s.lastUsed.Remember(ctx, n, recommend.Choice{
		AccountID:  tx.AccountID,
		CategoryID: tx.CategoryID,
		LedgerID:   tx.LedgerID,
	})
	if err != nil {
		s.logger.Warn("⚠️ failed to remember choice", "transaction_id", tx.ID, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, e domain.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Error("❌ result publish failed", "event_type", e.Type(), "error", err)
	}
}

// record writes one audit row. Audit failures are logged and swallowed; the
// pipeline result stands either way.
func (s *Service) record(ctx context.Context, rec domain.DebugRecord, e *domain.RawEvent, n *domain.ParsedNotification, processingMs int64) {
	rec.ID = uuid.NewString()
	rec.ProcessingMs = processingMs
	rec.CreatedAt = time.Now()
	if e != nil {
		rec.SourceType = domain.SourceTypeForPackage(e.PackageName)
		rec.Title = e.Title
		rec.Text = e.Text
	}
	if n != nil {
		rec.SourceType = n.SourceType
		rec.AmountCents = n.AmountCents
		rec.Merchant = n.NormalizedMerchant
		rec.Direction = n.Direction
		if rec.Confidence == 0 {
			rec.Confidence = n.Confidence
		}
	}
	if err := s.uow.DebugRecords().Create(ctx, rec); err != nil {
		s.logger.Warn("⚠️ audit record write failed", "status", rec.Status, "error", err)
	}
}

func asRawEvent(e domain.Event) (domain.RawEvent, error) {
	switch v := e.(type) {
	case events.RawNotification:
		return v.Event, nil
	case *events.RawNotification:
		return v.Event, nil
	default:
		return domain.RawEvent{}, fmt.Errorf("unexpected event type %T", e)
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
