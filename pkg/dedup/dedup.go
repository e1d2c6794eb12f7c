// Package dedup gates raw notification events before parsing. It filters
// non-payment noise (order status, group summaries), collapses re-deliveries
// onto their fingerprint, rate-limits runaway sources, and atomically
// reserves each event so concurrent duplicates resolve to exactly one
// processor.
package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/fingerprint"
)

// Skip reasons reported on filtered events.
const (
	ReasonUnsupportedSource = "unsupported source"
	ReasonGroupSummary      = "group summary"
	ReasonOrderNoise        = "order status noise"
	ReasonDuplicateText     = "duplicate text in window"
	ReasonDuplicateEvent    = "duplicate event"
	ReasonRateLimited       = "source rate limited"
)

// Order-status phrases that mark a notification as shopping noise rather
// than a completed payment.
var orderKeywords = []string{
	"订单", "待付款", "待支付", "已发货", "已下单", "物流", "快递", "签收", "取消订单", "拼单",
}

// Phrases that mark a completed money movement. A notification carrying one
// of these is processed even when it also carries an order keyword.
var strongPaymentKeywords = []string{
	"支付成功", "付款成功", "已支付", "收款", "到账", "转账", "退款成功", "已退款",
}

// WeChat red packets arrive as group-summary notifications but are real
// money movements.
var redPacketKeywords = []string{"微信红包", "收到红包"}

// Config tunes the gate. Zero values fall back to defaults.
type Config struct {
	// Window is the fingerprint time bucket; events inside one window with
	// the same content collapse. Default 5m.
	Window time.Duration
	// MaxPerSourceWindow caps events accepted per source app per window.
	// Default 10.
	MaxPerSourceWindow int64
	// RetentionTTL bounds how long reservation keys live. Default 24h.
	RetentionTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = 5 * time.Minute
	}
	if c.MaxPerSourceWindow <= 0 {
		c.MaxPerSourceWindow = 10
	}
	if c.RetentionTTL <= 0 {
		c.RetentionTTL = 24 * time.Hour
	}
	return c
}

// Stats is a point-in-time snapshot of the backing store.
type Stats struct {
	Keys int64 `json:"keys"`
}

// Store is the persistence contract of the gate. Redis and in-memory
// implementations live in infra/dedup, a gorm one in infra/repository/dedup.
type Store interface {
	// Reserve inserts the key if absent, returning false when it already
	// existed. The insert must be conditional so concurrent callers cannot
	// both succeed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, ttl time.Duration) error
	// IncrementSource bumps and returns the per-source counter of the
	// current window.
	IncrementSource(ctx context.Context, source string, window time.Duration) (int64, error)
	Cleanup(ctx context.Context) (removed int64, err error)
	Stats(ctx context.Context) (Stats, error)
}

type decisionKind int

const (
	kindProcess decisionKind = iota
	kindSkip
	kindError
)

// Decision is the three-way outcome of the gate: exactly one of
// process / skip / error holds.
type Decision struct {
	kind   decisionKind
	key    string
	reason string
	err    error
}

func Process(reservedKey string) Decision { return Decision{kind: kindProcess, key: reservedKey} }
func Skip(reason string) Decision         { return Decision{kind: kindSkip, reason: reason} }
func Failure(err error) Decision          { return Decision{kind: kindError, err: err} }

func (d Decision) IsProcess() bool { return d.kind == kindProcess }
func (d Decision) IsSkip() bool    { return d.kind == kindSkip }
func (d Decision) IsError() bool   { return d.kind == kindError }

// Key returns the reserved fingerprint of a process decision.
func (d Decision) Key() string { return d.key }

// Reason returns the skip reason of a skip decision.
func (d Decision) Reason() string { return d.reason }

// Err returns the failure of an error decision.
func (d Decision) Err() error { return d.err }

// Checker runs the gate against a Store.
type Checker struct {
	store  Store
	cfg    Config
	group  singleflight.Group
	logger *slog.Logger
}

func NewChecker(store Store, cfg Config, logger *slog.Logger) *Checker {
	return &Checker{
		store:  store,
		cfg:    cfg.withDefaults(),
		logger: logger.With("component", "dedup"),
	}
}

// ShouldProcess decides the fate of a raw event. A process decision means
// the event's fingerprint is reserved and the caller owns it; a store
// failure is reported as an error decision, never silently as a skip.
func (c *Checker) ShouldProcess(ctx context.Context, e domain.RawEvent) Decision {
	if domain.SourceTypeForPackage(e.PackageName) == domain.SourceUnknown {
		return Skip(ReasonUnsupportedSource)
	}

	content := e.Content()
	if e.GroupSummary && !isRedPacket(e.PackageName, content) {
		return Skip(ReasonGroupSummary)
	}
	if containsAny(content, orderKeywords) && !containsAny(content, strongPaymentKeywords) {
		return Skip(ReasonOrderNoise)
	}

	windowMs := c.cfg.Window.Milliseconds()
	textHash := fingerprint.TextHash(e.Title, e.Text)
	bucket := fingerprint.Bucket(e.PostTime, windowMs)

	// The text check spans the current and previous bucket so a duplicate
	// straddling a bucket edge is still caught.
	for _, b := range []int64{bucket, bucket - 1} {
		seen, err := c.store.Exists(ctx, textKey(e.PackageName, textHash, b))
		if err != nil {
			return Failure(fmt.Errorf("dedup text lookup: %w", err))
		}
		if seen {
			return Skip(ReasonDuplicateText)
		}
	}

	count, err := c.store.IncrementSource(ctx, e.PackageName, c.cfg.Window)
	if err != nil {
		return Failure(fmt.Errorf("dedup source counter: %w", err))
	}
	if count > c.cfg.MaxPerSourceWindow {
		c.logger.Warn("⚠️ source exceeded rate guard", "package", e.PackageName, "count", count)
		return Skip(ReasonRateLimited)
	}

	// Reserve before any further work so two concurrent duplicates cannot
	// both proceed. Singleflight serializes in-process racers on the key;
	// the conditional insert in the store settles cross-process racers.
	raw := rawKey(fingerprint.ForRawEvent(e, windowMs))
	v, err, _ := c.group.Do(raw, func() (any, error) {
		return c.store.Reserve(ctx, raw, c.cfg.RetentionTTL)
	})
	if err != nil {
		return Failure(fmt.Errorf("dedup reserve: %w", err))
	}
	if !v.(bool) {
		return Skip(ReasonDuplicateEvent)
	}

	if err := c.store.Put(ctx, textKey(e.PackageName, textHash, bucket), c.cfg.RetentionTTL); err != nil {
		return Failure(fmt.Errorf("dedup text record: %w", err))
	}
	return Process(raw)
}

// RecordProcessed reserves the post-parse fingerprint. It returns true when
// a semantically identical notification was already processed in the window,
// in which case the caller should not book it again.
func (c *Checker) RecordProcessed(ctx context.Context, n domain.ParsedNotification) (duplicate bool, err error) {
	key := parsedKey(fingerprint.ForNotification(n, c.cfg.Window.Milliseconds()))
	ok, err := c.store.Reserve(ctx, key, c.cfg.RetentionTTL)
	if err != nil {
		return false, fmt.Errorf("dedup record processed: %w", err)
	}
	return !ok, nil
}

// Cleanup drops expired keys from the store.
func (c *Checker) Cleanup(ctx context.Context) (int64, error) {
	removed, err := c.store.Cleanup(ctx)
	if err != nil {
		return 0, fmt.Errorf("dedup cleanup: %w", err)
	}
	if removed > 0 {
		c.logger.Info("🧹 dedup store cleaned", "removed", removed)
	}
	return removed, nil
}

// Stats reports the store snapshot.
func (c *Checker) Stats(ctx context.Context) (Stats, error) {
	return c.store.Stats(ctx)
}

func isRedPacket(pkg, content string) bool {
	return pkg == domain.PackageWeChat && containsAny(content, redPacketKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func textKey(pkg, textHash string, bucket int64) string {
	return fmt.Sprintf("text:%s:%s:%d", pkg, textHash, bucket)
}

func rawKey(fp string) string    { return "raw:" + fp }
func parsedKey(fp string) string { return "parsed:" + fp }
