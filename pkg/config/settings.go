package config

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ccxiaoji/autoledger/pkg/kvstore"
)

// Settings keys in the runtime store.
const (
	KeyEnabled                = "auto_ledger_enabled"
	KeyConfidenceThreshold    = "auto_ledger_confidence_threshold"
	KeyMinAmountCents         = "auto_ledger_min_amount_cents"
	KeyDedupWindowSeconds     = "auto_ledger_dedup_window_seconds"
	KeyForceSemiAuto          = "auto_ledger_force_semi_auto"
	KeyAlipayDirectEntry      = "auto_ledger_alipay_auto_on"
	KeyAlipayDefaultAccount   = "auto_ledger_alipay_default_account_id"
	KeyDefaultExpenseCategory = "auto_ledger_default_expense_category_id"
	KeyDefaultIncomeCategory  = "auto_ledger_default_income_category_id"
)

var settingsKeys = []string{
	KeyEnabled, KeyConfidenceThreshold, KeyMinAmountCents,
	KeyDedupWindowSeconds, KeyForceSemiAuto,
	KeyAlipayDirectEntry, KeyAlipayDefaultAccount,
	KeyDefaultExpenseCategory, KeyDefaultIncomeCategory,
}

// Settings is an immutable snapshot of the runtime knobs. Each event is
// processed against exactly one snapshot, so a settings write mid-event can
// never produce a half-old half-new decision.
type Settings struct {
	Enabled             bool
	ConfidenceThreshold float64
	MinAmountCents      int64
	DedupWindow         time.Duration

	// ForceSemiAuto is the kill switch for automatic booking: when set,
	// every notification asks for confirmation no matter what Enabled says.
	ForceSemiAuto bool

	// AlipayDirectEntry books alipay notifications straight into the
	// configured default account and per-direction category, skipping the
	// confidence gate. It stays inert until both ids below are configured.
	AlipayDirectEntry        bool
	AlipayDefaultAccountID   string
	DefaultExpenseCategoryID string
	DefaultIncomeCategoryID  string
}

// DefaultSettings are the values used when the store holds no overrides.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             false,
		ConfidenceThreshold: 0.85,
		MinAmountCents:      100,
		DedupWindow:         5 * time.Minute,
		ForceSemiAuto:       false,
		AlipayDirectEntry:   false,
	}
}

// EffectiveEnabled applies the force-semi-auto override to the enabled flag.
func (s Settings) EffectiveEnabled() bool {
	return s.Enabled && !s.ForceSemiAuto
}

// SettingsSource caches a Settings snapshot over an observable store and
// refreshes it whenever one of the settings keys changes.
type SettingsSource struct {
	store  kvstore.Store
	logger *slog.Logger

	mu             sync.RWMutex
	cur            Settings
	overrideLogged bool
	unsubs         []func()
}

func NewSettingsSource(ctx context.Context, store kvstore.Store, logger *slog.Logger) (*SettingsSource, error) {
	s := &SettingsSource{
		store:  store,
		logger: logger.With("component", "settings"),
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	for _, key := range settingsKeys {
		s.unsubs = append(s.unsubs, store.Subscribe(key, s.onChange))
	}
	return s, nil
}

// Snapshot returns the current settings. The returned value is a copy.
func (s *SettingsSource) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Close detaches the source from the store.
func (s *SettingsSource) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

func (s *SettingsSource) onChange(key string) {
	if err := s.reload(context.Background()); err != nil {
		s.logger.Error("❌ settings reload failed, keeping previous snapshot", "key", key, "error", err)
		return
	}
	s.logger.Info("🔄 settings refreshed", "changed_key", key)
}

func (s *SettingsSource) reload(ctx context.Context) error {
	next := DefaultSettings()

	var err error
	if next.Enabled, err = s.getBool(ctx, KeyEnabled, next.Enabled); err != nil {
		return err
	}
	if next.ConfidenceThreshold, err = s.getFloat(ctx, KeyConfidenceThreshold, next.ConfidenceThreshold); err != nil {
		return err
	}
	if next.MinAmountCents, err = s.getInt(ctx, KeyMinAmountCents, next.MinAmountCents); err != nil {
		return err
	}
	windowSec, err := s.getInt(ctx, KeyDedupWindowSeconds, int64(next.DedupWindow/time.Second))
	if err != nil {
		return err
	}
	if windowSec > 0 {
		next.DedupWindow = time.Duration(windowSec) * time.Second
	}
	if next.ForceSemiAuto, err = s.getBool(ctx, KeyForceSemiAuto, next.ForceSemiAuto); err != nil {
		return err
	}
	if next.AlipayDirectEntry, err = s.getBool(ctx, KeyAlipayDirectEntry, next.AlipayDirectEntry); err != nil {
		return err
	}
	if next.AlipayDefaultAccountID, err = s.getString(ctx, KeyAlipayDefaultAccount, next.AlipayDefaultAccountID); err != nil {
		return err
	}
	if next.DefaultExpenseCategoryID, err = s.getString(ctx, KeyDefaultExpenseCategory, next.DefaultExpenseCategoryID); err != nil {
		return err
	}
	if next.DefaultIncomeCategoryID, err = s.getString(ctx, KeyDefaultIncomeCategory, next.DefaultIncomeCategoryID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = next
	suppressed := next.Enabled && next.ForceSemiAuto
	if suppressed && !s.overrideLogged {
		s.logger.Warn("⚠️ automatic booking suppressed, every notification will ask", "override", KeyForceSemiAuto)
	}
	s.overrideLogged = suppressed
	return nil
}

func (s *SettingsSource) getBool(ctx context.Context, key string, def bool) (bool, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, perr := strconv.ParseBool(raw)
	if perr != nil {
		s.logger.Warn("invalid bool setting, keeping default", "key", key, "value", raw)
		return def, nil
	}
	return v, nil
}

func (s *SettingsSource) getFloat(ctx context.Context, key string, def float64) (float64, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, perr := strconv.ParseFloat(raw, 64)
	if perr != nil {
		s.logger.Warn("invalid float setting, keeping default", "key", key, "value", raw)
		return def, nil
	}
	return v, nil
}

func (s *SettingsSource) getInt(ctx context.Context, key string, def int64) (int64, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	v, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil {
		s.logger.Warn("invalid int setting, keeping default", "key", key, "value", raw)
		return def, nil
	}
	return v, nil
}

func (s *SettingsSource) getString(ctx context.Context, key string, def string) (string, error) {
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil || !ok {
		return def, err
	}
	return raw, nil
}
