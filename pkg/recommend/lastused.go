// Package recommend picks the account, category and ledger for a parsed
// notification by walking fixed fallback chains, and remembers confirmed
// choices so repetition of a habit beats every heuristic below it.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/fingerprint"
	"github.com/ccxiaoji/autoledger/pkg/kvstore"
)

// Amount buckets used in last-used keys.
const (
	AmountBucketSmall = "S" // under ¥50
	AmountBucketMid   = "M" // under ¥500
	AmountBucketLarge = "L"
)

// Time-of-day buckets used in last-used keys. BucketAny is the wildcard
// written alongside the refined bucket so a habit learned in the morning
// still matches at night.
const (
	BucketMorning   = "MORNING"
	BucketAfternoon = "AFTERNOON"
	BucketEvening   = "EVENING"
	BucketNight     = "NIGHT"
	BucketAny       = "ANY"
)

func AmountBucket(cents int64) string {
	switch {
	case cents < 5000:
		return AmountBucketSmall
	case cents < 50000:
		return AmountBucketMid
	default:
		return AmountBucketLarge
	}
}

func TimeBucket(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 6 && h <= 11:
		return BucketMorning
	case h >= 12 && h <= 17:
		return BucketAfternoon
	case h >= 18 && h <= 22:
		return BucketEvening
	default:
		return BucketNight
	}
}

// Choice is one remembered account/category/ledger selection.
type Choice struct {
	AccountID  string `json:"account_id,omitempty"`
	CategoryID string `json:"category_id,omitempty"`
	LedgerID   string `json:"ledger_id,omitempty"`
}

func (c Choice) isZero() bool {
	return c.AccountID == "" && c.CategoryID == "" && c.LedgerID == ""
}

// LastUsed persists selections in the runtime store. Writes are synchronous:
// Remember returns only after every key is stored, so a crash cannot lose a
// confirmed habit that the caller believes recorded.
type LastUsed struct {
	store kvstore.Store
}

func NewLastUsed(store kvstore.Store) *LastUsed {
	return &LastUsed{store: store}
}

// Remember stores the choice under the refined context key, the wildcard
// time key, the coarse key and the merchant key.
func (l *LastUsed) Remember(ctx context.Context, n domain.ParsedNotification, c Choice) error {
	if c.isZero() {
		return nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal last-used choice: %w", err)
	}
	keys := []string{
		refinedKey(n, TimeBucket(n.PostedTime)),
		refinedKey(n, BucketAny),
		coarseKey(n),
	}
	if n.NormalizedMerchant != "" {
		keys = append(keys, merchantKey(n))
	}
	for _, key := range keys {
		if err := l.store.Set(ctx, key, string(raw)); err != nil {
			return fmt.Errorf("store last-used choice: %w", err)
		}
	}
	return nil
}

// Refined looks up the choice for the notification's exact context, falling
// back to the wildcard time bucket.
func (l *LastUsed) Refined(ctx context.Context, n domain.ParsedNotification) (*Choice, error) {
	for _, key := range []string{refinedKey(n, TimeBucket(n.PostedTime)), refinedKey(n, BucketAny)} {
		c, err := l.get(ctx, key)
		if err != nil || c != nil {
			return c, err
		}
	}
	return nil, nil
}

// Coarse looks up the per source-and-direction choice.
func (l *LastUsed) Coarse(ctx context.Context, n domain.ParsedNotification) (*Choice, error) {
	return l.get(ctx, coarseKey(n))
}

// ByMerchant looks up the choice remembered for this merchant; (nil, nil)
// when the merchant is blank or unseen.
func (l *LastUsed) ByMerchant(ctx context.Context, n domain.ParsedNotification) (*Choice, error) {
	if n.NormalizedMerchant == "" {
		return nil, nil
	}
	return l.get(ctx, merchantKey(n))
}

func (l *LastUsed) get(ctx context.Context, key string) (*Choice, error) {
	raw, ok, err := l.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read last-used choice: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var c Choice
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode last-used choice: %w", err)
	}
	return &c, nil
}

func refinedKey(n domain.ParsedNotification, timeBucket string) string {
	return fmt.Sprintf("lastused:%s:%s:%s:%s", n.SourceApp, n.Direction, AmountBucket(n.AmountCents), timeBucket)
}

func coarseKey(n domain.ParsedNotification) string {
	return fmt.Sprintf("lastused:%s:%s", n.SourceApp, n.Direction)
}

func merchantKey(n domain.ParsedNotification) string {
	return fmt.Sprintf("lastused:merchant:%s", fingerprint.MerchantHash(n.NormalizedMerchant))
}
