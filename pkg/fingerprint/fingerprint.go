// Package fingerprint derives the stable identity keys used to deduplicate
// payment notifications. Two fingerprints exist per event: a raw one computed
// before parsing and a parsed one computed after, both bucketed in time so
// re-deliveries inside the window collapse onto the same key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

const blankMerchantSentinel = "no-merchant"

// Bucket floors an epoch-millisecond timestamp onto its dedup window so any
// two timestamps inside the same window share a bucket index.
func Bucket(postTimeMs, windowMs int64) int64 {
	if windowMs <= 0 {
		return postTimeMs
	}
	return postTimeMs / windowMs
}

// TextHash hashes the notification content after trimming surrounding
// whitespace, so padding-only differences do not defeat dedup.
func TextHash(title, text string) string {
	return hash(strings.TrimSpace(title) + "|" + strings.TrimSpace(text))
}

// MerchantHash hashes a normalized merchant name; blank merchants map onto a
// shared sentinel rather than the hash of the empty string.
func MerchantHash(normalizedMerchant string) string {
	m := strings.TrimSpace(normalizedMerchant)
	if m == "" {
		return hash(blankMerchantSentinel)
	}
	return hash(m)
}

// ForRawEvent computes the pre-parse fingerprint of a notification event.
func ForRawEvent(e domain.RawEvent, windowMs int64) string {
	return hash(fmt.Sprintf("%s|%s|%d", e.PackageName, TextHash(e.Title, e.Text), Bucket(e.PostTime, windowMs)))
}

// ForNotification computes the post-parse fingerprint, which survives
// cosmetic rewording of the notification as long as the parsed facts agree.
func ForNotification(n domain.ParsedNotification, windowMs int64) string {
	return hash(fmt.Sprintf("%s|%d|%d|%s|%s",
		n.SourceApp,
		n.AmountCents,
		Bucket(n.PostedTime.UnixMilli(), windowMs),
		MerchantHash(n.NormalizedMerchant),
		n.Direction,
	))
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
