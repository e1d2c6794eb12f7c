package dedup_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infradedup "github.com/ccxiaoji/autoledger/infra/dedup"
	"github.com/ccxiaoji/autoledger/pkg/dedup"
	"github.com/ccxiaoji/autoledger/pkg/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newChecker(t *testing.T, cfg dedup.Config) *dedup.Checker {
	t.Helper()
	return dedup.NewChecker(infradedup.NewMemoryStore(), cfg, testLogger())
}

func paymentEvent(postTime int64) domain.RawEvent {
	return domain.RawEvent{
		PackageName: domain.PackageAlipay,
		Title:       "支付宝",
		Text:        "付款成功25.00元",
		PostTime:    postTime,
	}
}

func TestShouldProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a fresh payment event", func(t *testing.T) {
		d := newChecker(t, dedup.Config{}).ShouldProcess(ctx, paymentEvent(time.Now().UnixMilli()))
		require.True(t, d.IsProcess())
		assert.NotEmpty(t, d.Key())
	})

	t.Run("skips unsupported source", func(t *testing.T) {
		e := paymentEvent(time.Now().UnixMilli())
		e.PackageName = "com.example.game"
		d := newChecker(t, dedup.Config{}).ShouldProcess(ctx, e)
		require.True(t, d.IsSkip())
		assert.Equal(t, dedup.ReasonUnsupportedSource, d.Reason())
	})

	t.Run("skips group summary", func(t *testing.T) {
		e := paymentEvent(time.Now().UnixMilli())
		e.GroupSummary = true
		d := newChecker(t, dedup.Config{}).ShouldProcess(ctx, e)
		require.True(t, d.IsSkip())
		assert.Equal(t, dedup.ReasonGroupSummary, d.Reason())
	})

	t.Run("wechat red packet passes the group summary filter", func(t *testing.T) {
		e := domain.RawEvent{
			PackageName:  domain.PackageWeChat,
			Title:        "微信",
			Text:         "你收到红包一个，微信红包",
			PostTime:     time.Now().UnixMilli(),
			GroupSummary: true,
		}
		d := newChecker(t, dedup.Config{}).ShouldProcess(ctx, e)
		assert.True(t, d.IsProcess())
	})

	t.Run("skips order status noise", func(t *testing.T) {
		e := paymentEvent(time.Now().UnixMilli())
		e.Text = "您的订单已发货，请注意查收快递"
		d := newChecker(t, dedup.Config{}).ShouldProcess(ctx, e)
		require.True(t, d.IsSkip())
		assert.Equal(t, dedup.ReasonOrderNoise, d.Reason())
	})

	t.Run("strong payment phrase overrides order keyword", func(t *testing.T) {
		e := paymentEvent(time.Now().UnixMilli())
		e.Text = "订单支付成功，金额25.00元"
		d := newChecker(t, dedup.Config{}).ShouldProcess(ctx, e)
		assert.True(t, d.IsProcess())
	})

	t.Run("second identical event in window is skipped", func(t *testing.T) {
		c := newChecker(t, dedup.Config{})
		e := paymentEvent(time.Now().UnixMilli())
		require.True(t, c.ShouldProcess(ctx, e).IsProcess())
		d := c.ShouldProcess(ctx, e)
		require.True(t, d.IsSkip())
		assert.Equal(t, dedup.ReasonDuplicateText, d.Reason())
	})

	t.Run("rate guard skips after the per-source cap", func(t *testing.T) {
		c := newChecker(t, dedup.Config{MaxPerSourceWindow: 3})
		base := time.Now().UnixMilli()
		for i := 0; i < 3; i++ {
			e := paymentEvent(base + int64(i))
			e.Text = e.Text + string(rune('a'+i))
			require.True(t, c.ShouldProcess(ctx, e).IsProcess(), "event %d", i)
		}
		e := paymentEvent(base + 100)
		e.Text = e.Text + "z"
		d := c.ShouldProcess(ctx, e)
		require.True(t, d.IsSkip())
		assert.Equal(t, dedup.ReasonRateLimited, d.Reason())
	})

	t.Run("concurrent duplicates resolve to one processor", func(t *testing.T) {
		c := newChecker(t, dedup.Config{MaxPerSourceWindow: 100})
		e := paymentEvent(time.Now().UnixMilli())

		const n = 16
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			processed int
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if c.ShouldProcess(ctx, e).IsProcess() {
					mu.Lock()
					processed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, processed)
	})
}

func TestRecordProcessed(t *testing.T) {
	ctx := context.Background()
	c := newChecker(t, dedup.Config{})
	n := domain.ParsedNotification{
		SourceApp:          domain.PackageAlipay,
		Direction:          domain.DirectionExpense,
		AmountCents:        2500,
		NormalizedMerchant: "星巴克",
		PostedTime:         time.Now(),
	}

	dup, err := c.RecordProcessed(ctx, n)
	require.NoError(t, err)
	assert.False(t, dup)

	// Same facts arriving via a reworded notification are a duplicate.
	n.RawText = "another wording"
	dup, err = c.RecordProcessed(ctx, n)
	require.NoError(t, err)
	assert.True(t, dup)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	c := dedup.NewChecker(infradedup.NewMemoryStore(), dedup.Config{RetentionTTL: time.Nanosecond}, testLogger())
	require.True(t, c.ShouldProcess(ctx, paymentEvent(time.Now().UnixMilli())).IsProcess())

	time.Sleep(time.Millisecond)
	removed, err := c.Cleanup(ctx)
	require.NoError(t, err)
	assert.Positive(t, removed)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Keys)
}
