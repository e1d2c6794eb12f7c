package fingerprint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

const windowMs = int64(300_000)

func TestBucket(t *testing.T) {
	t.Run("same window shares bucket", func(t *testing.T) {
		assert.Equal(t, Bucket(1_000, windowMs), Bucket(299_999, windowMs))
	})
	t.Run("adjacent windows differ", func(t *testing.T) {
		assert.NotEqual(t, Bucket(299_999, windowMs), Bucket(300_000, windowMs))
	})
	t.Run("non-positive window degrades to identity", func(t *testing.T) {
		assert.Equal(t, int64(1234), Bucket(1234, 0))
	})
}

func TestTextHash(t *testing.T) {
	t.Run("whitespace padding collapses", func(t *testing.T) {
		assert.Equal(t, TextHash("支付宝", "你有一笔支出"), TextHash("  支付宝 ", " 你有一笔支出  "))
	})
	t.Run("different text differs", func(t *testing.T) {
		assert.NotEqual(t, TextHash("a", "b"), TextHash("a", "c"))
	})
}

func TestMerchantHash(t *testing.T) {
	t.Run("blank maps to sentinel", func(t *testing.T) {
		assert.Equal(t, MerchantHash(""), MerchantHash("   "))
		assert.NotEqual(t, MerchantHash(""), MerchantHash("no-merchant-shop"))
	})
}

func TestForRawEvent(t *testing.T) {
	e := domain.RawEvent{
		PackageName: domain.PackageAlipay,
		Title:       "支付宝",
		Text:        "向商家付款25.00元",
		PostTime:    1_700_000_100_000,
	}

	t.Run("stable within window", func(t *testing.T) {
		later := e
		later.PostTime += 10_000
		assert.Equal(t, ForRawEvent(e, windowMs), ForRawEvent(later, windowMs))
	})
	t.Run("changes across windows", func(t *testing.T) {
		later := e
		later.PostTime += windowMs
		assert.NotEqual(t, ForRawEvent(e, windowMs), ForRawEvent(later, windowMs))
	})
	t.Run("changes per package", func(t *testing.T) {
		other := e
		other.PackageName = domain.PackageWeChat
		assert.NotEqual(t, ForRawEvent(e, windowMs), ForRawEvent(other, windowMs))
	})
}

func TestForNotification(t *testing.T) {
	base := domain.ParsedNotification{
		SourceApp:          domain.PackageAlipay,
		Direction:          domain.DirectionExpense,
		AmountCents:        2500,
		NormalizedMerchant: "星巴克",
		PostedTime:         time.UnixMilli(1_700_000_100_000),
	}

	t.Run("identical facts share fingerprint", func(t *testing.T) {
		other := base
		other.RawText = "reworded notification body"
		assert.Equal(t, ForNotification(base, windowMs), ForNotification(other, windowMs))
	})
	t.Run("amount distinguishes", func(t *testing.T) {
		other := base
		other.AmountCents = 2600
		assert.NotEqual(t, ForNotification(base, windowMs), ForNotification(other, windowMs))
	})
	t.Run("direction distinguishes", func(t *testing.T) {
		other := base
		other.Direction = domain.DirectionIncome
		assert.NotEqual(t, ForNotification(base, windowMs), ForNotification(other, windowMs))
	})
}
