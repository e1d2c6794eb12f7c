package parser_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/parser"
)

func TestKeywordParser(t *testing.T) {
	ctx := context.Background()
	p := parser.NewKeywordParser()
	now := time.Now().UnixMilli()

	t.Run("alipay expense", func(t *testing.T) {
		r := p.Parse(ctx, domain.RawEvent{
			PackageName: domain.PackageAlipay,
			Title:       "支付宝",
			Text:        "你向星巴克付款¥25.50，使用余额宝",
			PostTime:    now,
		})
		require.True(t, r.IsSuccess())
		n := r.Notification()
		assert.Equal(t, int64(2550), n.AmountCents)
		assert.Equal(t, domain.DirectionExpense, n.Direction)
		assert.Equal(t, "星巴克", n.NormalizedMerchant)
		assert.Equal(t, "余额宝", n.PaymentMethod)
		assert.Equal(t, domain.SourceAlipay, n.SourceType)
		assert.Equal(t, time.UnixMilli(now), n.PostedTime)
		assert.InDelta(t, 1.0, n.Confidence, 1e-9)
	})

	t.Run("wechat income with yuan suffix", func(t *testing.T) {
		r := p.Parse(ctx, domain.RawEvent{
			PackageName: domain.PackageWeChat,
			Title:       "微信支付",
			Text:        "收到老王的转账100元",
			PostTime:    now,
		})
		require.True(t, r.IsSuccess())
		n := r.Notification()
		assert.Equal(t, int64(10000), n.AmountCents)
		assert.Equal(t, domain.DirectionTransfer, n.Direction)
	})

	t.Run("refund wins over payment keywords", func(t *testing.T) {
		r := p.Parse(ctx, domain.RawEvent{
			PackageName: domain.PackageAlipay,
			Title:       "支付宝",
			Text:        "退款到账¥12.00",
			PostTime:    now,
		})
		require.True(t, r.IsSuccess())
		assert.Equal(t, domain.DirectionRefund, r.Notification().Direction)
	})

	t.Run("unsupported package", func(t *testing.T) {
		r := p.Parse(ctx, domain.RawEvent{PackageName: "com.example.chat", Text: "付款¥1.00", PostTime: now})
		assert.True(t, r.IsUnsupported())
	})

	t.Run("non payment text is skipped", func(t *testing.T) {
		r := p.Parse(ctx, domain.RawEvent{
			PackageName: domain.PackageAlipay,
			Title:       "支付宝",
			Text:        "蚂蚁森林能量已成熟",
			PostTime:    now,
		})
		assert.True(t, r.IsSkipped())
	})

	t.Run("payment keywords without amount fail", func(t *testing.T) {
		r := p.Parse(ctx, domain.RawEvent{
			PackageName: domain.PackageAlipay,
			Title:       "支付宝",
			Text:        "你有一笔付款待确认",
			PostTime:    now,
		})
		assert.True(t, r.IsFailed())
	})
}

func TestNormalizeMerchant(t *testing.T) {
	assert.Equal(t, "星巴克", parser.NormalizeMerchant(" “星巴克” "))
	assert.Equal(t, "", parser.NormalizeMerchant("   "))
}
