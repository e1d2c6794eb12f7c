package parser

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ccxiaoji/autoledger/pkg/domain"
)

// Version tags parsed notifications so stored audit rows can be traced back
// to the rule set that produced them.
const Version = "keyword-1"

var (
	amountSymbolRe = regexp.MustCompile(`[¥￥]\s*(\d+(?:\.\d{1,2})?)`)
	amountYuanRe   = regexp.MustCompile(`(\d+(?:\.\d{1,2})?)\s*元`)
	merchantToRe   = regexp.MustCompile(`向(.{1,20}?)(?:付款|转账|支付)`)
	merchantFromRe = regexp.MustCompile(`收到(.{1,20}?)(?:的|付款|转账)`)
)

var directionKeywords = []struct {
	direction domain.Direction
	keywords  []string
}{
	{domain.DirectionRefund, []string{"退款", "已退回"}},
	{domain.DirectionTransfer, []string{"转账"}},
	{domain.DirectionIncome, []string{"收款", "到账", "收到", "红包"}},
	{domain.DirectionExpense, []string{"付款", "支付", "消费", "扣款"}},
}

var paymentMethodKeywords = []string{"余额宝", "花呗", "零钱通", "零钱", "余额", "银行卡", "信用卡"}

// KeywordParser extracts payment facts from alipay / wechat / unionpay
// notification text with keyword and pattern rules.
type KeywordParser struct{}

func NewKeywordParser() *KeywordParser { return &KeywordParser{} }

func (p *KeywordParser) Parse(_ context.Context, e domain.RawEvent) Result {
	sourceType := domain.SourceTypeForPackage(e.PackageName)
	if sourceType == domain.SourceUnknown {
		return Unsupported()
	}

	// Direction keywords are matched against the body only; app titles like
	// 支付宝 and 微信支付 contain payment words themselves.
	content := e.Content()
	amountCents, ok := parseAmountCents(content)
	if !ok {
		if !containsAnyKeyword(e.Text, directionKeywords) {
			return Skipped("no payment content")
		}
		return Failed("amount not found")
	}

	n := domain.ParsedNotification{
		SourceApp:     e.PackageName,
		SourceType:    sourceType,
		Direction:     parseDirection(e.Text),
		AmountCents:   amountCents,
		PaymentMethod: parsePaymentMethod(content),
		PostedTime:    time.UnixMilli(e.PostTime),
		ParserVersion: Version,
		OriginalTitle: e.Title,
		RawText:       e.Text,
	}
	n.RawMerchant = parseMerchant(content, n.Direction)
	n.NormalizedMerchant = NormalizeMerchant(n.RawMerchant)
	n.Confidence = parseConfidence(n)
	return Success(n)
}

// parseConfidence scores how complete the extraction is, independent of any
// recommendation scoring downstream.
func parseConfidence(n domain.ParsedNotification) float64 {
	c := 0.6
	if n.Direction != domain.DirectionUnknown {
		c += 0.15
	}
	if n.NormalizedMerchant != "" {
		c += 0.15
	}
	if n.PaymentMethod != "" {
		c += 0.1
	}
	return c
}

// NormalizeMerchant strips decoration so the same merchant fingerprints the
// same across notification wordings.
func NormalizeMerchant(raw string) string {
	m := strings.TrimSpace(raw)
	m = strings.Trim(m, `"'“”【】[]()（）`)
	return strings.TrimSpace(m)
}

func parseAmountCents(content string) (int64, bool) {
	m := amountSymbolRe.FindStringSubmatch(content)
	if m == nil {
		m = amountYuanRe.FindStringSubmatch(content)
	}
	if m == nil {
		return 0, false
	}
	whole, frac, _ := strings.Cut(m[1], ".")
	cents, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	cents *= 100
	if frac != "" {
		for len(frac) < 2 {
			frac += "0"
		}
		f, err := strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, false
		}
		cents += f
	}
	return cents, true
}

func parseDirection(content string) domain.Direction {
	for _, group := range directionKeywords {
		for _, k := range group.keywords {
			if strings.Contains(content, k) {
				return group.direction
			}
		}
	}
	return domain.DirectionUnknown
}

func parseMerchant(content string, d domain.Direction) string {
	re := merchantToRe
	if d == domain.DirectionIncome {
		re = merchantFromRe
	}
	if m := re.FindStringSubmatch(content); m != nil {
		return m[1]
	}
	return ""
}

func parsePaymentMethod(content string) string {
	for _, k := range paymentMethodKeywords {
		if strings.Contains(content, k) {
			return k
		}
	}
	return ""
}

func containsAnyKeyword(content string, groups []struct {
	direction domain.Direction
	keywords  []string
}) bool {
	for _, g := range groups {
		for _, k := range g.keywords {
			if strings.Contains(content, k) {
				return true
			}
		}
	}
	return false
}
