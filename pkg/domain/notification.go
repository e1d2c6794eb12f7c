package domain

import "time"

// SourceType identifies the payment app a notification originated from.
type SourceType string

const (
	SourceAlipay   SourceType = "ALIPAY"
	SourceWeChat   SourceType = "WECHAT"
	SourceUnionPay SourceType = "UNIONPAY"
	SourceUnknown  SourceType = "UNKNOWN"
)

// Package names of the supported payment apps.
const (
	PackageAlipay   = "com.eg.android.AlipayGphone"
	PackageWeChat   = "com.tencent.mm"
	PackageUnionPay = "com.unionpay"
)

// SourceTypeForPackage maps a source package name to its SourceType.
func SourceTypeForPackage(packageName string) SourceType {
	switch packageName {
	case PackageAlipay:
		return SourceAlipay
	case PackageWeChat:
		return SourceWeChat
	case PackageUnionPay:
		return SourceUnionPay
	default:
		return SourceUnknown
	}
}

// Direction is the monetary direction of a parsed payment.
type Direction string

const (
	DirectionExpense  Direction = "EXPENSE"
	DirectionIncome   Direction = "INCOME"
	DirectionTransfer Direction = "TRANSFER"
	DirectionRefund   Direction = "REFUND"
	DirectionUnknown  Direction = "UNKNOWN"
)

// ParsedNotification is the structured form of a payment notification as
// produced by the external parser. Immutable; consumed by the recommender
// and the decision engine.
type ParsedNotification struct {
	SourceApp  string
	SourceType SourceType
	Direction  Direction
	// AmountCents is the payment amount in integer minor currency units.
	AmountCents int64
	// RawMerchant is the merchant string as extracted, NormalizedMerchant
	// the cleaned-up form used for matching.
	RawMerchant        string
	NormalizedMerchant string
	// PaymentMethod is the wallet sub-account named in the notification
	// ("余额宝", "零钱", ...), empty when absent.
	PaymentMethod string
	PostedTime    time.Time
	// Confidence is the parser's own confidence in [0,1].
	Confidence    float64
	ParserVersion string
	// Fingerprint is the parsed-level idempotency key derived by the parser
	// stage; may be empty, in which case the deduplicator derives it.
	Fingerprint string
	// OriginalTitle and RawText keep the unparsed notification content for
	// audit records and text hashing.
	OriginalTitle string
	RawText       string
}
