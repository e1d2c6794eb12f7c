package recommend

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// Rule names reported in Recommendation.Reason, one per resolved slot.
const (
	rulePaymentMethod = "payment-method"
	ruleSourceType    = "source-type"
	ruleMerchant      = "merchant-habit"
	ruleLastUsed      = "last-used"
	ruleKeyword       = "keyword"
	ruleAmountBand    = "amount-band"
	ruleFrequent      = "most-frequent"
	ruleDefault       = "default"
	ruleFirst         = "first"
)

// amountBands map spend ranges onto category name hints, most specific
// range first.
var amountBands = []struct {
	maxCents int64
	keywords []string
}{
	{5000, []string{"零食", "早餐", "日常", "小吃", "饮料"}},
	{20000, []string{"餐饮", "午餐", "晚餐", "聚餐"}},
	{100000, []string{"购物", "日用", "服饰"}},
	{0, []string{"数码", "家电", "服务", "旅行", "大额"}}, // no upper bound
}

// Recommender resolves the booking slots of a parsed notification. Every
// chain degrades instead of failing: a broken lookup is logged and the next
// rule tried, so a recommendation is always produced even if it is only the
// floor-confidence default.
type Recommender struct {
	uow      repository.UnitOfWork
	lastUsed *LastUsed
	logger   *slog.Logger
}

func New(uow repository.UnitOfWork, lastUsed *LastUsed, logger *slog.Logger) *Recommender {
	return &Recommender{
		uow:      uow,
		lastUsed: lastUsed,
		logger:   logger.With("component", "recommender"),
	}
}

// Recommend walks the account, category and ledger chains and scores the
// result. Unresolved slots come back as empty strings.
func (r *Recommender) Recommend(ctx context.Context, userID string, n domain.ParsedNotification) domain.Recommendation {
	var reasons []string

	accountID, accountRule := r.recommendAccount(ctx, userID, n)
	if accountRule != "" {
		reasons = append(reasons, "account="+accountRule)
	}
	categoryID, categoryRule := r.recommendCategory(ctx, userID, n)
	if categoryRule != "" {
		reasons = append(reasons, "category="+categoryRule)
	}
	ledgerID, ledgerRule := r.recommendLedger(ctx, userID, n)
	if ledgerRule != "" {
		reasons = append(reasons, "ledger="+ledgerRule)
	}

	// Nothing resolved means every chain broke or the user has no data yet.
	// Hand back the floor-confidence default instead of a zero value.
	if accountID == "" && categoryID == "" {
		rec := domain.Recommendation{LedgerID: ledgerID, Confidence: 0.3, Reason: "defaults"}
		r.logger.Debug("🎯 recommendation defaulted", "merchant", n.NormalizedMerchant)
		return rec
	}

	rec := domain.Recommendation{
		AccountID:  accountID,
		CategoryID: categoryID,
		LedgerID:   ledgerID,
		Confidence: Score(n, accountID != "", categoryID != ""),
		Reason:     strings.Join(reasons, " "),
	}
	r.logger.Debug("🎯 recommendation built",
		"merchant", n.NormalizedMerchant,
		"confidence", rec.Confidence,
		"reason", rec.Reason,
	)
	return rec
}

// Score combines slot resolution with the parser's own confidence. The
// parse confidence scales the whole score so a shaky extraction can never
// produce a confidently wrong booking.
func Score(n domain.ParsedNotification, accountResolved, categoryResolved bool) float64 {
	s := 0.3
	if accountResolved {
		s += 0.2
	}
	if categoryResolved {
		s += 0.2
	}
	if n.NormalizedMerchant != "" {
		s += 0.1
	}
	if n.PaymentMethod != "" {
		s += 0.1
	}
	s *= n.Confidence
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

func (r *Recommender) recommendAccount(ctx context.Context, userID string, n domain.ParsedNotification) (string, string) {
	accounts, err := r.uow.Accounts().ListByUser(ctx, userID)
	if err != nil {
		r.degrade("list accounts", err)
		return "", ""
	}
	if len(accounts) == 0 {
		return "", ""
	}

	if t, ok := accountTypeForMethod(n.PaymentMethod); ok {
		if a := firstOfType(accounts, t); a != nil {
			return a.ID, rulePaymentMethod
		}
	}
	if t, ok := accountTypeForSource(n.SourceType); ok {
		if a := firstOfType(accounts, t); a != nil {
			return a.ID, ruleSourceType
		}
	}
	if c, err := r.lastUsed.ByMerchant(ctx, n); err != nil {
		r.degrade("merchant habit lookup", err)
	} else if c != nil && containsAccount(accounts, c.AccountID) {
		return c.AccountID, ruleMerchant
	}
	for i := range accounts {
		if accounts[i].IsDefault {
			return accounts[i].ID, ruleDefault
		}
	}
	return accounts[0].ID, ruleFirst
}

func (r *Recommender) recommendCategory(ctx context.Context, userID string, n domain.ParsedNotification) (string, string) {
	catType := domain.CategoryTypeForDirection(n.Direction)
	leaves, err := r.uow.Categories().LeafCategories(ctx, userID, catType)
	if err != nil {
		r.degrade("list categories", err)
		return "", ""
	}
	if len(leaves) == 0 {
		return "", ""
	}

	if c := matchByName(leaves, n.NormalizedMerchant, n.RawText); c != nil {
		return c.ID, ruleKeyword
	}

	for _, lookup := range []func(context.Context, domain.ParsedNotification) (*Choice, error){
		r.lastUsed.Refined, r.lastUsed.Coarse,
	} {
		c, err := lookup(ctx, n)
		if err != nil {
			r.degrade("last-used lookup", err)
			continue
		}
		if c != nil && containsCategory(leaves, c.CategoryID) {
			return c.CategoryID, ruleLastUsed
		}
	}

	if c := matchByAmountBand(leaves, n.AmountCents); c != nil {
		return c.ID, ruleAmountBand
	}

	frequent, err := r.uow.Categories().FrequentCategories(ctx, userID, catType, 1)
	if err != nil {
		r.degrade("frequent categories", err)
	} else if len(frequent) > 0 && containsCategory(leaves, frequent[0].ID) {
		return frequent[0].ID, ruleFrequent
	}
	return leaves[0].ID, ruleFirst
}

func (r *Recommender) recommendLedger(ctx context.Context, userID string, n domain.ParsedNotification) (string, string) {
	for _, lookup := range []func(context.Context, domain.ParsedNotification) (*Choice, error){
		r.lastUsed.ByMerchant, r.lastUsed.Refined, r.lastUsed.Coarse,
	} {
		c, err := lookup(ctx, n)
		if err != nil {
			r.degrade("ledger habit lookup", err)
			continue
		}
		if c == nil || c.LedgerID == "" {
			continue
		}
		if ledger, err := r.uow.Ledgers().Get(ctx, c.LedgerID); err == nil && ledger != nil && ledger.IsActive {
			return ledger.ID, ruleLastUsed
		}
	}
	ledger, err := r.uow.Ledgers().GetDefault(ctx, userID)
	if err != nil {
		r.degrade("default ledger", err)
		return "", ""
	}
	if ledger == nil {
		return "", ""
	}
	return ledger.ID, ruleDefault
}

// degrade logs a broken lookup; the chain then falls through to the next
// rule rather than propagating the error.
func (r *Recommender) degrade(op string, err error) {
	r.logger.Warn("⚠️ recommendation lookup degraded", "op", op, "error", err)
}

func accountTypeForMethod(method string) (domain.AccountType, bool) {
	switch {
	case method == "":
		return "", false
	case strings.Contains(method, "银行卡"), strings.Contains(method, "信用卡"):
		return domain.AccountTypeBank, true
	case strings.Contains(method, "余额"):
		return domain.AccountTypeAlipay, true
	case strings.Contains(method, "零钱"):
		return domain.AccountTypeWeChat, true
	default:
		return "", false
	}
}

func accountTypeForSource(s domain.SourceType) (domain.AccountType, bool) {
	switch s {
	case domain.SourceAlipay:
		return domain.AccountTypeAlipay, true
	case domain.SourceWeChat:
		return domain.AccountTypeWeChat, true
	case domain.SourceUnionPay:
		return domain.AccountTypeBank, true
	default:
		return "", false
	}
}

func firstOfType(accounts []domain.Account, t domain.AccountType) *domain.Account {
	for i := range accounts {
		if accounts[i].Type == t {
			return &accounts[i]
		}
	}
	return nil
}

func containsAccount(accounts []domain.Account, id string) bool {
	for i := range accounts {
		if accounts[i].ID == id {
			return true
		}
	}
	return false
}

func containsCategory(categories []domain.Category, id string) bool {
	for i := range categories {
		if categories[i].ID == id {
			return true
		}
	}
	return false
}

// matchByName matches a category whose name occurs in the merchant or the
// notification text. Single-rune names are skipped; they match everything.
func matchByName(categories []domain.Category, merchant, text string) *domain.Category {
	for i := range categories {
		name := categories[i].Name
		if len([]rune(name)) < 2 {
			continue
		}
		if (merchant != "" && strings.Contains(merchant, name)) || strings.Contains(text, name) {
			return &categories[i]
		}
	}
	return nil
}

func matchByAmountBand(categories []domain.Category, amountCents int64) *domain.Category {
	for _, band := range amountBands {
		if band.maxCents != 0 && amountCents >= band.maxCents {
			continue
		}
		for _, keyword := range band.keywords {
			for i := range categories {
				if strings.Contains(categories[i].Name, keyword) {
					return &categories[i]
				}
			}
		}
		break
	}
	return nil
}
