package autoledger

import (
	"context"

	"github.com/ccxiaoji/autoledger/pkg/config"
	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/recommend"
)

// autoDecision explains whether a notification books automatically.
type autoDecision struct {
	auto   bool
	reason string
}

// decide applies the booking gates against one settings snapshot. Automatic
// booking requires the feature effectively on, a sufficient amount, a parse
// confidence at or above the threshold, a direction that books unambiguously,
// and a fully resolved recommendation.
func decide(settings config.Settings, n domain.ParsedNotification, rec domain.Recommendation) autoDecision {
	switch {
	case !settings.EffectiveEnabled():
		return autoDecision{reason: "auto booking disabled"}
	case n.AmountCents < settings.MinAmountCents:
		return autoDecision{reason: "amount below minimum"}
	case n.Direction == domain.DirectionRefund,
		n.Direction == domain.DirectionTransfer,
		n.Direction == domain.DirectionUnknown:
		return autoDecision{reason: "direction requires confirmation"}
	case n.Confidence < settings.ConfidenceThreshold:
		return autoDecision{reason: "confidence below threshold"}
	case rec.AccountID == "" || rec.CategoryID == "" || rec.LedgerID == "":
		return autoDecision{reason: "recommendation incomplete"}
	}
	return autoDecision{auto: true, reason: "all gates passed"}
}

// selection holds the booking slots a transaction is created with.
type selection struct {
	AccountID  string
	CategoryID string
	LedgerID   string
}

// resolveSelection picks the slots for an automatic booking: the remembered
// refined-context choice first, then the coarse one, then the recommendation.
func (s *Service) resolveSelection(ctx context.Context, n domain.ParsedNotification, rec domain.Recommendation) selection {
	sel := selection{AccountID: rec.AccountID, CategoryID: rec.CategoryID, LedgerID: rec.LedgerID}
	for _, lookup := range []func(context.Context, domain.ParsedNotification) (*recommend.Choice, error){
		s.lastUsed.Refined, s.lastUsed.Coarse,
	} {
		choice, err := lookup(ctx, n)
		if err != nil {
			s.logger.Warn("⚠️ remembered choice lookup degraded", "error", err)
			continue
		}
		if choice == nil {
			continue
		}
		sel.AccountID = fallback(choice.AccountID, rec.AccountID)
		sel.CategoryID = fallback(choice.CategoryID, rec.CategoryID)
		sel.LedgerID = fallback(choice.LedgerID, rec.LedgerID)
		break
	}
	return sel
}

// candidates builds the proposals shown in a confirmation request: the
// recommendation first, then the same draft with the default account swapped
// in, then with the default category swapped in, skipping swaps that change
// nothing.
func (s *Service) candidates(ctx context.Context, n domain.ParsedNotification, rec domain.Recommendation) []domain.Transaction {
	primary := s.draft(n, rec.AccountID, rec.CategoryID, rec.LedgerID)
	out := []domain.Transaction{primary}

	if accountID, err := s.defaultAccountID(ctx); err != nil {
		s.logger.Warn("⚠️ default account lookup degraded", "error", err)
	} else if accountID != "" && accountID != primary.AccountID {
		alt := primary
		alt.AccountID = accountID
		out = append(out, alt)
	}
	if categoryID, err := s.defaultCategoryID(ctx, n.Direction); err != nil {
		s.logger.Warn("⚠️ default category lookup degraded", "error", err)
	} else if categoryID != "" && categoryID != primary.CategoryID {
		alt := primary
		alt.CategoryID = categoryID
		out = append(out, alt)
	}
	return out
}

// defaultAccountID returns the user's default account, or the first one when
// none is marked default.
func (s *Service) defaultAccountID(ctx context.Context) (string, error) {
	account, err := s.uow.Accounts().GetDefault(ctx, s.cfg.UserID)
	if err != nil {
		return "", err
	}
	if account != nil {
		return account.ID, nil
	}
	accounts, err := s.uow.Accounts().ListByUser(ctx, s.cfg.UserID)
	if err != nil || len(accounts) == 0 {
		return "", err
	}
	return accounts[0].ID, nil
}

// defaultCategoryID returns the first leaf category matching the direction.
func (s *Service) defaultCategoryID(ctx context.Context, d domain.Direction) (string, error) {
	leaves, err := s.uow.Categories().LeafCategories(ctx, s.cfg.UserID, domain.CategoryTypeForDirection(d))
	if err != nil || len(leaves) == 0 {
		return "", err
	}
	return leaves[0].ID, nil
}

// draft builds an unsaved transaction proposal from parsed facts.
func (s *Service) draft(n domain.ParsedNotification, accountID, categoryID, ledgerID string) domain.Transaction {
	date := n.PostedTime
	return domain.Transaction{
		AccountID:       accountID,
		AmountCents:     n.AmountCents,
		CategoryID:      categoryID,
		LedgerID:        ledgerID,
		Note:            note(n),
		TransactionDate: &date,
	}
}

func note(n domain.ParsedNotification) string {
	if n.NormalizedMerchant != "" {
		return n.NormalizedMerchant
	}
	return n.OriginalTitle
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
