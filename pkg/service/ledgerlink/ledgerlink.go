// Package ledgerlink manages the graph of sync relationships between
// ledgers: creation with structural validation, mode updates, queries by
// direction and the network summary.
package ledgerlink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ccxiaoji/autoledger/pkg/domain"
	"github.com/ccxiaoji/autoledger/pkg/dto"
	"github.com/ccxiaoji/autoledger/pkg/repository"
)

// Service is the link registry.
type Service struct {
	uow      repository.UnitOfWork
	validate *validator.Validate
	logger   *slog.Logger
}

func New(uow repository.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{
		uow:      uow,
		validate: validator.New(),
		logger:   logger.With("component", "ledgerlink"),
	}
}

// CreateLink validates and stores a new active link. Both ledgers must
// exist, be active and share an owner; the pair must not already be linked;
// and the new edge must not close a cycle anywhere in the active graph.
func (s *Service) CreateLink(ctx context.Context, create dto.LedgerLinkCreate) (*domain.LedgerLink, error) {
	if err := s.validate.Struct(create); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var link domain.LedgerLink
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		parent, err := s.activeLedger(ctx, uow, create.ParentLedgerID)
		if err != nil {
			return fmt.Errorf("parent ledger: %w", err)
		}
		child, err := s.activeLedger(ctx, uow, create.ChildLedgerID)
		if err != nil {
			return fmt.Errorf("child ledger: %w", err)
		}
		if parent.UserID != child.UserID {
			return fmt.Errorf("%w: ledgers belong to different owners", domain.ErrValidation)
		}

		existing, err := uow.LedgerLinks().LinkBetween(ctx, create.ParentLedgerID, create.ChildLedgerID)
		if err != nil {
			return fmt.Errorf("check existing link: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: ledgers already linked", domain.ErrConflict)
		}

		cyclic, err := s.wouldCycle(ctx, uow, create.ParentLedgerID, create.ChildLedgerID)
		if err != nil {
			return err
		}
		if cyclic {
			return fmt.Errorf("%w: link would close a cycle", domain.ErrConflict)
		}

		now := time.Now()
		link = domain.LedgerLink{
			ID:              uuid.NewString(),
			ParentLedgerID:  create.ParentLedgerID,
			ChildLedgerID:   create.ChildLedgerID,
			SyncMode:        domain.SyncMode(create.SyncMode),
			AutoSyncEnabled: create.AutoSyncEnabled,
			IsActive:        true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return uow.LedgerLinks().Create(ctx, link)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("🔗 ledger link created",
		"link_id", link.ID, "parent", link.ParentLedgerID, "child", link.ChildLedgerID, "mode", link.SyncMode)
	return &link, nil
}

// GetLink returns one link by id.
func (s *Service) GetLink(ctx context.Context, id string) (*domain.LedgerLink, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: blank link id", domain.ErrValidation)
	}
	return s.uow.LedgerLinks().Get(ctx, id)
}

// LinksForLedger returns every link the ledger participates in.
func (s *Service) LinksForLedger(ctx context.Context, ledgerID string) ([]domain.LedgerLink, error) {
	if ledgerID == "" {
		return nil, fmt.Errorf("%w: blank ledger id", domain.ErrValidation)
	}
	return s.uow.LedgerLinks().LinksForLedger(ctx, ledgerID)
}

// ActiveLinks returns all active links.
func (s *Service) ActiveLinks(ctx context.Context) ([]domain.LedgerLink, error) {
	return s.uow.LedgerLinks().ActiveLinks(ctx)
}

// AutoSyncLinks returns the active links with auto sync enabled.
func (s *Service) AutoSyncLinks(ctx context.Context) ([]domain.LedgerLink, error) {
	return s.uow.LedgerLinks().AutoSyncLinks(ctx)
}

// OutgoingLinks returns the active links across which a transaction
// recorded in ledgerID replicates away, per each link's mode.
func (s *Service) OutgoingLinks(ctx context.Context, ledgerID string) ([]domain.LedgerLink, error) {
	links, err := s.uow.LedgerLinks().LinksForLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	var out []domain.LedgerLink
	for _, l := range links {
		if l.IsActive && l.SyncsFrom(ledgerID) {
			out = append(out, l)
		}
	}
	return out, nil
}

// IncomingLinks returns the active links that replicate transactions into
// ledgerID, per each link's mode.
func (s *Service) IncomingLinks(ctx context.Context, ledgerID string) ([]domain.LedgerLink, error) {
	links, err := s.uow.LedgerLinks().LinksForLedger(ctx, ledgerID)
	if err != nil {
		return nil, err
	}
	var in []domain.LedgerLink
	for _, l := range links {
		if l.IsActive && l.SyncsFrom(l.OtherLedgerID(ledgerID)) {
			in = append(in, l)
		}
	}
	return in, nil
}

// LinkBetween returns the active link of the unordered pair, nil when none.
func (s *Service) LinkBetween(ctx context.Context, ledgerA, ledgerB string) (*domain.LedgerLink, error) {
	return s.uow.LedgerLinks().LinkBetween(ctx, ledgerA, ledgerB)
}

// HasActiveLink reports whether the pair is linked.
func (s *Service) HasActiveLink(ctx context.Context, ledgerA, ledgerB string) (bool, error) {
	link, err := s.uow.LedgerLinks().LinkBetween(ctx, ledgerA, ledgerB)
	return link != nil, err
}

// UpdateSyncMode changes the sync direction of a link.
func (s *Service) UpdateSyncMode(ctx context.Context, id string, mode domain.SyncMode) error {
	switch mode {
	case domain.SyncBidirectional, domain.SyncParentToChild, domain.SyncChildToParent:
	default:
		return fmt.Errorf("%w: invalid sync mode %q", domain.ErrValidation, mode)
	}
	if err := s.uow.LedgerLinks().UpdateSyncMode(ctx, id, mode); err != nil {
		return err
	}
	s.logger.Info("🔧 link sync mode updated", "link_id", id, "mode", mode)
	return nil
}

// SetAutoSync toggles automatic replication on a link.
func (s *Service) SetAutoSync(ctx context.Context, id string, enabled bool) error {
	if err := s.uow.LedgerLinks().SetAutoSyncEnabled(ctx, id, enabled); err != nil {
		return err
	}
	s.logger.Info("🔧 link auto sync toggled", "link_id", id, "enabled", enabled)
	return nil
}

// DeleteLink removes a link. Synced rows created across it stay; the sync
// engine cleans them per transaction.
func (s *Service) DeleteLink(ctx context.Context, id string) error {
	if err := s.uow.LedgerLinks().Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("🗑️ ledger link deleted", "link_id", id)
	return nil
}

// DeleteAllForLedger removes every link of a ledger, used when the ledger
// itself is deleted.
func (s *Service) DeleteAllForLedger(ctx context.Context, ledgerID string) error {
	if ledgerID == "" {
		return fmt.Errorf("%w: blank ledger id", domain.ErrValidation)
	}
	return s.uow.LedgerLinks().DeleteAllForLedger(ctx, ledgerID)
}

// NetworkStats summarizes the link graph.
func (s *Service) NetworkStats(ctx context.Context) (domain.LedgerNetworkStats, error) {
	links, err := s.uow.LedgerLinks().ActiveLinks(ctx)
	if err != nil {
		return domain.LedgerNetworkStats{}, err
	}
	stats := domain.LedgerNetworkStats{ActiveLinks: len(links)}
	ledgers := map[string]struct{}{}
	for _, l := range links {
		if l.AutoSyncEnabled {
			stats.AutoSyncLinks++
		}
		ledgers[l.ParentLedgerID] = struct{}{}
		ledgers[l.ChildLedgerID] = struct{}{}
	}
	stats.ConnectedLedgers = len(ledgers)
	stats.TotalLinks = stats.ActiveLinks
	return stats, nil
}

func (s *Service) activeLedger(ctx context.Context, uow repository.UnitOfWork, id string) (*domain.Ledger, error) {
	ledger, err := uow.Ledgers().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ledger.IsActive {
		return nil, fmt.Errorf("%w: ledger %s is inactive", domain.ErrValidation, id)
	}
	return ledger, nil
}

// wouldCycle reports whether parent and child are already connected through
// active links. Reachability is checked on the undirected graph: any second
// path between two ledgers makes replication ambiguous, whatever the modes.
func (s *Service) wouldCycle(ctx context.Context, uow repository.UnitOfWork, parentID, childID string) (bool, error) {
	links, err := uow.LedgerLinks().ActiveLinks(ctx)
	if err != nil {
		return false, fmt.Errorf("load active links: %w", err)
	}
	adjacent := map[string][]string{}
	for _, l := range links {
		adjacent[l.ParentLedgerID] = append(adjacent[l.ParentLedgerID], l.ChildLedgerID)
		adjacent[l.ChildLedgerID] = append(adjacent[l.ChildLedgerID], l.ParentLedgerID)
	}

	visited := map[string]bool{childID: true}
	queue := []string{childID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == parentID {
			return true, nil
		}
		for _, next := range adjacent[cur] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false, nil
}
