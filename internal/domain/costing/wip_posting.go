package costing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FinishedGoodValue is the at-standard-cost value of one finished-good
// move, used to clear the output side of the WIP account at completion.
type FinishedGoodValue struct {
	MoveID        uuid.UUID
	ProductID     uuid.UUID
	LocationID    *uuid.UUID
	StandardValue decimal.Decimal
}

// WIPPostingEngine turns tracking item amounts into balanced journal
// entries. Interim postings move pending cost into the WIP account;
// the final clear empties WIP into the output and variance accounts when
// the order completes.
//
// Items whose posting accounts are not configured are skipped with a
// warning rather than failing the whole order; an entry whose lines do
// not sum to zero is rejected before anything reaches the ledger.
type WIPPostingEngine struct {
	ledger     LedgerService
	masterData MasterDataService
	logger     *zap.Logger
}

// NewWIPPostingEngine creates a new WIPPostingEngine
func NewWIPPostingEngine(ledger LedgerService, masterData MasterDataService, logger *zap.Logger) *WIPPostingEngine {
	return &WIPPostingEngine{
		ledger:     ledger,
		masterData: masterData,
		logger:     logger,
	}
}

// PostPending posts the pending amount of every open item into WIP:
// a debit to the WIP account and a credit to the input clearing account,
// per item. Each successfully posted item has its accounted amount
// advanced to its actual amount, so a second call finds nothing pending.
// Returns nil without error when there is nothing to post.
func (e *WIPPostingEngine) PostPending(ctx context.Context, ref OrderRef, items []*TrackingItem) (*LedgerEntry, error) {
	entry := NewLedgerEntry(uuid.Nil, ref.OrderID, fmt.Sprintf("%s WIP", ref.OrderNumber))
	posted := make([]*TrackingItem, 0, len(items))
	rollups := make([]*TrackingItem, 0)
	parents := parentsWithChildren(items)

	for _, item := range items {
		if !item.State.IsOpen() || !item.HasPending() {
			continue
		}
		if parents[item.ID] {
			// roll-up parent, its cost reaches the ledger through the
			// children's lines
			rollups = append(rollups, item)
			continue
		}
		accounts, ok := e.resolveAccounts(ctx, ref, item)
		if !ok {
			continue
		}
		if entry.JournalID == uuid.Nil {
			entry.JournalID = accounts.StockJournal
		}
		pending := item.PendingAmount
		label := fmt.Sprintf("%s WIP %s", ref.OrderNumber, item.SourceKey())
		entry.AddLine(accounts.StockWip, &item.ID, label, pending)
		entry.AddLine(accounts.StockInput, &item.ID, label, pending.Neg())
		posted = append(posted, item)
	}

	if entry.IsEmpty() {
		return nil, nil
	}
	if err := entry.Validate(); err != nil {
		e.logger.Error("WIP entry does not balance",
			zap.String("order_id", ref.OrderID.String()),
			zap.String("residual", entry.Residual().String()))
		return nil, err
	}
	if err := e.ledger.PostEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("posting WIP entry for order %s: %w", ref.OrderNumber, err)
	}

	for _, item := range posted {
		if err := item.AdvanceAccounted(item.ActualAmount); err != nil {
			return nil, err
		}
		item.AddDomainEvent(NewWipEntryPostedEvent(ref.OrderID, entry, false))
	}
	for _, item := range rollups {
		if err := item.AdvanceAccounted(item.ActualAmount); err != nil {
			return nil, err
		}
	}

	e.logger.Info("posted WIP entry",
		zap.String("order_id", ref.OrderID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.Int("items", len(posted)))

	return entry, nil
}

// PostFinalClear empties the WIP account when the order completes. Per
// item: credit WIP by the full actual amount, debit the variance account
// by the difference between actual and planned, and debit the output
// clearing account with the rest. An unused planned item yields only the
// variance and clearing legs; an unplanned item clears entirely to
// variance. Finished-good moves get their own pair reversing the
// at-standard value out of the output account.
//
// Callers must post any remaining pending amounts first so that WIP holds
// the full actual cost. Items included in the entry are closed, which
// makes a repeated call a no-op.
func (e *WIPPostingEngine) PostFinalClear(ctx context.Context, ref OrderRef, items []*TrackingItem, finished []FinishedGoodValue) (*LedgerEntry, error) {
	entry := NewLedgerEntry(uuid.Nil, ref.OrderID, fmt.Sprintf("%s WIP clear", ref.OrderNumber))
	cleared := make([]*TrackingItem, 0, len(items))
	parents := parentsWithChildren(items)

	for _, item := range items {
		if !item.State.IsOpen() {
			continue
		}
		if parents[item.ID] {
			if err := item.Close(); err != nil {
				return nil, err
			}
			continue
		}
		actual := item.ActualAmount
		variance := actual.Sub(item.PlannedAmount)
		if actual.IsZero() && variance.IsZero() {
			// never planned, never used
			if err := item.Close(); err != nil {
				return nil, err
			}
			continue
		}
		accounts, ok := e.resolveAccounts(ctx, ref, item)
		if !ok {
			continue
		}
		if entry.JournalID == uuid.Nil {
			entry.JournalID = accounts.StockJournal
		}
		label := fmt.Sprintf("%s close %s", ref.OrderNumber, item.SourceKey())
		entry.AddLine(accounts.StockWip, &item.ID, label, actual.Neg())
		entry.AddLine(accounts.StockVariance, &item.ID, label, variance)
		entry.AddLine(accounts.StockOutput, &item.ID, label, actual.Sub(variance))
		cleared = append(cleared, item)
	}

	for _, fg := range finished {
		if fg.StandardValue.IsZero() {
			continue
		}
		accounts, err := e.masterData.AccountsForValuation(ctx, ValuationKey{LocationID: fg.LocationID})
		if err != nil || !accounts.Complete() {
			e.logger.Warn("skipping finished move with missing account configuration",
				zap.String("order_id", ref.OrderID.String()),
				zap.String("move_id", fg.MoveID.String()))
			continue
		}
		if entry.JournalID == uuid.Nil {
			entry.JournalID = accounts.StockJournal
		}
		label := fmt.Sprintf("%s finished goods", ref.OrderNumber)
		entry.AddLine(accounts.StockOutput, nil, label, fg.StandardValue.Neg())
		entry.AddLine(accounts.StockWip, nil, label, fg.StandardValue)
	}

	if entry.IsEmpty() {
		for _, item := range cleared {
			if err := item.Close(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	if err := entry.Validate(); err != nil {
		e.logger.Error("WIP clear entry does not balance",
			zap.String("order_id", ref.OrderID.String()),
			zap.String("residual", entry.Residual().String()))
		return nil, err
	}
	if err := e.ledger.PostEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("posting WIP clear entry for order %s: %w", ref.OrderNumber, err)
	}

	for _, item := range cleared {
		if err := item.Close(); err != nil {
			return nil, err
		}
		item.AddDomainEvent(NewWipEntryPostedEvent(ref.OrderID, entry, true))
	}

	e.logger.Info("posted WIP clear entry",
		zap.String("order_id", ref.OrderID.String()),
		zap.String("entry_id", entry.ID.String()),
		zap.Int("items", len(cleared)))

	return entry, nil
}

// CorrectFinalClear rewrites the clear entry of a completed order after a
// late cost correction. The entry's lines are rebuilt from the items'
// current actual amounts and replace the posted lines in place, so the
// ledger reflects the corrected cost without a compensating entry.
// Returns ErrNotFound when the order has no clear entry yet.
func (e *WIPPostingEngine) CorrectFinalClear(ctx context.Context, ref OrderRef, items []*TrackingItem, finished []FinishedGoodValue) error {
	entries, err := e.ledger.FindEntriesByOrder(ctx, ref.OrderID)
	if err != nil {
		return fmt.Errorf("loading entries for order %s: %w", ref.OrderNumber, err)
	}
	reference := fmt.Sprintf("%s WIP clear", ref.OrderNumber)
	var target *LedgerEntry
	for _, candidate := range entries {
		if candidate.Reference == reference {
			target = candidate
		}
	}
	if target == nil {
		return shared.ErrNotFound
	}

	entry := NewLedgerEntry(target.JournalID, ref.OrderID, reference)
	parents := parentsWithChildren(items)
	for _, item := range items {
		if item.State == ItemStateCancelled || parents[item.ID] {
			continue
		}
		actual := item.ActualAmount
		variance := actual.Sub(item.PlannedAmount)
		if actual.IsZero() && variance.IsZero() {
			continue
		}
		accounts, ok := e.resolveAccounts(ctx, ref, item)
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s close %s", ref.OrderNumber, item.SourceKey())
		entry.AddLine(accounts.StockWip, &item.ID, label, actual.Neg())
		entry.AddLine(accounts.StockVariance, &item.ID, label, variance)
		entry.AddLine(accounts.StockOutput, &item.ID, label, actual.Sub(variance))
	}
	for _, fg := range finished {
		if fg.StandardValue.IsZero() {
			continue
		}
		accounts, err := e.masterData.AccountsForValuation(ctx, ValuationKey{LocationID: fg.LocationID})
		if err != nil || !accounts.Complete() {
			continue
		}
		label := fmt.Sprintf("%s finished goods", ref.OrderNumber)
		entry.AddLine(accounts.StockOutput, nil, label, fg.StandardValue.Neg())
		entry.AddLine(accounts.StockWip, nil, label, fg.StandardValue)
	}

	if err := entry.Validate(); err != nil {
		e.logger.Error("corrected clear entry does not balance",
			zap.String("order_id", ref.OrderID.String()),
			zap.String("residual", entry.Residual().String()))
		return err
	}
	if err := e.ledger.UpdateEntryLines(ctx, target.ID, entry.Lines); err != nil {
		return fmt.Errorf("rewriting clear entry for order %s: %w", ref.OrderNumber, err)
	}

	e.logger.Info("rewrote WIP clear entry",
		zap.String("order_id", ref.OrderID.String()),
		zap.String("entry_id", target.ID.String()),
		zap.Int("lines", len(entry.Lines)))
	return nil
}

// parentsWithChildren returns the IDs of items that other items in the
// batch roll up into. Parents never carry cost lines of their own, so
// posting them would duplicate the children's amounts.
func parentsWithChildren(items []*TrackingItem) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool)
	for _, item := range items {
		if item.ParentID != nil && item.State != ItemStateCancelled {
			set[*item.ParentID] = true
		}
	}
	return set
}

// resolveAccounts looks up the posting accounts for an item, logging and
// skipping when configuration is missing or incomplete
func (e *WIPPostingEngine) resolveAccounts(ctx context.Context, ref OrderRef, item *TrackingItem) (ValuationAccounts, bool) {
	accounts, err := e.masterData.AccountsForValuation(ctx, item.ValuationKey())
	if err != nil {
		if shared.IsDomainError(err, shared.ErrConfigurationMissing.Code) {
			e.logger.Warn("skipping tracking item with missing account configuration",
				zap.String("order_id", ref.OrderID.String()),
				zap.String("tracking_item_id", item.ID.String()),
				zap.String("source", item.SourceKey()))
			return ValuationAccounts{}, false
		}
		e.logger.Error("failed to resolve valuation accounts",
			zap.String("tracking_item_id", item.ID.String()),
			zap.Error(err))
		return ValuationAccounts{}, false
	}
	if !accounts.Complete() {
		e.logger.Warn("skipping tracking item with incomplete account configuration",
			zap.String("order_id", ref.OrderID.String()),
			zap.String("tracking_item_id", item.ID.String()),
			zap.String("source", item.SourceKey()))
		return ValuationAccounts{}, false
	}
	return accounts, true
}
