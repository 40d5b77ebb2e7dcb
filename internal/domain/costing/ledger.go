package costing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mfgcost/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// LedgerLine is one signed line of a journal entry. Positive amounts are
// debits, negative amounts are credits.
type LedgerLine struct {
	AccountID      uuid.UUID       `json:"account_id"`
	TrackingItemID *uuid.UUID      `json:"tracking_item_id,omitempty"`
	Label          string          `json:"label"`
	Amount         decimal.Decimal `json:"amount"`
}

// LedgerEntry is a balanced journal entry produced by the WIP posting
// engine. All lines of one entry belong to the same journal and must sum
// to zero within the rounding tolerance.
type LedgerEntry struct {
	ID        uuid.UUID    `json:"id"`
	JournalID uuid.UUID    `json:"journal_id"`
	OrderID   uuid.UUID    `json:"order_id"`
	Reference string       `json:"reference"`
	Lines     []LedgerLine `json:"lines"`
	PostedAt  time.Time    `json:"posted_at"`
}

// NewLedgerEntry creates an unposted journal entry shell
func NewLedgerEntry(journalID, orderID uuid.UUID, reference string) *LedgerEntry {
	return &LedgerEntry{
		ID:        uuid.New(),
		JournalID: journalID,
		OrderID:   orderID,
		Reference: reference,
		Lines:     make([]LedgerLine, 0),
	}
}

// AddLine appends a signed line to the entry. Zero-amount lines are dropped.
func (e *LedgerEntry) AddLine(accountID uuid.UUID, trackingItemID *uuid.UUID, label string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	e.Lines = append(e.Lines, LedgerLine{
		AccountID:      accountID,
		TrackingItemID: trackingItemID,
		Label:          label,
		Amount:         amount,
	})
}

// Residual returns the signed sum of all lines
func (e *LedgerEntry) Residual() decimal.Decimal {
	total := decimal.Zero
	for _, line := range e.Lines {
		total = total.Add(line.Amount)
	}
	return total
}

// Validate checks the entry balances within the rounding tolerance
func (e *LedgerEntry) Validate() error {
	if e.Residual().Abs().GreaterThan(RoundingTolerance) {
		return shared.ErrImbalancedEntry
	}
	return nil
}

// IsEmpty returns true when the entry carries no lines
func (e *LedgerEntry) IsEmpty() bool {
	return len(e.Lines) == 0
}

// ValuationKey identifies the configuration record that supplies posting
// accounts for a tracking item: the consumption destination location for
// materials, the work center for operations.
type ValuationKey struct {
	LocationID   *uuid.UUID
	WorkCenterID *uuid.UUID
}

// ValuationAccounts holds the account and journal references resolved for
// one valuation key. Zero UUIDs mean the account is not configured.
type ValuationAccounts struct {
	StockInput    uuid.UUID `json:"stock_input"`
	StockOutput   uuid.UUID `json:"stock_output"`
	StockVariance uuid.UUID `json:"stock_variance"`
	StockWip      uuid.UUID `json:"stock_wip"`
	StockJournal  uuid.UUID `json:"stock_journal"`
}

// Complete reports whether every account needed for WIP posting is configured
func (a ValuationAccounts) Complete() bool {
	return a.StockInput != uuid.Nil &&
		a.StockOutput != uuid.Nil &&
		a.StockVariance != uuid.Nil &&
		a.StockWip != uuid.Nil &&
		a.StockJournal != uuid.Nil
}

// LedgerService is the boundary to the general ledger. The posting engine
// hands over fully assembled, balanced entries; the ledger assigns them to
// the books atomically.
type LedgerService interface {
	// PostEntry persists and posts a balanced journal entry
	PostEntry(ctx context.Context, entry *LedgerEntry) error
	// UpdateEntryLines replaces the lines of a posted entry with a
	// corrected, still balanced set. Used for late cost corrections.
	UpdateEntryLines(ctx context.Context, entryID uuid.UUID, lines []LedgerLine) error
	// FindEntriesByOrder returns the journal entries posted for an order
	FindEntriesByOrder(ctx context.Context, orderID uuid.UUID) ([]*LedgerEntry, error)
}

// MasterDataService supplies product costs and posting account
// configuration from the master data owned by other modules.
type MasterDataService interface {
	// UnitCost returns the standard unit cost of a product. A nil
	// workCenterID looks up the product itself; otherwise the work
	// center's hourly rate serves as fallback when the product has no
	// cost of its own.
	UnitCost(ctx context.Context, productID uuid.UUID, workCenterID *uuid.UUID) (decimal.Decimal, error)
	// AccountsForValuation resolves the posting accounts for a valuation
	// key. Returns ErrConfigurationMissing when no configuration exists.
	AccountsForValuation(ctx context.Context, key ValuationKey) (ValuationAccounts, error)
}
