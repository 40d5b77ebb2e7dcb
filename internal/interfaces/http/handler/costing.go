package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	costingapp "github.com/mfgcost/backend/internal/application/costing"
	"github.com/mfgcost/backend/internal/domain/costing"
)

// CostTrackingHandler handles cost tracking API endpoints
type CostTrackingHandler struct {
	BaseHandler
	tracking *costingapp.TrackingService
	ledger   costing.LedgerService
}

// NewCostTrackingHandler creates a new CostTrackingHandler
func NewCostTrackingHandler(tracking *costingapp.TrackingService, ledger costing.LedgerService) *CostTrackingHandler {
	return &CostTrackingHandler{tracking: tracking, ledger: ledger}
}

// TrackingItemResponse represents a tracking item in API responses
type TrackingItemResponse struct {
	ID                string  `json:"id"`
	OrderID           string  `json:"order_id"`
	Kind              string  `json:"kind"`
	ProductID         string  `json:"product_id"`
	StockMoveID       *string `json:"stock_move_id,omitempty"`
	WorkOrderID       *string `json:"work_order_id,omitempty"`
	WorkCenterID      *string `json:"work_center_id,omitempty"`
	ParentID          *string `json:"parent_id,omitempty"`
	AnalyticAccountID string  `json:"analytic_account_id"`
	PlannedQty        float64 `json:"planned_qty"`
	PlannedAmount     float64 `json:"planned_amount"`
	ActualAmount      float64 `json:"actual_amount"`
	AccountedAmount   float64 `json:"accounted_amount"`
	PendingAmount     float64 `json:"pending_amount"`
	VarianceAmount    float64 `json:"variance_amount"`
	RemainingAmount   float64 `json:"remaining_amount"`
	State             string  `json:"state"`
}

// CostLineResponse represents a cost line in API responses
type CostLineResponse struct {
	ID                string    `json:"id"`
	OrderID           string    `json:"order_id"`
	TrackingItemID    string    `json:"tracking_item_id"`
	AnalyticAccountID string    `json:"analytic_account_id"`
	ProductID         string    `json:"product_id"`
	StockMoveID       *string   `json:"stock_move_id,omitempty"`
	WorkOrderID       *string   `json:"work_order_id,omitempty"`
	Description       string    `json:"description"`
	Quantity          float64   `json:"quantity"`
	Amount            float64   `json:"amount"`
	CreatedAt         time.Time `json:"created_at"`
}

// LedgerLineResponse represents a journal line in API responses
type LedgerLineResponse struct {
	AccountID      string  `json:"account_id"`
	TrackingItemID *string `json:"tracking_item_id,omitempty"`
	Label          string  `json:"label"`
	Amount         float64 `json:"amount"`
}

// LedgerEntryResponse represents a journal entry in API responses
type LedgerEntryResponse struct {
	ID        string               `json:"id"`
	JournalID string               `json:"journal_id"`
	OrderID   string               `json:"order_id"`
	Reference string               `json:"reference"`
	Lines     []LedgerLineResponse `json:"lines"`
	PostedAt  time.Time            `json:"posted_at"`
}

// ListTrackingItems returns the tracking items of an order with refreshed amounts
func (h *CostTrackingHandler) ListTrackingItems(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	items, err := h.tracking.OrderTrackingItems(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toTrackingItemResponses(items))
}

// ListCostLines returns the analytic cost lines charged against an order
func (h *CostTrackingHandler) ListCostLines(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	lines, err := h.tracking.OrderCostLines(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]CostLineResponse, len(lines))
	for i, line := range lines {
		responses[i] = CostLineResponse{
			ID:                line.ID.String(),
			OrderID:           line.OrderID.String(),
			TrackingItemID:    line.TrackingItemID.String(),
			AnalyticAccountID: line.AnalyticAccountID.String(),
			ProductID:         line.ProductID.String(),
			StockMoveID:       uuidToString(line.StockMoveID),
			WorkOrderID:       uuidToString(line.WorkOrderID),
			Description:       line.Description,
			Quantity:          line.Quantity.InexactFloat64(),
			Amount:            line.Amount.InexactFloat64(),
			CreatedAt:         line.CreatedAt,
		}
	}
	h.Success(c, responses)
}

// ListLedgerEntries returns the journal entries posted for an order
func (h *CostTrackingHandler) ListLedgerEntries(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	entries, err := h.ledger.FindEntriesByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = toLedgerEntryResponse(entry)
	}
	h.Success(c, responses)
}

// PostInterim posts pending tracked cost of one order into WIP
func (h *CostTrackingHandler) PostInterim(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	entry, err := h.tracking.PostInterim(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if entry == nil {
		h.Success(c, nil)
		return
	}
	resp := toLedgerEntryResponse(entry)
	h.Success(c, resp)
}

// CorrectFinal rewrites a done order's clear entry from its current cost lines
func (h *CostTrackingHandler) CorrectFinal(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	if err := h.tracking.CorrectFinalEntry(c.Request.Context(), orderID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, nil)
}

// Sweep posts pending tracked cost across all open orders
func (h *CostTrackingHandler) Sweep(c *gin.Context) {
	result, err := h.tracking.SweepPending(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListPendingVariance returns open items with pending or variance amounts
func (h *CostTrackingHandler) ListPendingVariance(c *gin.Context) {
	req, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	items, total, err := h.tracking.PendingVarianceItems(c.Request.Context(), toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, toTrackingItemResponses(items), total, req.Page, req.PageSize)
}

func toTrackingItemResponses(items []*costing.TrackingItem) []TrackingItemResponse {
	responses := make([]TrackingItemResponse, len(items))
	for i, item := range items {
		responses[i] = TrackingItemResponse{
			ID:                item.ID.String(),
			OrderID:           item.OrderID.String(),
			Kind:              item.Kind.String(),
			ProductID:         item.ProductID.String(),
			StockMoveID:       uuidToString(item.StockMoveID),
			WorkOrderID:       uuidToString(item.WorkOrderID),
			WorkCenterID:      uuidToString(item.WorkCenterID),
			ParentID:          uuidToString(item.ParentID),
			AnalyticAccountID: item.AnalyticAccountID.String(),
			PlannedQty:        item.PlannedQty.InexactFloat64(),
			PlannedAmount:     item.PlannedAmount.InexactFloat64(),
			ActualAmount:      item.ActualAmount.InexactFloat64(),
			AccountedAmount:   item.AccountedAmount.InexactFloat64(),
			PendingAmount:     item.PendingAmount.InexactFloat64(),
			VarianceAmount:    item.VarianceAmount.InexactFloat64(),
			RemainingAmount:   item.RemainingAmount.InexactFloat64(),
			State:             item.State.String(),
		}
	}
	return responses
}

func toLedgerEntryResponse(entry *costing.LedgerEntry) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:        entry.ID.String(),
		JournalID: entry.JournalID.String(),
		OrderID:   entry.OrderID.String(),
		Reference: entry.Reference,
		Lines:     make([]LedgerLineResponse, len(entry.Lines)),
		PostedAt:  entry.PostedAt,
	}
	for i, line := range entry.Lines {
		resp.Lines[i] = LedgerLineResponse{
			AccountID:      line.AccountID.String(),
			TrackingItemID: uuidToString(line.TrackingItemID),
			Label:          line.Label,
			Amount:         line.Amount.InexactFloat64(),
		}
	}
	return resp
}
