package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	productionapp "github.com/mfgcost/backend/internal/application/production"
	"github.com/mfgcost/backend/internal/domain/production"
	"github.com/shopspring/decimal"
)

// ProductionOrderHandler handles production order API endpoints
type ProductionOrderHandler struct {
	BaseHandler
	orderService *productionapp.OrderService
}

// NewProductionOrderHandler creates a new ProductionOrderHandler
func NewProductionOrderHandler(orderService *productionapp.OrderService) *ProductionOrderHandler {
	return &ProductionOrderHandler{orderService: orderService}
}

// RawMaterialInput represents a planned raw material in a create request
type RawMaterialInput struct {
	ProductID             string  `json:"product_id" binding:"required,uuid"`
	Description           string  `json:"description" binding:"max=500"`
	PlannedQty            float64 `json:"planned_qty" binding:"min=0"`
	UnitCost              float64 `json:"unit_cost" binding:"min=0"`
	DestinationLocationID string  `json:"destination_location_id" binding:"omitempty,uuid"`
}

// WorkOrderInput represents a planned operation step in a create request
type WorkOrderInput struct {
	Name           string  `json:"name" binding:"required,min=1,max=200"`
	WorkCenterID   string  `json:"work_center_id" binding:"required,uuid"`
	CostProductID  *string `json:"cost_product_id" binding:"omitempty,uuid"`
	HourlyRate     float64 `json:"hourly_rate" binding:"min=0"`
	PlannedMinutes float64 `json:"planned_minutes" binding:"min=0"`
	CostFactor     float64 `json:"cost_factor" binding:"min=0"`
}

// FinishedMoveInput represents a planned finished goods receipt in a create request
type FinishedMoveInput struct {
	ProductID        string  `json:"product_id" binding:"required,uuid"`
	Quantity         float64 `json:"quantity" binding:"required,gt=0"`
	StandardUnitCost float64 `json:"standard_unit_cost" binding:"min=0"`
	LocationID       string  `json:"location_id" binding:"omitempty,uuid"`
}

// CreateProductionOrderRequest represents a request to plan a new production order
type CreateProductionOrderRequest struct {
	OrderNumber       string              `json:"order_number" binding:"required,min=1,max=50"`
	ProductID         string              `json:"product_id" binding:"required,uuid"`
	Quantity          float64             `json:"quantity" binding:"required,gt=0"`
	AnalyticAccountID *string             `json:"analytic_account_id" binding:"omitempty,uuid"`
	RawMaterials      []RawMaterialInput  `json:"raw_materials"`
	WorkOrders        []WorkOrderInput    `json:"work_orders"`
	FinishedMoves     []FinishedMoveInput `json:"finished_moves"`
}

// RecordConsumptionRequest represents a request to book consumed material
type RecordConsumptionRequest struct {
	MoveID   string  `json:"move_id" binding:"required,uuid"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
}

// LogOperationTimeRequest represents a request to log worked minutes
type LogOperationTimeRequest struct {
	WorkOrderID string  `json:"work_order_id" binding:"required,uuid"`
	Minutes     float64 `json:"minutes" binding:"required,gt=0"`
}

// FinishWorkOrderRequest represents a request to finish an operation step
type FinishWorkOrderRequest struct {
	WorkOrderID string `json:"work_order_id" binding:"required,uuid"`
}

// RecordProductionRequest represents a request to book produced quantity
type RecordProductionRequest struct {
	FinishedMoveID string  `json:"finished_move_id" binding:"required,uuid"`
	Quantity       float64 `json:"quantity" binding:"required,gt=0"`
}

// CancelOrderRequest represents a request to cancel a production order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// RawMaterialMoveResponse represents a raw material move in API responses
type RawMaterialMoveResponse struct {
	ID                    string  `json:"id"`
	ProductID             string  `json:"product_id"`
	Description           string  `json:"description"`
	PlannedQty            float64 `json:"planned_qty"`
	ConsumedQty           float64 `json:"consumed_qty"`
	UnitCost              float64 `json:"unit_cost"`
	DestinationLocationID string  `json:"destination_location_id"`
	Status                string  `json:"status"`
	AddedAfterConfirm     bool    `json:"added_after_confirm"`
}

// WorkOrderResponse represents a work order in API responses
type WorkOrderResponse struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	WorkCenterID    string  `json:"work_center_id"`
	CostProductID   *string `json:"cost_product_id,omitempty"`
	HourlyRate      float64 `json:"hourly_rate"`
	CostFactor      float64 `json:"cost_factor"`
	PlannedMinutes  float64 `json:"planned_minutes"`
	DurationMinutes float64 `json:"duration_minutes"`
	Status          string  `json:"status"`
}

// FinishedMoveResponse represents a finished goods receipt in API responses
type FinishedMoveResponse struct {
	ID               string  `json:"id"`
	ProductID        string  `json:"product_id"`
	Quantity         float64 `json:"quantity"`
	ProducedQty      float64 `json:"produced_qty"`
	StandardUnitCost float64 `json:"standard_unit_cost"`
	LocationID       string  `json:"location_id"`
	Status           string  `json:"status"`
}

// ProductionOrderResponse represents a production order in API responses
type ProductionOrderResponse struct {
	ID                string                    `json:"id"`
	OrderNumber       string                    `json:"order_number"`
	ProductID         string                    `json:"product_id"`
	Quantity          float64                   `json:"quantity"`
	AnalyticAccountID *string                   `json:"analytic_account_id,omitempty"`
	Status            string                    `json:"status"`
	RawMoves          []RawMaterialMoveResponse `json:"raw_moves"`
	WorkOrders        []WorkOrderResponse       `json:"work_orders"`
	FinishedMoves     []FinishedMoveResponse    `json:"finished_moves"`
	ConfirmedAt       *time.Time                `json:"confirmed_at,omitempty"`
	StartedAt         *time.Time                `json:"started_at,omitempty"`
	CompletedAt       *time.Time                `json:"completed_at,omitempty"`
	CancelledAt       *time.Time                `json:"cancelled_at,omitempty"`
	CancelReason      string                    `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	UpdatedAt         time.Time                 `json:"updated_at"`
	Version           int                       `json:"version"`
}

// Create plans a new production order
func (h *ProductionOrderHandler) Create(c *gin.Context) {
	var req CreateProductionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	input, err := toCreateOrderInput(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductionOrderResponse(order))
}

// GetByID returns one production order
func (h *ProductionOrderHandler) GetByID(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductionOrderResponse(order))
}

// List returns production orders filtered by status
func (h *ProductionOrderHandler) List(c *gin.Context) {
	req, err := bindListRequest(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	status := production.OrderStatus(c.Query("status"))
	if status == "" {
		status = production.OrderStatusConfirmed
	}

	orders, total, err := h.orderService.ListOrdersByStatus(c.Request.Context(), status, toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ProductionOrderResponse, len(orders))
	for i, order := range orders {
		responses[i] = toProductionOrderResponse(order)
	}
	h.SuccessWithMeta(c, responses, total, req.Page, req.PageSize)
}

// Confirm confirms a draft production order
func (h *ProductionOrderHandler) Confirm(c *gin.Context) {
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.ConfirmOrder(c.Request.Context(), orderID)
	})
}

// Consume books consumed raw material quantity on an order
func (h *ProductionOrderHandler) Consume(c *gin.Context) {
	var req RecordConsumptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	moveID, err := uuid.Parse(req.MoveID)
	if err != nil {
		h.BadRequest(c, "Invalid move ID format")
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.RecordConsumption(c.Request.Context(), orderID, moveID, decimal.NewFromFloat(req.Quantity))
	})
}

// LogTime adds worked minutes to a work order
func (h *ProductionOrderHandler) LogTime(c *gin.Context) {
	var req LogOperationTimeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	workOrderID, err := uuid.Parse(req.WorkOrderID)
	if err != nil {
		h.BadRequest(c, "Invalid work order ID format")
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.LogOperationTime(c.Request.Context(), orderID, workOrderID, decimal.NewFromFloat(req.Minutes))
	})
}

// FinishWorkOrder marks an operation step finished
func (h *ProductionOrderHandler) FinishWorkOrder(c *gin.Context) {
	var req FinishWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	workOrderID, err := uuid.Parse(req.WorkOrderID)
	if err != nil {
		h.BadRequest(c, "Invalid work order ID format")
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.FinishWorkOrder(c.Request.Context(), orderID, workOrderID)
	})
}

// RecordProduction books produced finished goods quantity
func (h *ProductionOrderHandler) RecordProduction(c *gin.Context) {
	var req RecordProductionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	finishedMoveID, err := uuid.Parse(req.FinishedMoveID)
	if err != nil {
		h.BadRequest(c, "Invalid finished move ID format")
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.RecordProduction(c.Request.Context(), orderID, finishedMoveID, decimal.NewFromFloat(req.Quantity))
	})
}

// AddMaterial adds a raw material to an order, also after confirmation
func (h *ProductionOrderHandler) AddMaterial(c *gin.Context) {
	var req RawMaterialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	input, err := toRawMaterialInput(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.AddRawMaterial(c.Request.Context(), orderID, input)
	})
}

// AddWorkOrder adds an operation step to an order, also after confirmation
func (h *ProductionOrderHandler) AddWorkOrder(c *gin.Context) {
	var req WorkOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	input, err := toWorkOrderInput(req)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.AddWorkOrder(c.Request.Context(), orderID, input)
	})
}

// Complete finishes an order or parks it until open work orders are done
func (h *ProductionOrderHandler) Complete(c *gin.Context) {
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.CompleteOrder(c.Request.Context(), orderID)
	})
}

// Cancel aborts a production order
func (h *ProductionOrderHandler) Cancel(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	h.mutateOrder(c, func(orderID uuid.UUID) (*production.ProductionOrder, error) {
		return h.orderService.CancelOrder(c.Request.Context(), orderID, req.Reason)
	})
}

// mutateOrder runs a command against the order in the :id path parameter
func (h *ProductionOrderHandler) mutateOrder(c *gin.Context, command func(uuid.UUID) (*production.ProductionOrder, error)) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	order, err := command(orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductionOrderResponse(order))
}

func toCreateOrderInput(req CreateProductionOrderRequest) (productionapp.CreateOrderInput, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return productionapp.CreateOrderInput{}, err
	}
	input := productionapp.CreateOrderInput{
		OrderNumber: req.OrderNumber,
		ProductID:   productID,
		Quantity:    decimal.NewFromFloat(req.Quantity),
	}
	if analyticID, err := optionalUUID(req.AnalyticAccountID); err != nil {
		return productionapp.CreateOrderInput{}, err
	} else if analyticID != nil {
		input.AnalyticAccountID = *analyticID
	}
	for _, raw := range req.RawMaterials {
		rawInput, err := toRawMaterialInput(raw)
		if err != nil {
			return productionapp.CreateOrderInput{}, err
		}
		input.RawMaterials = append(input.RawMaterials, rawInput)
	}
	for _, wo := range req.WorkOrders {
		woInput, err := toWorkOrderInput(wo)
		if err != nil {
			return productionapp.CreateOrderInput{}, err
		}
		input.WorkOrders = append(input.WorkOrders, woInput)
	}
	for _, fm := range req.FinishedMoves {
		fmInput, err := toFinishedMoveInput(fm)
		if err != nil {
			return productionapp.CreateOrderInput{}, err
		}
		input.FinishedMoves = append(input.FinishedMoves, fmInput)
	}
	return input, nil
}

func toRawMaterialInput(req RawMaterialInput) (productionapp.RawMaterialInput, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return productionapp.RawMaterialInput{}, err
	}
	input := productionapp.RawMaterialInput{
		ProductID:   productID,
		Description: req.Description,
		PlannedQty:  decimal.NewFromFloat(req.PlannedQty),
		UnitCost:    decimal.NewFromFloat(req.UnitCost),
	}
	if req.DestinationLocationID != "" {
		locationID, err := uuid.Parse(req.DestinationLocationID)
		if err != nil {
			return productionapp.RawMaterialInput{}, err
		}
		input.DestinationLocationID = locationID
	}
	return input, nil
}

func toWorkOrderInput(req WorkOrderInput) (productionapp.WorkOrderInput, error) {
	workCenterID, err := uuid.Parse(req.WorkCenterID)
	if err != nil {
		return productionapp.WorkOrderInput{}, err
	}
	costProductID, err := optionalUUID(req.CostProductID)
	if err != nil {
		return productionapp.WorkOrderInput{}, err
	}
	return productionapp.WorkOrderInput{
		Name:           req.Name,
		WorkCenterID:   workCenterID,
		CostProductID:  costProductID,
		HourlyRate:     decimal.NewFromFloat(req.HourlyRate),
		PlannedMinutes: decimal.NewFromFloat(req.PlannedMinutes),
		CostFactor:     decimal.NewFromFloat(req.CostFactor),
	}, nil
}

func toFinishedMoveInput(req FinishedMoveInput) (productionapp.FinishedMoveInput, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return productionapp.FinishedMoveInput{}, err
	}
	input := productionapp.FinishedMoveInput{
		ProductID:        productID,
		Quantity:         decimal.NewFromFloat(req.Quantity),
		StandardUnitCost: decimal.NewFromFloat(req.StandardUnitCost),
	}
	if req.LocationID != "" {
		locationID, err := uuid.Parse(req.LocationID)
		if err != nil {
			return productionapp.FinishedMoveInput{}, err
		}
		input.LocationID = locationID
	}
	return input, nil
}

func toProductionOrderResponse(order *production.ProductionOrder) ProductionOrderResponse {
	resp := ProductionOrderResponse{
		ID:            order.ID.String(),
		OrderNumber:   order.OrderNumber,
		ProductID:     order.ProductID.String(),
		Quantity:      order.Quantity.InexactFloat64(),
		Status:        order.Status.String(),
		RawMoves:      make([]RawMaterialMoveResponse, len(order.RawMoves)),
		WorkOrders:    make([]WorkOrderResponse, len(order.WorkOrders)),
		FinishedMoves: make([]FinishedMoveResponse, len(order.FinishedMoves)),
		ConfirmedAt:   order.ConfirmedAt,
		StartedAt:     order.StartedAt,
		CompletedAt:   order.CompletedAt,
		CancelledAt:   order.CancelledAt,
		CancelReason:  order.CancelReason,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
		Version:       order.Version,
	}
	if order.HasAnalyticAccount() {
		analyticID := order.AnalyticAccountID.String()
		resp.AnalyticAccountID = &analyticID
	}
	for i, move := range order.RawMoves {
		resp.RawMoves[i] = RawMaterialMoveResponse{
			ID:                    move.ID.String(),
			ProductID:             move.ProductID.String(),
			Description:           move.Description,
			PlannedQty:            move.PlannedQty.InexactFloat64(),
			ConsumedQty:           move.ConsumedQty.InexactFloat64(),
			UnitCost:              move.UnitCost.InexactFloat64(),
			DestinationLocationID: move.DestinationLocationID.String(),
			Status:                move.Status.String(),
			AddedAfterConfirm:     move.AddedAfterConfirm,
		}
	}
	for i, wo := range order.WorkOrders {
		resp.WorkOrders[i] = WorkOrderResponse{
			ID:              wo.ID.String(),
			Name:            wo.Name,
			WorkCenterID:    wo.WorkCenterID.String(),
			CostProductID:   uuidToString(wo.CostProductID),
			HourlyRate:      wo.HourlyRate.InexactFloat64(),
			CostFactor:      wo.CostFactor.InexactFloat64(),
			PlannedMinutes:  wo.PlannedMinutes.InexactFloat64(),
			DurationMinutes: wo.DurationMinutes.InexactFloat64(),
			Status:          wo.Status.String(),
		}
	}
	for i, move := range order.FinishedMoves {
		resp.FinishedMoves[i] = FinishedMoveResponse{
			ID:               move.ID.String(),
			ProductID:        move.ProductID.String(),
			Quantity:         move.Quantity.InexactFloat64(),
			ProducedQty:      move.ProducedQty.InexactFloat64(),
			StandardUnitCost: move.StandardUnitCost.InexactFloat64(),
			LocationID:       move.LocationID.String(),
			Status:           move.Status.String(),
		}
	}
	return resp
}
