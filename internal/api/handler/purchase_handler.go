package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

// PurchaseHandler handles HTTP requests for purchase orders.
type PurchaseHandler struct {
	service ports.PurchaseService
}

func NewPurchaseHandler(service ports.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// Create handles POST /v1/purchases.
//
// @Summary      Raise a purchase order
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                 false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createPurchaseRequest  true   "Purchase details"
// @Success      201              {object}  purchaseResponse
// @Success      200              {object}  purchaseResponse  "Replayed idempotent request"
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/purchases [post]
func (h *PurchaseHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	idempotencyKey := c.Request().Header.Get("Idempotency-Key")
	result, err := h.service.CreatePurchase(c.Request().Context(), toCreatePurchaseInput(req, actor, idempotencyKey))
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, toPurchaseResponse(result.Purchase, true))
}

// Get handles GET /v1/purchases/:orderNumber.
//
// @Summary      Get a purchase by order number
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string  true  "Order number (e.g. PO-7A8B9C2D)"
// @Success      200          {object}  purchaseResponse
// @Failure      404          {object}  errorResponse
// @Router       /v1/purchases/{orderNumber} [get]
func (h *PurchaseHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	p, err := h.service.GetPurchase(c.Request().Context(), actor, c.Param("orderNumber"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p, true))
}

// List handles GET /v1/purchases.
//
// @Summary      List purchases
// @Tags         purchases
// @Produce      json
// @Security     BearerAuth
// @Param        baseId         query     string  false  "Base filter (ignored scope for non-admins)"
// @Param        status         query     string  false  "Ordered, Delivered or Cancelled"
// @Param        equipmentType  query     string  false  "Equipment category"
// @Param        search         query     string  false  "Partial order number or supplier"
// @Param        dateFrom       query     string  false  "RFC3339 lower bound on createdAt"
// @Param        dateTo         query     string  false  "RFC3339 upper bound on createdAt"
// @Param        page           query     int     false  "Page (1-based)"
// @Param        limit          query     int     false  "Page size (max 100)"
// @Success      200            {object}  listPurchasesResponse
// @Failure      400            {object}  errorResponse
// @Failure      403            {object}  errorResponse
// @Router       /v1/purchases [get]
func (h *PurchaseHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	in := ports.ListPurchasesInput{Actor: actor}
	err = echo.QueryParamsBinder(c).
		String("baseId", &in.BaseID).
		String("status", &in.Status).
		String("equipmentType", &in.EquipmentType).
		String("search", &in.Search).
		Time("dateFrom", &in.DateFrom, time.RFC3339).
		Time("dateTo", &in.DateTo, time.RFC3339).
		Int("page", &in.Page).
		Int("limit", &in.Limit).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if in.Status != "" && !domain.PurchaseStatus(in.Status).Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status "+in.Status)
	}

	result, err := h.service.ListPurchases(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

// Deliver handles POST /v1/purchases/:orderNumber/deliver.
//
// @Summary      Mark a purchase delivered
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string             true   "Order number"
// @Param        body         body      transitionRequest  false  "Optional notes"
// @Success      200          {object}  purchaseResponse
// @Failure      404          {object}  errorResponse
// @Failure      422          {object}  errorResponse
// @Router       /v1/purchases/{orderNumber}/deliver [post]
func (h *PurchaseHandler) Deliver(c echo.Context) error {
	return h.transition(c, domain.PurchaseDelivered)
}

// Cancel handles POST /v1/purchases/:orderNumber/cancel.
//
// @Summary      Cancel a purchase
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        orderNumber  path      string             true   "Order number"
// @Param        body         body      transitionRequest  false  "Optional notes"
// @Success      200          {object}  purchaseResponse
// @Failure      404          {object}  errorResponse
// @Failure      422          {object}  errorResponse
// @Router       /v1/purchases/{orderNumber}/cancel [post]
func (h *PurchaseHandler) Cancel(c echo.Context) error {
	return h.transition(c, domain.PurchaseCancelled)
}

func (h *PurchaseHandler) transition(c echo.Context, target domain.PurchaseStatus) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	p, err := h.service.TransitionPurchase(c.Request().Context(), ports.TransitionInput{
		Actor:       actor,
		OrderNumber: c.Param("orderNumber"),
		Target:      target,
		Notes:       req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p, true))
}
