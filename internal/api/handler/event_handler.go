package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mrms/resource-management/internal/core/ports"
)

// maxBatchSize bounds a single batch so one request cannot monopolise the workers.
const maxBatchSize = 500

// EventDispatcher is the interface the handler uses to enqueue events.
type EventDispatcher interface {
	Enqueue(event ports.PurchaseEventInput)
	EnqueueBatch(events []ports.PurchaseEventInput)
}

// EventHandler accepts purchase status updates from logistics feeds.
type EventHandler struct {
	dispatcher EventDispatcher
}

func NewEventHandler(dispatcher EventDispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// Receive handles POST /v1/purchases/events. The event is queued and applied
// asynchronously.
//
// @Summary      Ingest a single purchase event
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      purchaseEventRequest  true  "Purchase event"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/purchases/events [post]
func (h *EventHandler) Receive(c echo.Context) error {
	var req purchaseEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	h.dispatcher.Enqueue(toEventInput(req))
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "event accepted"})
}

// ReceiveBatch handles POST /v1/purchases/events/batch. Either every event
// in the batch validates and all are queued, or none are.
//
// @Summary      Ingest a batch of purchase events
// @Tags         events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      []purchaseEventRequest  true  "Array of purchase events"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/purchases/events/batch [post]
func (h *EventHandler) ReceiveBatch(c echo.Context) error {
	var reqs []purchaseEventRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(reqs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "batch cannot be empty")
	}
	if len(reqs) > maxBatchSize {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("batch exceeds %d events", maxBatchSize))
	}

	inputs := make([]ports.PurchaseEventInput, 0, len(reqs))
	for i, req := range reqs {
		if err := c.Validate(&req); err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity,
				fmt.Sprintf("event[%d]: %s", i, err.Error()))
		}
		inputs = append(inputs, toEventInput(req))
	}

	h.dispatcher.EnqueueBatch(inputs)
	return c.JSON(http.StatusAccepted, acceptedResponse{
		Message: "events accepted",
		Count:   len(inputs),
	})
}

func toEventInput(r purchaseEventRequest) ports.PurchaseEventInput {
	return ports.PurchaseEventInput{
		OrderNumber: r.OrderNumber,
		Status:      r.Status,
		Timestamp:   r.Timestamp,
		Source:      r.Source,
		Notes:       r.Notes,
	}
}
