package ports

import (
	"context"
	"time"
)

// PurchaseEventInput is the DTO passed from the transport layer to EventService.
type PurchaseEventInput struct {
	OrderNumber string
	Status      string
	Timestamp   time.Time
	Source      string
	Notes       string
}

// EventService processes incoming purchase status events.
type EventService interface {
	Process(ctx context.Context, event PurchaseEventInput) error
}
