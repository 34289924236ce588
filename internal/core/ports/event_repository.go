package ports

import (
	"context"
	"time"

	"github.com/mrms/resource-management/internal/core/domain"
)

// EventRepository handles event persistence and atomic purchase status updates.
type EventRepository interface {
	// UpdatePurchaseStatus atomically sets the purchase's new status and
	// appends a history entry, but only while the stored status still equals
	// from. It returns domain.ErrInvalidTransition when the guard fails.
	UpdatePurchaseStatus(
		ctx context.Context,
		orderNumber string,
		from, to domain.PurchaseStatus,
		entry domain.StatusHistoryEntry,
	) error

	// InsertEvent persists an event to the purchase_events audit collection.
	InsertEvent(ctx context.Context, event *domain.PurchaseEvent, processedAt time.Time) error
}
