package ports

import (
	"context"
	"time"

	"github.com/mrms/resource-management/internal/core/domain"
)

// ListPurchasesFilter carries all query parameters for listing purchases.
// BaseID is always enforced by the service layer (RBAC).
type ListPurchasesFilter struct {
	BaseID        string    // empty = no filter (admin); non-empty = scoped to base
	Status        string    // optional
	EquipmentType string    // optional
	Search        string    // optional: partial match on order_number or supplier
	DateFrom      time.Time // optional: created_at >= DateFrom
	DateTo        time.Time // optional: created_at <= DateTo
	Page          int       // 1-based
	Limit         int       // max rows per page (capped at 100 by service)
}

// PurchaseRepository defines persistence operations for purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, p *domain.Purchase) error
	// FindByOrderNumber retrieves a purchase by order number.
	// When baseID is non-empty, the query is additionally filtered by base_id.
	FindByOrderNumber(ctx context.Context, orderNumber string, baseID string) (*domain.Purchase, error)
	// FindByIdempotencyKey looks the key up within one base; keys used at
	// other bases never match.
	FindByIdempotencyKey(ctx context.Context, key string, baseID string) (*domain.Purchase, error)
	List(ctx context.Context, filter ListPurchasesFilter) ([]*domain.Purchase, int64, error)
}
