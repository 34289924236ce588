package ports

import (
	"context"
	"time"

	"github.com/mrms/resource-management/internal/core/domain"
)

// CreatePurchaseInput carries all data needed to raise a purchase order.
type CreatePurchaseInput struct {
	Actor            *domain.User
	BaseID           string
	EquipmentType    string
	Quantity         int
	UnitCost         float64
	Currency         string
	Supplier         string
	ExpectedDelivery time.Time
	IdempotencyKey   string
}

// PurchaseResult is returned by the service after creating a purchase.
type PurchaseResult struct {
	Purchase *domain.Purchase
	// AlreadyExisted is true when the Idempotency-Key matched an existing purchase.
	AlreadyExisted bool
}

// TransitionInput requests a status change on a single purchase.
type TransitionInput struct {
	Actor       *domain.User
	OrderNumber string
	Target      domain.PurchaseStatus
	Notes       string
}

// ListPurchasesInput carries all parameters for the list endpoint.
type ListPurchasesInput struct {
	Actor         *domain.User
	BaseID        string
	Status        string
	EquipmentType string
	Search        string
	DateFrom      time.Time
	DateTo        time.Time
	Page          int
	Limit         int
}

// ListPurchasesResult is returned by ListPurchases.
type ListPurchasesResult struct {
	Items      []*domain.Purchase
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// PurchaseService defines use-case operations for purchases.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*PurchaseResult, error)
	GetPurchase(ctx context.Context, actor *domain.User, orderNumber string) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, input ListPurchasesInput) (*ListPurchasesResult, error)
	TransitionPurchase(ctx context.Context, input TransitionInput) (*domain.Purchase, error)
}
