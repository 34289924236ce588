package domain

import (
	"errors"
	"time"
)

// PurchaseStatus represents the lifecycle state of a purchase order.
type PurchaseStatus string

const (
	PurchaseOrdered   PurchaseStatus = "Ordered"
	PurchaseDelivered PurchaseStatus = "Delivered"
	PurchaseCancelled PurchaseStatus = "Cancelled"
)

// validTransitions defines the allowed purchase state machine transitions.
// Delivered and Cancelled are terminal.
var validTransitions = map[PurchaseStatus][]PurchaseStatus{
	PurchaseOrdered: {PurchaseDelivered, PurchaseCancelled},
}

var ErrInvalidTransition = errors.New("invalid status transition")
var ErrPurchaseNotFound = errors.New("purchase not found")
var ErrForbidden = errors.New("access forbidden")

// ErrDuplicateIdempotencyKey is returned by the store when another order at
// the same base already carries the key.
var ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

// Valid reports whether s is one of the known statuses.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseOrdered, PurchaseDelivered, PurchaseCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s PurchaseStatus) CanTransitionTo(next PurchaseStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// StatusHistoryEntry records a single status transition on a purchase.
type StatusHistoryEntry struct {
	Status    PurchaseStatus `json:"status" bson:"status"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
	Actor     string         `json:"actor,omitempty" bson:"actor,omitempty"`
	Notes     string         `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Purchase is an equipment procurement order raised for a base.
type Purchase struct {
	ID               string               `json:"id" bson:"_id,omitempty"`
	OrderNumber      string               `json:"orderNumber" bson:"order_number"`
	BaseID           string               `json:"baseId" bson:"base_id"`
	EquipmentType    string               `json:"equipmentType" bson:"equipment_type"`
	Quantity         int                  `json:"quantity" bson:"quantity"`
	UnitCost         float64              `json:"unitCost" bson:"unit_cost"`
	Currency         string               `json:"currency" bson:"currency"`
	Supplier         string               `json:"supplier" bson:"supplier"`
	Status           PurchaseStatus       `json:"status" bson:"status"`
	OrderedBy        string               `json:"orderedBy" bson:"ordered_by"`
	CreatedAt        time.Time            `json:"createdAt" bson:"created_at"`
	ExpectedDelivery time.Time            `json:"expectedDelivery" bson:"expected_delivery"`
	IdempotencyKey   string               `json:"idempotencyKey,omitempty" bson:"idempotency_key,omitempty"`
	StatusHistory    []StatusHistoryEntry `json:"statusHistory" bson:"status_history"`
}

// TotalCost is quantity times unit cost.
func (p *Purchase) TotalCost() float64 {
	return float64(p.Quantity) * p.UnitCost
}
