package domain

import "time"

// PurchaseEvent is a status update for a purchase reported by a logistics
// feed (supplier portal, depot scanner).
type PurchaseEvent struct {
	OrderNumber string
	Status      PurchaseStatus
	Timestamp   time.Time
	Source      string
	Notes       string
}
