package handler

import "time"

type purchaseEventRequest struct {
	OrderNumber string    `json:"orderNumber" validate:"required"`
	Status      string    `json:"status"      validate:"required,oneof=Delivered Cancelled"`
	Timestamp   time.Time `json:"timestamp"   validate:"required"`
	Source      string    `json:"source"      validate:"required"`
	Notes       string    `json:"notes"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}
