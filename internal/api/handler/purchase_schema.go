package handler

import "time"

type createPurchaseRequest struct {
	BaseID           string     `json:"baseId"           validate:"required"`
	EquipmentType    string     `json:"equipmentType"    validate:"required"`
	Quantity         int        `json:"quantity"         validate:"required,gt=0"`
	UnitCost         float64    `json:"unitCost"         validate:"required,gt=0"`
	Currency         string     `json:"currency"         validate:"required,len=3"`
	Supplier         string     `json:"supplier"         validate:"required"`
	ExpectedDelivery *time.Time `json:"expectedDelivery"`
}

type transitionRequest struct {
	Notes string `json:"notes"`
}

type purchaseLinks struct {
	Self    string `json:"self"`
	Deliver string `json:"deliver,omitempty"`
	Cancel  string `json:"cancel,omitempty"`
}

type statusHistoryItemResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

type purchaseResponse struct {
	OrderNumber      string                      `json:"orderNumber"`
	BaseID           string                      `json:"baseId"`
	EquipmentType    string                      `json:"equipmentType"`
	Quantity         int                         `json:"quantity"`
	UnitCost         float64                     `json:"unitCost"`
	TotalCost        float64                     `json:"totalCost"`
	Currency         string                      `json:"currency"`
	Supplier         string                      `json:"supplier"`
	Status           string                      `json:"status"`
	OrderedBy        string                      `json:"orderedBy"`
	CreatedAt        time.Time                   `json:"createdAt"`
	ExpectedDelivery time.Time                   `json:"expectedDelivery"`
	StatusHistory    []statusHistoryItemResponse `json:"statusHistory,omitempty"`
	Links            purchaseLinks               `json:"_links"`
}

type paginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type listPurchasesResponse struct {
	Data       []purchaseResponse `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}
