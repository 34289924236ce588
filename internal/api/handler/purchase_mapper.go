package handler

import (
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

func toCreatePurchaseInput(req createPurchaseRequest, actor *domain.User, idempotencyKey string) ports.CreatePurchaseInput {
	in := ports.CreatePurchaseInput{
		Actor:          actor,
		BaseID:         req.BaseID,
		EquipmentType:  req.EquipmentType,
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		Currency:       req.Currency,
		Supplier:       req.Supplier,
		IdempotencyKey: idempotencyKey,
	}
	if req.ExpectedDelivery != nil {
		in.ExpectedDelivery = *req.ExpectedDelivery
	}
	return in
}

// toPurchaseResponse renders a purchase. The list view omits the history.
func toPurchaseResponse(p *domain.Purchase, withHistory bool) purchaseResponse {
	resp := purchaseResponse{
		OrderNumber:      p.OrderNumber,
		BaseID:           p.BaseID,
		EquipmentType:    p.EquipmentType,
		Quantity:         p.Quantity,
		UnitCost:         p.UnitCost,
		TotalCost:        p.TotalCost(),
		Currency:         p.Currency,
		Supplier:         p.Supplier,
		Status:           string(p.Status),
		OrderedBy:        p.OrderedBy,
		CreatedAt:        p.CreatedAt.UTC(),
		ExpectedDelivery: p.ExpectedDelivery.UTC(),
		Links:            purchaseLinksFor(p),
	}
	if withHistory {
		resp.StatusHistory = make([]statusHistoryItemResponse, len(p.StatusHistory))
		for i, h := range p.StatusHistory {
			resp.StatusHistory[i] = statusHistoryItemResponse{
				Status:    string(h.Status),
				Timestamp: h.Timestamp.UTC(),
				Actor:     h.Actor,
				Notes:     h.Notes,
			}
		}
	}
	return resp
}

// purchaseLinksFor only advertises the transitions the current status allows.
func purchaseLinksFor(p *domain.Purchase) purchaseLinks {
	self := "/v1/purchases/" + p.OrderNumber
	links := purchaseLinks{Self: self}
	if p.Status.CanTransitionTo(domain.PurchaseDelivered) {
		links.Deliver = self + "/deliver"
	}
	if p.Status.CanTransitionTo(domain.PurchaseCancelled) {
		links.Cancel = self + "/cancel"
	}
	return links
}

func toListResponse(r *ports.ListPurchasesResult) listPurchasesResponse {
	items := make([]purchaseResponse, len(r.Items))
	for i, p := range r.Items {
		items[i] = toPurchaseResponse(p, false)
	}
	return listPurchasesResponse{
		Data: items,
		Pagination: paginationResponse{
			Total:      r.Total,
			Page:       r.Page,
			Limit:      r.Limit,
			TotalPages: r.TotalPages,
		},
	}
}
