package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mrms/resource-management/internal/api/middleware"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

type stubPurchaseService struct {
	createFn     func(ctx context.Context, in ports.CreatePurchaseInput) (*ports.PurchaseResult, error)
	getFn        func(ctx context.Context, actor *domain.User, orderNumber string) (*domain.Purchase, error)
	listFn       func(ctx context.Context, in ports.ListPurchasesInput) (*ports.ListPurchasesResult, error)
	transitionFn func(ctx context.Context, in ports.TransitionInput) (*domain.Purchase, error)
}

func (s *stubPurchaseService) CreatePurchase(ctx context.Context, in ports.CreatePurchaseInput) (*ports.PurchaseResult, error) {
	return s.createFn(ctx, in)
}

func (s *stubPurchaseService) GetPurchase(ctx context.Context, actor *domain.User, orderNumber string) (*domain.Purchase, error) {
	return s.getFn(ctx, actor, orderNumber)
}

func (s *stubPurchaseService) ListPurchases(ctx context.Context, in ports.ListPurchasesInput) (*ports.ListPurchasesResult, error) {
	return s.listFn(ctx, in)
}

func (s *stubPurchaseService) TransitionPurchase(ctx context.Context, in ports.TransitionInput) (*domain.Purchase, error) {
	return s.transitionFn(ctx, in)
}

func samplePurchase(status domain.PurchaseStatus) *domain.Purchase {
	created := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &domain.Purchase{
		OrderNumber:      "PO-0000ABCD",
		BaseID:           "base-alpha",
		EquipmentType:    "Vehicle",
		Quantity:         2,
		UnitCost:         1500,
		Currency:         "USD",
		Supplier:         "Acme Defense",
		Status:           status,
		OrderedBy:        "commander1",
		CreatedAt:        created,
		ExpectedDelivery: created.Add(14 * 24 * time.Hour),
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.PurchaseOrdered, Timestamp: created, Actor: "commander1"},
		},
	}
}

const createBody = `{"baseId":"base-alpha","equipmentType":"Vehicle","quantity":2,"unitCost":1500,"currency":"usd","supplier":"Acme Defense"}`

func TestPurchaseHandler_Create(t *testing.T) {
	stub := &stubPurchaseService{
		createFn: func(ctx context.Context, in ports.CreatePurchaseInput) (*ports.PurchaseResult, error) {
			if in.Actor == nil || in.Actor.Username != "commander1" || in.Actor.AssignedBase != "base-alpha" {
				t.Fatalf("actor not derived from claims: %+v", in.Actor)
			}
			if in.IdempotencyKey != "key-1" || in.Quantity != 2 || in.Currency != "usd" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if !in.ExpectedDelivery.IsZero() {
				t.Fatalf("expected zero delivery date when omitted")
			}
			return &ports.PurchaseResult{Purchase: samplePurchase(domain.PurchaseOrdered)}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/v1/purchases", createBody)
	c.Request().Header.Set("Idempotency-Key", "key-1")
	middleware.SetClaims(c, commanderClaims())

	if err := NewPurchaseHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp purchaseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.OrderNumber != "PO-0000ABCD" || resp.TotalCost != 3000 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Links.Deliver == "" || resp.Links.Cancel == "" {
		t.Fatalf("ordered purchase should advertise transitions: %+v", resp.Links)
	}
	if len(resp.StatusHistory) != 1 {
		t.Fatalf("expected history in detail response")
	}
}

func TestPurchaseHandler_Create_Replay(t *testing.T) {
	stub := &stubPurchaseService{
		createFn: func(ctx context.Context, in ports.CreatePurchaseInput) (*ports.PurchaseResult, error) {
			return &ports.PurchaseResult{Purchase: samplePurchase(domain.PurchaseOrdered), AlreadyExisted: true}, nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/v1/purchases", createBody)
	middleware.SetClaims(c, commanderClaims())

	if err := NewPurchaseHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for replay, got %d", rec.Code)
	}
}

func TestPurchaseHandler_Create_Validation(t *testing.T) {
	stub := &stubPurchaseService{
		createFn: func(ctx context.Context, in ports.CreatePurchaseInput) (*ports.PurchaseResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewPurchaseHandler(stub)

	c, _ := newTestContext(http.MethodPost, "/v1/purchases", `{"baseId":"base-alpha","quantity":0}`)
	middleware.SetClaims(c, commanderClaims())
	assertHTTPError(t, h.Create(c), http.StatusUnprocessableEntity)

	c, _ = newTestContext(http.MethodPost, "/v1/purchases", createBody)
	assertHTTPError(t, h.Create(c), http.StatusUnauthorized)
}

func TestPurchaseHandler_Get_NotFound(t *testing.T) {
	stub := &stubPurchaseService{
		getFn: func(ctx context.Context, actor *domain.User, orderNumber string) (*domain.Purchase, error) {
			return nil, domain.ErrPurchaseNotFound
		},
	}
	c, _ := newTestContext(http.MethodGet, "/v1/purchases/PO-MISSING", "")
	c.SetParamNames("orderNumber")
	c.SetParamValues("PO-MISSING")
	middleware.SetClaims(c, commanderClaims())

	if err := NewPurchaseHandler(stub).Get(c); !errors.Is(err, domain.ErrPurchaseNotFound) {
		t.Fatalf("expected ErrPurchaseNotFound, got %v", err)
	}
}

func TestPurchaseHandler_List(t *testing.T) {
	stub := &stubPurchaseService{
		listFn: func(ctx context.Context, in ports.ListPurchasesInput) (*ports.ListPurchasesResult, error) {
			if in.Status != "Ordered" || in.Search != "acme" || in.Page != 2 || in.Limit != 5 {
				t.Fatalf("query not bound: %+v", in)
			}
			if in.DateFrom.IsZero() {
				t.Fatalf("dateFrom not parsed")
			}
			return &ports.ListPurchasesResult{
				Items:      []*domain.Purchase{samplePurchase(domain.PurchaseOrdered)},
				Total:      6,
				Page:       2,
				Limit:      5,
				TotalPages: 2,
			}, nil
		},
	}
	c, rec := newTestContext(http.MethodGet, "/v1/purchases?status=Ordered&search=acme&page=2&limit=5&dateFrom=2026-01-01T00:00:00Z", "")
	middleware.SetClaims(c, commanderClaims())

	if err := NewPurchaseHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp listPurchasesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Data) != 1 || resp.Pagination.TotalPages != 2 || resp.Pagination.Total != 6 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Data[0].StatusHistory != nil {
		t.Fatalf("list items should omit history")
	}
}

func TestPurchaseHandler_List_BadQuery(t *testing.T) {
	h := NewPurchaseHandler(&stubPurchaseService{})

	for _, target := range []string{
		"/v1/purchases?page=abc",
		"/v1/purchases?dateTo=yesterday",
		"/v1/purchases?status=Lost",
	} {
		c, _ := newTestContext(http.MethodGet, target, "")
		middleware.SetClaims(c, commanderClaims())
		assertHTTPError(t, h.List(c), http.StatusBadRequest)
	}
}

func TestPurchaseHandler_Deliver(t *testing.T) {
	stub := &stubPurchaseService{
		transitionFn: func(ctx context.Context, in ports.TransitionInput) (*domain.Purchase, error) {
			if in.Target != domain.PurchaseDelivered || in.OrderNumber != "PO-0000ABCD" || in.Notes != "dock 4" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return samplePurchase(domain.PurchaseDelivered), nil
		},
	}
	c, rec := newTestContext(http.MethodPost, "/v1/purchases/PO-0000ABCD/deliver", `{"notes":"dock 4"}`)
	c.SetParamNames("orderNumber")
	c.SetParamValues("PO-0000ABCD")
	middleware.SetClaims(c, commanderClaims())

	if err := NewPurchaseHandler(stub).Deliver(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp purchaseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "Delivered" {
		t.Fatalf("expected Delivered, got %s", resp.Status)
	}
	if resp.Links.Deliver != "" || resp.Links.Cancel != "" {
		t.Fatalf("terminal purchase must not advertise transitions: %+v", resp.Links)
	}
}

func TestPurchaseHandler_Cancel_InvalidTransition(t *testing.T) {
	stub := &stubPurchaseService{
		transitionFn: func(ctx context.Context, in ports.TransitionInput) (*domain.Purchase, error) {
			if in.Target != domain.PurchaseCancelled {
				t.Fatalf("expected cancel target, got %s", in.Target)
			}
			return nil, domain.ErrInvalidTransition
		},
	}
	c, _ := newTestContext(http.MethodPost, "/v1/purchases/PO-0000ABCD/cancel", "")
	c.SetParamNames("orderNumber")
	c.SetParamValues("PO-0000ABCD")
	middleware.SetClaims(c, commanderClaims())

	if err := NewPurchaseHandler(stub).Cancel(c); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
