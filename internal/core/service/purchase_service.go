package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/api/metrics"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// defaultLeadTime applies when the order does not name an expected date.
	defaultLeadTime = 14 * 24 * time.Hour
)

type PurchaseService struct {
	repo      ports.PurchaseRepository
	eventRepo ports.EventRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewPurchaseService(repo ports.PurchaseRepository, eventRepo ports.EventRepository, logger zerolog.Logger) *PurchaseService {
	return &PurchaseService{repo: repo, eventRepo: eventRepo, logger: logger, now: time.Now}
}

// CreatePurchase raises a new purchase order. If an idempotency key is
// provided and already seen, the previously created order is returned
// without side effects.
func (s *PurchaseService) CreatePurchase(ctx context.Context, input ports.CreatePurchaseInput) (*ports.PurchaseResult, error) {
	if !input.Actor.CanAccessBase(input.BaseID) {
		return nil, domain.ErrForbidden
	}

	if input.IdempotencyKey != "" {
		existing, err := s.findReplay(ctx, input)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &ports.PurchaseResult{Purchase: existing, AlreadyExisted: true}, nil
		}
	}

	now := s.now().UTC()
	expected := input.ExpectedDelivery
	if expected.IsZero() {
		expected = now.Add(defaultLeadTime)
	}

	purchase := &domain.Purchase{
		OrderNumber:      generateOrderNumber(),
		BaseID:           input.BaseID,
		EquipmentType:    input.EquipmentType,
		Quantity:         input.Quantity,
		UnitCost:         input.UnitCost,
		Currency:         strings.ToUpper(input.Currency),
		Supplier:         input.Supplier,
		Status:           domain.PurchaseOrdered,
		OrderedBy:        input.Actor.Username,
		CreatedAt:        now,
		ExpectedDelivery: expected.UTC(),
		IdempotencyKey:   input.IdempotencyKey,
		StatusHistory: []domain.StatusHistoryEntry{
			{Status: domain.PurchaseOrdered, Timestamp: now, Actor: input.Actor.Username},
		},
	}

	if err := s.repo.Create(ctx, purchase); err != nil {
		// A concurrent request with the same key got there first.
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			existing, findErr := s.findReplay(ctx, input)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				return &ports.PurchaseResult{Purchase: existing, AlreadyExisted: true}, nil
			}
		}
		s.logger.Error().Err(err).Msg("failed to create purchase")
		return nil, err
	}

	metrics.PurchasesCreatedTotal.WithLabelValues(purchase.EquipmentType).Inc()
	s.logger.Info().
		Str("order_number", purchase.OrderNumber).
		Str("base_id", purchase.BaseID).
		Str("ordered_by", purchase.OrderedBy).
		Msg("purchase created")

	return &ports.PurchaseResult{Purchase: purchase}, nil
}

// findReplay returns the order already created at the input's base with the
// same idempotency key, or nil when there is none. Keys are scoped per base,
// so a key reused at another base never returns that base's order.
func (s *PurchaseService) findReplay(ctx context.Context, input ports.CreatePurchaseInput) (*domain.Purchase, error) {
	existing, err := s.repo.FindByIdempotencyKey(ctx, input.IdempotencyKey, input.BaseID)
	if err != nil {
		if errors.Is(err, domain.ErrPurchaseNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if !input.Actor.CanAccessBase(existing.BaseID) {
		return nil, domain.ErrForbidden
	}
	s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("order_number", existing.OrderNumber).Msg("idempotent replay")
	return existing, nil
}

// GetPurchase returns a single purchase. Users pinned to a base only see
// their own base's orders; anything else is reported as not found.
func (s *PurchaseService) GetPurchase(ctx context.Context, actor *domain.User, orderNumber string) (*domain.Purchase, error) {
	if actor == nil {
		return nil, domain.ErrUnauthorized
	}
	return s.repo.FindByOrderNumber(ctx, orderNumber, actor.BaseScope())
}

func (s *PurchaseService) ListPurchases(ctx context.Context, input ports.ListPurchasesInput) (*ports.ListPurchasesResult, error) {
	if input.Actor == nil {
		return nil, domain.ErrUnauthorized
	}

	baseID := input.BaseID
	if scope := input.Actor.BaseScope(); scope != "" {
		if baseID != "" && baseID != scope {
			return nil, domain.ErrForbidden
		}
		baseID = scope
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.ListPurchasesFilter{
		BaseID:        baseID,
		Status:        input.Status,
		EquipmentType: input.EquipmentType,
		Search:        input.Search,
		DateFrom:      input.DateFrom,
		DateTo:        input.DateTo,
		Page:          page,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	return &ports.ListPurchasesResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// TransitionPurchase moves a purchase to the target status. Only an Ordered
// purchase can be delivered or cancelled.
func (s *PurchaseService) TransitionPurchase(ctx context.Context, input ports.TransitionInput) (*domain.Purchase, error) {
	purchase, err := s.GetPurchase(ctx, input.Actor, input.OrderNumber)
	if err != nil {
		return nil, err
	}

	if !purchase.Status.CanTransitionTo(input.Target) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, purchase.Status, input.Target)
	}

	entry := domain.StatusHistoryEntry{
		Status:    input.Target,
		Timestamp: s.now().UTC(),
		Actor:     input.Actor.Username,
		Notes:     input.Notes,
	}
	if err := s.eventRepo.UpdatePurchaseStatus(ctx, purchase.OrderNumber, purchase.Status, input.Target, entry); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w (concurrent update on %s)", domain.ErrInvalidTransition, purchase.OrderNumber)
		}
		return nil, fmt.Errorf("transition purchase: %w", err)
	}

	audit := &domain.PurchaseEvent{
		OrderNumber: purchase.OrderNumber,
		Status:      input.Target,
		Timestamp:   entry.Timestamp,
		Source:      "web:" + input.Actor.Username,
		Notes:       input.Notes,
	}
	if err := s.eventRepo.InsertEvent(ctx, audit, entry.Timestamp); err != nil {
		s.logger.Warn().Err(err).Str("order_number", purchase.OrderNumber).Msg("failed to insert audit event")
	}

	purchase.Status = input.Target
	purchase.StatusHistory = append(purchase.StatusHistory, entry)

	s.logger.Info().
		Str("order_number", purchase.OrderNumber).
		Str("status", string(input.Target)).
		Str("actor", input.Actor.Username).
		Msg("purchase status changed")

	return purchase, nil
}

// generateOrderNumber returns a unique order number in the format PO-XXXXXXXX.
func generateOrderNumber() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("PO-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("PO-%08X", b)
}
