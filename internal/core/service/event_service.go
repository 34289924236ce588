package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/api/metrics"
	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

// DedupChecker abstracts the idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, orderNumber, status string, ts time.Time) (bool, error)
	Mark(ctx context.Context, orderNumber, status string, ts time.Time) error
}

type eventService struct {
	purchaseRepo ports.PurchaseRepository
	eventRepo    ports.EventRepository
	dedup        DedupChecker
	log          zerolog.Logger
}

// NewEventService returns an EventService implementation.
func NewEventService(
	purchaseRepo ports.PurchaseRepository,
	eventRepo ports.EventRepository,
	dedup DedupChecker,
	log zerolog.Logger,
) ports.EventService {
	return &eventService{
		purchaseRepo: purchaseRepo,
		eventRepo:    eventRepo,
		dedup:        dedup,
		log:          log,
	}
}

// Process validates, deduplicates, and persists a single purchase event.
func (s *eventService) Process(ctx context.Context, in ports.PurchaseEventInput) (err error) {
	start := time.Now()
	newStatus := domain.PurchaseStatus(in.Status)
	defer func() {
		label := in.Status
		if err != nil {
			label = "error"
		}
		metrics.EventProcessingDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	// 1. Idempotency check: silently skip duplicates.
	isDup, err := s.dedup.IsDuplicate(ctx, in.OrderNumber, in.Status, in.Timestamp)
	if err != nil {
		s.log.Warn().Err(err).Str("order_number", in.OrderNumber).Msg("dedup check failed, processing anyway")
	} else if isDup {
		metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
		s.log.Debug().Str("order_number", in.OrderNumber).Str("status", in.Status).Msg("duplicate event skipped")
		return nil
	} else {
		metrics.EventsDedupTotal.WithLabelValues("miss").Inc()
	}

	// 2. Find purchase (no base filter: feeds are trusted system sources).
	purchase, err := s.purchaseRepo.FindByOrderNumber(ctx, in.OrderNumber, "")
	if err != nil {
		if errors.Is(err, domain.ErrPurchaseNotFound) {
			metrics.EventsErrorsTotal.WithLabelValues("purchase_not_found").Inc()
		} else {
			metrics.EventsErrorsTotal.WithLabelValues("lookup_failed").Inc()
		}
		return fmt.Errorf("process event: %w", err)
	}

	// 3. Validate state machine transition.
	if !purchase.Status.CanTransitionTo(newStatus) {
		metrics.EventsErrorsTotal.WithLabelValues("invalid_transition").Inc()
		return fmt.Errorf("process event: %w (from %s to %s)", domain.ErrInvalidTransition, purchase.Status, newStatus)
	}

	// 4. Mark as processed before writing (prevents duplicate processing on retry).
	if markErr := s.dedup.Mark(ctx, in.OrderNumber, in.Status, in.Timestamp); markErr != nil {
		s.log.Warn().Err(markErr).Str("order_number", in.OrderNumber).Msg("failed to set dedup key")
	}

	// 5. Atomically update purchase status + history.
	entry := domain.StatusHistoryEntry{
		Status:    newStatus,
		Timestamp: in.Timestamp.UTC(),
		Actor:     in.Source,
		Notes:     in.Notes,
	}
	if err := s.eventRepo.UpdatePurchaseStatus(ctx, in.OrderNumber, purchase.Status, newStatus, entry); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues("update_failed").Inc()
		return fmt.Errorf("process event: update status: %w", err)
	}

	// 6. Insert into audit trail (non-fatal on failure).
	auditEvent := &domain.PurchaseEvent{
		OrderNumber: in.OrderNumber,
		Status:      newStatus,
		Timestamp:   in.Timestamp,
		Source:      in.Source,
		Notes:       in.Notes,
	}
	if err := s.eventRepo.InsertEvent(ctx, auditEvent, time.Now().UTC()); err != nil {
		s.log.Warn().Err(err).Str("order_number", in.OrderNumber).Msg("failed to insert audit event")
	}

	metrics.EventsProcessedTotal.WithLabelValues(in.Status, in.Source).Inc()
	s.log.Info().
		Str("order_number", in.OrderNumber).
		Str("status", in.Status).
		Str("source", in.Source).
		Msg("event processed")

	return nil
}
