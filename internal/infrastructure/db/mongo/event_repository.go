package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

const collectionPurchaseEvents = "purchase_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	db *mongo.Database
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) ports.EventRepository {
	return &EventRepository{db: db}
}

// UpdatePurchaseStatus sets the new status and appends a history entry in a
// single update. The filter includes the expected current status, so a
// concurrent transition makes this one match nothing.
func (r *EventRepository) UpdatePurchaseStatus(
	ctx context.Context,
	orderNumber string,
	from, to domain.PurchaseStatus,
	entry domain.StatusHistoryEntry,
) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"order_number": orderNumber, "status": string(from)}
	update := bson.M{
		"$set":  bson.M{"status": string(to)},
		"$push": bson.M{"status_history": entry},
	}

	res, err := r.db.Collection(collectionPurchases).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// InsertEvent persists a purchase event to the audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.PurchaseEvent, processedAt time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"order_number": event.OrderNumber,
		"status":       string(event.Status),
		"timestamp":    event.Timestamp.UTC(),
		"source":       event.Source,
		"processed_at": processedAt.UTC(),
	}
	if event.Notes != "" {
		doc["notes"] = event.Notes
	}

	_, err := r.db.Collection(collectionPurchaseEvents).InsertOne(ctx, doc)
	return err
}
