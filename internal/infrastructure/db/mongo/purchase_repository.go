package mongo

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mrms/resource-management/internal/core/domain"
	"github.com/mrms/resource-management/internal/core/ports"
)

const (
	collectionPurchases = "purchases"
	idempotencyIndex    = "base_id_idempotency_key_unique"
)

type PurchaseRepository struct {
	col *mongo.Collection
}

func NewPurchaseRepository(db *mongo.Database) *PurchaseRepository {
	return &PurchaseRepository{col: db.Collection(collectionPurchases)}
}

// Create inserts a new purchase document.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, p)
	if err != nil && p.IdempotencyKey != "" && mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), idempotencyIndex) {
		return domain.ErrDuplicateIdempotencyKey
	}
	return err
}

// FindByOrderNumber retrieves a purchase by order number.
// When baseID is non-empty, an additional filter by base_id is applied.
func (r *PurchaseRepository) FindByOrderNumber(ctx context.Context, orderNumber string, baseID string) (*domain.Purchase, error) {
	filter := bson.M{"order_number": orderNumber}
	if baseID != "" {
		filter["base_id"] = baseID
	}
	return r.findOne(ctx, filter)
}

// FindByIdempotencyKey retrieves the purchase created at baseID with the given key.
func (r *PurchaseRepository) FindByIdempotencyKey(ctx context.Context, key string, baseID string) (*domain.Purchase, error) {
	return r.findOne(ctx, bson.M{"idempotency_key": key, "base_id": baseID})
}

// List returns one page of purchases matching the filter, newest first,
// together with the total match count.
func (r *PurchaseRepository) List(ctx context.Context, f ports.ListPurchasesFilter) ([]*domain.Purchase, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	items := make([]*domain.Purchase, 0, f.Limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// EnsureIndexes creates necessary indexes on the purchases collection.
func (r *PurchaseRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "base_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			// Unique per base, and only for orders that carry a key.
			Keys: bson.D{{Key: "base_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetName(idempotencyIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *PurchaseRepository) findOne(ctx context.Context, filter bson.M) (*domain.Purchase, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.Purchase
	if err := r.col.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPurchaseNotFound
		}
		return nil, err
	}
	return &p, nil
}

func listFilter(f ports.ListPurchasesFilter) bson.M {
	filter := bson.M{}
	if f.BaseID != "" {
		filter["base_id"] = f.BaseID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.EquipmentType != "" {
		filter["equipment_type"] = f.EquipmentType
	}
	if f.Search != "" {
		rx := primitiveRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"order_number": rx},
			bson.M{"supplier": rx},
		}
	}
	created := bson.M{}
	if !f.DateFrom.IsZero() {
		created["$gte"] = f.DateFrom.UTC()
	}
	if !f.DateTo.IsZero() {
		created["$lte"] = f.DateTo.UTC()
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

// primitiveRegex builds a case-insensitive substring match for user input.
func primitiveRegex(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
