package reconciliation

import (
	"context"
	"fmt"
	"time"

	"wayfarer/pkg/config"
	"wayfarer/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Reconciliation"
)

// Repository is the outbox for bookings that succeeded on the provider
// but failed to persist locally. Writes here must succeed when the
// primary write did not, so it deliberately has no coupling to the
// booking transaction.
type Repository interface {
	Create(ctx context.Context, record *model.ReconciliationRecord) error
	FindUnresolved(ctx context.Context, limit int, offset int64) ([]*model.ReconciliationRecord, error)
	CountUnresolved(ctx context.Context) (int64, error)
	MarkResolved(ctx context.Context, id string) error
}

type mongoRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRepository(cfg *config.Config) Repository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoRepository) Create(ctx context.Context, record *model.ReconciliationRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create reconciliation record: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRepository) FindUnresolved(ctx context.Context, limit int, offset int64) ([]*model.ReconciliationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"resolved": false}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find reconciliation records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.ReconciliationRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode reconciliation records: %w", err)
	}

	return records, nil
}

func (r *mongoRepository) CountUnresolved(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"resolved": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count reconciliation records: %w", err)
	}
	return count, nil
}

func (r *mongoRepository) MarkResolved(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid reconciliation record ID: %s", id)
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"resolved": true}})
	if err != nil {
		return fmt.Errorf("failed to resolve reconciliation record: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reconciliation record not found: %s", id)
	}
	return nil
}
