package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	tripserrors "wayfarer/internal/trips/errors"
	"wayfarer/pkg/config"
	mongotx "wayfarer/pkg/db/mongo"
	"wayfarer/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	TripCollectionName    = "Trips"
	ExpenseCollectionName = "Expenses"
)

type mongoTripRepository struct {
	cfg       *config.Config
	db        *mongo.Database
	trips     *mongo.Collection
	expenses  *mongo.Collection
	txManager mongotx.TransactionManager
}

type TripRepository interface {
	CreateTrip(ctx context.Context, trip *model.Trip) error
	FindTripByID(ctx context.Context, userID, tripID string) (*model.Trip, error)
	FindTrips(ctx context.Context, userID string, limit int, offset int64) ([]*model.Trip, error)
	CountTrips(ctx context.Context, userID string) (int64, error)
	DeleteTrip(ctx context.Context, userID, tripID string) error
	CreateExpense(ctx context.Context, expense *model.Expense) error
	FindExpensesByTrip(ctx context.Context, userID, tripID string) ([]*model.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoTripRepository(cfg *config.Config) TripRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTripRepository{
		cfg:       cfg,
		db:        db,
		trips:     db.Collection(TripCollectionName),
		expenses:  db.Collection(ExpenseCollectionName),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoTripRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoTripRepository) CreateTrip(ctx context.Context, trip *model.Trip) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	trip.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.trips.InsertOne(ctx, trip)
	if err != nil {
		return fmt.Errorf("failed to create trip: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		trip.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTripRepository) FindTripByID(ctx context.Context, userID, tripID string) (*model.Trip, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return nil, tripserrors.ErrInvalidID
	}

	var trip model.Trip
	err = r.trips.FindOne(ctx, bson.M{"_id": oid, "user_id": userID}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, tripserrors.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to find trip: %w", err)
	}

	return &trip, nil
}

func (r *mongoTripRepository) FindTrips(ctx context.Context, userID string, limit int, offset int64) ([]*model.Trip, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.trips.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find trips: %w", err)
	}
	defer cursor.Close(ctx)

	var trips []*model.Trip
	if err = cursor.All(ctx, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}

	return trips, nil
}

func (r *mongoTripRepository) CountTrips(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.trips.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count trips: %w", err)
	}
	return count, nil
}

// DeleteTrip removes the trip and its expenses together.
func (r *mongoTripRepository) DeleteTrip(ctx context.Context, userID, tripID string) error {
	oid, err := primitive.ObjectIDFromHex(tripID)
	if err != nil {
		return tripserrors.ErrInvalidID
	}

	return r.txManager.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		result, err := r.trips.DeleteOne(sessCtx, bson.M{"_id": oid, "user_id": userID})
		if err != nil {
			return fmt.Errorf("failed to delete trip: %w", err)
		}
		if result.DeletedCount == 0 {
			return tripserrors.ErrTripNotFound
		}

		if _, err := r.expenses.DeleteMany(sessCtx, bson.M{"trip_id": tripID, "user_id": userID}); err != nil {
			return fmt.Errorf("failed to delete trip expenses: %w", err)
		}
		return nil
	})
}

func (r *mongoTripRepository) CreateExpense(ctx context.Context, expense *model.Expense) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	expense.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.expenses.InsertOne(ctx, expense)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		expense.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTripRepository) FindExpensesByTrip(ctx context.Context, userID, tripID string) ([]*model.Expense, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.expenses.Find(ctx, bson.M{"trip_id": tripID, "user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var expenses []*model.Expense
	if err = cursor.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}

	return expenses, nil
}

func (r *mongoTripRepository) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	oid, err := primitive.ObjectIDFromHex(expenseID)
	if err != nil {
		return tripserrors.ErrInvalidID
	}

	result, err := r.expenses.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if result.DeletedCount == 0 {
		return tripserrors.ErrExpenseNotFound
	}
	return nil
}

func (r *mongoTripRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
