package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	accountserrors "wayfarer/internal/accounts/errors"
	"wayfarer/pkg/config"
	mongotx "wayfarer/pkg/db/mongo"
	"wayfarer/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Users"
)

type mongoUserRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type UserRepository interface {
	Create(ctx context.Context, user *model.UserCredential) error
	FindByID(ctx context.Context, id string) (*model.UserCredential, error)
	FindByEmail(ctx context.Context, email string) (*model.UserCredential, error)
	IncrementFailedAttempts(ctx context.Context, id string) (int, error)
	LockUntil(ctx context.Context, id string, until time.Time) error
	ResetAttempts(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, upd *model.ProfileUpdate) (*model.UserCredential, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoUserRepository(cfg *config.Config) UserRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoUserRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless already inside a
// transaction, where wrapping the SessionContext would break session
// semantics.
func (r *mongoUserRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
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

func (r *mongoUserRepository) Create(ctx context.Context, user *model.UserCredential) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	user.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return accountserrors.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id string) (*model.UserCredential, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", accountserrors.ErrInvalidID, id)
	}

	var user model.UserCredential
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accountserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return &user, nil
}

func (r *mongoUserRepository) FindByEmail(ctx context.Context, email string) (*model.UserCredential, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var user model.UserCredential
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accountserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return &user, nil
}

// IncrementFailedAttempts bumps the counter atomically and returns the
// post-increment value, so concurrent failures each observe a distinct
// count.
func (r *mongoUserRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", accountserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{"$inc": bson.M{"failed_login_attempts": 1}}

	var updated model.UserCredential
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, accountserrors.ErrNotFound
		}
		return 0, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	return updated.FailedLoginAttempts, nil
}

func (r *mongoUserRepository) LockUntil(ctx context.Context, id string, until time.Time) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", accountserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{"$set": bson.M{"account_locked_until": until}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}
	if result.MatchedCount == 0 {
		return accountserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) ResetAttempts(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", accountserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set":   bson.M{"failed_login_attempts": 0},
		"$unset": bson.M{"account_locked_until": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reset failed attempts: %w", err)
	}
	if result.MatchedCount == 0 {
		return accountserrors.ErrNotFound
	}
	return nil
}

// UpdatePassword swaps the stored hash and clears any lockout state in
// the same write, so a reset account starts from a clean window.
func (r *mongoUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", accountserrors.ErrInvalidID, id)
	}

	filter := bson.M{"_id": objectID}
	update := bson.M{
		"$set": bson.M{
			"password_hash":         passwordHash,
			"failed_login_attempts": 0,
		},
		"$unset": bson.M{"account_locked_until": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return accountserrors.ErrNotFound
	}
	return nil
}

func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id string, upd *model.ProfileUpdate) (*model.UserCredential, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", accountserrors.ErrInvalidID, id)
	}

	fields := bson.M{}
	if upd.FirstName != nil {
		fields["first_name"] = *upd.FirstName
	}
	if upd.LastName != nil {
		fields["last_name"] = *upd.LastName
	}
	if upd.Phone != nil {
		fields["phone"] = *upd.Phone
	}
	if len(fields) == 0 {
		// Nothing to set; an empty $set is a server error in Mongo.
		return r.FindByID(ctx, id)
	}

	filter := bson.M{"_id": objectID}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user model.UserCredential
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": fields}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, accountserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

func (r *mongoUserRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
