package mongo

import (
	"alcyxob/bmi-coach/internal/domain"
	"alcyxob/bmi-coach/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const passwordResetCollectionName = "password_resets"

// mongoPasswordResetRepository implements the repository.PasswordResetRepository
// interface using MongoDB.
type mongoPasswordResetRepository struct {
	collection *mongo.Collection
}

// NewMongoPasswordResetRepository creates a new instance of mongoPasswordResetRepository.
func NewMongoPasswordResetRepository(db *mongo.Database) repository.PasswordResetRepository {
	return &mongoPasswordResetRepository{
		collection: db.Collection(passwordResetCollectionName),
	}
}

// Create inserts a new reset token record.
func (r *mongoPasswordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) (primitive.ObjectID, error) {
	if reset.UserID == primitive.NilObjectID || reset.Token == "" {
		return primitive.NilObjectID, errors.New("reset user ID and token are required")
	}

	reset.ID = primitive.NewObjectID()
	if reset.CreatedAt.IsZero() {
		reset.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, reset)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetByToken retrieves a reset record by its token value.
func (r *mongoPasswordResetRepository) GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error) {
	var reset domain.PasswordReset
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&reset)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &reset, nil
}

// MarkUsed flags a reset token as redeemed so it cannot be replayed.
func (r *mongoPasswordResetRepository) MarkUsed(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"used": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePasswordResetIndexes creates necessary indexes for the password_resets
// collection, including a TTL index so expired tokens are reaped by MongoDB.
func EnsurePasswordResetIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
