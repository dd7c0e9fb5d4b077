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

const bmiCollectionName = "bmi_samples"

// mongoBMIRepository implements the repository.BMIRepository interface using MongoDB.
type mongoBMIRepository struct {
	collection *mongo.Collection
}

// NewMongoBMIRepository creates a new instance of mongoBMIRepository.
func NewMongoBMIRepository(db *mongo.Database) repository.BMIRepository {
	return &mongoBMIRepository{
		collection: db.Collection(bmiCollectionName),
	}
}

// Insert appends a new BMI sample. Samples are never updated in place.
func (r *mongoBMIRepository) Insert(ctx context.Context, sample *domain.BMISample) (primitive.ObjectID, error) {
	if sample.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("sample user ID is required")
	}

	sample.ID = primitive.NewObjectID()
	if sample.RecordedAt.IsZero() {
		sample.RecordedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, sample)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

// GetLatestByUser returns the most recently recorded sample for a user.
func (r *mongoBMIRepository) GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*domain.BMISample, error) {
	var sample domain.BMISample
	opts := options.FindOne().SetSort(bson.D{{Key: "recordedAt", Value: -1}})

	err := r.collection.FindOne(ctx, bson.M{"userId": userID}, opts).Decode(&sample)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sample, nil
}

// ListByUser returns all samples for a user, newest first.
func (r *mongoBMIRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.BMISample, error) {
	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var samples []domain.BMISample
	if err = cursor.All(ctx, &samples); err != nil {
		return nil, err
	}
	if samples == nil {
		samples = []domain.BMISample{}
	}
	return samples, nil
}

// DeleteByUser removes the entire BMI history for a user.
func (r *mongoBMIRepository) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"userId": userID})
	return err
}

// EnsureBMIIndexes creates necessary indexes for the bmi_samples collection.
func EnsureBMIIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Latest-sample lookups and newest-first history listings.
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "recordedAt", Value: -1}},
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
