package repository

import (
	"alcyxob/bmi-coach/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// BMIRepository defines the interface for interacting with BMI history data.
// Samples are append-only rows keyed by user.
type BMIRepository interface {
	Insert(ctx context.Context, sample *domain.BMISample) (primitive.ObjectID, error)
	GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*domain.BMISample, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.BMISample, error) // newest first
	DeleteByUser(ctx context.Context, userID primitive.ObjectID) error
}

// PlanRepository defines the interface for interacting with stored coach plans.
// Plans are append-only; the latest row by createdAt is the active plan.
type PlanRepository interface {
	Insert(ctx context.Context, plan *domain.CoachPlan) (primitive.ObjectID, error)
	GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*domain.CoachPlan, error)
}

// PasswordResetRepository defines the interface for reset token records.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) (primitive.ObjectID, error)
	GetByToken(ctx context.Context, token string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, id primitive.ObjectID) error
}
