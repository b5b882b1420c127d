package repository

import (
	"alcyxob/workout-log/internal/domain"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
	// ErrConflict means the document changed since it was read.
	ErrConflict = RepositoryError("concurrent modification")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository stores anonymous identities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Touch(ctx context.Context, id string) error // bumps LastSeenAt
}

// WorkoutRepository is the keyed document collection of exercise records.
// Every method is scoped to one user.
type WorkoutRepository interface {
	// MergeSets appends record.Sets to the stored record with the same
	// (UserID, Date, ExerciseKey), creating it with record's identity fields
	// when absent, as one atomic write. It returns the document as it was
	// before the write, or nil when the record was created, and leaves record
	// holding the stored state after the write.
	MergeSets(ctx context.Context, record *domain.ExerciseRecord) (*domain.ExerciseRecord, error)
	GetByID(ctx context.Context, userID string, id primitive.ObjectID) (*domain.ExerciseRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.ExerciseRecord, error)
	// UpdateSets replaces the set list if the stored version still equals
	// record.Version, returning ErrConflict otherwise. record.Version is bumped.
	UpdateSets(ctx context.Context, record *domain.ExerciseRecord) error
	// Delete removes the record if the stored version still equals version.
	Delete(ctx context.Context, userID string, id primitive.ObjectID, version int64) error
}
