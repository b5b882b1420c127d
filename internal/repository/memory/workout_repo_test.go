package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/repository"
	"alcyxob/workout-log/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRecord(user, exercise string, day domain.Day, sets ...domain.Set) *domain.ExerciseRecord {
	return &domain.ExerciseRecord{
		UserID:      user,
		Exercise:    exercise,
		ExerciseKey: domain.NormalizeExerciseName(exercise),
		Category:    "Peito",
		Date:        day,
		Sets:        sets,
	}
}

func TestWorkoutRepository_MergeSets(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewWorkoutRepository()
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	first := newRecord("u1", "Supino Reto", "2024-06-01", domain.Set{Reps: 10, Weight: 25, Timestamp: ts})
	before, err := repo.MergeSets(ctx, first)
	require.NoError(t, err)
	assert.Nil(t, before)
	assert.False(t, first.ID.IsZero())
	assert.Equal(t, int64(1), first.Version)

	second := newRecord("u1", "SUPINO RETO", "2024-06-01", domain.Set{Reps: 8, Weight: 25, Timestamp: ts})
	before, err = repo.MergeSets(ctx, second)
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Len(t, before.Sets, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Supino Reto", second.Exercise)
	assert.Equal(t, int64(2), second.Version)
	require.Len(t, second.Sets, 2)
	assert.Equal(t, 10, second.Sets[0].Reps)
	assert.Equal(t, 8, second.Sets[1].Reps)

	// other user, other day: separate records
	_, err = repo.MergeSets(ctx, newRecord("u2", "Supino Reto", "2024-06-01", domain.Set{Reps: 1, Weight: 1}))
	require.NoError(t, err)
	_, err = repo.MergeSets(ctx, newRecord("u1", "Supino Reto", "2024-06-02", domain.Set{Reps: 1, Weight: 1}))
	require.NoError(t, err)

	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, domain.Day("2024-06-01"), all[0].Date)
	assert.Equal(t, domain.Day("2024-06-02"), all[1].Date)

	_, err = repo.GetByID(ctx, "u2", first.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestWorkoutRepository_OptimisticWrites(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewWorkoutRepository()

	rec := newRecord("u1", "Stiff", "2024-06-01", domain.Set{Reps: 10, Weight: 40}, domain.Set{Reps: 8, Weight: 40})
	_, err := repo.MergeSets(ctx, rec)
	require.NoError(t, err)

	stale := rec.Clone()
	rec.Sets = rec.Sets[:1]
	require.NoError(t, repo.UpdateSets(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	stale.Sets = nil
	assert.True(t, errors.Is(repo.UpdateSets(ctx, &stale), repository.ErrConflict))
	assert.True(t, errors.Is(repo.Delete(ctx, "u1", rec.ID, 1), repository.ErrConflict))

	require.NoError(t, repo.Delete(ctx, "u1", rec.ID, rec.Version))
	assert.True(t, errors.Is(repo.Delete(ctx, "u1", rec.ID, rec.Version), repository.ErrNotFound))

	// the unique slot is free again
	again := newRecord("u1", "Stiff", "2024-06-01", domain.Set{Reps: 5, Weight: 50})
	before, err := repo.MergeSets(ctx, again)
	require.NoError(t, err)
	assert.Nil(t, before)
	assert.NotEqual(t, rec.ID, again.ID)

	_, err = repo.GetByID(ctx, "u1", primitive.NewObjectID())
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}
