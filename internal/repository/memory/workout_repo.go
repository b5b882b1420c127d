// Package memory keeps repositories in process memory. It backs tests and
// the "memory" database driver for local runs.
package memory

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/repository"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutKey struct {
	userID      string
	date        domain.Day
	exerciseKey string
}

// WorkoutRepository implements repository.WorkoutRepository.
type WorkoutRepository struct {
	mu      sync.Mutex
	records map[primitive.ObjectID]domain.ExerciseRecord
	index   map[workoutKey]primitive.ObjectID
}

var _ repository.WorkoutRepository = (*WorkoutRepository)(nil)

func NewWorkoutRepository() *WorkoutRepository {
	return &WorkoutRepository{
		records: make(map[primitive.ObjectID]domain.ExerciseRecord),
		index:   make(map[workoutKey]primitive.ObjectID),
	}
}

func (r *WorkoutRepository) MergeSets(_ context.Context, record *domain.ExerciseRecord) (*domain.ExerciseRecord, error) {
	if record.UserID == "" || record.Date == "" || record.ExerciseKey == "" {
		return nil, errors.New("record requires userId, date and exerciseKey")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := workoutKey{record.UserID, record.Date, record.ExerciseKey}

	id, ok := r.index[key]
	if !ok {
		record.ID = primitive.NewObjectID()
		record.Version = 1
		record.CreatedAt = now
		record.UpdatedAt = now
		r.records[record.ID] = record.Clone()
		r.index[key] = record.ID
		return nil, nil
	}

	before := r.records[id].Clone()
	after := before.Clone()
	after.Sets = domain.MergeSets(before.Sets, record.Sets)
	after.Version++
	after.UpdatedAt = now
	r.records[id] = after

	*record = after.Clone()
	return &before, nil
}

func (r *WorkoutRepository) GetByID(_ context.Context, userID string, id primitive.ObjectID) (*domain.ExerciseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok || rec.UserID != userID {
		return nil, repository.ErrNotFound
	}
	out := rec.Clone()
	return &out, nil
}

func (r *WorkoutRepository) ListByUser(_ context.Context, userID string) ([]domain.ExerciseRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.ExerciseRecord
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *WorkoutRepository) UpdateSets(_ context.Context, record *domain.ExerciseRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.lookup(record.UserID, record.ID, record.Version)
	if err != nil {
		return err
	}
	stored.Sets = append([]domain.Set(nil), record.Sets...)
	stored.Version++
	stored.UpdatedAt = time.Now().UTC()
	r.records[stored.ID] = stored

	record.Version = stored.Version
	record.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *WorkoutRepository) Delete(_ context.Context, userID string, id primitive.ObjectID, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.lookup(userID, id, version)
	if err != nil {
		return err
	}
	delete(r.records, id)
	delete(r.index, workoutKey{stored.UserID, stored.Date, stored.ExerciseKey})
	return nil
}

func (r *WorkoutRepository) lookup(userID string, id primitive.ObjectID, version int64) (domain.ExerciseRecord, error) {
	stored, ok := r.records[id]
	if !ok || stored.UserID != userID {
		return domain.ExerciseRecord{}, repository.ErrNotFound
	}
	if stored.Version != version {
		return domain.ExerciseRecord{}, repository.ErrConflict
	}
	return stored, nil
}
