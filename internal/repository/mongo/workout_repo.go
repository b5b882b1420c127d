// internal/repository/mongo/workout_repo.go
package mongo

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new workout log repository backed by MongoDB.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// MergeSets upserts on the unique (userId, date, exerciseKey) index, so the
// "find then insert or append" decision is made by the database in one step.
func (r *mongoWorkoutRepository) MergeSets(ctx context.Context, record *domain.ExerciseRecord) (*domain.ExerciseRecord, error) {
	if record.UserID == "" || record.Date == "" || record.ExerciseKey == "" {
		return nil, errors.New("record requires userId, date and exerciseKey")
	}

	before, err := r.mergeSets(ctx, record)
	if mongo.IsDuplicateKeyError(err) {
		// Two upserts raced on the unique index; the loser now finds the winner's document.
		before, err = r.mergeSets(ctx, record)
	}
	return before, err
}

func (r *mongoWorkoutRepository) mergeSets(ctx context.Context, record *domain.ExerciseRecord) (*domain.ExerciseRecord, error) {
	newID := primitive.NewObjectID()
	now := time.Now().UTC()

	filter := bson.M{
		"userId":      record.UserID,
		"date":        record.Date,
		"exerciseKey": record.ExerciseKey,
	}
	update := bson.M{
		"$push": bson.M{"sets": bson.M{"$each": record.Sets}},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"_id":       newID,
			"exercise":  record.Exercise,
			"category":  record.Category,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var before domain.ExerciseRecord
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Upserted.
		record.ID = newID
		record.Version = 1
		record.CreatedAt = now
		record.UpdatedAt = now
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	record.ID = before.ID
	record.Exercise = before.Exercise
	record.Category = before.Category
	record.Sets = domain.MergeSets(before.Sets, record.Sets)
	record.Version = before.Version + 1
	record.CreatedAt = before.CreatedAt
	record.UpdatedAt = now
	return &before, nil
}

// GetByID retrieves a single record of the user by its ID.
func (r *mongoWorkoutRepository) GetByID(ctx context.Context, userID string, id primitive.ObjectID) (*domain.ExerciseRecord, error) {
	var record domain.ExerciseRecord
	filter := bson.M{"_id": id, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListByUser reads the user's whole log, oldest day first.
func (r *mongoWorkoutRepository) ListByUser(ctx context.Context, userID string) ([]domain.ExerciseRecord, error) {
	var records []domain.ExerciseRecord
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateSets replaces the set list, guarded by the record version.
func (r *mongoWorkoutRepository) UpdateSets(ctx context.Context, record *domain.ExerciseRecord) error {
	if record.ID == primitive.NilObjectID {
		return errors.New("record ID is required for update")
	}

	now := time.Now().UTC()
	filter := bson.M{"_id": record.ID, "userId": record.UserID, "version": record.Version}
	update := bson.M{
		"$set": bson.M{"sets": record.Sets, "updatedAt": now},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.missingOrConflict(ctx, record.UserID, record.ID)
	}
	record.Version++
	record.UpdatedAt = now
	return nil
}

// Delete removes a record, guarded by the record version.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, userID string, id primitive.ObjectID, version int64) error {
	filter := bson.M{"_id": id, "userId": userID, "version": version}

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return r.missingOrConflict(ctx, userID, id)
	}
	return nil
}

func (r *mongoWorkoutRepository) missingOrConflict(ctx context.Context, userID string, id primitive.ObjectID) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if count == 0 {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

// EnsureWorkoutIndexes creates necessary indexes. Call during startup.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// One record per user, day and normalized exercise name.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}, {Key: "exerciseKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("workout_day_exercise_unique"),
		},
		{
			// Progression lookups across days.
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "exerciseKey", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
