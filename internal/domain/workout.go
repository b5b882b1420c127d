// internal/domain/workout.go
package domain

import (
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayLayout is the representation of a calendar day in storage and on the wire.
const DayLayout = "2006-01-02"

// Day is a calendar day in the caller's local timezone, e.g. "2024-06-01".
type Day string

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// ParseDay validates s as a YYYY-MM-DD calendar day.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", errors.New("day must be formatted as YYYY-MM-DD")
	}
	return Day(s), nil
}

// Set is one block of repetitions at a given weight.
type Set struct {
	Reps      int       `bson:"reps" json:"reps"`
	Weight    float64   `bson:"weight" json:"weight"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Volume is reps × weight.
func (s Set) Volume() float64 {
	return float64(s.Reps) * s.Weight
}

// ExerciseRecord aggregates every set of one exercise on one day for one user.
// (UserID, Date, ExerciseKey) is unique.
type ExerciseRecord struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"-"`
	Exercise    string             `bson:"exercise" json:"exercise"` // display name, original casing
	ExerciseKey string             `bson:"exerciseKey" json:"-"`     // NormalizeExerciseName(Exercise)
	Category    string             `bson:"category" json:"category"`
	Date        Day                `bson:"date" json:"date"`
	Sets        []Set              `bson:"sets" json:"sets"`
	Version     int64              `bson:"version" json:"-"` // bumped on every write, used for optimistic updates
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Clone returns a copy that shares no set storage with r.
func (r ExerciseRecord) Clone() ExerciseRecord {
	r.Sets = append([]Set(nil), r.Sets...)
	return r
}

// MergeSets returns existing followed by incoming, in order, without aliasing either slice.
func MergeSets(existing, incoming []Set) []Set {
	merged := make([]Set, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)
	return append(merged, incoming...)
}

// RemoveFirstSet drops the first set whose timestamp equals ts.
// Timestamps can collide inside one batch, so only one set is ever removed.
func RemoveFirstSet(sets []Set, ts time.Time) ([]Set, bool) {
	for i, s := range sets {
		if s.Timestamp.Equal(ts) {
			out := make([]Set, 0, len(sets)-1)
			out = append(out, sets[:i]...)
			return append(out, sets[i+1:]...), true
		}
	}
	return sets, false
}

// WorkoutLog maps a calendar day to the exercise records of that day.
type WorkoutLog map[Day][]ExerciseRecord

// BuildWorkoutLog groups records by day.
func BuildWorkoutLog(records []ExerciseRecord) WorkoutLog {
	log := make(WorkoutLog)
	for _, r := range records {
		log[r.Date] = append(log[r.Date], r.Clone())
	}
	return log
}

// Clone deep-copies the log.
func (l WorkoutLog) Clone() WorkoutLog {
	out := make(WorkoutLog, len(l))
	for day, records := range l {
		copied := make([]ExerciseRecord, len(records))
		for i, r := range records {
			copied[i] = r.Clone()
		}
		out[day] = copied
	}
	return out
}

// Days returns the days of the log in ascending order.
func (l WorkoutLog) Days() []Day {
	days := make([]Day, 0, len(l))
	for day := range l {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

// Find locates the record of exercise on day by normalized name.
func (l WorkoutLog) Find(day Day, exercise string) (*ExerciseRecord, bool) {
	key := NormalizeExerciseName(exercise)
	records := l[day]
	for i := range records {
		if NormalizeExerciseName(records[i].Exercise) == key {
			return &records[i], true
		}
	}
	return nil, false
}

// FindByID locates a record by its store identifier.
func (l WorkoutLog) FindByID(id primitive.ObjectID) (*ExerciseRecord, bool) {
	for day := range l {
		records := l[day]
		for i := range records {
			if records[i].ID == id {
				return &records[i], true
			}
		}
	}
	return nil, false
}

// Put replaces the set list of the matching record of rec's day, or appends rec
// when that day has no record of the exercise yet.
func (l WorkoutLog) Put(rec ExerciseRecord) {
	if existing, ok := l.Find(rec.Date, rec.Exercise); ok {
		existing.Sets = append([]Set(nil), rec.Sets...)
		if !rec.ID.IsZero() {
			existing.ID = rec.ID
		}
		existing.Version = rec.Version
		existing.UpdatedAt = rec.UpdatedAt
		return
	}
	l[rec.Date] = append(l[rec.Date], rec.Clone())
}

// RemoveRecord drops the record with the given id, and its day once empty.
func (l WorkoutLog) RemoveRecord(id primitive.ObjectID) bool {
	for day, records := range l {
		for i := range records {
			if records[i].ID != id {
				continue
			}
			remaining := append(records[:i:i], records[i+1:]...)
			if len(remaining) == 0 {
				delete(l, day)
			} else {
				l[day] = remaining
			}
			return true
		}
	}
	return false
}

// RemoveSet removes the first set of record id with timestamp ts, dropping the
// record when it has no sets left. It reports whether a set was removed and
// whether the whole record went with it.
func (l WorkoutLog) RemoveSet(id primitive.ObjectID, ts time.Time) (removed, recordRemoved bool) {
	rec, ok := l.FindByID(id)
	if !ok {
		return false, false
	}
	sets, ok := RemoveFirstSet(rec.Sets, ts)
	if !ok {
		return false, false
	}
	if len(sets) == 0 {
		l.RemoveRecord(id)
		return true, true
	}
	rec.Sets = sets
	return true, false
}

// Exercises lists the distinct exercises of the log, one display name per
// normalized name, sorted by normalized name.
func (l WorkoutLog) Exercises() []string {
	seen := make(map[string]string)
	for _, day := range l.Days() {
		for _, r := range l[day] {
			key := NormalizeExerciseName(r.Exercise)
			if _, ok := seen[key]; !ok {
				seen[key] = r.Exercise
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = seen[k]
	}
	return names
}
