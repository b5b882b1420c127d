package service

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/gemini"
	"alcyxob/workout-log/internal/metrics"
	"alcyxob/workout-log/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusRecorded         = "Workout recorded"
	defaultRecentSetsLimit = 10
)

var ErrValidationFailed = errors.New("validation failed")

// WorkoutParser turns free text into raw model output.
type WorkoutParser interface {
	ParseWorkout(ctx context.Context, input string) (string, error)
}

// PruneOutcome says what a set deletion did to the log.
type PruneOutcome string

const (
	PruneSet    PruneOutcome = "set"    // one set removed, record kept
	PruneRecord PruneOutcome = "record" // last set removed along with its record
	PruneNoop   PruneOutcome = "noop"
)

type AddResult struct {
	Status  string                `json:"status"`
	Created bool                  `json:"created"`
	Record  domain.ExerciseRecord `json:"record"`
}

type PruneResult struct {
	Outcome PruneOutcome `json:"outcome"`
}

// session is the in-memory mirror of one user's log. mu is held across a
// store write and the mirror update that follows it.
type session struct {
	mu     sync.Mutex
	log    domain.WorkoutLog
	loaded bool
}

// WorkoutTracker records parsed workouts, keeps a per-user mirror of the
// stored log and derives the progression and recent-set views from it.
type WorkoutTracker struct {
	repo        repository.WorkoutRepository
	parser      WorkoutParser
	metrics     *metrics.Manager
	recentLimit int
	now         func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewWorkoutTracker(repo repository.WorkoutRepository, parser WorkoutParser, m *metrics.Manager, recentLimit int) *WorkoutTracker {
	if recentLimit <= 0 {
		recentLimit = defaultRecentSetsLimit
	}
	return &WorkoutTracker{
		repo:        repo,
		parser:      parser,
		metrics:     m,
		recentLimit: recentLimit,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}
}

func (t *WorkoutTracker) session(userID string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[userID]
	if !ok {
		s = &session{}
		t.sessions[userID] = s
	}
	return s
}

// load rebuilds the mirror from the store. Caller holds s.mu.
func (t *WorkoutTracker) load(ctx context.Context, userID string, s *session) error {
	records, err := t.repo.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load workout log: %w", err)
	}
	s.log = domain.BuildWorkoutLog(records)
	s.loaded = true
	return nil
}

func (t *WorkoutTracker) ensureLoaded(ctx context.Context, userID string, s *session) error {
	if s.loaded {
		return nil
	}
	return t.load(ctx, userID, s)
}

// LoadLog replaces the user's mirror with the stored log.
func (t *WorkoutTracker) LoadLog(ctx context.Context, userID string) error {
	s := t.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return t.load(ctx, userID, s)
}

// Log returns a copy of the user's mirror, reloading it first when refresh is set.
func (t *WorkoutTracker) Log(ctx context.Context, userID string, refresh bool) (domain.WorkoutLog, error) {
	s := t.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if refresh {
		if err := t.load(ctx, userID, s); err != nil {
			return nil, err
		}
	} else if err := t.ensureLoaded(ctx, userID, s); err != nil {
		return nil, err
	}
	return s.log.Clone(), nil
}

// AddExercise parses text with the generation service and records the result on day.
// Parse failures come back as errors wrapping gemini.ErrTransport,
// gemini.ErrEmptyOutput or gemini.ErrMalformedResponse, or as a *gemini.RejectionError.
func (t *WorkoutTracker) AddExercise(ctx context.Context, userID string, day domain.Day, text string) (*AddResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: workout text is empty", ErrValidationFailed)
	}

	start := time.Now()
	raw, err := t.parser.ParseWorkout(ctx, text)
	t.metrics.HistGeminiDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := "transport"
		if errors.Is(err, gemini.ErrEmptyOutput) {
			kind = "decode"
		}
		t.metrics.CounterParseFailures.WithLabelValues(kind).Inc()
		log.WithError(err).WithField("user", userID).Warn("workout text could not be parsed")
		return nil, err
	}

	parsed, err := gemini.Decode(raw)
	if err != nil {
		var rejection *gemini.RejectionError
		if errors.As(err, &rejection) {
			t.metrics.CounterParseFailures.WithLabelValues("rejected").Inc()
			log.WithField("user", userID).WithField("reason", rejection.Reason).Info("workout text rejected by model")
		} else {
			t.metrics.CounterParseFailures.WithLabelValues("decode").Inc()
			log.WithError(err).WithField("user", userID).Warn("model output could not be decoded")
		}
		return nil, err
	}

	return t.Record(ctx, userID, day, parsed, t.now())
}

// Record writes parsed to the user's log for day, merging with an existing
// record of the same exercise. Every set is stamped with now.
func (t *WorkoutTracker) Record(ctx context.Context, userID string, day domain.Day, parsed *gemini.ParsedExercise, now time.Time) (*AddResult, error) {
	if parsed == nil || len(parsed.Sets) == 0 {
		return nil, fmt.Errorf("%w: exercise has no sets", ErrValidationFailed)
	}
	name := strings.Join(strings.Fields(parsed.Exercise), " ")
	if name == "" {
		return nil, fmt.Errorf("%w: exercise name is empty", ErrValidationFailed)
	}
	if _, err := domain.ParseDay(string(day)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidationFailed, err.Error())
	}

	// the store keeps milliseconds; stamps must survive a round trip unchanged
	stamp := now.UTC().Truncate(time.Millisecond)
	sets := make([]domain.Set, len(parsed.Sets))
	for i, ps := range parsed.Sets {
		sets[i] = domain.Set{Reps: ps.Reps, Weight: ps.Weight, Timestamp: stamp}
	}

	category := parsed.Category
	if category == "" {
		category = domain.CategoryOther
	}
	record := &domain.ExerciseRecord{
		UserID:      userID,
		Exercise:    name,
		ExerciseKey: domain.NormalizeExerciseName(name),
		Category:    category,
		Date:        day,
		Sets:        sets,
	}

	s := t.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := t.ensureLoaded(ctx, userID, s); err != nil {
		return nil, err
	}

	before, err := t.repo.MergeSets(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("record exercise: %w", err)
	}

	created := before == nil
	s.log.Put(*record)

	outcome := "merged"
	if created {
		outcome = "created"
	}
	t.metrics.CounterExercisesRecorded.WithLabelValues(outcome).Inc()
	log.WithFields(log.Fields{
		"user":     userID,
		"day":      day,
		"exercise": record.Exercise,
		"sets":     len(sets),
		"outcome":  outcome,
	}).Info("exercise recorded")

	return &AddResult{Status: StatusRecorded, Created: created, Record: record.Clone()}, nil
}

// DeleteSet removes the first set of record recordID whose timestamp equals ts,
// and the record itself once it has no sets left. Unknown records and
// timestamps are a no-op. A concurrent change to the record returns
// repository.ErrConflict.
func (t *WorkoutTracker) DeleteSet(ctx context.Context, userID, recordID string, ts time.Time) (*PruneResult, error) {
	noop := &PruneResult{Outcome: PruneNoop}

	id, err := primitive.ObjectIDFromHex(recordID)
	if err != nil {
		t.metrics.CounterSetsPruned.WithLabelValues(string(PruneNoop)).Inc()
		return noop, nil
	}

	s := t.session(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := t.ensureLoaded(ctx, userID, s); err != nil {
		return nil, err
	}

	record, err := t.repo.GetByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		t.metrics.CounterSetsPruned.WithLabelValues(string(PruneNoop)).Inc()
		return noop, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}

	remaining, ok := domain.RemoveFirstSet(record.Sets, ts)
	if !ok {
		t.metrics.CounterSetsPruned.WithLabelValues(string(PruneNoop)).Inc()
		return noop, nil
	}

	result := &PruneResult{Outcome: PruneSet}
	if len(remaining) > 0 {
		record.Sets = remaining
		err = t.repo.UpdateSets(ctx, record)
	} else {
		result.Outcome = PruneRecord
		err = t.repo.Delete(ctx, userID, record.ID, record.Version)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		// deleted by a concurrent request
		s.log.RemoveRecord(id)
		t.metrics.CounterSetsPruned.WithLabelValues(string(PruneNoop)).Inc()
		return noop, nil
	case err != nil:
		log.WithError(err).WithField("record", recordID).Warn("set deletion failed")
		return nil, err
	}

	if result.Outcome == PruneRecord {
		s.log.RemoveRecord(id)
	} else {
		s.log.Put(*record)
	}
	t.metrics.CounterSetsPruned.WithLabelValues(string(result.Outcome)).Inc()
	log.WithFields(log.Fields{
		"user":    userID,
		"record":  recordID,
		"outcome": result.Outcome,
	}).Info("set deleted")

	return result, nil
}

// Progression returns the per-day load summary of exercise.
func (t *WorkoutTracker) Progression(ctx context.Context, userID, exercise string) ([]domain.ProgressPoint, error) {
	if strings.TrimSpace(exercise) == "" {
		return nil, fmt.Errorf("%w: exercise is required", ErrValidationFailed)
	}
	wl, err := t.Log(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	return domain.Progression(wl, exercise), nil
}

// Exercises lists the distinct exercises of the user's log.
func (t *WorkoutTracker) Exercises(ctx context.Context, userID string) ([]string, error) {
	wl, err := t.Log(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	return wl.Exercises(), nil
}

// RecentSets returns up to limit sets, newest first. A non-positive limit
// uses the configured default.
func (t *WorkoutTracker) RecentSets(ctx context.Context, userID string, limit int) ([]domain.RecentSet, error) {
	if limit <= 0 {
		limit = t.recentLimit
	}
	wl, err := t.Log(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	return domain.RecentSets(wl, limit), nil
}
