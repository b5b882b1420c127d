package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/gemini"
	"alcyxob/workout-log/internal/metrics"
	"alcyxob/workout-log/internal/repository"
	"alcyxob/workout-log/internal/repository/memory"
	"alcyxob/workout-log/internal/service"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeParser struct {
	mu     sync.Mutex
	output string
	err    error
	calls  []string
}

func (p *fakeParser) ParseWorkout(_ context.Context, input string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, input)
	return p.output, p.err
}

func newTracker(t *testing.T, parser service.WorkoutParser) (*service.WorkoutTracker, *memory.WorkoutRepository, *metrics.Manager) {
	t.Helper()
	repo := memory.NewWorkoutRepository()
	m := metrics.NewTestManager()
	return service.NewWorkoutTracker(repo, parser, m, 10), repo, m
}

const day = domain.Day("2024-06-01")

func TestWorkoutTracker_AddExercise_CreateThenMerge(t *testing.T) {
	ctx := context.Background()
	parser := &fakeParser{output: `{"exercise":"Supino Reto","sets":[{"reps":10,"weight":25},{"reps":6,"weight":25}],"category":"Peito"}`}
	tracker, repo, m := newTracker(t, parser)

	res, err := tracker.AddExercise(ctx, "u1", day, "Supino Reto 10x25 6x25")
	require.NoError(t, err)
	assert.Equal(t, service.StatusRecorded, res.Status)
	assert.True(t, res.Created)
	assert.Len(t, res.Record.Sets, 2)
	assert.Equal(t, []string{"Supino Reto 10x25 6x25"}, parser.calls)

	parser.output = `{"exercise":"supino  reto","sets":[{"reps":8,"weight":30}],"category":"Peito"}`
	res, err = tracker.AddExercise(ctx, "u1", day, "supino reto 8x30")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "Supino Reto", res.Record.Exercise)
	require.Len(t, res.Record.Sets, 3)
	assert.Equal(t, 8, res.Record.Sets[2].Reps)

	stored, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Len(t, stored[0].Sets, 3)

	wl, err := tracker.Log(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, wl[day], 1)
	assert.Len(t, wl[day][0].Sets, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterExercisesRecorded.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterExercisesRecorded.WithLabelValues("merged")))
}

func TestWorkoutTracker_AddExercise_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input", func(t *testing.T) {
		parser := &fakeParser{}
		tracker, _, _ := newTracker(t, parser)
		_, err := tracker.AddExercise(ctx, "u1", day, "   ")
		assert.ErrorIs(t, err, service.ErrValidationFailed)
		assert.Empty(t, parser.calls)
	})

	t.Run("transport", func(t *testing.T) {
		parser := &fakeParser{err: fmt.Errorf("%w: 503 Service Unavailable", gemini.ErrTransport)}
		tracker, repo, m := newTracker(t, parser)
		_, err := tracker.AddExercise(ctx, "u1", day, "Supino 10x25")
		assert.ErrorIs(t, err, gemini.ErrTransport)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterParseFailures.WithLabelValues("transport")))
		records, _ := repo.ListByUser(ctx, "u1")
		assert.Empty(t, records)
	})

	t.Run("rejected", func(t *testing.T) {
		parser := &fakeParser{output: `{"error":"Não encontrei séries no texto."}`}
		tracker, repo, m := newTracker(t, parser)
		_, err := tracker.AddExercise(ctx, "u1", day, "fiz treino hoje")
		var rejection *gemini.RejectionError
		require.True(t, errors.As(err, &rejection))
		assert.Equal(t, "Não encontrei séries no texto.", rejection.Reason)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterParseFailures.WithLabelValues("rejected")))
		records, _ := repo.ListByUser(ctx, "u1")
		assert.Empty(t, records)
	})

	t.Run("malformed", func(t *testing.T) {
		parser := &fakeParser{output: `Sure! Here is your workout.`}
		tracker, _, m := newTracker(t, parser)
		_, err := tracker.AddExercise(ctx, "u1", day, "Supino 10x25")
		assert.ErrorIs(t, err, gemini.ErrMalformedResponse)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterParseFailures.WithLabelValues("decode")))
	})
}

func TestWorkoutTracker_Record_StampsSets(t *testing.T) {
	ctx := context.Background()
	tracker, _, _ := newTracker(t, &fakeParser{})
	now := time.Date(2024, 6, 1, 18, 30, 15, 123456789, time.FixedZone("BRT", -3*3600))

	res, err := tracker.Record(ctx, "u1", day, &gemini.ParsedExercise{
		Exercise: "  Rosca   Direta ",
		Sets:     []gemini.ParsedSet{{Reps: 12, Weight: 14}, {Reps: 10, Weight: 16}},
	}, now)
	require.NoError(t, err)

	assert.Equal(t, "Rosca Direta", res.Record.Exercise)
	assert.Equal(t, domain.CategoryOther, res.Record.Category)
	want := now.UTC().Truncate(time.Millisecond)
	for _, s := range res.Record.Sets {
		assert.True(t, s.Timestamp.Equal(want))
		assert.Equal(t, 0, s.Timestamp.Nanosecond()%int(time.Millisecond))
	}

	_, err = tracker.Record(ctx, "u1", "01/06/2024", &gemini.ParsedExercise{
		Exercise: "Rosca Direta",
		Sets:     []gemini.ParsedSet{{Reps: 1, Weight: 1}},
	}, now)
	assert.ErrorIs(t, err, service.ErrValidationFailed)

	_, err = tracker.Record(ctx, "u1", day, &gemini.ParsedExercise{Exercise: "Rosca Direta"}, now)
	assert.ErrorIs(t, err, service.ErrValidationFailed)
}

func TestWorkoutTracker_LoadLog(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewWorkoutRepository()
	first := service.NewWorkoutTracker(repo, &fakeParser{}, metrics.NewTestManager(), 10)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	_, err := first.Record(ctx, "u1", day, &gemini.ParsedExercise{Exercise: "Stiff", Sets: []gemini.ParsedSet{{Reps: 10, Weight: 40}}}, now)
	require.NoError(t, err)
	_, err = first.Record(ctx, "u1", "2024-06-03", &gemini.ParsedExercise{Exercise: "Stiff", Sets: []gemini.ParsedSet{{Reps: 10, Weight: 45}}}, now)
	require.NoError(t, err)

	// a new process starts from the store
	second := service.NewWorkoutTracker(repo, &fakeParser{}, metrics.NewTestManager(), 10)
	require.NoError(t, second.LoadLog(ctx, "u1"))
	wl, err := second.Log(ctx, "u1", false)
	require.NoError(t, err)
	assert.Equal(t, []domain.Day{"2024-06-01", "2024-06-03"}, wl.Days())

	// the copy handed out does not alias the mirror
	wl[day][0].Sets = nil
	again, err := second.Log(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, again[day][0].Sets, 1)

	_, err = first.Record(ctx, "u1", "2024-06-05", &gemini.ParsedExercise{Exercise: "Stiff", Sets: []gemini.ParsedSet{{Reps: 8, Weight: 50}}}, now)
	require.NoError(t, err)
	stale, err := second.Log(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, stale, 2)
	fresh, err := second.Log(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)

	points, err := second.Progression(ctx, "u1", "STIFF")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, 50.0, points[2].MaxLoad)

	names, err := second.Exercises(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Stiff"}, names)

	recent, err := second.RecentSets(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, domain.Day("2024-06-05"), recent[0].Day)
}

func TestWorkoutTracker_DeleteSet(t *testing.T) {
	ctx := context.Background()
	tracker, repo, m := newTracker(t, &fakeParser{})
	t1 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(5 * time.Minute)

	res, err := tracker.Record(ctx, "u1", day, &gemini.ParsedExercise{
		Exercise: "Agachamento Livre",
		Sets:     []gemini.ParsedSet{{Reps: 10, Weight: 60}, {Reps: 10, Weight: 60}},
	}, t1)
	require.NoError(t, err)
	_, err = tracker.Record(ctx, "u1", day, &gemini.ParsedExercise{
		Exercise: "Agachamento Livre",
		Sets:     []gemini.ParsedSet{{Reps: 8, Weight: 70}},
	}, t2)
	require.NoError(t, err)
	id := res.Record.ID.Hex()

	// two sets share t1: only one goes
	pr, err := tracker.DeleteSet(ctx, "u1", id, t1)
	require.NoError(t, err)
	assert.Equal(t, service.PruneSet, pr.Outcome)
	rec, err := repo.GetByID(ctx, "u1", res.Record.ID)
	require.NoError(t, err)
	require.Len(t, rec.Sets, 2)
	assert.Equal(t, 10, rec.Sets[0].Reps)
	assert.Equal(t, 8, rec.Sets[1].Reps)

	for _, tc := range []struct {
		name   string
		userID string
		id     string
		ts     time.Time
	}{
		{"unknown timestamp", "u1", id, t1.Add(time.Hour)},
		{"malformed id", "u1", "not-an-id", t1},
		{"unknown id", "u1", primitive.NewObjectID().Hex(), t1},
		{"other user", "u2", id, t1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pr, err := tracker.DeleteSet(ctx, tc.userID, tc.id, tc.ts)
			require.NoError(t, err)
			assert.Equal(t, service.PruneNoop, pr.Outcome)
		})
	}

	pr, err = tracker.DeleteSet(ctx, "u1", id, t1)
	require.NoError(t, err)
	assert.Equal(t, service.PruneSet, pr.Outcome)
	pr, err = tracker.DeleteSet(ctx, "u1", id, t2)
	require.NoError(t, err)
	assert.Equal(t, service.PruneRecord, pr.Outcome)

	_, err = repo.GetByID(ctx, "u1", res.Record.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	wl, err := tracker.Log(ctx, "u1", false)
	require.NoError(t, err)
	assert.Empty(t, wl)
	recent, err := tracker.RecentSets(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Empty(t, recent)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterSetsPruned.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSetsPruned.WithLabelValues("record")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.CounterSetsPruned.WithLabelValues("noop")))
}

// racingRepo appends a set behind the tracker's back between its read and its write.
type racingRepo struct {
	*memory.WorkoutRepository
}

func (r racingRepo) GetByID(ctx context.Context, userID string, id primitive.ObjectID) (*domain.ExerciseRecord, error) {
	rec, err := r.WorkoutRepository.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	other := rec.Clone()
	other.ID = primitive.NilObjectID
	other.Sets = []domain.Set{{Reps: 1, Weight: 1, Timestamp: time.Now().UTC()}}
	if _, err := r.WorkoutRepository.MergeSets(ctx, &other); err != nil {
		return nil, err
	}
	return rec, nil
}

func TestWorkoutTracker_DeleteSet_Conflict(t *testing.T) {
	ctx := context.Background()
	repo := racingRepo{memory.NewWorkoutRepository()}
	tracker := service.NewWorkoutTracker(repo, &fakeParser{}, metrics.NewTestManager(), 10)
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	res, err := tracker.Record(ctx, "u1", day, &gemini.ParsedExercise{
		Exercise: "Remada Curvada",
		Sets:     []gemini.ParsedSet{{Reps: 10, Weight: 50}, {Reps: 10, Weight: 50}},
	}, ts)
	require.NoError(t, err)

	_, err = tracker.DeleteSet(ctx, "u1", res.Record.ID.Hex(), ts)
	assert.ErrorIs(t, err, repository.ErrConflict)

	rec, err := repo.WorkoutRepository.GetByID(ctx, "u1", res.Record.ID)
	require.NoError(t, err)
	assert.Len(t, rec.Sets, 3)
}

func TestWorkoutTracker_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	parser := &fakeParser{output: `{"exercise":"Leg Press","sets":[{"reps":12,"weight":180}],"category":"Pernas"}`}
	tracker, repo, _ := newTracker(t, parser)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tracker.AddExercise(ctx, "u1", day, "Leg Press 12x180")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Sets, n)

	wl, err := tracker.Log(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, wl[day], 1)
	assert.Len(t, wl[day][0].Sets, n)
}
