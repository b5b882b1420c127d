package service

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/gemini"
	"alcyxob/workout-log/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrStorageDisabled = errors.New("snapshot storage is not configured")

// legacyEntry is one exercise as kept in the browser's local storage by the
// first version of the tracker.
type legacyEntry struct {
	Exercise string             `json:"exercise"`
	Category string             `json:"category"`
	Sets     []gemini.ParsedSet `json:"sets"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// BackupService moves whole logs in and out: legacy imports go through the
// tracker's reconciler, exports land in object storage.
type BackupService struct {
	tracker   *WorkoutTracker
	store     storage.FileStorage // nil when no bucket is configured
	urlExpiry time.Duration
}

func NewBackupService(tracker *WorkoutTracker, store storage.FileStorage) *BackupService {
	return &BackupService{
		tracker:   tracker,
		store:     store,
		urlExpiry: storage.DefaultPresignedURLExpiry,
	}
}

// Import replays a legacy {"YYYY-MM-DD": [{exercise, sets}]} log into the
// user's log, day by day in ascending order. It returns the number of
// exercise entries recorded. The payload is validated in full before
// anything is written, so a validation error leaves the log untouched. A
// store error mid-replay is not rolled back: the entries recorded before it
// stay written and their count is returned with the error.
func (b *BackupService) Import(ctx context.Context, userID string, payload []byte) (int, error) {
	var legacy map[string][]legacyEntry
	if err := json.Unmarshal(payload, &legacy); err != nil {
		return 0, fmt.Errorf("%w: invalid log JSON: %s", ErrValidationFailed, err.Error())
	}

	days := make([]string, 0, len(legacy))
	for day, entries := range legacy {
		if _, err := domain.ParseDay(day); err != nil {
			return 0, fmt.Errorf("%w: %q: %s", ErrValidationFailed, day, err.Error())
		}
		for i, e := range entries {
			if err := validateLegacyEntry(e); err != nil {
				return 0, fmt.Errorf("%w: %s entry %d: %s", ErrValidationFailed, day, i, err.Error())
			}
		}
		days = append(days, day)
	}
	sort.Strings(days)

	imported := 0
	now := time.Now()
	for _, day := range days {
		for _, e := range legacy[day] {
			parsed := &gemini.ParsedExercise{Exercise: e.Exercise, Category: e.Category, Sets: e.Sets}
			if parsed.Category == "" {
				if group, ok := domain.CategoryFor(e.Exercise); ok {
					parsed.Category = group
				}
			}
			if _, err := b.tracker.Record(ctx, userID, domain.Day(day), parsed, now); err != nil {
				return imported, fmt.Errorf("import %s %q: %w", day, e.Exercise, err)
			}
			imported++
		}
	}

	log.WithFields(log.Fields{"user": userID, "entries": imported, "days": len(days)}).Info("legacy log imported")
	return imported, nil
}

func validateLegacyEntry(e legacyEntry) error {
	if domain.NormalizeExerciseName(e.Exercise) == "" {
		return errors.New("exercise name is empty")
	}
	if len(e.Sets) == 0 {
		return errors.New("no sets")
	}
	for _, s := range e.Sets {
		if s.Reps <= 0 {
			return errors.New("reps must be positive")
		}
		if s.Weight < 0 {
			return errors.New("weight must not be negative")
		}
	}
	return nil
}

// Export writes the user's current log to object storage and returns a
// temporary download link.
func (b *BackupService) Export(ctx context.Context, userID string) (*ExportResult, error) {
	if b.store == nil {
		return nil, ErrStorageDisabled
	}

	wl, err := b.tracker.Log(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(wl)
	if err != nil {
		return nil, fmt.Errorf("marshal log: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID, time.Now().UTC().Format("20060102T150405.000Z"))
	if err := b.store.PutObject(ctx, key, "application/json", body); err != nil {
		return nil, fmt.Errorf("upload snapshot: %w", err)
	}
	url, err := b.store.GeneratePresignedDownloadURL(ctx, key, b.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign snapshot: %w", err)
	}

	log.WithFields(log.Fields{"user": userID, "key": key}).Info("log snapshot exported")
	return &ExportResult{Key: key, URL: url}, nil
}
