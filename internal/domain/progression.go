package domain

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressPoint summarizes one day of one exercise for the progression chart.
type ProgressPoint struct {
	Day         Day     `json:"day"`
	TotalVolume float64 `json:"totalVolume"` // sum of reps × weight
	TotalReps   int     `json:"totalReps"`
	AverageLoad float64 `json:"averageLoad"` // TotalVolume / TotalReps, 0 without reps
	MaxLoad     float64 `json:"maxLoad"`
}

// Progression computes one ProgressPoint per day containing the exercise,
// matched by normalized name. It is recomputed from the whole log on every call.
// Rows come back sorted by day.
func Progression(log WorkoutLog, exercise string) []ProgressPoint {
	key := NormalizeExerciseName(exercise)
	points := make([]ProgressPoint, 0)

	for day, records := range log {
		found := false
		point := ProgressPoint{Day: day}
		for _, r := range records {
			if NormalizeExerciseName(r.Exercise) != key {
				continue
			}
			found = true
			for _, s := range r.Sets {
				point.TotalVolume += s.Volume()
				point.TotalReps += s.Reps
				if s.Weight > point.MaxLoad {
					point.MaxLoad = s.Weight
				}
			}
		}
		if !found {
			continue
		}
		if point.TotalReps > 0 {
			point.AverageLoad = point.TotalVolume / float64(point.TotalReps)
		}
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Day < points[j].Day })
	return points
}

// RecentSet is a set together with the record it belongs to.
type RecentSet struct {
	RecordID primitive.ObjectID `json:"recordId"`
	Exercise string             `json:"exercise"`
	Category string             `json:"category"`
	Day      Day                `json:"day"`
	Set
}

// RecentSets flattens the log newest first. limit <= 0 returns every set.
func RecentSets(log WorkoutLog, limit int) []RecentSet {
	var all []RecentSet
	for day, records := range log {
		for _, r := range records {
			for _, s := range r.Sets {
				all = append(all, RecentSet{
					RecordID: r.ID,
					Exercise: r.Exercise,
					Category: r.Category,
					Day:      day,
					Set:      s,
				})
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.After(all[j].Timestamp)
		}
		return all[i].Day > all[j].Day
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	if all == nil {
		all = []RecentSet{}
	}
	return all
}
