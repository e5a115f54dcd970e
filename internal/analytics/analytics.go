// ABOUTME: Pure read-side training statistics over sessions, set logs and exercises.
// ABOUTME: Weekly totals, volume series, muscle frequency, recovery intensity and weight trend.
package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/models"
)

const (
	// WeekWindow is the trailing span counted by Weekly.
	WeekWindow = 7 * 24 * time.Hour
	// MaxSeriesPoints caps VolumeSeries.
	MaxSeriesPoints = 10
	// MaxMuscles caps MuscleFrequency.
	MaxMuscles = 10
)

// WeeklyStats summarizes the trailing seven days.
type WeeklyStats struct {
	Sessions      int     `json:"sessions"`
	TotalVolume   float64 `json:"total_volume"`
	AverageVolume float64 `json:"average_volume"`
}

// Weekly counts sessions started within the week before now.
func Weekly(sessions []models.WorkoutSession, now time.Time) WeeklyStats {
	cutoff := now.Add(-WeekWindow)
	var st WeeklyStats
	for i := range sessions {
		if sessions[i].StartedAt.Before(cutoff) {
			continue
		}
		st.Sessions++
		st.TotalVolume += sessions[i].Volume()
	}
	if st.Sessions > 0 {
		st.AverageVolume = st.TotalVolume / float64(st.Sessions)
	}
	return st
}

// VolumePoint is one session in the volume series.
type VolumePoint struct {
	Label     string    `json:"label"`
	SessionID string    `json:"session_id"`
	Date      time.Time `json:"date"`
	Volume    float64   `json:"volume"`
}

// VolumeSeries returns the most recent sessions with a recorded volume,
// oldest to newest, labelled T1..Tn.
func VolumeSeries(sessions []models.WorkoutSession) []VolumePoint {
	withVolume := make([]models.WorkoutSession, 0, len(sessions))
	for _, s := range sessions {
		if s.TotalVolume != nil {
			withVolume = append(withVolume, s)
		}
	}
	sort.SliceStable(withVolume, func(i, j int) bool {
		return withVolume[i].StartedAt.After(withVolume[j].StartedAt)
	})
	if len(withVolume) > MaxSeriesPoints {
		withVolume = withVolume[:MaxSeriesPoints]
	}

	out := make([]VolumePoint, len(withVolume))
	for i := range withVolume {
		s := withVolume[len(withVolume)-1-i]
		out[i] = VolumePoint{
			Label:     fmt.Sprintf("T%d", i+1),
			SessionID: s.ID,
			Date:      s.StartedAt,
			Volume:    *s.TotalVolume,
		}
	}
	return out
}

// MuscleCount is how many set logs touched one muscle.
type MuscleCount struct {
	Muscle string `json:"muscle"`
	Count  int    `json:"count"`
}

// MuscleFrequency counts, per lower-cased muscle tag, the logs whose
// exercise carries it. Logs for unknown exercises are skipped. The top
// MaxMuscles are returned, highest count first and ties by name.
func MuscleFrequency(logs []models.SetLog, exercises map[string]models.Exercise) []MuscleCount {
	counts := make(map[string]int)
	for _, l := range logs {
		ex, ok := exercises[l.ExerciseID]
		if !ok {
			continue
		}
		for _, tag := range muscleTags(ex) {
			counts[tag]++
		}
	}

	out := make([]MuscleCount, 0, len(counts))
	for m, c := range counts {
		out = append(out, MuscleCount{Muscle: m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Muscle < out[j].Muscle
	})
	if len(out) > MaxMuscles {
		out = out[:MaxMuscles]
	}
	return out
}

// muscleTags returns the exercise's distinct lower-cased tags.
func muscleTags(ex models.Exercise) []string {
	seen := make(map[string]bool, len(ex.MuscleGroups))
	var out []string
	for _, mg := range ex.MuscleGroups {
		tag := strings.ToLower(strings.TrimSpace(mg))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// LastTrained maps each muscle to the start of the most recent session
// containing a log for an exercise that works it.
func LastTrained(logs []models.SetLog, sessions map[string]models.WorkoutSession, exercises map[string]models.Exercise) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, l := range logs {
		sess, ok := sessions[l.SessionID]
		if !ok {
			continue
		}
		ex, ok := exercises[l.ExerciseID]
		if !ok {
			continue
		}
		for _, tag := range muscleTags(ex) {
			if prev, seen := out[tag]; !seen || sess.StartedAt.After(prev) {
				out[tag] = sess.StartedAt
			}
		}
	}
	return out
}

// Intensity maps hours since training onto the 0-4 recovery scale.
func Intensity(hours float64) int {
	switch {
	case hours < 24:
		return 4
	case hours < 48:
		return 3
	case hours < 72:
		return 2
	case hours < 96:
		return 1
	default:
		return 0
	}
}

// Recovery returns the intensity for every trained muscle at now.
// Untrained muscles have no entry.
func Recovery(lastTrained map[string]time.Time, now time.Time) map[string]int {
	out := make(map[string]int, len(lastTrained))
	for muscle, at := range lastTrained {
		out[muscle] = Intensity(now.Sub(at).Hours())
	}
	return out
}

// WeightPoint is one body weight reading.
type WeightPoint struct {
	Date   time.Time `json:"date"`
	Weight float64   `json:"weight"`
}

// BodyWeightTrend returns weight readings oldest to newest, skipping
// measurements without a weight.
func BodyWeightTrend(measurements []models.BodyMeasurement) []WeightPoint {
	out := make([]WeightPoint, 0, len(measurements))
	for _, m := range measurements {
		if m.Weight == nil {
			continue
		}
		out = append(out, WeightPoint{Date: m.Date, Weight: *m.Weight})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
