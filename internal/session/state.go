// ABOUTME: Active session state: the roster of exercise groups and their working sets.
// ABOUTME: State values are deep-copied before they leave the engine.
package session

import (
	"github.com/harperreed/lift/internal/models"
)

// Phase is the engine's observable lifecycle state.
type Phase string

const (
	Idle   Phase = "idle"
	Active Phase = "active"
)

// ActiveSet is one working-set placeholder in the active roster.
type ActiveSet struct {
	SetNumber int            `json:"set_number"`
	Weight    *float64       `json:"weight,omitempty"`
	Reps      *int           `json:"reps,omitempty"`
	RPE       *float64       `json:"rpe,omitempty"`
	RIR       *int           `json:"rir,omitempty"`
	SetType   models.SetType `json:"set_type"`
	Completed bool           `json:"completed"`
}

// Volume is weight x reps with missing values contributing zero.
func (s ActiveSet) Volume() float64 {
	return models.SetVolume(s.Weight, s.Reps)
}

func (s ActiveSet) clone() ActiveSet {
	out := s
	out.Weight = copyPtr(s.Weight)
	out.Reps = copyPtr(s.Reps)
	out.RPE = copyPtr(s.RPE)
	out.RIR = copyPtr(s.RIR)
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ExerciseGroup is one template exercise and its sets for this session.
type ExerciseGroup struct {
	Entry models.TemplateExercise `json:"entry"`
	Sets  []ActiveSet             `json:"sets"`
}

// State is a full, self-contained view of the engine.
type State struct {
	Phase        Phase                  `json:"phase"`
	Session      *models.WorkoutSession `json:"session,omitempty"`
	Exercises    []ExerciseGroup        `json:"exercises"`
	CurrentIndex int                    `json:"current_index"`
	// History holds up to ten recent set logs per exercise id, newest
	// session first, for auto-fill. It is not checkpointed.
	History map[string][]models.SetLog `json:"-"`
}

// Current returns the group at CurrentIndex, or nil when the roster is empty.
func (s State) Current() *ExerciseGroup {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Exercises) {
		return nil
	}
	return &s.Exercises[s.CurrentIndex]
}

// CompletedSets counts completed sets across the roster.
func (s State) CompletedSets() int {
	n := 0
	for _, g := range s.Exercises {
		for _, set := range g.Sets {
			if set.Completed {
				n++
			}
		}
	}
	return n
}

// Volume sums weight x reps over completed sets.
func (s State) Volume() float64 {
	var v float64
	for _, g := range s.Exercises {
		for _, set := range g.Sets {
			if set.Completed {
				v += set.Volume()
			}
		}
	}
	return v
}

func (s State) clone() State {
	out := State{
		Phase:        s.Phase,
		CurrentIndex: s.CurrentIndex,
	}
	if s.Session != nil {
		sess := *s.Session
		out.Session = &sess
	}
	if s.Exercises != nil {
		out.Exercises = make([]ExerciseGroup, len(s.Exercises))
		for i, g := range s.Exercises {
			entry := g.Entry
			if entry.Notes != nil {
				notes := *entry.Notes
				entry.Notes = &notes
			}
			sets := make([]ActiveSet, len(g.Sets))
			for j, set := range g.Sets {
				sets[j] = set.clone()
			}
			out.Exercises[i] = ExerciseGroup{Entry: entry, Sets: sets}
		}
	}
	if s.History != nil {
		out.History = make(map[string][]models.SetLog, len(s.History))
		for k, v := range s.History {
			out.History[k] = append([]models.SetLog(nil), v...)
		}
	}
	return out
}

// placeholders builds n uncompleted sets numbered 1..n.
func placeholders(n int, setType models.SetType) []ActiveSet {
	sets := make([]ActiveSet, n)
	for i := range sets {
		sets[i] = ActiveSet{SetNumber: i + 1, SetType: setType}
	}
	return sets
}
