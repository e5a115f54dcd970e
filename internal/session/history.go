// ABOUTME: Recent set-log lookup backing auto-fill suggestions.
// ABOUTME: Loaded in the background after start; failures only cost the suggestions.
package session

import (
	"context"

	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/storage"
)

// HistoryLimit caps the logs kept per exercise.
const HistoryLimit = 10

// RecentLogs returns up to HistoryLimit set logs for exerciseID, newest
// completion first and then by set number, skipping logs of excludeSession.
// Position i of the result lines up with set i+1 of the latest session.
func RecentLogs(ctx context.Context, ops storage.Ops, exerciseID, excludeSession string) ([]models.SetLog, error) {
	q := storage.Where(storage.Eq("exercise_id", exerciseID)).
		Desc("completed_at").
		Asc("set_number").
		Take(2 * HistoryLimit)
	logs, err := storage.QueryAs[models.SetLog](ctx, ops, storage.TableSetLogs, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.SetLog, 0, HistoryLimit)
	for _, l := range logs {
		if l.SessionID == excludeSession {
			continue
		}
		out = append(out, l)
		if len(out) == HistoryLimit {
			break
		}
	}
	return out, nil
}

func loadHistory(ctx context.Context, ops storage.Ops, st State) (map[string][]models.SetLog, error) {
	out := make(map[string][]models.SetLog)
	for _, g := range st.Exercises {
		id := g.Entry.ExerciseID
		if _, done := out[id]; done {
			continue
		}
		logs, err := RecentLogs(ctx, ops, id, st.Session.ID)
		if err != nil {
			return nil, err
		}
		out[id] = logs
	}
	return out, nil
}
