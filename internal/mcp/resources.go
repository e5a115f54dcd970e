// ABOUTME: MCP resource implementations for lift.
// ABOUTME: Provides lift://session/active, lift://stats/weekly, and lift://outbox resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/analytics"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// lift://session/active - the in-progress session, if any
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "lift://session/active",
		Name:        "Active Session",
		Description: "The in-progress workout with every exercise and set",
		MIMEType:    "application/json",
	}, s.handleActiveSessionResource)

	// lift://stats/weekly - last seven days of finished sessions
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "lift://stats/weekly",
		Name:        "Weekly Stats",
		Description: "Session count and volume over the last seven days plus muscle recovery",
		MIMEType:    "application/json",
	}, s.handleWeeklyStatsResource)

	// lift://outbox - writes waiting to sync
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "lift://outbox",
		Name:        "Sync Outbox",
		Description: "Local writes not yet pushed to the sync backend",
		MIMEType:    "application/json",
	}, s.handleOutboxResource)
}

// sessionView is the host-facing rendering of the engine state.
type sessionView struct {
	Active          bool           `json:"active"`
	SessionID       string         `json:"session_id,omitempty"`
	TemplateID      string         `json:"template_id,omitempty"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	CurrentExercise int            `json:"current_exercise,omitempty"`
	CompletedSets   int            `json:"completed_sets"`
	Volume          float64        `json:"volume"`
	Exercises       []exerciseView `json:"exercises,omitempty"`
	Message         string         `json:"message"`
}

type exerciseView struct {
	Number      int                 `json:"number"`
	ExerciseID  string              `json:"exercise_id"`
	Name        string              `json:"name"`
	TargetReps  string              `json:"target_reps"`
	RestSeconds int                 `json:"rest_seconds"`
	Sets        []session.ActiveSet `json:"sets"`
}

type weeklyResource struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Weekly      analytics.WeeklyStats `json:"weekly"`
	Recovery    map[string]int        `json:"recovery"`
}

type outboxResource struct {
	Pending int            `json:"pending"`
	ByTable map[string]int `json:"by_table"`
	Oldest  *time.Time     `json:"oldest,omitempty"`
}

// sessionStatus renders the current engine snapshot with exercise names.
func (s *Server) sessionStatus(ctx context.Context) (sessionView, error) {
	st := s.engine.Snapshot()
	if st.Phase != session.Active || st.Session == nil {
		return sessionView{Message: "No active session."}, nil
	}

	exercises, err := s.catalog.ExercisesByID(ctx)
	if err != nil {
		return sessionView{}, fmt.Errorf("failed to load exercises: %w", err)
	}

	started := st.Session.StartedAt
	view := sessionView{
		Active:          true,
		SessionID:       st.Session.ID,
		StartedAt:       &started,
		CurrentExercise: st.CurrentIndex + 1,
		CompletedSets:   st.CompletedSets(),
		Volume:          st.Volume(),
		Exercises:       make([]exerciseView, 0, len(st.Exercises)),
	}
	if st.Session.TemplateID != nil {
		view.TemplateID = *st.Session.TemplateID
	}
	for i, g := range st.Exercises {
		view.Exercises = append(view.Exercises, exerciseView{
			Number:      i + 1,
			ExerciseID:  g.Entry.ExerciseID,
			Name:        exercises[g.Entry.ExerciseID].Name,
			TargetReps:  g.Entry.TargetReps,
			RestSeconds: g.Entry.RestSeconds,
			Sets:        g.Sets,
		})
	}
	view.Message = fmt.Sprintf("Session %s: %d set(s) done, volume %.0f kg",
		models.ShortID(st.Session.ID), view.CompletedSets, view.Volume)
	return view, nil
}

// Resource handlers

func (s *Server) handleActiveSessionResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	view, err := s.sessionStatus(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource("lift://session/active", view)
}

func (s *Server) handleWeeklyStatsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	report, err := s.agg.Report(ctx, s.owner, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return jsonResource("lift://stats/weekly", weeklyResource{
		GeneratedAt: report.GeneratedAt,
		Weekly:      report.Weekly,
		Recovery:    report.Recovery,
	})
}

func (s *Server) handleOutboxResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	pending, err := s.store.ListPendingMutations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox: %w", err)
	}
	out := outboxResource{Pending: len(pending), ByTable: make(map[string]int)}
	for _, m := range pending {
		out.ByTable[m.Table]++
	}
	if len(pending) > 0 {
		oldest := pending[0].CreatedAt
		out.Oldest = &oldest
	}
	return jsonResource("lift://outbox", out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}
