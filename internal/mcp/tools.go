// ABOUTME: MCP tool implementations for lift.
// ABOUTME: Exposes program planning, exercise search, the active session and stats.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/lift/internal/analytics"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/session"
	"github.com/harperreed/lift/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// defaultSearchLimit caps search_exercises when no limit is given.
const defaultSearchLimit = 20

func (s *Server) registerTools() {
	// programs
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_programs",
		Description: "List training programs and which one is active",
	}, s.handleListPrograms)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_program",
		Description: "Create a training program, optionally making it the active one",
	}, s.handleCreateProgram)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "activate_program",
		Description: "Make a program the single active program",
	}, s.handleActivateProgram)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_templates",
		Description: "List the workout templates of a program with their exercises",
	}, s.handleListTemplates)

	// exercises
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "search_exercises",
		Description: "Search the exercise catalog by name, muscle group or equipment",
	}, s.handleSearchExercises)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "similar_exercises",
		Description: "Find substitutes sharing a movement pattern or muscle group",
	}, s.handleSimilarExercises)

	// session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_session",
		Description: "Start a workout session from a template",
	}, s.handleStartSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "log_set",
		Description: "Enter weight, reps or intensity on an uncompleted set of the active session",
	}, s.handleLogSet)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "complete_set",
		Description: "Mark a set complete and start the rest timer",
	}, s.handleCompleteSet)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "finish_session",
		Description: "Finish the active session and record its completed sets",
	}, s.handleFinishSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "abandon_session",
		Description: "Discard the active session without recording anything",
	}, s.handleAbandonSession)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "session_status",
		Description: "Show the active session with every exercise and set",
	}, s.handleSessionStatus)

	// stats
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_stats",
		Description: "Weekly totals, volume trend, muscle frequency, recovery and body weight",
	}, s.handleGetStats)
}

// Input and output types

type emptyInput struct{}

type programsOutput struct {
	Programs []models.Program `json:"programs"`
	ActiveID string           `json:"active_id,omitempty"`
	Message  string           `json:"message"`
}

type createProgramInput struct {
	Name        string `json:"name" jsonschema:"Program name"`
	Description string `json:"description,omitempty" jsonschema:"Optional description"`
	Activate    bool   `json:"activate,omitempty" jsonschema:"Make the new program active"`
}

type programOutput struct {
	Program models.Program `json:"program"`
	Message string         `json:"message"`
}

type programIDInput struct {
	ID string `json:"id" jsonschema:"Program ID"`
}

type listTemplatesInput struct {
	ProgramID string `json:"program_id,omitempty" jsonschema:"Program ID; defaults to the active program"`
}

type templateView struct {
	Template  models.WorkoutTemplate `json:"template"`
	Exercises []templateExerciseView `json:"exercises"`
}

type templateExerciseView struct {
	Entry models.TemplateExercise `json:"entry"`
	Name  string                  `json:"name"`
}

type templatesOutput struct {
	ProgramID string         `json:"program_id"`
	Templates []templateView `json:"templates"`
}

type searchExercisesInput struct {
	Query        string   `json:"query,omitempty" jsonschema:"Substring of the name or a muscle tag"`
	MuscleGroups []string `json:"muscle_groups,omitempty" jsonschema:"Match any of these muscle groups"`
	Equipment    string   `json:"equipment,omitempty" jsonschema:"Exact equipment, ignoring case"`
	Limit        int      `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type exercisesOutput struct {
	Exercises []models.Exercise `json:"exercises"`
	Total     int               `json:"total"`
}

type exerciseIDInput struct {
	ID string `json:"id" jsonschema:"Exercise ID"`
}

type startSessionInput struct {
	TemplateID string `json:"template_id" jsonschema:"Workout template ID"`
}

type setInput struct {
	Exercise int      `json:"exercise" jsonschema:"Exercise number in the session, starting at 1"`
	Set      int      `json:"set" jsonschema:"Set number within the exercise, starting at 1"`
	Weight   *float64 `json:"weight,omitempty" jsonschema:"Weight in kg"`
	Reps     *int     `json:"reps,omitempty" jsonschema:"Repetitions"`
	RPE      *float64 `json:"rpe,omitempty" jsonschema:"Rate of perceived exertion, 0 to 10"`
	RIR      *int     `json:"rir,omitempty" jsonschema:"Reps in reserve"`
	SetType  string   `json:"set_type,omitempty" jsonschema:"normal, warmup, dropset, restpause or cluster"`
}

func (in setInput) patch() session.SetPatch {
	p := session.SetPatch{Weight: in.Weight, Reps: in.Reps, RPE: in.RPE, RIR: in.RIR}
	if in.SetType != "" {
		st := models.SetType(in.SetType)
		p.SetType = &st
	}
	return p
}

func (in setInput) empty() bool {
	return in.Weight == nil && in.Reps == nil && in.RPE == nil && in.RIR == nil && in.SetType == ""
}

type finishOutput struct {
	Session models.WorkoutSession `json:"session"`
	Message string                `json:"message"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// rejected turns an engine refusal into a tool error.
func rejected(op string, r session.Rejected) error {
	if r == session.Applied {
		return nil
	}
	return fmt.Errorf("%s: %s", op, r)
}

// Tool handlers

func (s *Server) handleListPrograms(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, programsOutput, error) {
	programs, err := s.catalog.ListPrograms(ctx, s.owner)
	if err != nil {
		return nil, programsOutput{}, fmt.Errorf("failed to list programs: %w", err)
	}
	out := programsOutput{Programs: programs}
	for _, p := range programs {
		if p.IsActive {
			out.ActiveID = p.ID
		}
	}
	if len(programs) == 0 {
		out.Message = "No programs yet."
	} else {
		out.Message = fmt.Sprintf("%d program(s)", len(programs))
	}
	return nil, out, nil
}

func (s *Server) handleCreateProgram(ctx context.Context, req *mcp.CallToolRequest, input createProgramInput) (*mcp.CallToolResult, programOutput, error) {
	p, err := s.catalog.CreateProgram(ctx, s.owner, input.Name, input.Description)
	if err != nil {
		return nil, programOutput{}, fmt.Errorf("failed to create program: %w", err)
	}
	if input.Activate {
		if p, err = s.catalog.ActivateProgram(ctx, s.owner, p.ID); err != nil {
			return nil, programOutput{}, fmt.Errorf("failed to activate program: %w", err)
		}
	}
	return nil, programOutput{
		Program: *p,
		Message: fmt.Sprintf("Created program %s (ID: %s)", p.Name, models.ShortID(p.ID)),
	}, nil
}

func (s *Server) handleActivateProgram(ctx context.Context, req *mcp.CallToolRequest, input programIDInput) (*mcp.CallToolResult, programOutput, error) {
	p, err := s.catalog.ActivateProgram(ctx, s.owner, input.ID)
	if err != nil {
		return nil, programOutput{}, fmt.Errorf("failed to activate program: %w", err)
	}
	return nil, programOutput{
		Program: *p,
		Message: fmt.Sprintf("Active program: %s", p.Name),
	}, nil
}

func (s *Server) handleListTemplates(ctx context.Context, req *mcp.CallToolRequest, input listTemplatesInput) (*mcp.CallToolResult, templatesOutput, error) {
	programID := input.ProgramID
	if programID == "" {
		active, err := s.catalog.ActiveProgram(ctx, s.owner)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, templatesOutput{}, fmt.Errorf("no active program; pass program_id")
		}
		if err != nil {
			return nil, templatesOutput{}, fmt.Errorf("failed to load active program: %w", err)
		}
		programID = active.ID
	}

	templates, err := s.catalog.ListTemplates(ctx, programID)
	if err != nil {
		return nil, templatesOutput{}, fmt.Errorf("failed to list templates: %w", err)
	}
	exercises, err := s.catalog.ExercisesByID(ctx)
	if err != nil {
		return nil, templatesOutput{}, fmt.Errorf("failed to load exercises: %w", err)
	}

	out := templatesOutput{ProgramID: programID, Templates: make([]templateView, 0, len(templates))}
	for _, t := range templates {
		entries, err := s.catalog.ListTemplateExercises(ctx, t.ID)
		if err != nil {
			return nil, templatesOutput{}, fmt.Errorf("failed to list template exercises: %w", err)
		}
		view := templateView{Template: t, Exercises: make([]templateExerciseView, 0, len(entries))}
		for _, te := range entries {
			view.Exercises = append(view.Exercises, templateExerciseView{
				Entry: te,
				Name:  exercises[te.ExerciseID].Name,
			})
		}
		out.Templates = append(out.Templates, view)
	}
	return nil, out, nil
}

func (s *Server) handleSearchExercises(ctx context.Context, req *mcp.CallToolRequest, input searchExercisesInput) (*mcp.CallToolResult, exercisesOutput, error) {
	if input.Limit <= 0 {
		input.Limit = defaultSearchLimit
	}
	found, err := s.catalog.FilterExercises(ctx, catalog.ExerciseFilter{
		Query:        input.Query,
		MuscleGroups: input.MuscleGroups,
		Equipment:    input.Equipment,
	})
	if err != nil {
		return nil, exercisesOutput{}, fmt.Errorf("failed to search exercises: %w", err)
	}
	out := exercisesOutput{Total: len(found), Exercises: found}
	if len(found) > input.Limit {
		out.Exercises = found[:input.Limit]
	}
	return nil, out, nil
}

func (s *Server) handleSimilarExercises(ctx context.Context, req *mcp.CallToolRequest, input exerciseIDInput) (*mcp.CallToolResult, exercisesOutput, error) {
	similar, err := s.catalog.GetSimilarExercises(ctx, input.ID)
	if err != nil {
		return nil, exercisesOutput{}, fmt.Errorf("failed to find similar exercises: %w", err)
	}
	return nil, exercisesOutput{Exercises: similar, Total: len(similar)}, nil
}

func (s *Server) handleStartSession(ctx context.Context, req *mcp.CallToolRequest, input startSessionInput) (*mcp.CallToolResult, sessionView, error) {
	if _, err := s.catalog.GetTemplate(ctx, input.TemplateID); err != nil {
		return nil, sessionView{}, fmt.Errorf("failed to load template: %w", err)
	}
	entries, err := s.catalog.ListTemplateExercises(ctx, input.TemplateID)
	if err != nil {
		return nil, sessionView{}, fmt.Errorf("failed to load template exercises: %w", err)
	}
	r, err := s.engine.Start(ctx, s.owner, input.TemplateID, entries)
	if err != nil {
		return nil, sessionView{}, fmt.Errorf("failed to start session: %w", err)
	}
	if err := rejected("start session", r); err != nil {
		return nil, sessionView{}, err
	}
	return s.status(ctx)
}

func (s *Server) handleLogSet(ctx context.Context, req *mcp.CallToolRequest, input setInput) (*mcp.CallToolResult, sessionView, error) {
	if input.empty() {
		return nil, sessionView{}, fmt.Errorf("nothing to log: pass weight, reps, rpe, rir or set_type")
	}
	r, err := s.engine.UpdateSet(ctx, input.Exercise-1, input.Set-1, input.patch())
	if err != nil {
		return nil, sessionView{}, fmt.Errorf("failed to log set: %w", err)
	}
	if err := rejected("log set", r); err != nil {
		return nil, sessionView{}, err
	}
	return s.status(ctx)
}

func (s *Server) handleCompleteSet(ctx context.Context, req *mcp.CallToolRequest, input setInput) (*mcp.CallToolResult, sessionView, error) {
	exIdx, setIdx := input.Exercise-1, input.Set-1
	if !input.empty() {
		r, err := s.engine.UpdateSet(ctx, exIdx, setIdx, input.patch())
		if err != nil {
			return nil, sessionView{}, fmt.Errorf("failed to log set: %w", err)
		}
		if err := rejected("log set", r); err != nil {
			return nil, sessionView{}, err
		}
	}
	r, err := s.engine.CompleteSet(ctx, exIdx, setIdx)
	if err != nil {
		return nil, sessionView{}, fmt.Errorf("failed to complete set: %w", err)
	}
	if err := rejected("complete set", r); err != nil {
		return nil, sessionView{}, err
	}
	return s.status(ctx)
}

func (s *Server) handleFinishSession(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, finishOutput, error) {
	sess, r, err := s.engine.Finish(ctx)
	if err != nil {
		return nil, finishOutput{}, fmt.Errorf("failed to finish session: %w", err)
	}
	if err := rejected("finish session", r); err != nil {
		return nil, finishOutput{}, err
	}
	return nil, finishOutput{
		Session: *sess,
		Message: fmt.Sprintf("Finished session %s: volume %.0f kg", models.ShortID(sess.ID), sess.Volume()),
	}, nil
}

func (s *Server) handleAbandonSession(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, simpleOutput, error) {
	r, err := s.engine.Abandon(ctx)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to abandon session: %w", err)
	}
	if err := rejected("abandon session", r); err != nil {
		return nil, simpleOutput{}, err
	}
	return nil, simpleOutput{Message: "Session abandoned."}, nil
}

func (s *Server) handleSessionStatus(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, sessionView, error) {
	return s.status(ctx)
}

func (s *Server) handleGetStats(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, analytics.Report, error) {
	report, err := s.agg.Report(ctx, s.owner, s.now())
	if err != nil {
		return nil, analytics.Report{}, fmt.Errorf("failed to compute stats: %w", err)
	}
	return nil, *report, nil
}

// status wraps sessionStatus for tool handlers.
func (s *Server) status(ctx context.Context) (*mcp.CallToolResult, sessionView, error) {
	view, err := s.sessionStatus(ctx)
	if err != nil {
		return nil, sessionView{}, err
	}
	return nil, view, nil
}
