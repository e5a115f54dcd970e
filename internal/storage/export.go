// ABOUTME: Export and import functionality for training data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats over any Store.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/lift/internal/models"
	"gopkg.in/yaml.v3"
)

// ExportData represents the full export format for training data.
type ExportData struct {
	Version           string                    `json:"version" yaml:"version"`
	ExportedAt        time.Time                 `json:"exported_at" yaml:"exported_at"`
	Tool              string                    `json:"tool" yaml:"tool"`
	Programs          []models.Program          `json:"programs" yaml:"programs"`
	Templates         []models.WorkoutTemplate  `json:"templates" yaml:"templates"`
	Exercises         []models.Exercise         `json:"exercises" yaml:"exercises"`
	TemplateExercises []models.TemplateExercise `json:"template_exercises" yaml:"template_exercises"`
	Sessions          []models.WorkoutSession   `json:"sessions" yaml:"sessions"`
	SetLogs           []models.SetLog           `json:"set_logs" yaml:"set_logs"`
	BodyMeasurements  []models.BodyMeasurement  `json:"body_measurements" yaml:"body_measurements"`
	Biofeedback       []models.BiofeedbackLog   `json:"biofeedback" yaml:"biofeedback"`
}

// Export reads every synced table. Catalog exercises are included so an
// import on a fresh device resolves every reference.
func Export(ctx context.Context, ops Ops) (*ExportData, error) {
	data := &ExportData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
		Tool:       "lift",
	}
	var err error
	if data.Programs, err = QueryAs[models.Program](ctx, ops, TablePrograms, Query{}.Asc("created_at")); err != nil {
		return nil, fmt.Errorf("export programs: %w", err)
	}
	if data.Templates, err = QueryAs[models.WorkoutTemplate](ctx, ops, TableWorkoutTemplates, Query{}.Asc("program_id").Asc("order_index")); err != nil {
		return nil, fmt.Errorf("export templates: %w", err)
	}
	if data.Exercises, err = QueryAs[models.Exercise](ctx, ops, TableExercises, Query{}.Asc("name")); err != nil {
		return nil, fmt.Errorf("export exercises: %w", err)
	}
	if data.TemplateExercises, err = QueryAs[models.TemplateExercise](ctx, ops, TableTemplateExercises, Query{}.Asc("template_id").Asc("order_index")); err != nil {
		return nil, fmt.Errorf("export template exercises: %w", err)
	}
	if data.Sessions, err = QueryAs[models.WorkoutSession](ctx, ops, TableWorkoutSessions, Query{}.Asc("started_at")); err != nil {
		return nil, fmt.Errorf("export sessions: %w", err)
	}
	if data.SetLogs, err = QueryAs[models.SetLog](ctx, ops, TableSetLogs, Query{}.Asc("session_id").Asc("exercise_id").Asc("set_number")); err != nil {
		return nil, fmt.Errorf("export set logs: %w", err)
	}
	if data.BodyMeasurements, err = QueryAs[models.BodyMeasurement](ctx, ops, TableBodyMeasurements, Query{}.Asc("date")); err != nil {
		return nil, fmt.Errorf("export body measurements: %w", err)
	}
	if data.Biofeedback, err = QueryAs[models.BiofeedbackLog](ctx, ops, TableBiofeedbackLogs, Query{}.Asc("date")); err != nil {
		return nil, fmt.Errorf("export biofeedback: %w", err)
	}
	return data, nil
}

// Import restores an export in one transaction. Existing records with the
// same ids are replaced. Imported rows are treated as already synced and
// are not added to the outbox.
func Import(ctx context.Context, s Store, data *ExportData) error {
	return s.Update(ctx, func(tx Ops) error {
		batches := []struct {
			table string
			recs  []Record
		}{
			{TablePrograms, Records(data.Programs)},
			{TableWorkoutTemplates, Records(data.Templates)},
			{TableExercises, Records(data.Exercises)},
			{TableTemplateExercises, Records(data.TemplateExercises)},
			{TableWorkoutSessions, Records(data.Sessions)},
			{TableSetLogs, Records(data.SetLogs)},
			{TableBodyMeasurements, Records(data.BodyMeasurements)},
			{TableBiofeedbackLogs, Records(data.Biofeedback)},
		}
		for _, b := range batches {
			if err := tx.BulkPut(ctx, b.table, b.recs); err != nil {
				return fmt.Errorf("import %s: %w", b.table, err)
			}
		}
		return nil
	})
}

// ExportJSON exports all data as JSON.
func ExportJSON(ctx context.Context, ops Ops) ([]byte, error) {
	data, err := Export(ctx, ops)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func ExportYAML(ctx context.Context, ops Ops) ([]byte, error) {
	data, err := Export(ctx, ops)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ImportJSON imports data from JSON bytes.
func ImportJSON(ctx context.Context, s Store, raw []byte) error {
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return Import(ctx, s, &data)
}

// ImportYAML imports data from YAML bytes.
func ImportYAML(ctx context.Context, s Store, raw []byte) error {
	var data ExportData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("unmarshal YAML: %w", err)
	}
	return Import(ctx, s, &data)
}

// ExportMarkdown renders the training log as a Markdown table per session.
func ExportMarkdown(ctx context.Context, ops Ops) (string, error) {
	data, err := Export(ctx, ops)
	if err != nil {
		return "", err
	}

	names := make(map[string]string, len(data.Exercises))
	for _, e := range data.Exercises {
		names[e.ID] = e.Name
	}
	logsBySession := make(map[string][]models.SetLog)
	for _, l := range data.SetLogs {
		logsBySession[l.SessionID] = append(logsBySession[l.SessionID], l)
	}

	var sb strings.Builder
	now := time.Now()
	sb.WriteString(fmt.Sprintf("# Training Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	for _, s := range data.Sessions {
		if !s.IsFinished() {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s (volume %.0f kg)\n\n", s.StartedAt.Format("2006-01-02 15:04"), s.Volume()))
		sb.WriteString("| Exercise | Set | Weight | Reps | RPE |\n")
		sb.WriteString("|----------|-----|--------|------|-----|\n")
		for _, l := range logsBySession[s.ID] {
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				names[l.ExerciseID], l.SetNumber,
				formatFloat(l.Weight), formatInt(l.Reps), formatFloat(l.RPE)))
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func formatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}
