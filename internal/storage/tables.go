// ABOUTME: Table registry: every table the store knows and its indexed fields.
// ABOUTME: Both store implementations validate queries and compare values through this registry.
package storage

import (
	"fmt"
	"sort"
)

// Table names shared with the remote store.
const (
	TablePrograms          = "programs"
	TableWorkoutTemplates  = "workout_templates"
	TableExercises         = "exercises"
	TableTemplateExercises = "template_exercises"
	TableWorkoutSessions   = "workout_sessions"
	TableSetLogs           = "set_logs"
	TableBodyMeasurements  = "body_measurements"
	TableBiofeedbackLogs   = "biofeedback_logs"

	// TableActiveSession holds the local-only checkpoint of an in-progress session.
	TableActiveSession = "active_session"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindBool
	kindTime
)

type tableSpec struct {
	name   string
	fields map[string]fieldKind
	// synced tables are mirrored to the remote store through the outbox.
	synced bool
}

var tables = map[string]*tableSpec{
	TablePrograms: {
		name:   TablePrograms,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "user_id": kindText, "name": kindText,
			"is_active": kindBool, "created_at": kindTime,
		},
	},
	TableWorkoutTemplates: {
		name:   TableWorkoutTemplates,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "program_id": kindText, "name": kindText,
			"order_index": kindNumber, "created_at": kindTime,
		},
	},
	TableExercises: {
		name:   TableExercises,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "user_id": kindText, "name": kindText,
			"equipment": kindText, "movement_pattern": kindText, "is_custom": kindBool,
		},
	},
	TableTemplateExercises: {
		name:   TableTemplateExercises,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "template_id": kindText, "exercise_id": kindText,
			"order_index": kindNumber,
		},
	},
	TableWorkoutSessions: {
		name:   TableWorkoutSessions,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "user_id": kindText, "template_id": kindText,
			"started_at": kindTime, "finished_at": kindTime,
		},
	},
	TableSetLogs: {
		name:   TableSetLogs,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "session_id": kindText, "exercise_id": kindText,
			"set_number": kindNumber, "completed_at": kindTime,
		},
	},
	TableBodyMeasurements: {
		name:   TableBodyMeasurements,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "user_id": kindText, "date": kindTime,
		},
	},
	TableBiofeedbackLogs: {
		name:   TableBiofeedbackLogs,
		synced: true,
		fields: map[string]fieldKind{
			"id": kindText, "user_id": kindText, "date": kindTime,
		},
	},
	TableActiveSession: {
		name:   TableActiveSession,
		fields: map[string]fieldKind{"id": kindText},
	},
}

func lookupTable(name string) (*tableSpec, error) {
	spec, ok := tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return spec, nil
}

func errUnknownField(table, field string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, table, field)
}

// SyncedTables lists every table mirrored through the outbox, sorted.
func SyncedTables() []string {
	var out []string
	for name, spec := range tables {
		if spec.synced {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// IsSyncedTable reports whether name is mirrored to the remote store.
func IsSyncedTable(name string) bool {
	spec, ok := tables[name]
	return ok && spec.synced
}
