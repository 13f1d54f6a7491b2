// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID  = "job_id"
	FieldTaskID = "task_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldVerb      = "verb"

	// State fields
	FieldStatus   = "status"
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Path fields
	FieldPath  = "path"
	FieldBlend = "blend"

	// Render fields
	FieldFrame  = "frame"
	FieldFrames = "frames"
	FieldFormat = "format"
	FieldTasks  = "tasks"
)
