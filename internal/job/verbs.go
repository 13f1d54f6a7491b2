// SPDX-License-Identifier: MIT

package job

import (
	"fmt"

	"github.com/rs/zerolog"

	xglog "github.com/benderfarm/benderjob/internal/log"
)

func pkgLogger() zerolog.Logger {
	return xglog.WithComponent("job")
}

// applyVerb runs a status transition. On success it appends the given history
// event; on an illegal transition it records the rejection in the history and
// logs it. Lifecycle verbs never propagate transition errors to callers.
func (j *Job) applyVerb(verb string, transition func(*Status) error, event string) bool {
	old := j.Status
	if err := transition(&j.Status); err != nil {
		rejection := fmt.Sprintf("Rejected verb %q: not legal from status %q", verb, old)
		j.AddHistory(rejection)
		pkgLogger().Warn().
			Str(xglog.FieldJobID, j.ID).
			Str(xglog.FieldVerb, verb).
			Str(xglog.FieldStatus, old.String()).
			Msg("illegal status transition")
		return false
	}
	j.AddHistory(event)
	pkgLogger().Debug().
		Str(xglog.FieldJobID, j.ID).
		Str(xglog.FieldVerb, verb).
		Str(xglog.FieldOldState, old.String()).
		Str(xglog.FieldNewState, j.Status.String()).
		Msg("status transition")
	return true
}

// Validate marks the scene file as checked.
func (j *Job) Validate() {
	j.applyVerb("validate", (*Status).Validate, "Validated the scene file")
}

// Deny marks the submission invalid after a failed validity check.
func (j *Job) Deny() {
	j.applyVerb("deny", (*Status).Deny, "Denied the request: scene file is not valid")
}

// Scan marks the scene as scanned after render parameters were extracted.
func (j *Job) Scan() {
	j.applyVerb("scan", (*Status).Scan, "Scanned the scene for render parameters")
}

// Atomize marks the submission as decomposed into tasks.
func (j *Job) Atomize() {
	j.applyVerb("atomize", (*Status).Atomize, "Atomized the job into tasks")
}

// Queue hands the submission over to the job phase.
func (j *Job) Queue() {
	j.applyVerb("queue", (*Status).Queue, "Queued the job for execution")
}

// Run marks the job as running and stamps the start time.
func (j *Job) Run() {
	if j.applyVerb("run", (*Status).Run, "Started running") {
		j.Time.StampStart()
	}
}

// Finish marks the job as finished and stamps the finish time.
func (j *Job) Finish() {
	if j.applyVerb("finish", (*Status).Finish, "Finished all tasks") {
		j.Time.StampFinish()
	}
}

// Cancel aborts a queued or running job and stamps the abort time.
func (j *Job) Cancel() {
	if j.applyVerb("cancel", (*Status).Cancel, "Canceled the job") {
		j.Time.StampAbort()
	}
}

// SetError moves any alive status to the errored state of its phase, records
// the message in the history and stamps the error time.
func (j *Job) SetError(message string) {
	event := fmt.Sprintf("Errored: %s", message)
	if j.applyVerb("error", (*Status).Error, event) {
		j.Time.StampError()
	}
}
