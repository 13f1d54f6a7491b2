// SPDX-License-Identifier: MIT

package job

import (
	"time"

	"github.com/benderfarm/benderjob/internal/log"
)

// now is the package clock, swappable in tests.
var now = time.Now

// JobTime records the lifecycle milestones of a submission or task. Every slot
// is set at most once; a second stamp is logged and ignored.
type JobTime struct {
	Creation *time.Time `json:"creation"`
	Start    *time.Time `json:"start"`
	Finish   *time.Time `json:"finish"`
	Error    *time.Time `json:"error"`
	Abort    *time.Time `json:"abort"`
	Pause    *time.Time `json:"pause"`
}

// NewJobTime returns a JobTime with all slots empty.
func NewJobTime() JobTime {
	return JobTime{}
}

func stamp(slot **time.Time, name string) {
	if *slot != nil {
		log.WithComponent("jobtime").Warn().
			Str("slot", name).
			Time("existing", **slot).
			Msg("timestamp already set, keeping first value")
		return
	}
	t := now().UTC()
	*slot = &t
}

// StampCreation records the creation instant, first writer wins.
func (jt *JobTime) StampCreation() { stamp(&jt.Creation, "creation") }

// StampStart records the start instant, first writer wins.
func (jt *JobTime) StampStart() { stamp(&jt.Start, "start") }

// StampFinish records the finish instant, first writer wins.
func (jt *JobTime) StampFinish() { stamp(&jt.Finish, "finish") }

// StampError records the error instant, first writer wins.
func (jt *JobTime) StampError() { stamp(&jt.Error, "error") }

// StampAbort records the abort instant, first writer wins.
func (jt *JobTime) StampAbort() { stamp(&jt.Abort, "abort") }

// StampPause records the pause instant, first writer wins.
func (jt *JobTime) StampPause() { stamp(&jt.Pause, "pause") }
