// SPDX-License-Identifier: MIT

// Package bouncer adapts the opaque scene-validity check to the descriptor
// lifecycle: a passing scene records its version and moves the request to
// checked, a failing one is denied.
package bouncer

import (
	xglog "github.com/benderfarm/benderjob/internal/log"

	"github.com/benderfarm/benderjob/internal/job"
)

// CheckFunc is the opaque validity check: a pure function of the scene file's
// bytes returning the scene version string, or an error for an invalid file.
type CheckFunc func(scenePath string) (version string, err error)

// Check runs the validity check against the job's scene file and drives the
// matching lifecycle verb. The outcome lands in the descriptor; Check itself
// never fails.
func Check(j *job.Job, check CheckFunc) {
	logger := xglog.WithJob("bouncer", j.ID)

	version, err := check(j.Paths.Blend)
	if err != nil {
		logger.Info().Err(err).Str(xglog.FieldBlend, j.Paths.Blend).Msg("scene file rejected")
		j.Deny()
		return
	}

	j.Version = version
	j.Validate()
	logger.Info().Str("scene_version", version).Msg("scene file validated")
}
