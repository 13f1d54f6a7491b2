// SPDX-License-Identifier: MIT

package job

import (
	"fmt"

	"github.com/google/renameio/v2"

	xglog "github.com/benderfarm/benderjob/internal/log"
)

// Save writes the sidecar atomically: the serialized descriptor goes to a
// sibling temp file which is fsynced and renamed over data.json, so peers
// never observe a partial write.
func (j *Job) Save() error {
	raw, err := j.Serialize()
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(j.Paths.Data)
	if err != nil {
		return fmt.Errorf("create pending sidecar: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			pkgLogger().Debug().Err(err).Msg("cleanup pending sidecar")
		}
	}()

	if _, err := pending.Write(raw); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace sidecar: %w", err)
	}
	return nil
}

// ChangedOnDisk reports whether the sidecar on disk differs from the
// in-memory descriptor.
func (j *Job) ChangedOnDisk() (bool, error) {
	onDisk, err := FromDataFile(j.Paths.Data)
	if err != nil {
		return false, err
	}
	return !j.Equal(onDisk), nil
}

// SaveIfChanged writes the sidecar only when it differs from the descriptor.
func (j *Job) SaveIfChanged() error {
	changed, err := j.ChangedOnDisk()
	if err != nil {
		return err
	}
	if changed {
		return j.Save()
	}
	return nil
}

// ReloadReplace reloads the descriptor wholesale when the sidecar differs.
// It performs no merge and no freshness check; use ReloadMerge in services
// that may race with peers.
func (j *Job) ReloadReplace() error {
	onDisk, err := FromDataFile(j.Paths.Data)
	if err != nil {
		return err
	}
	if !j.Equal(onDisk) {
		*j = *onDisk
	}
	return nil
}

// ReloadMerge reloads the sidecar and selectively absorbs peer changes:
//
//   - status: adopted only when strictly later in the lattice
//   - data: unknown keys inserted, known keys kept
//   - history: union, collisions favor local entries
//   - tasks: pairwise per-index merge by task advancement
//   - frames/render/resolution: adopted only when local still holds defaults
//
// The merge direction is implicit in the status lattice: whoever owns the
// current phase wrote the freshest fields, everything else flows forward.
func (j *Job) ReloadMerge() error {
	onDisk, err := FromDataFile(j.Paths.Data)
	if err != nil {
		return err
	}
	j.MergeFrom(onDisk)
	return nil
}

// MergeFrom applies the reload merge protocol against an already-loaded peer
// snapshot.
func (j *Job) MergeFrom(onDisk *Job) {
	if j.Status.ShouldAdopt(onDisk.Status) {
		pkgLogger().Debug().
			Str(xglog.FieldJobID, j.ID).
			Str(xglog.FieldOldState, j.Status.String()).
			Str(xglog.FieldNewState, onDisk.Status.String()).
			Msg("adopting later status from disk")
		j.Status = onDisk.Status
	}

	j.IncorporateData(onDisk.Data)
	j.IncorporateHistory(onDisk.History)
	j.Tasks.UpdateFrom(onDisk.Tasks)

	if j.Frames.IsDefault() && !onDisk.Frames.IsDefault() {
		j.Frames = onDisk.Frames
	}
	if j.Render.IsDefault() && !onDisk.Render.IsDefault() {
		j.Render = onDisk.Render
	}
	if j.Resolution.IsDefault() && !onDisk.Resolution.IsDefault() {
		j.Resolution = onDisk.Resolution
	}
}
