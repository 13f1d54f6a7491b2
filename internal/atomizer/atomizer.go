// SPDX-License-Identifier: MIT

// Package atomizer decomposes a scanned descriptor into the ordered queue of
// atomic render tasks the scheduler hands out to workers.
package atomizer

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/benderfarm/benderjob/internal/config"
	"github.com/benderfarm/benderjob/internal/job"
	xglog "github.com/benderfarm/benderjob/internal/log"
)

// Fingerprint derives the stable per-user identifier workers use to tag
// outputs: hex(blake2b-512(salt || email)). Must match byte-for-byte across
// implementations.
func Fingerprint(salt, email string) string {
	sum := blake2b.Sum512([]byte(salt + email))
	return hex.EncodeToString(sum[:])
}

// GenerateTasks turns the scanned frame metadata into an ordered task queue
// without touching the descriptor. Single-frame submissions yield one task
// for the scene's current frame; animations are chunked.
func GenerateTasks(j *job.Job, chunkSize int, salt string) (job.TaskQueue, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d", chunkSize)
	}

	fingerprint := Fingerprint(salt, j.Email)
	format := j.Render.ImageFormat

	var frames []int
	if j.Animation {
		frames = j.Frames.AsVec()
	} else {
		frames = []int{j.Frames.Current}
	}

	tasks := job.TaskQueue{}
	if chunkSize == 1 {
		for _, frame := range frames {
			cmd := job.NewRenderSingle(frame, format)
			cmd.Render.Fingerprint = fingerprint
			tasks.Push(job.NewTask(cmd))
		}
		return tasks, nil
	}

	step := j.Frames.Step
	if step < j.Frames.Start || step > j.Frames.End {
		// Scanned metadata that fails this is a programming error upstream,
		// not a condition a caller can handle.
		panic(fmt.Sprintf("atomizer: frame step %d outside [%d, %d]", step, j.Frames.Start, j.Frames.End))
	}

	for lo := 0; lo < len(frames); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(frames) {
			hi = len(frames)
		}
		chunk := frames[lo:hi]
		cmd := job.NewRenderRange(chunk[0], chunk[len(chunk)-1], step, format)
		cmd.Render.Fingerprint = fingerprint
		tasks.Push(job.NewTask(cmd))
	}
	return tasks, nil
}

// Atomize decomposes the descriptor into tasks and advances the status to
// atomized. A missing or unreadable salt errors the descriptor and produces
// no tasks; Atomize itself never fails.
func Atomize(j *job.Job, chunkSize int, cfg config.Config) {
	logger := xglog.WithJob("atomizer", j.ID)

	salt, err := cfg.GetSalt()
	if err != nil {
		j.SetError(fmt.Sprintf("cannot atomize: %s", err))
		return
	}

	tasks, err := GenerateTasks(j, chunkSize, salt)
	if err != nil {
		j.SetError(fmt.Sprintf("cannot atomize: %s", err))
		return
	}

	before := j.Status
	j.Atomize()
	if before == j.Status {
		// Transition rejected; the rejection is already in the history.
		return
	}
	j.Tasks = tasks

	mode := "single frame"
	if j.Animation {
		mode = "animation"
	}
	j.AddHistory(fmt.Sprintf("Created %d tasks (%s)", len(tasks), mode))
	logger.Info().
		Int(xglog.FieldTasks, len(tasks)).
		Bool("animation", j.Animation).
		Msg("job atomized")
}
