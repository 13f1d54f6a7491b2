// SPDX-License-Identifier: MIT

package atomizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benderfarm/benderjob/internal/config"
	"github.com/benderfarm/benderjob/internal/job"
)

func scannedJob(t *testing.T, animation bool) *job.Job {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "blendfiles", "5873c0033e78b222bec2cb2a221487cf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untitled.blend"), []byte("BLENDER-v279RENDH"), 0o644))

	j, err := job.New(filepath.Join(dir, "untitled.blend"), "dh@example.com", animation)
	require.NoError(t, err)

	j.Validate()
	j.Frames = job.Frames{Start: 1, End: 250, Current: 100, Step: 1, FPS: 25}
	j.Render = job.Render{Renderer: "CYCLES", ImageFormat: "PNG"}
	j.Scan()
	return j
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("salt", "dh@example.com")
	b := Fingerprint("salt", "dh@example.com")
	assert.Equal(t, a, b)

	// blake2b-512 hex: 128 lowercase hex characters.
	assert.Len(t, a, 128)
	assert.Regexp(t, "^[0-9a-f]+$", a)

	assert.NotEqual(t, a, Fingerprint("salt", "other@example.com"))
	assert.NotEqual(t, a, Fingerprint("pepper", "dh@example.com"))
}

func TestGenerateTasks_SingleFrameJob(t *testing.T) {
	j := scannedJob(t, false)

	tasks, err := GenerateTasks(j, 1, "salt")
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	render := tasks[0].Command.Render
	require.NotNil(t, render)
	assert.Equal(t, "-f 100", render.Frames.Flags(), "single-frame jobs render the current frame")
	assert.Equal(t, "PNG", render.Format)
	assert.Equal(t, Fingerprint("salt", "dh@example.com"), render.Fingerprint)
	assert.Equal(t, job.TaskWaiting, tasks[0].Status)
}

func TestGenerateTasks_AnimationChunkOne(t *testing.T) {
	j := scannedJob(t, true)

	tasks, err := GenerateTasks(j, 1, "salt")
	require.NoError(t, err)
	assert.Len(t, tasks, j.Frames.Count())

	first := tasks[0].Command.Render
	require.NotNil(t, first)
	assert.Equal(t, "-f 1", first.Frames.Flags())
	last := tasks[len(tasks)-1].Command.Render
	assert.Equal(t, "-f 250", last.Frames.Flags())
}

func TestGenerateTasks_AnimationChunked(t *testing.T) {
	j := scannedJob(t, true)

	const chunk = 32
	tasks, err := GenerateTasks(j, chunk, "salt")
	require.NoError(t, err)

	total := j.Frames.Count()
	wantTasks := (total + chunk - 1) / chunk
	require.Len(t, tasks, wantTasks)

	// Chunk bounds form a contiguous partition of the frame universe.
	next := j.Frames.Start
	for i, task := range tasks {
		render := task.Command.Render
		require.NotNil(t, render)
		assert.Equal(t, next, render.Frames.Start(), "task %d", i)
		next = render.Frames.End() + j.Frames.Step
	}
	assert.Equal(t, j.Frames.End+j.Frames.Step, next)
}

func TestGenerateTasks_BadChunkSize(t *testing.T) {
	j := scannedJob(t, true)
	_, err := GenerateTasks(j, 0, "salt")
	require.Error(t, err)
}

func TestAtomize(t *testing.T) {
	j := scannedJob(t, true)

	Atomize(j, 1, config.Config{Salt: "salt"})

	assert.Equal(t, job.StatusAtomized, j.Status)
	assert.Len(t, j.Tasks, 250)
	assert.Contains(t, j.LastEventMessage(), "250 tasks")
	assert.Contains(t, j.LastEventMessage(), "animation")
}

func TestAtomize_MissingSalt(t *testing.T) {
	j := scannedJob(t, true)

	Atomize(j, 1, config.Config{})

	assert.Equal(t, job.StatusReqError, j.Status)
	assert.Empty(t, j.Tasks)
	assert.Contains(t, j.LastEventMessage(), "salt")
}

func TestAtomize_AlreadyAtomized(t *testing.T) {
	j := scannedJob(t, false)
	j.Atomize() // drive to atomized so a second atomize is illegal

	before := j.Status
	Atomize(j, 1, config.Config{Salt: "salt"})
	assert.Equal(t, before, j.Status, "illegal transition leaves status unchanged")
}
