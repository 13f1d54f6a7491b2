// SPDX-License-Identifier: MIT

package gaffer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benderfarm/benderjob/internal/job"
)

const probeJSON = `{"render": {"renderer": "CYCLES", "cuda": true, "device": "GPU", "image_format": "PNG", "uses_compositing": false}, "materials": {"n": 12, "removed": 3}, "objects": {"n": 44, "removed": 0}, "textures": {"n": 7, "removed": 1}, "frames": {"start": 1, "end": 250, "current": 100, "step": 1, "fps": 25}, "resolution": {"x": 1920, "y": 1080, "scale": 100}, "history": {"2018-08-23T13:48:40.000000000Z": "probe removed 3 unused materials"}}`

const probeOutput = "Blender 2.79 (sub 0)\nRead blend: /data/blendfiles/x/untitled.blend\n" +
	probeJSON + "\nBlender quit\n"

// The probe prints its JSON document on a {-prefixed line; everything else on
// stdout is blender noise and is dropped.
func TestExtractJSON(t *testing.T) {
	got := ExtractJSON([]byte(probeOutput))
	assert.Equal(t, probeJSON, got)

	assert.Equal(t, "", ExtractJSON([]byte("no json here\nat all\n")))
}

func validatedJob(t *testing.T) *job.Job {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "blendfiles", "5873c0033e78b222bec2cb2a221487cf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "untitled.blend"), []byte("BLENDER-v279RENDH"), 0o644))

	j, err := job.New(filepath.Join(dir, "untitled.blend"), "dh@example.com", true)
	require.NoError(t, err)
	j.Validate()
	return j
}

func writeScript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "optimize_blend.py")
	require.NoError(t, os.WriteFile(path, []byte("# probe\n"), 0o644))
	return path
}

func fakeRunner(output string, err error) Runner {
	return func(context.Context, string, string) ([]byte, error) {
		return []byte(output), err
	}
}

func TestScanAndOptimize(t *testing.T) {
	j := validatedJob(t)

	ScanAndOptimize(context.Background(), j, Options{
		ScriptPath: writeScript(t),
		Run:        fakeRunner(probeOutput, nil),
	})

	assert.Equal(t, job.StatusScanned, j.Status)
	assert.Equal(t, "CYCLES", j.Render.Renderer)
	assert.Equal(t, "PNG", j.Render.ImageFormat)
	assert.Equal(t, 250, j.Frames.End)
	assert.Equal(t, 25, j.Frames.FPS)
	assert.Equal(t, 1920, j.Resolution.X)
	assert.Equal(t, "3", j.Data["materials.removed"])
	assert.Equal(t, "probe removed 3 unused materials",
		j.History["2018-08-23T13:48:40.000000000Z"])
}

func TestScanAndOptimize_NotValidated(t *testing.T) {
	j := validatedJob(t)
	j.Status = job.StatusUntouched

	ScanAndOptimize(context.Background(), j, Options{ScriptPath: writeScript(t)})

	assert.Equal(t, job.StatusReqError, j.Status)
	assert.Contains(t, j.LastEventMessage(), "not been validated")
}

func TestScanAndOptimize_MissingScript(t *testing.T) {
	j := validatedJob(t)

	ScanAndOptimize(context.Background(), j, Options{
		ScriptPath: filepath.Join(t.TempDir(), "nope.py"),
	})

	assert.Equal(t, job.StatusReqError, j.Status)
	assert.Contains(t, j.LastEventMessage(), "probe script not found")
}

func TestScanAndOptimize_ChildProcessFailure(t *testing.T) {
	j := validatedJob(t)

	ScanAndOptimize(context.Background(), j, Options{
		ScriptPath: writeScript(t),
		Run:        fakeRunner("", errors.New("exit status 1")),
	})

	assert.Equal(t, job.StatusReqError, j.Status)
	assert.Contains(t, j.LastEventMessage(), "probe failed")
}

func TestScanAndOptimize_NoJSONOutput(t *testing.T) {
	j := validatedJob(t)

	ScanAndOptimize(context.Background(), j, Options{
		ScriptPath: writeScript(t),
		Run:        fakeRunner("Blender 2.79\nBlender quit\n", nil),
	})

	assert.Equal(t, job.StatusReqError, j.Status)
	assert.Contains(t, j.LastEventMessage(), "no JSON output")
}

func TestScanAndOptimize_UnparseableJSON(t *testing.T) {
	j := validatedJob(t)
	raw := `{"render": "definitely not an object"}`

	ScanAndOptimize(context.Background(), j, Options{
		ScriptPath: writeScript(t),
		Run:        fakeRunner(raw+"\n", nil),
	})

	assert.Equal(t, job.StatusReqError, j.Status)

	// The raw output is captured in the history for debugging.
	var found bool
	for _, msg := range j.History {
		if msg == "Unparseable probe output: "+raw {
			found = true
		}
	}
	assert.True(t, found, "raw output missing from history: %v", j.History)
}
