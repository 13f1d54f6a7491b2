// SPDX-License-Identifier: MIT

package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benderfarm/benderjob/internal/config"
	"github.com/benderfarm/benderjob/internal/job"
)

func TestNewUploadID(t *testing.T) {
	a := NewUploadID()
	b := NewUploadID()

	assert.Len(t, a, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", a)
	assert.NotEqual(t, a, b)
}

func TestIngest(t *testing.T) {
	root := t.TempDir()
	scene := filepath.Join(t.TempDir(), "shot.blend")
	require.NoError(t, os.WriteFile(scene, []byte("BLENDER-v279RENDH"), 0o644))

	j, err := Ingest(root, scene, "dh@example.com", true)
	require.NoError(t, err)

	assert.Equal(t, job.StatusUntouched, j.Status)
	assert.Equal(t, "dh@example.com", j.Email)
	assert.True(t, j.Animation)
	assert.Equal(t, "shot.blend", j.Paths.Filename)

	// The upload directory and sidecar exist on disk.
	reloaded, err := job.FromUploadDir(filepath.Join(root, "blendfiles", j.ID))
	require.NoError(t, err)
	assert.True(t, j.Equal(reloaded))
}

func TestHandleUpload_CreatesSidecar(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "blendfiles", "5873c0033e78b222bec2cb2a221487cf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.blend"), []byte("BLENDER-v279RENDH"), 0o644))

	svc := &Service{Cfg: config.Config{Root: root}}
	svc.handleUpload(context.Background(), dir)

	j, err := job.FromUploadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, job.StatusUntouched, j.Status)
	assert.Contains(t, j.LastEventMessage(), "Observed new upload")
}

func TestHandleUpload_KeepsExistingSidecar(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "blendfiles", "7841becc23339d86ef0ec0a18e312ba1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.blend"), []byte("BLENDER-v279RENDH"), 0o644))

	existing, err := job.New(filepath.Join(dir, "a.blend"), "dh@example.com", false)
	require.NoError(t, err)
	existing.Validate()
	require.NoError(t, existing.Save())

	svc := &Service{Cfg: config.Config{Root: root}}
	svc.handleUpload(context.Background(), dir)

	j, err := job.FromUploadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, job.StatusChecked, j.Status, "peer progress must not be clobbered")
	assert.Equal(t, "dh@example.com", j.Email)
}

func TestHandleUpload_NoSceneFile(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "blendfiles", "9ac9b18f5e6d4f329acda411e3de8cde")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	svc := &Service{Cfg: config.Config{Root: root}}
	svc.handleUpload(context.Background(), dir)

	_, err := os.Stat(filepath.Join(dir, job.DataFileName))
	assert.True(t, os.IsNotExist(err), "rejected uploads get no sidecar")
}

// The pipeline persists each stage, so a failure mid-way still lands on disk.
func TestHandleUpload_PipelineStopsOnError(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "blendfiles", "5873c0033e78b222bec2cb2a221487cf")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.blend"), []byte("BLENDER-v279RENDH"), 0o644))

	svc := &Service{
		// ScanScript left unset: the scan stage errors the descriptor.
		Cfg:      config.Config{Root: root},
		Pipeline: true,
	}
	svc.handleUpload(context.Background(), dir)

	j, err := job.FromUploadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, job.StatusReqError, j.Status)
	assert.Equal(t, "2.79", j.Version, "validation ran before the failing scan")
}
