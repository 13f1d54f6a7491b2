// SPDX-License-Identifier: MIT

package watch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/benderfarm/benderjob/internal/job"
)

// Ingest copies a scene file into a fresh upload directory under the root and
// creates its descriptor, the same shape an external uploader would produce.
// Returns the new descriptor with its sidecar already written.
func Ingest(root, scenePath, email string, animation bool) (*job.Job, error) {
	id := NewUploadID()
	dir := filepath.Join(root, "blendfiles", id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	dst := filepath.Join(dir, filepath.Base(scenePath))
	if err := copyFile(scenePath, dst); err != nil {
		return nil, err
	}

	j, err := job.New(dst, email, animation)
	if err != nil {
		return nil, err
	}
	j.AddHistory("Ingested scene file")
	if err := j.Save(); err != nil {
		return nil, err
	}
	return j, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open scene file: %w", err)
	}
	defer in.Close() //nolint:errcheck // read-only handle

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create scene copy: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck // already failing
		return fmt.Errorf("copy scene file: %w", err)
	}
	return out.Close()
}
