// SPDX-License-Identifier: MIT

package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoSceneFile marks an upload directory without a scene file.
var ErrNoSceneFile = errors.New("no scene file in upload directory")

// JobPaths holds the filesystem locations derived from an upload directory.
// All paths are stored as plain strings so they survive serialization
// unchanged across machines.
type JobPaths struct {
	Upload   string `json:"upload"`
	Data     string `json:"data"`
	Blend    string `json:"blend"`
	Frames   string `json:"frames"`
	Filename string `json:"filename"`
}

// PathsFromUpload derives all job paths from an upload directory, e.g.
// "/data/blendfiles/5873c0033e78b222bec2cb2a221487cf". The first scene file
// found in directory order is selected.
func PathsFromUpload(dir string) (JobPaths, error) {
	blend, err := FirstBlend(dir)
	if err != nil {
		return JobPaths{}, err
	}

	id := filepath.Base(dir)
	frames := filepath.Join(filepath.Dir(filepath.Dir(dir)), "frames", id)

	return JobPaths{
		Upload:   dir,
		Data:     filepath.Join(dir, "data.json"),
		Blend:    blend,
		Frames:   frames,
		Filename: filepath.Base(blend),
	}, nil
}

// ID returns the submission id, the basename of the upload directory.
func (p JobPaths) ID() string {
	return filepath.Base(p.Upload)
}

// FindBlends returns all files with a .blend extension in dir, in directory
// order.
func FindBlends(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read upload directory %s: %w", dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".blend") {
			matches = append(matches, filepath.Join(dir, entry.Name()))
		}
	}
	return matches, nil
}

// FirstBlend returns the first .blend file in dir, or ErrNoSceneFile.
func FirstBlend(dir string) (string, error) {
	matches, err := FindBlends(dir)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoSceneFile, dir)
	}
	return matches[0], nil
}
