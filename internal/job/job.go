// SPDX-License-Identifier: MIT

// Package job models the lifecycle of a render-job submission. The Job
// aggregate owns the status lattice, history log, time record, derived paths,
// frame bookkeeping and task queue, and persists itself as the data.json
// sidecar shared by all cooperating services.
package job

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DataFileName is the sidecar filename inside every upload directory.
const DataFileName = "data.json"

// Job is the descriptor of one render submission. It is created by the upload
// watchdog and afterwards owned by validator, scanner, atomizer, scheduler and
// workers in turn, each driving its own phase of the status lattice.
type Job struct {
	ID         string            `json:"id"`
	Animation  bool              `json:"animation"`
	Paths      JobPaths          `json:"paths"`
	Email      string            `json:"email"`
	Version    string            `json:"version"`
	Time       JobTime           `json:"time"`
	Status     Status            `json:"status"`
	Data       map[string]string `json:"data"`
	History    History           `json:"history"`
	Resolution Resolution        `json:"resolution"`
	Render     Render            `json:"render"`
	Frames     Frames            `json:"frames"`
	Tasks      TaskQueue         `json:"tasks"`
}

// New creates a fresh descriptor from the path of a scene file. The upload
// directory is the scene file's parent; its basename becomes the id. The
// creation time is stamped and the status starts untouched.
func New(blendpath, email string, animation bool) (*Job, error) {
	dir := filepath.Dir(blendpath)
	paths, err := PathsFromUpload(dir)
	if err != nil {
		return nil, err
	}

	j := &Job{
		ID:        paths.ID(),
		Animation: animation,
		Paths:     paths,
		Email:     email,
		Status:    NewStatus(),
		Data:      map[string]string{},
		History:   NewHistory(),
		Tasks:     TaskQueue{},
	}
	j.Time.StampCreation()
	return j, nil
}

// FromDataFile reads a descriptor directly from a sidecar path.
func FromDataFile(path string) (*Job, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	j, err := Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("parse sidecar %s: %w", path, err)
	}
	return j, nil
}

// FromUploadDir reads the descriptor stored in an upload directory.
func FromUploadDir(dir string) (*Job, error) {
	return FromDataFile(filepath.Join(dir, DataFileName))
}

// FromSceneFile reads the descriptor stored next to a scene file.
func FromSceneFile(path string) (*Job, error) {
	return FromUploadDir(filepath.Dir(path))
}

// ReadAll reads every descriptor below dir, one upload directory per job.
// Unreadable entries are logged and skipped.
func ReadAll(dir string) []*Job {
	logger := pkgLogger()

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn().Err(err).Str("path", dir).Msg("cannot read job directory")
		return nil
	}

	var jobs []*Job
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		j, err := FromUploadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			logger.Warn().Err(err).Str("path", entry.Name()).Msg("skipping unreadable job")
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// Serialize renders the descriptor as pretty-printed sidecar JSON.
func (j *Job) Serialize() ([]byte, error) {
	raw, err := json.MarshalIndent(j, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize job %s: %w", j.ID, err)
	}
	return raw, nil
}

// Deserialize parses sidecar JSON into a descriptor.
func Deserialize(raw []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, err
	}
	if j.Data == nil {
		j.Data = map[string]string{}
	}
	if j.History == nil {
		j.History = NewHistory()
	}
	if j.Tasks == nil {
		j.Tasks = TaskQueue{}
	}
	return &j, nil
}

// Equal reports deep equality with another descriptor, compared through the
// canonical serialized form so clock precision and map ordering cannot skew
// the result.
func (j *Job) Equal(other *Job) bool {
	a, err := j.Serialize()
	if err != nil {
		return false
	}
	b, err := other.Serialize()
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

// AddHistory appends a message to the job's history.
func (j *Job) AddHistory(message string) {
	j.History.Append(message)
}

// AddHistoryDebounced appends only if the message differs from the last entry.
func (j *Job) AddHistoryDebounced(message string) {
	j.History.AppendDebounced(message)
}

// LastEvent returns the formatted last history event.
func (j *Job) LastEvent() string {
	return j.History.FormatLast()
}

// LastEventMessage returns the last history message.
func (j *Job) LastEventMessage() string {
	return j.History.LastMessage()
}

// AddData sets a key-value pair in the job's data map.
func (j *Job) AddData(key, value string) {
	j.Data[key] = value
}

// AddDataDebounced sets a key-value pair and reports whether the stored value
// actually changed. Callers that only want to propagate changes can observe
// the return value; setting an identical value is not an error.
func (j *Job) AddDataDebounced(key, value string) (changed bool) {
	old, existed := j.Data[key]
	j.Data[key] = value
	return !existed || old != value
}

// IncorporateData merges peer data into the job's data map. Keys already
// present locally are kept; only unknown keys are inserted.
func (j *Job) IncorporateData(other map[string]string) {
	for k, v := range other {
		if _, exists := j.Data[k]; !exists {
			j.Data[k] = v
		}
	}
}

// IncorporateHistory unions a peer history into the job's history.
func (j *Job) IncorporateHistory(other History) {
	j.History.Merge(other)
}
