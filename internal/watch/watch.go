// SPDX-License-Identifier: MIT

// Package watch observes the blendfiles directory for new uploads and turns
// them into descriptors. It is the reference "external actor" driving the
// request phase; scheduler and render workers remain separate services that
// coordinate through the sidecar alone.
package watch

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/benderfarm/benderjob/internal/atomizer"
	"github.com/benderfarm/benderjob/internal/bouncer"
	"github.com/benderfarm/benderjob/internal/config"
	"github.com/benderfarm/benderjob/internal/gaffer"
	"github.com/benderfarm/benderjob/internal/job"
	xglog "github.com/benderfarm/benderjob/internal/log"
	"github.com/benderfarm/benderjob/internal/metrics"
)

// settleDelay gives uploaders a moment to finish writing the scene file after
// the directory appears.
const settleDelay = 500 * time.Millisecond

// NewUploadID returns a fresh 32-character lowercase hex submission id.
func NewUploadID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Service watches <root>/blendfiles for new upload directories.
type Service struct {
	Cfg config.Config

	// Check validates scene files; nil means bouncer.DefaultCheck.
	Check bouncer.CheckFunc

	// Pipeline drives validate → scan → atomize on new descriptors when set.
	Pipeline bool

	// ChunkSize is the atomizer chunk size used when Pipeline is set.
	ChunkSize int
}

// BlendfilesDir returns the watched upload root.
func (s *Service) BlendfilesDir() string {
	return filepath.Join(s.Cfg.Root, "blendfiles")
}

// Run watches the upload root until ctx is done. Pre-existing directories are
// swept once at startup so restarts do not lose submissions.
func (s *Service) Run(ctx context.Context) error {
	logger := xglog.WithComponent("watch")
	dir := s.BlendfilesDir()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload root %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck // best-effort close on shutdown

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	s.sweep(ctx)

	logger.Info().Str(xglog.FieldPath, dir).Msg("watching for uploads")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil || !info.IsDir() {
				continue
			}
			select {
			case <-time.After(settleDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			s.handleUpload(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

// sweep handles directories that already exist below the upload root.
func (s *Service) sweep(ctx context.Context) {
	entries, err := os.ReadDir(s.BlendfilesDir())
	if err != nil {
		xglog.WithComponent("watch").Warn().Err(err).Msg("cannot sweep upload root")
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s.handleUpload(ctx, filepath.Join(s.BlendfilesDir(), entry.Name()))
	}
}

// handleUpload turns one upload directory into a descriptor. Uploads that
// already carry a sidecar are loaded instead of recreated, so a restart never
// clobbers peer work.
func (s *Service) handleUpload(ctx context.Context, dir string) {
	logger := xglog.WithComponent("watch")
	metrics.IncJobsObserved()

	var j *job.Job
	if _, err := os.Stat(filepath.Join(dir, job.DataFileName)); err == nil {
		j, err = job.FromUploadDir(dir)
		if err != nil {
			logger.Warn().Err(err).Str(xglog.FieldPath, dir).Msg("unreadable sidecar, skipping upload")
			metrics.IncJobsRejected()
			return
		}
	} else {
		blend, err := job.FirstBlend(dir)
		if err != nil {
			logger.Warn().Err(err).Str(xglog.FieldPath, dir).Msg("upload without scene file")
			metrics.IncJobsRejected()
			return
		}
		j, err = job.New(blend, "", false)
		if err != nil {
			logger.Warn().Err(err).Str(xglog.FieldPath, dir).Msg("cannot create descriptor")
			metrics.IncJobsRejected()
			return
		}
		j.AddHistory("Observed new upload")
		if err := j.Save(); err != nil {
			logger.Error().Err(err).Str(xglog.FieldJobID, j.ID).Msg("cannot write sidecar")
			metrics.IncSaveError()
			return
		}
		metrics.IncJobsCreated()
	}

	logger.Info().
		Str(xglog.FieldJobID, j.ID).
		Str(xglog.FieldStatus, j.Status.String()).
		Msg("upload registered")

	if s.Pipeline {
		s.runPipeline(ctx, j)
	}
}

// runPipeline drives a fresh descriptor through validate → scan → atomize.
// Each stage persists before the next so peers can observe progress.
func (s *Service) runPipeline(ctx context.Context, j *job.Job) {
	logger := xglog.WithJob("watch", j.ID)

	check := s.Check
	if check == nil {
		check = bouncer.DefaultCheck
	}
	chunk := s.ChunkSize
	if chunk < 1 {
		chunk = 1
	}

	stages := []func(){
		func() { bouncer.Check(j, check) },
		func() { gaffer.ScanAndOptimize(ctx, j, gaffer.Options{ScriptPath: s.Cfg.ScanScript}) },
		func() { atomizer.Atomize(j, chunk, s.Cfg) },
	}

	for _, stage := range stages {
		if ctx.Err() != nil {
			return
		}
		stage()
		metrics.IncTransition(j.Status.String())
		if err := j.SaveIfChanged(); err != nil {
			logger.Error().Err(err).Msg("cannot persist descriptor")
			metrics.IncSaveError()
			return
		}
		if !j.Status.IsAlive() {
			logger.Info().Str(xglog.FieldStatus, j.Status.String()).Msg("pipeline stopped")
			return
		}
	}
}
