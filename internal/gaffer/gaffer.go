// SPDX-License-Identifier: MIT

// Package gaffer scans a validated scene for render parameters by executing
// it headless with a python probe script and absorbing the JSON the script
// prints on stdout.
package gaffer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	xglog "github.com/benderfarm/benderjob/internal/log"

	"github.com/benderfarm/benderjob/internal/job"
)

// formatOverrideEnv forces the probe to a known output format so the scan is
// reproducible regardless of scene settings.
const formatOverrideEnv = "SCENE_OVERRIDE_FORMAT=PNG"

// MiscInfo is the JSON document the probe script emits: render settings,
// resource counts, frame range, resolution and the probe's own history events.
type MiscInfo struct {
	Render     job.Render     `json:"render"`
	Materials  job.Resource   `json:"materials"`
	Objects    job.Resource   `json:"objects"`
	Textures   job.Resource   `json:"textures"`
	Frames     job.Frames     `json:"frames"`
	Resolution job.Resolution `json:"resolution"`
	History    job.History    `json:"history"`
}

// Runner executes the scene with the probe script and returns raw stdout.
// Swappable in tests; the default spawns blender.
type Runner func(ctx context.Context, scenePath, scriptPath string) ([]byte, error)

// Options controls a scan.
type Options struct {
	// ScriptPath locates the probe script (config scan_script).
	ScriptPath string

	// Run overrides the child-process runner. Nil means RunBlender.
	Run Runner
}

// RunBlender executes `blender -b <scene> --disable-autoexec --python
// <script>` and returns its stdout. The caller bounds the runtime via ctx.
func RunBlender(ctx context.Context, scenePath, scriptPath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "blender",
		"-b", scenePath,
		"--disable-autoexec",
		"--python", scriptPath,
	)
	cmd.Env = append(os.Environ(), formatOverrideEnv)
	return cmd.Output()
}

// ExtractJSON keeps only the lines of raw output that start with "{" and
// concatenates them into a single JSON document.
func ExtractJSON(output []byte) string {
	var b strings.Builder
	for _, line := range strings.Split(string(output), "\n") {
		if strings.HasPrefix(line, "{") {
			b.WriteString(line)
		}
	}
	return b.String()
}

// ScanAndOptimize probes the job's scene file and merges the gathered render
// parameters into the descriptor, then marks it scanned. Every failure mode
// is absorbed into the descriptor as an errored status with the cause in the
// history; ScanAndOptimize itself never fails.
func ScanAndOptimize(ctx context.Context, j *job.Job, opts Options) {
	logger := xglog.WithJob("gaffer", j.ID)

	if !j.Status.IsValidated() {
		j.SetError(fmt.Sprintf("cannot scan: job has not been validated (status %q)", j.Status))
		return
	}

	script := opts.ScriptPath
	if _, err := os.Stat(script); err != nil {
		j.SetError(fmt.Sprintf("probe script not found at %q, reinstall may be required", script))
		return
	}

	run := opts.Run
	if run == nil {
		run = RunBlender
	}

	output, err := run(ctx, j.Paths.Blend, script)
	if err != nil {
		j.SetError(fmt.Sprintf("scene probe failed: %s", err))
		return
	}

	raw := ExtractJSON(output)
	if raw == "" {
		j.AddHistory(fmt.Sprintf("Probe output without JSON: %s", string(output)))
		j.SetError("scene probe produced no JSON output")
		return
	}

	var info MiscInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		j.AddHistory(fmt.Sprintf("Unparseable probe output: %s", raw))
		j.SetError(fmt.Sprintf("cannot parse probe output: %s", err))
		return
	}

	incorporate(j, info)
	j.Scan()
	logger.Info().
		Str(xglog.FieldFormat, j.Render.ImageFormat).
		Int("frame_count", j.Frames.Count()).
		Msg("scene scanned")
}

// incorporate replaces the job's scanned fields with the probe's findings and
// unions the probe history into the job history.
func incorporate(j *job.Job, info MiscInfo) {
	j.Render = info.Render
	j.Frames = info.Frames
	j.Resolution = info.Resolution
	j.IncorporateHistory(info.History)

	j.AddData("materials.removed", fmt.Sprintf("%d", info.Materials.Removed))
	j.AddData("objects.removed", fmt.Sprintf("%d", info.Objects.Removed))
	j.AddData("textures.removed", fmt.Sprintf("%d", info.Textures.Removed))
}
