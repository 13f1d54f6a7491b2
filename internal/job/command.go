// SPDX-License-Identifier: MIT

package job

import (
	"errors"
	"fmt"
)

// ErrNotConstructed marks a render command stringified before its paths were
// bound via Construct.
var ErrNotConstructed = errors.New("render command not constructed")

// Command is the work unit payload of a task: either a basic shell command or
// a two-phase blender render command. Exactly one branch is set.
type Command struct {
	Basic  *BasicCommand  `json:"basic,omitempty"`
	Render *RenderCommand `json:"render,omitempty"`
}

// BasicCommand is a plain command line string.
type BasicCommand struct {
	Command string `json:"command"`
}

// RenderCommand renders a set of frames with blender. It is constructed with
// frames and format first, and bound to input/output paths by the worker that
// knows its local mounts.
type RenderCommand struct {
	Frames      FrameMap `json:"frames"`
	Format      string   `json:"format"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Input       *string  `json:"input"`
	Output      *string  `json:"output"`
	Rendered    *string  `json:"rendered"`
}

// NewBasicCommand returns a basic command for the given command line.
func NewBasicCommand(command string) Command {
	return Command{Basic: &BasicCommand{Command: command}}
}

// NewRenderSingle returns an unbound render command for a single frame.
func NewRenderSingle(frame int, format string) Command {
	return Command{Render: &RenderCommand{
		Frames: NewSingleFrame(frame),
		Format: format,
	}}
}

// NewRenderRange returns an unbound render command for a frame range.
func NewRenderRange(start, end, step int, format string) Command {
	return Command{Render: &RenderCommand{
		Frames: NewFrameRange(start, end, step),
		Format: format,
	}}
}

// IsRender reports whether the command is a render command.
func (c Command) IsRender() bool {
	return c.Render != nil
}

// Construct binds a render command to the given scene path and output
// directory and caches the rendered command line. Binding is idempotent and
// overwrites earlier paths. Basic commands are unaffected.
func (c *Command) Construct(input, output string) {
	if c.Render == nil {
		return
	}
	c.Render.Construct(input, output)
}

// Construct binds the command to the given paths and renders the command line.
func (rc *RenderCommand) Construct(input, output string) {
	rc.Input = &input
	rc.Output = &output
	rendered := fmt.Sprintf("blender -b --disable-autoexec %s %s -o %s -F %s",
		input, rc.Frames.Flags(), output, rc.Format)
	rc.Rendered = &rendered
}

// CommandString returns the executable command line. Render commands must be
// bound via Construct first, otherwise ErrNotConstructed is returned.
func (c Command) CommandString() (string, error) {
	switch {
	case c.Basic != nil:
		return c.Basic.Command, nil
	case c.Render != nil:
		if c.Render.Rendered == nil {
			return "", fmt.Errorf("%w: call Construct with input and output paths first", ErrNotConstructed)
		}
		return *c.Render.Rendered, nil
	default:
		return "", fmt.Errorf("%w: empty command", ErrNotConstructed)
	}
}
