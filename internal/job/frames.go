// SPDX-License-Identifier: MIT

package job

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownFrame marks a per-frame setter on a frame not in the map.
var ErrUnknownFrame = errors.New("frame not contained in this task")

// Frame is the bookkeeping record of one rendered frame.
type Frame struct {
	Filesize *int64  `json:"filesize"`
	Hash     *string `json:"hash"`
	Uploaded bool    `json:"uploaded"`
}

// IsFilesize reports whether the filesize has been recorded.
func (f Frame) IsFilesize() bool { return f.Filesize != nil }

// IsHash reports whether the hash has been recorded.
func (f Frame) IsHash() bool { return f.Hash != nil }

// IsUploaded reports whether the frame has been uploaded.
func (f Frame) IsUploaded() bool { return f.Uploaded }

// FrameMap is the per-task mapping from frame number to its bookkeeping
// record. It is the sole carrier of per-frame output state.
type FrameMap map[int]Frame

// NewSingleFrame returns a FrameMap holding exactly one frame.
func NewSingleFrame(frame int) FrameMap {
	return FrameMap{frame: {}}
}

// NewFrameRange returns a FrameMap holding start, start+step, ..., end.
func NewFrameRange(start, end, step int) FrameMap {
	fm := FrameMap{}
	if step < 1 {
		step = 1
	}
	for f := start; f <= end; f += step {
		fm[f] = Frame{}
	}
	return fm
}

// frames returns the frame numbers in ascending order.
func (fm FrameMap) frames() []int {
	keys := make([]int, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Count returns the number of frames.
func (fm FrameMap) Count() int { return len(fm) }

// IsSingle reports whether the map holds exactly one frame.
func (fm FrameMap) IsSingle() bool { return len(fm) == 1 }

// Start returns the lowest frame number.
func (fm FrameMap) Start() int {
	return fm.frames()[0]
}

// End returns the highest frame number.
func (fm FrameMap) End() int {
	keys := fm.frames()
	return keys[len(keys)-1]
}

// Step returns the distance between the first two frames, or 1 for a single
// frame.
func (fm FrameMap) Step() int {
	if fm.IsSingle() {
		return 1
	}
	keys := fm.frames()
	return keys[1] - keys[0]
}

// HasFrame reports whether the given frame is contained.
func (fm FrameMap) HasFrame(frame int) bool {
	_, ok := fm[frame]
	return ok
}

// AsVec returns the contained frame numbers in ascending order.
func (fm FrameMap) AsVec() []int {
	return fm.frames()
}

// String describes the frames in human-readable form.
func (fm FrameMap) String() string {
	if fm.IsSingle() {
		return fmt.Sprintf("Frame %d", fm.Start())
	}
	if step := fm.Step(); step != 1 {
		return fmt.Sprintf("Frames %d to %d (step: %d)", fm.Start(), fm.End(), step)
	}
	return fmt.Sprintf("Frames %d to %d", fm.Start(), fm.End())
}

// Flags converts the frames to blender command flags: "-f <n>" for a single
// frame, "-s <start> -e <end>" for a contiguous range and
// "-s <start> -e <end> -j <step>" for a strided one.
func (fm FrameMap) Flags() string {
	if fm.IsSingle() {
		return fmt.Sprintf("-f %d", fm.Start())
	}
	if step := fm.Step(); step != 1 {
		return fmt.Sprintf("-s %d -e %d -j %d", fm.Start(), fm.End(), step)
	}
	return fmt.Sprintf("-s %d -e %d", fm.Start(), fm.End())
}

// SetFilesize records the filesize of a rendered frame.
func (fm FrameMap) SetFilesize(frame int, filesize int64) error {
	entry, ok := fm[frame]
	if !ok {
		return fmt.Errorf("set filesize for frame %d: %w", frame, ErrUnknownFrame)
	}
	entry.Filesize = &filesize
	fm[frame] = entry
	return nil
}

// SetHash records the content hash of a rendered frame.
func (fm FrameMap) SetHash(frame int, hash string) error {
	entry, ok := fm[frame]
	if !ok {
		return fmt.Errorf("set hash for frame %d: %w", frame, ErrUnknownFrame)
	}
	entry.Hash = &hash
	fm[frame] = entry
	return nil
}

// SetUploaded flags a rendered frame as uploaded.
func (fm FrameMap) SetUploaded(frame int) error {
	entry, ok := fm[frame]
	if !ok {
		return fmt.Errorf("set uploaded for frame %d: %w", frame, ErrUnknownFrame)
	}
	entry.Uploaded = true
	fm[frame] = entry
	return nil
}

// Filesize returns the recorded filesize of a frame, if any.
func (fm FrameMap) Filesize(frame int) (int64, bool) {
	entry, ok := fm[frame]
	if !ok || entry.Filesize == nil {
		return 0, false
	}
	return *entry.Filesize, true
}

// Hash returns the recorded hash of a frame, if any.
func (fm FrameMap) Hash(frame int) (string, bool) {
	entry, ok := fm[frame]
	if !ok || entry.Hash == nil {
		return "", false
	}
	return *entry.Hash, true
}

// Uploaded reports whether a frame has been uploaded.
func (fm FrameMap) Uploaded(frame int) bool {
	return fm[frame].Uploaded
}

// IsFilesize reports whether the filesize of a frame has been recorded.
func (fm FrameMap) IsFilesize(frame int) bool { return fm[frame].IsFilesize() }

// IsHash reports whether the hash of a frame has been recorded.
func (fm FrameMap) IsHash(frame int) bool { return fm[frame].IsHash() }

// IsUploaded reports whether a frame has been uploaded.
func (fm FrameMap) IsUploaded(frame int) bool { return fm[frame].IsUploaded() }

// AllFilesize reports whether every frame has a recorded filesize.
func (fm FrameMap) AllFilesize() bool {
	for _, f := range fm {
		if !f.IsFilesize() {
			return false
		}
	}
	return true
}

// AllHash reports whether every frame has a recorded hash.
func (fm FrameMap) AllHash() bool {
	for _, f := range fm {
		if !f.IsHash() {
			return false
		}
	}
	return true
}

// AllUploaded reports whether every frame has been uploaded.
func (fm FrameMap) AllUploaded() bool {
	for _, f := range fm {
		if !f.IsUploaded() {
			return false
		}
	}
	return true
}

// AnyFilesize reports whether any frame has a recorded filesize.
func (fm FrameMap) AnyFilesize() bool {
	for _, f := range fm {
		if f.IsFilesize() {
			return true
		}
	}
	return false
}

// AnyHash reports whether any frame has a recorded hash.
func (fm FrameMap) AnyHash() bool {
	for _, f := range fm {
		if f.IsHash() {
			return true
		}
	}
	return false
}

// AnyUploaded reports whether any frame has been uploaded.
func (fm FrameMap) AnyUploaded() bool {
	for _, f := range fm {
		if f.IsUploaded() {
			return true
		}
	}
	return false
}
