// SPDX-License-Identifier: MIT

package job

import (
	"fmt"
	"sort"
	"time"
)

// historyLayout is the fixed-width UTC timestamp format used for history keys.
// Fixed width keeps lexicographic key order chronological.
const historyLayout = "2006-01-02T15:04:05.000000000Z"

// History is a time-ordered, append-only event log. Keys are formatted
// timestamps, unique per entry; Keys returns them in chronological order
// (ranging over the map itself is unordered).
type History map[string]string

// Event is one history entry.
type Event struct {
	Time    time.Time
	Message string
}

// Format renders an event as "[<timestamp>]: <message>".
func (e Event) Format() string {
	return fmt.Sprintf("[%s]: %s", e.Time.UTC().Format(historyLayout), e.Message)
}

// NewHistory returns an empty history.
func NewHistory() History {
	return History{}
}

// Keys returns the history keys in chronological order.
func (h History) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Append inserts a message stamped with the current wall clock. If two appends
// fall in the same tick the timestamp is bumped minimally so keys stay unique
// and insertion order is preserved.
func (h History) Append(message string) {
	t := now().UTC()
	key := t.Format(historyLayout)
	for {
		if _, exists := h[key]; !exists {
			break
		}
		t = t.Add(time.Nanosecond)
		key = t.Format(historyLayout)
	}
	h[key] = message
}

// AppendDebounced appends only if the message differs from the latest entry.
func (h History) AppendDebounced(message string) {
	if last, ok := h.Last(); ok && last.Message == message {
		return
	}
	h.Append(message)
}

// Last returns the most recent event, if any.
func (h History) Last() (Event, bool) {
	if len(h) == 0 {
		return Event{}, false
	}
	keys := h.Keys()
	key := keys[len(keys)-1]
	t, err := time.Parse(historyLayout, key)
	if err != nil {
		// Tolerate foreign timestamp formats from older sidecars.
		t = time.Time{}
	}
	return Event{Time: t, Message: h[key]}, true
}

// FormatLast renders the most recent event, or "" for an empty history.
func (h History) FormatLast() string {
	last, ok := h.Last()
	if !ok {
		return ""
	}
	return last.Format()
}

// LastMessage returns the most recent message, or "" for an empty history.
func (h History) LastMessage() string {
	last, ok := h.Last()
	if !ok {
		return ""
	}
	return last.Message
}

// Merge unions other into h. On key collision the existing local entry wins.
func (h History) Merge(other History) {
	for k, v := range other {
		if _, exists := h[k]; !exists {
			h[k] = v
		}
	}
}
