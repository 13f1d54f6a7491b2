// SPDX-License-Identifier: MIT

package job

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withFixedClock pins the package clock for the duration of a test.
func withFixedClock(t *testing.T, fixed time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })
}

func TestHistory_AppendOrder(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 5; i++ {
		h.Append(fmt.Sprintf("event %d", i))
	}

	require.Len(t, h, 5)
	keys := h.Keys()
	assert.True(t, sort.StringsAreSorted(keys))
	assert.Equal(t, "event 4", h[keys[4]])
	assert.Equal(t, "event 4", h.LastMessage())
}

func TestHistory_SameTickKeysStayUnique(t *testing.T) {
	withFixedClock(t, time.Date(2018, 8, 23, 13, 48, 40, 176598000, time.UTC))

	h := NewHistory()
	h.Append("first")
	h.Append("second")
	h.Append("third")

	require.Len(t, h, 3)
	keys := h.Keys()
	assert.Equal(t, "first", h[keys[0]])
	assert.Equal(t, "second", h[keys[1]])
	assert.Equal(t, "third", h[keys[2]])
}

func TestHistory_AppendDebounced(t *testing.T) {
	h := NewHistory()
	h.AppendDebounced("queue position: 4")
	h.AppendDebounced("queue position: 4")
	h.AppendDebounced("queue position: 4")
	require.Len(t, h, 1)

	h.AppendDebounced("queue position: 3")
	require.Len(t, h, 2)
	assert.Equal(t, "queue position: 3", h.LastMessage())
}

func TestHistory_FormatLast(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, "", h.FormatLast())

	withFixedClock(t, time.Date(2018, 8, 23, 13, 48, 40, 176598000, time.UTC))
	h.Append("uploaded")
	assert.Equal(t, "[2018-08-23T13:48:40.176598000Z]: uploaded", h.FormatLast())
}

func TestHistory_MergePrefersLocal(t *testing.T) {
	local := History{
		"2018-08-23T13:48:40.000000000Z": "local entry",
		"2018-08-23T13:48:41.000000000Z": "only local",
	}
	peer := History{
		"2018-08-23T13:48:40.000000000Z": "peer entry",
		"2018-08-23T13:48:42.000000000Z": "only peer",
	}

	local.Merge(peer)

	require.Len(t, local, 3)
	assert.Equal(t, "local entry", local["2018-08-23T13:48:40.000000000Z"])
	assert.Equal(t, "only peer", local["2018-08-23T13:48:42.000000000Z"])
	assert.Equal(t, "only peer", local.LastMessage())
}
