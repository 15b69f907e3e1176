// Package progress turns the text output stream of the transcription
// pipeline into monotonic work-unit counters. The line patterns are the
// boundary contract with the external executables; nothing outside this
// package matches pipeline output directly, so swapping the patterns for a
// structured format stays a one-package change.
package progress

import "regexp"

var (
	segmentsTotalPattern    = regexp.MustCompile(`^Segments:\s*(\d+)\s*$`)
	segmentCompletedPattern = regexp.MustCompile(`^\[3/4\]\s+Completed\s+segment_(\d+)\s*$`)
)

// Tracker accumulates declared and completed segment counts from pipeline
// log lines. It is not safe for concurrent use; callers serialize access.
type Tracker struct {
	total     int
	completed map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{completed: make(map[string]struct{})}
}

// Observe inspects one log line. Completion lines are deduplicated by
// segment identifier: retries and races may repeat them, and the count must
// only ever grow by genuinely new segments. A repeated total announcement
// wins over the previous one.
func (t *Tracker) Observe(line string) {
	if m := segmentsTotalPattern.FindStringSubmatch(line); m != nil {
		t.total = parseCount(m[1])
		return
	}

	if m := segmentCompletedPattern.FindStringSubmatch(line); m != nil {
		t.completed[m[1]] = struct{}{}
	}
}

// Total returns the declared segment count, zero until announced.
func (t *Tracker) Total() int {
	return t.total
}

// CompletedCount returns the number of distinct completed segments, clamped
// to [0, total] once a total is known.
func (t *Tracker) CompletedCount() int {
	n := len(t.completed)
	if t.total > 0 && n > t.total {
		return t.total
	}
	return n
}

// CompletedIDs returns a copy of the completed segment identifier set.
func (t *Tracker) CompletedIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(t.completed))
	for id := range t.completed {
		out[id] = struct{}{}
	}
	return out
}

// Reset clears all counters for a new run.
func (t *Tracker) Reset() {
	t.total = 0
	t.completed = make(map[string]struct{})
}

func parseCount(digits string) int {
	n := 0
	for _, r := range digits {
		n = n*10 + int(r-'0')
		if n > 999999 {
			return 999999
		}
	}
	return n
}
