package pipeline

import (
	"fmt"
	"io"
	"time"

	"mixtape/internal/render"
	"mixtape/internal/segment"
)

// trailEntry is one playback progress line and how long it stays up.
type trailEntry struct {
	label string
	d     time.Duration
}

// trailEntries pairs each task's label with its rendered duration.
// Segments arrive in task order, one per task.
func trailEntries(tasks []segment.Task, segments []render.Segment) []trailEntry {
	entries := make([]trailEntry, 0, len(segments))
	for i, s := range segments {
		label := ""
		if i < len(tasks) {
			label = tasks[i].Label
		}
		entries = append(entries, trailEntry{label: label, d: s.Audio.Duration()})
	}
	return entries
}

// printTrail walks the labels on each segment's schedule, overwriting
// the previous line in place, and finishes with a newline. It returns
// early when done closes, so it never outlives playback.
func printTrail(w io.Writer, entries []trailEntry, done <-chan struct{}) {
	width := 0
	for _, e := range entries {
		if len(e.label) > width {
			width = len(e.label)
		}
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%-*s\r", width, e.label)
		select {
		case <-done:
			fmt.Fprintln(w)
			return
		case <-time.After(e.d):
		}
	}
	<-done
	fmt.Fprintln(w)
}
