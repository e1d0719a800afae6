package render

import (
	"fmt"
	"sort"

	"mixtape/internal/wav"
)

// Assemble concatenates rendered segments into one PCM stream,
// ordered by plan position regardless of the order they arrive in.
// Every segment must carry the same format; the first disagreement
// aborts the assembly.
func Assemble(segments []Segment) (wav.Audio, error) {
	if len(segments) == 0 {
		return wav.Audio{}, ErrNoSegments
	}

	sorted := make([]Segment, len(segments))
	copy(sorted, segments)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	format := sorted[0].Audio.Format
	total := 0
	for _, s := range sorted {
		if s.Audio.Format != format {
			return wav.Audio{}, fmt.Errorf("%w: segment %d is %s but segment %d is %s",
				ErrFormatMismatch, sorted[0].Index, format, s.Index, s.Audio.Format)
		}
		total += len(s.Audio.Data)
	}

	data := make([]byte, 0, total)
	for _, s := range sorted {
		data = append(data, s.Audio.Data...)
	}
	return wav.Audio{Format: format, Data: data}, nil
}
