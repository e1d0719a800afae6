// Package segment turns a selection mode, an ordered list of probed input
// files, and length/skip parameters into an ordered list of extraction
// tasks. Planning is pure: no I/O, no randomness, and the same inputs
// always produce the same tasks.
package segment

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"
)

// Mode selects the extraction pattern for a run. Exactly one mode is
// active per run.
type Mode int

const (
	// Beginning extracts the first length seconds of a single file.
	Beginning Mode = iota
	// End extracts the last length seconds of a single file.
	End
	// Slice extracts length seconds every skip seconds across each file.
	Slice
	// Transition pairs the tail of each file with the head of the next.
	Transition
)

func (m Mode) String() string {
	switch m {
	case Beginning:
		return "beginning"
	case End:
		return "end"
	case Slice:
		return "slice"
	case Transition:
		return "transition"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Default parameter values, applied by the CLI when flags are omitted.
const (
	DefaultLength      = 30 * time.Second
	DefaultSliceLength = 1 * time.Second
	DefaultSkip        = 5 * time.Second
)

// DefaultLength returns the segment length used when the user does not
// supply one: 1s for Slice, 30s otherwise.
func (m Mode) DefaultLength() time.Duration {
	if m == Slice {
		return DefaultSliceLength
	}
	return DefaultLength
}

// InputFile is an input path with its probed duration. Immutable once
// probing has populated it.
type InputFile struct {
	Path     string
	Duration time.Duration
}

// Task is one extraction to perform: Length seconds of Source starting at
// Start. Index is the task's position in the plan and the sole ordering
// key for assembly; it is assigned here and never recomputed.
type Task struct {
	Source InputFile
	Start  time.Duration
	Length time.Duration
	Index  int
	Label  string
}

// End returns the exclusive end offset of the extraction window.
func (t Task) End() time.Duration {
	return t.Start + t.Length
}

func (t Task) String() string {
	return t.Label
}

// WarnFunc receives non-fatal planning conditions, currently only
// segments dropped because their clamped length reached zero.
type WarnFunc func(msg string)

// ValidateCardinality checks the file-count rule for a mode. It runs
// before probing so a wrong invocation fails without touching any file.
func ValidateCardinality(mode Mode, fileCount int) error {
	switch mode {
	case Beginning, End:
		if fileCount != 1 {
			return fmt.Errorf("%w: %s mode requires exactly one input file, got %d",
				ErrInvalidArgument, mode, fileCount)
		}
	case Slice:
		if fileCount < 1 {
			return fmt.Errorf("%w: %s mode requires at least one input file",
				ErrInvalidArgument, mode)
		}
	case Transition:
		if fileCount < 2 {
			return fmt.Errorf("%w: %s mode requires at least two input files, got %d",
				ErrInvalidArgument, mode, fileCount)
		}
	default:
		return fmt.Errorf("%w: unknown mode %s", ErrInvalidArgument, mode)
	}
	return nil
}

// Plan maps mode, files, and parameters to ordered extraction tasks.
// Task lengths clamp to the file end; a task whose clamped length reaches
// zero is dropped and reported through warn instead of failing the run.
// warn may be nil.
func Plan(mode Mode, files []InputFile, length, skip time.Duration, warn WarnFunc) ([]Task, error) {
	if warn == nil {
		warn = func(string) {}
	}
	if err := ValidateCardinality(mode, len(files)); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %s", ErrInvalidArgument, length)
	}
	if mode == Slice && skip <= 0 {
		return nil, fmt.Errorf("%w: skip must be positive, got %s", ErrInvalidArgument, skip)
	}

	p := planner{warn: warn}
	switch mode {
	case Beginning:
		p.beginning(files[0], length)
	case End:
		p.end(files[0], length)
	case Slice:
		for _, f := range files {
			p.slices(f, length, skip)
		}
	case Transition:
		for i := 0; i < len(files)-1; i++ {
			p.end(files[i], length)
			p.beginning(files[i+1], length)
		}
	}
	return p.tasks, nil
}

// planner accumulates tasks, numbering them by position.
type planner struct {
	tasks []Task
	warn  WarnFunc
}

func (p *planner) beginning(f InputFile, length time.Duration) {
	p.add(f, 0, length, fmt.Sprintf("%s: First %s seconds", filepath.Base(f.Path), seconds(length)))
}

func (p *planner) end(f InputFile, length time.Duration) {
	start := f.Duration - length
	if start < 0 {
		start = 0
	}
	p.add(f, start, length, fmt.Sprintf("%s: Last %s seconds", filepath.Base(f.Path), seconds(length)))
}

func (p *planner) slices(f InputFile, length, skip time.Duration) {
	for start := time.Duration(0); start < f.Duration; start += skip {
		p.add(f, start, length, fmt.Sprintf("%s: %s", filepath.Base(f.Path), Clock(start)))
	}
}

// add appends a task after clamping its length to the file end. A clamped
// length of zero or less means the file has nothing left at that offset:
// the task is dropped with a warning.
func (p *planner) add(f InputFile, start, length time.Duration, label string) {
	if remain := f.Duration - start; remain < length {
		length = remain
	}
	if length <= 0 {
		p.warn(fmt.Sprintf("%s: segment at %s dropped, file ends at %s",
			filepath.Base(f.Path), Clock(start), Clock(f.Duration)))
		return
	}
	p.tasks = append(p.tasks, Task{
		Source: f,
		Start:  start,
		Length: length,
		Index:  len(p.tasks),
		Label:  label,
	})
}

// Clock formats an offset as minutes:seconds, e.g. "3:05".
func Clock(d time.Duration) string {
	total := int(d.Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// seconds renders a duration as a bare decimal second count, trimming
// trailing zeros so labels read "30" rather than "30.000000".
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
