// Package stage tracks progress of a generation run through its fixed,
// strictly linear sequence of stages:
//
//	Sample -> Derive -> BaseIncome -> MeanRescale -> ShapeCorrect
//	       -> FinalRescale -> Corrupt -> Persist
//
// A Tracker refuses to skip a stage or go backwards, so the ordering
// contracts between stages (for example, corruption strictly after the final
// rescale) are checked at run time rather than left to call order.
package stage

import (
	"fmt"
	"time"

	"github.com/ezoic/popsynth/pkg/errors"
)

// Stage is a step of the generation pipeline.
type Stage int

const (
	// Pending means no stage has completed yet.
	Pending Stage = iota
	Sampled
	Derived
	BaseIncome
	MeanRescaled
	ShapeCorrected
	FinalRescaled
	Corrupted
	Persisted
)

var stageNames = map[Stage]string{
	Pending:        "pending",
	Sampled:        "sample",
	Derived:        "derive",
	BaseIncome:     "base_income",
	MeanRescaled:   "mean_rescale",
	ShapeCorrected: "shape_correct",
	FinalRescaled:  "final_rescale",
	Corrupted:      "corrupt",
	Persisted:      "persist",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Next returns the stage that must follow s.
func (s Stage) Next() Stage {
	if s >= Persisted {
		return Persisted
	}
	return s + 1
}

// Record is one completed stage with its wall-clock duration.
type Record struct {
	Stage    Stage
	Duration time.Duration
}

// Tracker holds the current stage of one run. It is not safe for concurrent
// use; a run is owned by a single goroutine.
type Tracker struct {
	current Stage
	history []Record
	started time.Time
}

// NewTracker returns a tracker at Pending.
func NewTracker() *Tracker {
	return &Tracker{current: Pending, started: time.Now()}
}

// Current returns the last completed stage.
func (t *Tracker) Current() Stage {
	return t.current
}

// Done reports whether s has completed.
func (t *Tracker) Done(s Stage) bool {
	return t.current >= s
}

// Require returns ErrStageOrder unless s has completed.
func (t *Tracker) Require(s Stage) error {
	if !t.Done(s) {
		return errors.Wrapf(errors.ErrStageOrder, "requires %s, current stage is %s", s, t.current)
	}
	return nil
}

// Complete marks s as finished. s must be the stage directly after the
// current one.
func (t *Tracker) Complete(s Stage) error {
	if s != t.current.Next() || t.current == Persisted {
		return errors.Wrapf(errors.ErrStageOrder, "cannot complete %s after %s", s, t.current)
	}
	now := time.Now()
	t.history = append(t.history, Record{Stage: s, Duration: now.Sub(t.started)})
	t.current = s
	t.started = now
	return nil
}

// History returns the completed stages in order.
func (t *Tracker) History() []Record {
	out := make([]Record, len(t.history))
	copy(out, t.history)
	return out
}
