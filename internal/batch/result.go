package batch

import (
	"fmt"
	"time"

	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/vm"
)

// State is the final state of one target.
type State string

const (
	// StateSucceeded means the server task finished OK.
	StateSucceeded State = "Succeeded"
	// StateFailed means the pipeline returned an error or panicked.
	StateFailed State = "Failed"
	// StateSkipped means the pipeline never started.
	StateSkipped State = "Skipped"
)

// ReasonCancelled is the skip reason for targets that never started.
const ReasonCancelled = "batch cancelled"

// Outcome is the final result for one target.
type Outcome struct {
	Target    vm.Target
	Operation vm.OperationType
	State     State
	Reason    string
	Class     vm.FailureClass
	Kind      pve.Kind
	UPID      pve.UPID
	Duration  time.Duration
}

// Summary counts outcomes by state.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Total returns the number of outcomes counted.
func (s Summary) Total() int {
	return s.Succeeded + s.Failed + s.Skipped
}

func (s Summary) String() string {
	return fmt.Sprintf("%d succeeded, %d failed, %d skipped", s.Succeeded, s.Failed, s.Skipped)
}

// Result holds one Outcome per target of a batch, ordered by target ID.
type Result struct {
	ID         string
	Node       string
	Operation  vm.OperationType
	Range      Range
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

// Summary counts the outcomes by state.
func (r *Result) Summary() Summary {
	var s Summary
	for _, o := range r.Outcomes {
		switch o.State {
		case StateSucceeded:
			s.Succeeded++
		case StateFailed:
			s.Failed++
		case StateSkipped:
			s.Skipped++
		}
	}
	return s
}

// OK reports whether every target succeeded.
func (r *Result) OK() bool {
	s := r.Summary()
	return s.Failed == 0 && s.Skipped == 0
}

// Unsuccessful returns the failed and skipped outcomes.
func (r *Result) Unsuccessful() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.State != StateSucceeded {
			out = append(out, o)
		}
	}
	return out
}

// Outcome returns the outcome for id.
func (r *Result) Outcome(id int) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Target.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// Elapsed returns the wall time of the batch.
func (r *Result) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
