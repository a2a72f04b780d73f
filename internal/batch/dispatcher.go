package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/jbweber/herd/internal/vm"
)

// Runner runs the pipeline for one target.
//
// In production, this is satisfied by *vm.Pipeline.
type Runner interface {
	Run(ctx context.Context, target vm.Target, op vm.Operation) (vm.Receipt, error)
}

// Reporter receives each outcome as soon as its target completes.
// Calls come from a single goroutine.
type Reporter interface {
	Report(o Outcome)
}

// Observer receives pipeline lifecycle events. Calls come from worker
// goroutines concurrently.
type Observer interface {
	PipelineStarted(operation string)
	PipelineFinished(operation, result string, elapsed time.Duration)
	TargetSkipped(operation string)
}

// Dispatcher runs a batch on a fixed pool of workers.
type Dispatcher struct {
	runner          Runner
	concurrency     int
	pipelineTimeout time.Duration
	reporter        Reporter
	observer        Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency sets the number of workers. Values below 1 are treated as 1.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		d.concurrency = max(n, 1)
	}
}

// WithPipelineTimeout bounds each pipeline. Zero disables the deadline.
func WithPipelineTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.pipelineTimeout = timeout
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(d *Dispatcher) {
		d.reporter = r
	}
}

// WithObserver sets the pipeline observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// NewDispatcher creates a Dispatcher with one worker unless configured
// otherwise.
func NewDispatcher(runner Runner, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		runner:      runner,
		concurrency: 1,
		reporter:    nopReporter{},
		observer:    nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Concurrency returns the number of workers.
func (d *Dispatcher) Concurrency() int {
	return d.concurrency
}

// Run applies the job to every target and returns once each one has an
// outcome. Cancelling ctx stops the queue; targets not yet started are
// recorded as skipped and running pipelines see the cancellation.
func (d *Dispatcher) Run(ctx context.Context, job Job) *Result {
	targets := job.Targets()
	result := &Result{
		ID:        uuid.NewString(),
		Node:      job.Node,
		Operation: job.Operation.Type,
		Range:     job.Range,
		StartedAt: time.Now(),
	}

	log := logr.FromContextOrDiscard(ctx).WithValues("batch", result.ID)
	ctx = logr.NewContext(ctx, log)
	log.Info("starting batch",
		"operation", string(job.Operation.Type),
		"node", job.Node,
		"range", job.Range.String(),
		"concurrency", d.concurrency)

	queue := make(chan vm.Target)
	outcomes := make(chan Outcome, len(targets))

	var wg sync.WaitGroup
	for range d.concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range queue {
				outcomes <- d.runOne(ctx, job, target)
			}
		}()
	}

	go func() {
		defer close(queue)
		for i, target := range targets {
			if ctx.Err() == nil {
				select {
				case queue <- target:
					continue
				case <-ctx.Done():
				}
			}
			for _, rest := range targets[i:] {
				outcomes <- d.skip(job, rest)
			}
			return
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	collected := make(map[int]Outcome, len(targets))
	for o := range outcomes {
		collected[o.Target.ID] = o
		d.reporter.Report(o)
	}

	result.Outcomes = make([]Outcome, 0, len(targets))
	for _, target := range targets {
		o, ok := collected[target.ID]
		if !ok {
			o = Outcome{Target: target, Operation: job.Operation.Type, State: StateSkipped, Reason: "no outcome recorded"}
		}
		result.Outcomes = append(result.Outcomes, o)
	}
	result.FinishedAt = time.Now()

	log.Info("batch finished", "summary", result.Summary().String(), "elapsed", result.Elapsed().String())
	return result
}

// runOne runs a single pipeline and turns its result, error or panic into an
// Outcome.
func (d *Dispatcher) runOne(ctx context.Context, job Job, target vm.Target) (out Outcome) {
	if ctx.Err() != nil {
		return d.skip(job, target)
	}

	op := job.OperationFor(target)
	opName := string(op.Type)
	log := logr.FromContextOrDiscard(ctx)
	start := time.Now()

	d.observer.PipelineStarted(opName)
	defer func() {
		if r := recover(); r != nil {
			log.Error(fmt.Errorf("%v", r), "pipeline panicked", "target", target.ID)
			out = Outcome{
				Target:    target,
				Operation: op.Type,
				State:     StateFailed,
				Reason:    fmt.Sprintf("pipeline panicked: %v", r),
				Class:     vm.ClassPanic,
				Duration:  time.Since(start),
			}
		}
		d.observer.PipelineFinished(opName, strings.ToLower(string(out.State)), out.Duration)
	}()

	pctx := ctx
	if d.pipelineTimeout > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, d.pipelineTimeout)
		defer cancel()
	}

	receipt, err := d.runner.Run(pctx, target, op)
	out = Outcome{
		Target:    target,
		Operation: op.Type,
		State:     StateSucceeded,
		Kind:      receipt.Kind,
		UPID:      receipt.UPID,
		Duration:  time.Since(start),
	}
	if err != nil {
		out.State = StateFailed
		out.Class = classOf(err)
		out.Reason = err.Error()
		log.Error(err, "pipeline failed", "target", target.ID, "class", string(out.Class))
	}
	return out
}

func (d *Dispatcher) skip(job Job, target vm.Target) Outcome {
	d.observer.TargetSkipped(string(job.Operation.Type))
	return Outcome{Target: target, Operation: job.Operation.Type, State: StateSkipped, Reason: ReasonCancelled}
}

// classOf returns the failure class of err, falling back to context errors
// for runners that do not return a *vm.PipelineError.
func classOf(err error) vm.FailureClass {
	if class := vm.ClassOf(err); class != "" {
		return class
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return vm.ClassTimeout
	case errors.Is(err, context.Canceled):
		return vm.ClassCancelled
	default:
		return vm.ClassExecution
	}
}

type nopReporter struct{}

func (nopReporter) Report(Outcome) {}

type nopObserver struct{}

func (nopObserver) PipelineStarted(string) {}

func (nopObserver) PipelineFinished(string, string, time.Duration) {}

func (nopObserver) TargetSkipped(string) {}
