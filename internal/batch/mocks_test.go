package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/vm"
)

type runCall struct {
	Target    vm.Target
	Operation vm.Operation
}

// mockRunner is a mock implementation of the Runner interface for testing.
// It tracks how many pipelines are in flight at once.
type mockRunner struct {
	mu sync.Mutex

	// Configurable behavior
	runFunc func(ctx context.Context, target vm.Target, op vm.Operation) (vm.Receipt, error)

	// Call tracking
	runCalls []runCall

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

// newMockRunner creates a runner where every pipeline succeeds as a VM task.
func newMockRunner() *mockRunner {
	m := &mockRunner{}
	m.runFunc = func(ctx context.Context, target vm.Target, op vm.Operation) (vm.Receipt, error) {
		return vm.Receipt{Kind: pve.KindVirtualMachine, UPID: pve.UPID("UPID:pve1:1")}, nil
	}
	return m
}

func (m *mockRunner) Run(ctx context.Context, target vm.Target, op vm.Operation) (vm.Receipt, error) {
	n := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		cur := m.maxInflight.Load()
		if n <= cur || m.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}

	m.mu.Lock()
	m.runCalls = append(m.runCalls, runCall{Target: target, Operation: op})
	m.mu.Unlock()

	return m.runFunc(ctx, target, op)
}

func (m *mockRunner) calls() []runCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]runCall(nil), m.runCalls...)
}

// sleepy returns a run function that holds its slot for d.
func sleepy(d time.Duration) func(context.Context, vm.Target, vm.Operation) (vm.Receipt, error) {
	return func(ctx context.Context, target vm.Target, op vm.Operation) (vm.Receipt, error) {
		select {
		case <-time.After(d):
			return vm.Receipt{Kind: pve.KindVirtualMachine}, nil
		case <-ctx.Done():
			return vm.Receipt{}, ctx.Err()
		}
	}
}

// recordingReporter collects reported outcomes.
type recordingReporter struct {
	outcomes []Outcome
}

func (r *recordingReporter) Report(o Outcome) {
	r.outcomes = append(r.outcomes, o)
}

// countingObserver counts observer events.
type countingObserver struct {
	mu       sync.Mutex
	started  int
	finished map[string]int
	skipped  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{finished: map[string]int{}}
}

func (o *countingObserver) PipelineStarted(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *countingObserver) PipelineFinished(_ string, result string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[result]++
}

func (o *countingObserver) TargetSkipped(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skipped++
}
