package vm

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/retry"
)

// Receipt describes a finished pipeline run.
type Receipt struct {
	Kind     pve.Kind
	UPID     pve.UPID
	Attempts int
	Duration time.Duration
}

// Pipeline runs resolve, execute and poll for one target.
type Pipeline struct {
	resolver *Resolver
	executor *Executor
	poller   *Poller
}

// NewPipeline wires the three stages to one API client and session.
func NewPipeline(api API, s *pve.Session, pollConfig retry.Config) *Pipeline {
	return &Pipeline{
		resolver: NewResolver(api, s),
		executor: NewExecutor(api, s),
		poller:   NewPoller(api, s, pollConfig),
	}
}

// Run applies op to target and waits for the server task to finish.
//
// The receipt is filled in as far as the pipeline got, so a poll failure
// still reports the kind and UPID of the submitted task.
func (p *Pipeline) Run(ctx context.Context, target Target, op Operation) (Receipt, error) {
	start := time.Now()
	log := logr.FromContextOrDiscard(ctx).WithValues("target", target.ID, "operation", string(op.Type))
	ctx = logr.NewContext(ctx, log)

	receipt := Receipt{}
	finish := func(err error) (Receipt, error) {
		receipt.Duration = time.Since(start)
		return receipt, err
	}

	if err := op.Validate(); err != nil {
		return finish(&PipelineError{Class: ClassExecution, Err: err})
	}

	kinds := TrialOrder()
	if op.Probes() {
		res, err := p.resolver.Resolve(ctx, target)
		if err != nil {
			return finish(err)
		}
		kind, _ := res.Kind()
		kinds = []pve.Kind{kind}
	}

	sub, err := p.executor.Submit(ctx, kinds, target, op)
	receipt.Attempts = sub.Attempts
	if err != nil {
		return finish(err)
	}
	receipt.Kind = sub.Kind
	receipt.UPID = sub.UPID
	log.Info("task submitted", "kind", sub.Kind.String(), "upid", string(sub.UPID))

	if err := p.poller.Await(ctx, target, sub.UPID); err != nil {
		return finish(err)
	}
	return finish(nil)
}
