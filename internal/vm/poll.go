package vm

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/retry"
	"github.com/jbweber/herd/internal/status"
)

// Poller waits for server tasks to reach a terminal state.
type Poller struct {
	api     API
	session *pve.Session
	config  retry.Config
}

// NewPoller returns a poller using cfg for backoff and the poll deadline.
func NewPoller(api API, s *pve.Session, cfg retry.Config) *Poller {
	return &Poller{api: api, session: s, config: cfg}
}

// Await polls the task until it succeeds, fails, or the deadline expires.
// Undecodable replies and error statuses are retried. A transport failure
// ends the wait.
func (p *Poller) Await(ctx context.Context, target Target, upid pve.UPID) error {
	log := logr.FromContextOrDiscard(ctx)
	job := status.NewJob(string(upid))

	err := retry.Poll(ctx, func(ctx context.Context) (bool, error) {
		ts, err := p.api.TaskStatus(ctx, p.session, target.Node, upid)
		if err != nil {
			if ctx.Err() == nil && pve.IsTransport(err) {
				return false, retry.Fatal(err)
			}
			log.V(1).Info("task status unavailable", "upid", string(upid), "error", err.Error())
			return false, err
		}

		state, err := job.Observe(ts.ExitStatus)
		if err != nil {
			return false, retry.Fatal(err)
		}
		return status.IsTerminal(state), nil
	}, p.options()...)

	if err != nil {
		switch {
		case errors.Is(err, retry.ErrTimeout):
			return &PipelineError{Class: ClassTimeout, Err: fmt.Errorf("task %s on %s: %w", upid, target, err)}
		default:
			return classify(ClassPoll, fmt.Errorf("task %s on %s: %w", upid, target, err))
		}
	}

	if err := job.Err(); err != nil {
		return &PipelineError{Class: ClassPoll, Err: fmt.Errorf("%s: %w", target, err)}
	}
	log.V(1).Info("task finished", "upid", string(upid), "observations", job.Observations)
	return nil
}

func (p *Poller) options() []retry.Option {
	return []retry.Option{
		retry.WithInitialDelay(p.config.InitialDelay),
		retry.WithMaxDelay(p.config.MaxDelay),
		retry.WithMultiplier(p.config.Multiplier),
		retry.WithTimeout(p.config.Timeout),
	}
}
