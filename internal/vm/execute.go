package vm

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/jbweber/herd/internal/pve"
)

// Submission records which kind accepted a request and the task it started.
type Submission struct {
	Kind     pve.Kind
	UPID     pve.UPID
	Attempts int
}

// Executor sends kind-specific lifecycle requests.
type Executor struct {
	api     API
	session *pve.Session
}

// NewExecutor returns an executor bound to a session.
func NewExecutor(api API, s *pve.Session) *Executor {
	return &Executor{api: api, session: s}
}

// Execute sends one request for op against target using the kind's endpoints.
func (e *Executor) Execute(ctx context.Context, kind pve.Kind, target Target, op Operation) (pve.UPID, error) {
	switch op.Type {
	case OpClone:
		if op.Clone == nil {
			return "", fmt.Errorf("clone operation without a source")
		}
		return e.api.Clone(ctx, e.session, target.Node, kind, op.Clone.SourceID, cloneRequest(kind, target, op.Clone))
	case OpDestroy:
		return e.api.Delete(ctx, e.session, target.Node, kind, target.ID)
	case OpStart:
		return e.api.SetStatus(ctx, e.session, target.Node, kind, target.ID, pve.ActionStart)
	case OpStop:
		return e.api.SetStatus(ctx, e.session, target.Node, kind, target.ID, pve.ActionStop)
	default:
		return "", fmt.Errorf("unsupported operation %q", op.Type)
	}
}

// cloneRequest builds the clone body. Containers cannot be linked clones and
// take the name as hostname.
func cloneRequest(kind pve.Kind, target Target, spec *CloneSpec) pve.CloneRequest {
	req := pve.CloneRequest{
		NewID: target.ID,
		Node:  target.Node,
		VMID:  spec.SourceID,
		Full:  spec.Mode == CloneFull,
	}
	if kind == pve.KindContainer {
		req.Full = true
		req.Hostname = spec.Name
		return req
	}
	req.Name = spec.Name
	return req
}

// Submit tries each kind in order and returns the first accepted task.
// Only a non-success HTTP status moves on to the next kind. Transport and
// decode failures stop immediately.
func (e *Executor) Submit(ctx context.Context, kinds []pve.Kind, target Target, op Operation) (Submission, error) {
	log := logr.FromContextOrDiscard(ctx)

	if len(kinds) == 0 {
		return Submission{}, &PipelineError{Class: ClassExecution, Err: fmt.Errorf("no kind to try for %s", target)}
	}

	var rejected []error
	for i, kind := range kinds {
		upid, err := e.Execute(ctx, kind, target, op)
		if err == nil {
			log.V(1).Info("request accepted", "kind", kind.String(), "upid", string(upid))
			return Submission{Kind: kind, UPID: upid, Attempts: i + 1}, nil
		}
		if !pve.IsStatus(err) || i == len(kinds)-1 {
			rejected = append(rejected, fmt.Errorf("%s: %w", kind, err))
			break
		}
		log.V(1).Info("request rejected, trying next kind", "kind", kind.String(), "error", err.Error())
		rejected = append(rejected, fmt.Errorf("%s: %w", kind, err))
	}

	return Submission{Attempts: len(rejected)}, classify(ClassExecution, joinAttempts(op, target, rejected))
}

func joinAttempts(op Operation, target Target, errs []error) error {
	if len(errs) == 1 {
		return fmt.Errorf("%s %s: %w", op.Type, target, errs[0])
	}
	// Keep the last error unwrappable; earlier ones are context.
	msg := ""
	for _, err := range errs[:len(errs)-1] {
		msg += err.Error() + "; "
	}
	return fmt.Errorf("%s %s: %s%w", op.Type, target, msg, errs[len(errs)-1])
}
