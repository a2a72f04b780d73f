package batch

import (
	"fmt"
	"time"

	"github.com/jbweber/herd/api/v1alpha1"
	"github.com/jbweber/herd/internal/vm"
)

// JobFromManifest builds a Job from a Batch manifest. The returned job has
// not been validated.
func JobFromManifest(b *v1alpha1.Batch) (Job, error) {
	opType, err := vm.ParseOperationType(b.Spec.Operation)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		Node:  b.Spec.Node,
		Range: Range{Min: b.Spec.Range.Min, Max: b.Spec.Range.Max},
	}

	switch opType {
	case vm.OpClone:
		if b.Spec.Clone == nil {
			return Job{}, fmt.Errorf("spec.clone is required for the clone operation")
		}
		mode, err := vm.ParseCloneMode(b.Spec.Clone.Mode)
		if err != nil {
			return Job{}, fmt.Errorf("spec.clone.mode: %w", err)
		}
		job.Operation = vm.CloneOp(b.Spec.Clone.Source, mode, "")
		job.NamePrefix = b.Spec.Clone.NamePrefix
		job.Name = b.Spec.Clone.Name
	case vm.OpDestroy:
		job.Operation = vm.DestroyOp()
	case vm.OpStart:
		job.Operation = vm.StartOp()
	case vm.OpStop:
		job.Operation = vm.StopOp()
	}

	return job, nil
}

// Manifest renders the result as a Batch manifest with its status filled
// in. job supplies the spec.
func (r *Result) Manifest(name string, job Job, concurrency int) *v1alpha1.Batch {
	b := v1alpha1.NewBatch(name)
	b.UID = r.ID
	b.Spec = v1alpha1.BatchSpec{
		Node:        job.Node,
		Range:       v1alpha1.RangeSpec{Min: job.Range.Min, Max: job.Range.Max},
		Operation:   string(job.Operation.Type),
		Concurrency: concurrency,
	}
	if c := job.Operation.Clone; c != nil {
		b.Spec.Clone = &v1alpha1.CloneSpec{
			Source:     c.SourceID,
			Mode:       string(c.Mode),
			NamePrefix: job.NamePrefix,
			Name:       job.Name,
		}
	}
	r.ApplyStatus(b)
	return b
}

// ApplyStatus writes the result into the manifest status.
func (r *Result) ApplyStatus(b *v1alpha1.Batch) {
	s := r.Summary()
	status := &b.Status

	status.RunID = r.ID
	status.StartTime = v1alpha1.NewTime(r.StartedAt)
	status.CompletionTime = v1alpha1.NewTime(r.FinishedAt)
	status.Succeeded = s.Succeeded
	status.Failed = s.Failed
	status.Skipped = s.Skipped

	status.Targets = make([]v1alpha1.TargetStatus, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		ts := v1alpha1.TargetStatus{
			ID:     o.Target.ID,
			State:  string(o.State),
			Kind:   string(o.Kind),
			UPID:   string(o.UPID),
			Class:  string(o.Class),
			Reason: o.Reason,
		}
		if o.State != StateSkipped {
			ts.Duration = o.Duration.Round(100 * time.Millisecond).String()
		}
		status.Targets = append(status.Targets, ts)
	}

	status.Phase = v1alpha1.BatchPhaseSucceeded
	reason := "AllSucceeded"
	if !r.OK() {
		status.Phase = v1alpha1.BatchPhaseFailed
		reason = "TargetsFailed"
	}
	status.SetCondition(v1alpha1.Condition{
		Type:    v1alpha1.ConditionComplete,
		Status:  v1alpha1.ConditionTrue,
		Reason:  reason,
		Message: s.String(),
	})
}
