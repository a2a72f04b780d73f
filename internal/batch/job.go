package batch

import (
	"errors"
	"fmt"

	"github.com/jbweber/herd/internal/naming"
	"github.com/jbweber/herd/internal/vm"
)

// Range is an inclusive span of guest IDs.
type Range struct {
	Min int
	Max int
}

// Single returns the range holding only id.
func Single(id int) Range {
	return Range{Min: id, Max: id}
}

// Validate checks that the range is non-empty and holds only positive IDs.
func (r Range) Validate() error {
	if r.Min <= 0 {
		return fmt.Errorf("range minimum must be a positive VMID, got %d", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("range maximum %d is below minimum %d", r.Max, r.Min)
	}
	return nil
}

// Len returns the number of IDs in the range.
func (r Range) Len() int {
	if r.Max < r.Min {
		return 0
	}
	return r.Max - r.Min + 1
}

// Targets pairs every ID in the range with node, in ascending order.
func (r Range) Targets(node string) []vm.Target {
	targets := make([]vm.Target, 0, r.Len())
	for id := r.Min; id <= r.Max; id++ {
		targets = append(targets, vm.Target{Node: node, ID: id})
	}
	return targets
}

func (r Range) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%d", r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Job describes one batch: an operation applied to every ID in a range.
type Job struct {
	Node      string
	Range     Range
	Operation vm.Operation

	// NamePrefix names range clones prefix+(id-min). Empty sends no name.
	NamePrefix string

	// Name is sent verbatim for a single-target clone.
	Name string
}

// Validate checks the job before anything is sent to the API.
func (j Job) Validate() error {
	var errs []error

	if j.Node == "" {
		errs = append(errs, errors.New("node is required"))
	}
	if err := j.Range.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := j.Operation.Validate(); err != nil {
		errs = append(errs, err)
	}

	if j.Operation.Type == vm.OpClone {
		switch {
		case j.Name != "" && j.NamePrefix != "":
			errs = append(errs, errors.New("name and name prefix are mutually exclusive"))
		case j.Name != "" && j.Range.Len() != 1:
			errs = append(errs, errors.New("a fixed name needs a single target, use a name prefix for ranges"))
		}
		if err := naming.ValidateName(j.Name); err != nil {
			errs = append(errs, err)
		}
		if err := naming.ValidatePrefix(j.NamePrefix, j.Range.Len()); err != nil {
			errs = append(errs, fmt.Errorf("name prefix: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Targets returns the job's targets in ascending ID order.
func (j Job) Targets() []vm.Target {
	return j.Range.Targets(j.Node)
}

// OperationFor returns the operation to run against target, with the clone
// name filled in.
func (j Job) OperationFor(target vm.Target) vm.Operation {
	if j.Operation.Type != vm.OpClone {
		return j.Operation
	}
	if j.Name != "" {
		return j.Operation.WithName(j.Name)
	}
	return j.Operation.WithName(naming.CloneName(j.NamePrefix, target.ID, j.Range.Min))
}
