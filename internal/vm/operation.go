package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Target identifies one guest on one node.
type Target struct {
	Node string
	ID   int
}

func (t Target) String() string {
	return t.Node + "/" + strconv.Itoa(t.ID)
}

// OperationType names a lifecycle operation.
type OperationType string

const (
	// OpClone clones a source guest into the target ID.
	OpClone OperationType = "clone"
	// OpDestroy removes the target guest.
	OpDestroy OperationType = "destroy"
	// OpStart boots the target guest.
	OpStart OperationType = "start"
	// OpStop hard-stops the target guest.
	OpStop OperationType = "stop"
)

// ValidOperationTypes returns every supported operation name.
func ValidOperationTypes() []string {
	return []string{string(OpClone), string(OpDestroy), string(OpStart), string(OpStop)}
}

// ParseOperationType validates an operation name.
func ParseOperationType(s string) (OperationType, error) {
	switch t := OperationType(strings.ToLower(s)); t {
	case OpClone, OpDestroy, OpStart, OpStop:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported operation %q (supported: %s)", s, strings.Join(ValidOperationTypes(), ", "))
	}
}

// CloneMode selects how a clone shares storage with its source.
type CloneMode string

const (
	// CloneLinked shares storage blocks with the source template.
	CloneLinked CloneMode = "linked"
	// CloneFull makes an independent copy. Containers only support this.
	CloneFull CloneMode = "full"
)

// ParseCloneMode validates a clone mode name. Empty means linked.
func ParseCloneMode(s string) (CloneMode, error) {
	switch m := CloneMode(strings.ToLower(s)); m {
	case "":
		return CloneLinked, nil
	case CloneLinked, CloneFull:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported clone mode %q (supported: linked, full)", s)
	}
}

// CloneSpec holds the clone parameters. The destination ID is the target ID.
type CloneSpec struct {
	SourceID int
	Mode     CloneMode
	// Name is the final guest name for this target; empty lets the server
	// pick its default.
	Name string
}

// Operation is one lifecycle operation to apply to a target.
type Operation struct {
	Type  OperationType
	Clone *CloneSpec
}

// CloneOp returns a clone operation.
func CloneOp(sourceID int, mode CloneMode, name string) Operation {
	return Operation{
		Type:  OpClone,
		Clone: &CloneSpec{SourceID: sourceID, Mode: mode, Name: name},
	}
}

// DestroyOp returns a destroy operation.
func DestroyOp() Operation {
	return Operation{Type: OpDestroy}
}

// StartOp returns a start operation.
func StartOp() Operation {
	return Operation{Type: OpStart}
}

// StopOp returns a stop operation.
func StopOp() Operation {
	return Operation{Type: OpStop}
}

// WithName returns a copy of a clone operation using name. Other operations
// are returned unchanged.
func (o Operation) WithName(name string) Operation {
	if o.Clone == nil {
		return o
	}
	spec := *o.Clone
	spec.Name = name
	o.Clone = &spec
	return o
}

// Probes reports whether the operation resolves the target kind with an
// explicit probe. Start and stop are accepted by either kind endpoint, so
// trial and error cannot tell the kinds apart.
func (o Operation) Probes() bool {
	return o.Type == OpStart || o.Type == OpStop
}

// Validate checks the operation is complete.
func (o Operation) Validate() error {
	if _, err := ParseOperationType(string(o.Type)); err != nil {
		return err
	}
	if o.Type != OpClone {
		return nil
	}
	if o.Clone == nil {
		return fmt.Errorf("clone operation requires a source")
	}
	if o.Clone.SourceID <= 0 {
		return fmt.Errorf("clone source must be a positive VMID, got %d", o.Clone.SourceID)
	}
	if _, err := ParseCloneMode(string(o.Clone.Mode)); err != nil {
		return err
	}
	return nil
}
