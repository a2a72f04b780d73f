package v1alpha1

// Batch applies one lifecycle operation to a range of guest IDs on a node.
//
// Spec is written by the operator. Status is filled in by herd when the
// batch finishes and is what the output formatters render.
type Batch struct {
	TypeMeta   `json:",inline" yaml:",inline"`
	ObjectMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Spec   BatchSpec   `json:"spec" yaml:"spec"`
	Status BatchStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// BatchSpec is the desired batch.
type BatchSpec struct {
	// Node is the cluster node that owns every target.
	Node string `json:"node" yaml:"node"`

	// Range is the inclusive span of guest IDs.
	Range RangeSpec `json:"range" yaml:"range"`

	// Operation is one of clone, destroy, start, stop.
	Operation string `json:"operation" yaml:"operation"`

	// Concurrency caps the number of pipelines in flight. Zero uses the
	// configured default.
	// +optional
	Concurrency int `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`

	// Clone is required when Operation is clone.
	// +optional
	Clone *CloneSpec `json:"clone,omitempty" yaml:"clone,omitempty"`
}

// RangeSpec is an inclusive ID span.
type RangeSpec struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// CloneSpec configures a clone batch.
type CloneSpec struct {
	// Source is the VMID of the template to clone.
	Source int `json:"source" yaml:"source"`

	// Mode is linked (default) or full. Containers are always cloned full.
	// +optional
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// NamePrefix names each clone prefix+(id-min).
	// +optional
	NamePrefix string `json:"namePrefix,omitempty" yaml:"namePrefix,omitempty"`

	// Name is used verbatim when the range holds one ID.
	// +optional
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// BatchStatus is the observed result of a batch run.
type BatchStatus struct {
	Phase BatchPhase `json:"phase,omitempty" yaml:"phase,omitempty"`

	// RunID identifies the run in logs.
	RunID string `json:"runID,omitempty" yaml:"runID,omitempty"`

	StartTime      Time `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	CompletionTime Time `json:"completionTime,omitempty" yaml:"completionTime,omitempty"`

	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
	Skipped   int `json:"skipped" yaml:"skipped"`

	// Targets holds one entry per ID, ordered by ID.
	Targets []TargetStatus `json:"targets,omitempty" yaml:"targets,omitempty"`

	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// TargetStatus is the outcome for one guest ID.
type TargetStatus struct {
	ID       int    `json:"id" yaml:"id"`
	State    string `json:"state" yaml:"state"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	UPID     string `json:"upid,omitempty" yaml:"upid,omitempty"`
	Class    string `json:"class,omitempty" yaml:"class,omitempty"`
	Reason   string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// BatchPhase is the lifecycle phase of a batch.
type BatchPhase string

const (
	// BatchPhasePending means the batch has not started.
	BatchPhasePending BatchPhase = "Pending"
	// BatchPhaseRunning means pipelines are in flight.
	BatchPhaseRunning BatchPhase = "Running"
	// BatchPhaseSucceeded means every target succeeded.
	BatchPhaseSucceeded BatchPhase = "Succeeded"
	// BatchPhaseFailed means at least one target failed or was skipped.
	BatchPhaseFailed BatchPhase = "Failed"
)

// ConditionComplete is set once every target has an outcome.
const ConditionComplete = "Complete"
