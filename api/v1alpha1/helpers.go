package v1alpha1

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// GroupName is the API group for herd manifests.
	GroupName = "herd.io"

	// Version is the API version.
	Version = "v1alpha1"

	// BatchKind is the kind string for Batch manifests.
	BatchKind = "Batch"
)

// APIVersion returns the full apiVersion string.
func APIVersion() string {
	return GroupName + "/" + Version
}

// NewBatch creates a Batch with TypeMeta and ObjectMeta filled in.
func NewBatch(name string) *Batch {
	return &Batch{
		TypeMeta: TypeMeta{
			APIVersion: APIVersion(),
			Kind:       BatchKind,
		},
		ObjectMeta: ObjectMeta{
			Name:              name,
			UID:               uuid.NewString(),
			CreationTimestamp: NewTime(time.Now()),
		},
		Status: BatchStatus{
			Phase: BatchPhasePending,
		},
	}
}

// SetDefaultAPIVersion fills in apiVersion and kind when a manifest omits them.
func SetDefaultAPIVersion(b *Batch) {
	if b.APIVersion == "" {
		b.APIVersion = APIVersion()
	}
	if b.Kind == "" {
		b.Kind = BatchKind
	}
}

// Normalize lowercases enum-like fields and trims names.
func (b *Batch) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Spec.Node = strings.TrimSpace(b.Spec.Node)
	b.Spec.Operation = strings.ToLower(strings.TrimSpace(b.Spec.Operation))
	if b.Spec.Clone != nil {
		b.Spec.Clone.Mode = strings.ToLower(strings.TrimSpace(b.Spec.Clone.Mode))
		b.Spec.Clone.NamePrefix = strings.TrimSpace(b.Spec.Clone.NamePrefix)
		b.Spec.Clone.Name = strings.TrimSpace(b.Spec.Clone.Name)
	}
}

// EnsureUID assigns a UID if the manifest has none.
func (b *Batch) EnsureUID() {
	if b.UID == "" {
		b.UID = uuid.NewString()
	}
}

// Size returns the number of IDs in the range.
func (b *Batch) Size() int {
	if b.Spec.Range.Max < b.Spec.Range.Min {
		return 0
	}
	return b.Spec.Range.Max - b.Spec.Range.Min + 1
}

// SetCondition adds or replaces the condition with the same type.
func (s *BatchStatus) SetCondition(c Condition) {
	if c.LastTransitionTime.IsZero() {
		c.LastTransitionTime = NewTime(time.Now())
	}
	for i := range s.Conditions {
		if s.Conditions[i].Type == c.Type {
			if s.Conditions[i].Status == c.Status {
				c.LastTransitionTime = s.Conditions[i].LastTransitionTime
			}
			s.Conditions[i] = c
			return
		}
	}
	s.Conditions = append(s.Conditions, c)
}

// GetCondition returns the condition of type t.
func (s *BatchStatus) GetCondition(t string) (Condition, bool) {
	for _, c := range s.Conditions {
		if c.Type == t {
			return c, true
		}
	}
	return Condition{}, false
}
