// Package v1alpha1 contains the manifest types for herd.io/v1alpha1.
//
// The types follow Kubernetes API conventions (TypeMeta, ObjectMeta, Spec,
// Status) without depending on k8s.io/apimachinery, so a Batch manifest
// reads like any other resource an operator keeps in git.
package v1alpha1

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// TypeMeta describes an object's kind and API version.
type TypeMeta struct {
	Kind       string `json:"kind,omitempty" yaml:"kind,omitempty"`
	APIVersion string `json:"apiVersion,omitempty" yaml:"apiVersion,omitempty"`
}

// ObjectMeta is the metadata carried by every manifest.
type ObjectMeta struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	// UID identifies one run of the manifest. Set by herd.
	UID string `json:"uid,omitempty" yaml:"uid,omitempty"`

	// CreationTimestamp is when the object was built. Set by herd.
	CreationTimestamp Time `json:"creationTimestamp,omitempty" yaml:"creationTimestamp,omitempty"`
}

// Time wraps time.Time with RFC3339 encoding. The zero value encodes as null.
type Time struct {
	time.Time `json:"-" yaml:"-"`
}

// NewTime wraps t.
func NewTime(t time.Time) Time {
	return Time{Time: t}
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return t.parse(s)
}

// MarshalYAML implements yaml.Marshaler.
func (t Time) MarshalYAML() (any, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.UTC().Format(time.RFC3339), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Time) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" {
		return t.parse(nil)
	}
	return t.parse(&node.Value)
}

func (t *Time) parse(s *string) error {
	if s == nil || *s == "" || *s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// Condition is one observation about an object's state.
type Condition struct {
	Type               string          `json:"type" yaml:"type"`
	Status             ConditionStatus `json:"status" yaml:"status"`
	LastTransitionTime Time            `json:"lastTransitionTime,omitempty" yaml:"lastTransitionTime,omitempty"`
	Reason             string          `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message            string          `json:"message,omitempty" yaml:"message,omitempty"`
}

// ConditionStatus is True, False or Unknown.
type ConditionStatus string

const (
	ConditionTrue    ConditionStatus = "True"
	ConditionFalse   ConditionStatus = "False"
	ConditionUnknown ConditionStatus = "Unknown"
)
