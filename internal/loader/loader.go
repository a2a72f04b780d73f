// Package loader reads and writes Batch manifests.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/herd/api/v1alpha1"
	"github.com/jbweber/herd/internal/vm"
)

// LoadFromFile loads a Batch manifest from a YAML file. A path of "-" reads
// standard input.
func LoadFromFile(path string) (*v1alpha1.Batch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return LoadFromYAML(data)
}

// LoadFromYAML loads a Batch manifest from YAML bytes. Unknown fields are
// rejected so a misspelled key does not silently fall back to a default.
func LoadFromYAML(data []byte) (*v1alpha1.Batch, error) {
	var b v1alpha1.Batch
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest is empty")
		}
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if b.APIVersion == "" {
		return nil, fmt.Errorf("missing required field: apiVersion")
	}
	if b.Kind == "" {
		return nil, fmt.Errorf("missing required field: kind")
	}
	if b.APIVersion != v1alpha1.APIVersion() {
		return nil, fmt.Errorf("unsupported apiVersion: %s (expected: %s)", b.APIVersion, v1alpha1.APIVersion())
	}
	if b.Kind != v1alpha1.BatchKind {
		return nil, fmt.Errorf("unsupported kind: %s (expected: %s)", b.Kind, v1alpha1.BatchKind)
	}

	applyDefaults(&b)

	if err := validateSpec(&b); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &b, nil
}

// SaveToFile writes a Batch manifest, status included, as YAML.
func SaveToFile(b *v1alpha1.Batch, path string) error {
	v1alpha1.SetDefaultAPIVersion(b)

	data, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal batch to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}

func applyDefaults(b *v1alpha1.Batch) {
	b.Normalize()
	b.EnsureUID()
	if b.Spec.Clone != nil && b.Spec.Clone.Mode == "" {
		b.Spec.Clone.Mode = string(vm.CloneLinked)
	}
	if b.Status.Phase == "" {
		b.Status.Phase = v1alpha1.BatchPhasePending
	}
}

// validateSpec checks the fields a batch needs before anything is sent.
// Naming rules are checked later against the expanded job.
func validateSpec(b *v1alpha1.Batch) error {
	if b.Name == "" {
		return fmt.Errorf("metadata.name is required")
	}
	if b.Spec.Node == "" {
		return fmt.Errorf("spec.node is required")
	}

	r := b.Spec.Range
	if r.Min <= 0 || r.Max <= 0 {
		return fmt.Errorf("spec.range.min and spec.range.max must be positive VMIDs")
	}
	if r.Max < r.Min {
		return fmt.Errorf("spec.range.max (%d) must not be below spec.range.min (%d)", r.Max, r.Min)
	}

	op, err := vm.ParseOperationType(b.Spec.Operation)
	if err != nil {
		return fmt.Errorf("spec.operation: %w", err)
	}

	if b.Spec.Concurrency < 0 {
		return fmt.Errorf("spec.concurrency must not be negative")
	}

	if op != vm.OpClone {
		if b.Spec.Clone != nil {
			return fmt.Errorf("spec.clone is only valid for the clone operation")
		}
		return nil
	}

	if b.Spec.Clone == nil {
		return fmt.Errorf("spec.clone is required for the clone operation")
	}
	if b.Spec.Clone.Source <= 0 {
		return fmt.Errorf("spec.clone.source must be a positive VMID")
	}
	if _, err := vm.ParseCloneMode(b.Spec.Clone.Mode); err != nil {
		return fmt.Errorf("spec.clone.mode: %w", err)
	}
	if b.Spec.Clone.Name != "" && r.Min != r.Max {
		return fmt.Errorf("spec.clone.name needs a single-ID range, use spec.clone.namePrefix for ranges")
	}

	return nil
}
