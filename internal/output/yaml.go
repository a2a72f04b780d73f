package output

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/herd/api/v1alpha1"
)

// YAMLFormatter formats batches as YAML.
type YAMLFormatter struct{}

// FormatBatch formats the whole manifest, status included. The output can be
// fed back to herd apply.
func (f *YAMLFormatter) FormatBatch(b *v1alpha1.Batch) (string, error) {
	v1alpha1.SetDefaultAPIVersion(b)

	data, err := yaml.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch to YAML: %w", err)
	}

	return string(data), nil
}
