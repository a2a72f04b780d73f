package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/herd/api/v1alpha1"
)

// JSONFormatter formats batches as JSON.
type JSONFormatter struct{}

// FormatBatch formats the whole manifest, status included.
func (f *JSONFormatter) FormatBatch(b *v1alpha1.Batch) (string, error) {
	v1alpha1.SetDefaultAPIVersion(b)

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch to JSON: %w", err)
	}

	return string(data) + "\n", nil
}
