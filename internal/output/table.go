package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/jbweber/herd/api/v1alpha1"
)

// maxReasonWidth keeps long API error bodies from wrapping the table.
const maxReasonWidth = 80

// TableFormatter formats batches as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
}

// FormatBatch formats one row per target.
func (f *TableFormatter) FormatBatch(b *v1alpha1.Batch) (string, error) {
	if len(b.Status.Targets) == 0 {
		return "No targets\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "ID\tOPERATION\tSTATE\tKIND\tDURATION\tREASON")
	}

	for _, t := range b.Status.Targets {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			orDash(b.Spec.Operation),
			orDash(t.State),
			orDash(t.Kind),
			orDash(t.Duration),
			orDash(truncate(t.Reason, maxReasonWidth)))
	}

	_ = w.Flush()
	return buf.String(), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
