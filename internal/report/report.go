// Package report prints batch progress for a human at a terminal.
package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/jbweber/herd/internal/batch"
)

const (
	okMark   = "✓"
	failMark = "✗"
	skipMark = "-"
)

// Printer writes one line per completed target and a final summary.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	okStyle   lipgloss.Style
	failStyle lipgloss.Style
	skipStyle lipgloss.Style
	dimStyle  lipgloss.Style
}

// NewPrinter creates a Printer. Color is only used when color is true.
func NewPrinter(w io.Writer, color bool) *Printer {
	p := &Printer{
		w:         w,
		okStyle:   lipgloss.NewStyle(),
		failStyle: lipgloss.NewStyle(),
		skipStyle: lipgloss.NewStyle(),
		dimStyle:  lipgloss.NewStyle(),
	}
	if color {
		r := lipgloss.NewRenderer(w)
		p.okStyle = r.NewStyle().Foreground(lipgloss.Color("#22c55e"))
		p.failStyle = r.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
		p.skipStyle = r.NewStyle().Foreground(lipgloss.Color("#eab308"))
		p.dimStyle = r.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	}
	return p
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report prints the line for one outcome.
func (p *Printer) Report(o batch.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, p.line(o))
}

func (p *Printer) line(o batch.Outcome) string {
	switch o.State {
	case batch.StateSucceeded:
		detail := p.dimStyle.Render(fmt.Sprintf("(%s, %s)", kindLabel(o), roundDuration(o.Duration)))
		return fmt.Sprintf("%s %d %s ok %s", p.okStyle.Render(okMark), o.Target.ID, o.Operation, detail)
	case batch.StateFailed:
		return fmt.Sprintf("%s %d %s failed: %s", p.failStyle.Render(failMark), o.Target.ID, o.Operation, o.Reason)
	default:
		return fmt.Sprintf("%s %d %s skipped: %s", p.skipStyle.Render(skipMark), o.Target.ID, o.Operation, o.Reason)
	}
}

// Summary prints the final counts for a batch.
func (p *Printer) Summary(r *batch.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := r.Summary()
	style := p.okStyle
	if !r.OK() {
		style = p.failStyle
	}
	_, _ = fmt.Fprintf(p.w, "%s %s\n", style.Render(s.String()), p.dimStyle.Render("in "+roundDuration(r.Elapsed())))
}

func kindLabel(o batch.Outcome) string {
	if o.Kind == "" {
		return "unknown"
	}
	return o.Kind.String()
}

func roundDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
