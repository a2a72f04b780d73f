package vm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/jbweber/herd/internal/pve"
)

// Resolution is the outcome of a kind probe.
type Resolution int

const (
	// ResolutionUnknown means the probe reply matched neither shape.
	ResolutionUnknown Resolution = iota
	// ResolutionVirtualMachine means the ID belongs to a QEMU VM.
	ResolutionVirtualMachine
	// ResolutionContainer means the ID belongs to an LXC container.
	ResolutionContainer
)

func (r Resolution) String() string {
	switch r {
	case ResolutionVirtualMachine:
		return "vm"
	case ResolutionContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Kind maps a resolution to the endpoint family. ok is false for Unknown.
func (r Resolution) Kind() (kind pve.Kind, ok bool) {
	switch r {
	case ResolutionVirtualMachine:
		return pve.KindVirtualMachine, true
	case ResolutionContainer:
		return pve.KindContainer, true
	default:
		return "", false
	}
}

// TrialOrder returns the kinds to try, in order, for operations that do not
// probe.
func TrialOrder() []pve.Kind {
	return []pve.Kind{pve.KindVirtualMachine, pve.KindContainer}
}

// ClassifyProbe decides the target kind from the container endpoint body.
// An empty data field means no container has that ID, so it must be a VM.
// A populated object or non-empty list means a container answered.
func ClassifyProbe(body []byte) Resolution {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return ResolutionUnknown
	}
	data, ok := env["data"]
	if !ok {
		return ResolutionUnknown
	}

	raw := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(raw, []byte("null")):
		return ResolutionVirtualMachine
	case len(raw) == 0:
		return ResolutionUnknown
	case raw[0] == '{':
		var obj map[string]json.RawMessage
		if json.Unmarshal(raw, &obj) == nil && len(obj) > 0 {
			return ResolutionContainer
		}
	case raw[0] == '[':
		var list []json.RawMessage
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			return ResolutionContainer
		}
	}
	return ResolutionUnknown
}

// Resolver probes the container endpoint to decide a target's kind.
type Resolver struct {
	api     API
	session *pve.Session
}

// NewResolver returns a resolver bound to a session.
func NewResolver(api API, s *pve.Session) *Resolver {
	return &Resolver{api: api, session: s}
}

// Resolve probes target. An Unknown resolution is returned with a
// resolution-class error.
func (r *Resolver) Resolve(ctx context.Context, target Target) (Resolution, error) {
	log := logr.FromContextOrDiscard(ctx)

	body, err := r.api.ProbeContainer(ctx, r.session, target.Node, target.ID)
	if err != nil {
		return ResolutionUnknown, classify(ClassResolution, fmt.Errorf("probe %s: %w", target, err))
	}

	res := ClassifyProbe(body)
	log.V(1).Info("probed target kind", "resolution", res.String())
	if res == ResolutionUnknown {
		return res, &PipelineError{
			Class: ClassResolution,
			Err:   fmt.Errorf("probe %s: reply is neither empty nor a container: %s", target, snippet(body)),
		}
	}
	return res, nil
}

func snippet(body []byte) string {
	const max = 200
	s := string(bytes.TrimSpace(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
