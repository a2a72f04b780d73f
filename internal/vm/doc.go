// Package vm runs the per-target lifecycle pipeline against a Proxmox node.
//
// A pipeline has three stages:
//   - Resolve: decide whether a target ID is a QEMU VM or an LXC container.
//     Clone and destroy use trial order (VM first, container on rejection).
//     Start and stop probe the container endpoint first.
//   - Execute: send the kind-specific lifecycle request and capture the
//     task UPID from the reply.
//   - Poll: read the task status with exponential backoff until the task
//     reaches a terminal state or the poll deadline expires.
//
// Error Handling:
//
// Every stage returns a *PipelineError whose Class names the kind of failure.
// Transport failures and deadlines take precedence over the stage class, so
// callers can tell a dead network from a rejected request.
//
// Context Support:
//
// All stages take a context.Context. The pipeline logger is carried in the
// context with logr.NewContext.
package vm
