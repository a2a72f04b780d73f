package vm

import (
	"context"

	"github.com/jbweber/herd/internal/pve"
)

// API defines the Proxmox operations the pipeline needs.
//
// In production, this is satisfied by *pve.Client.
// In tests, this is satisfied by mock implementations.
type API interface {
	// Clone submits a clone of sourceID on node and returns the task UPID.
	Clone(ctx context.Context, s *pve.Session, node string, kind pve.Kind, sourceID int, req pve.CloneRequest) (pve.UPID, error)

	// Delete submits removal of a guest and returns the task UPID.
	Delete(ctx context.Context, s *pve.Session, node string, kind pve.Kind, id int) (pve.UPID, error)

	// SetStatus submits a start or stop and returns the task UPID.
	SetStatus(ctx context.Context, s *pve.Session, node string, kind pve.Kind, id int, action pve.StatusAction) (pve.UPID, error)

	// ProbeContainer returns the raw body of the container config endpoint.
	ProbeContainer(ctx context.Context, s *pve.Session, node string, id int) ([]byte, error)

	// TaskStatus reads the status of a task.
	TaskStatus(ctx context.Context, s *pve.Session, node string, upid pve.UPID) (*pve.TaskStatus, error)
}

var _ API = (*pve.Client)(nil)
