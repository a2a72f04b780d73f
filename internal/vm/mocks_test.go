package vm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/retry"
)

type cloneCall struct {
	Node     string
	Kind     pve.Kind
	SourceID int
	Request  pve.CloneRequest
}

type guestCall struct {
	Node   string
	Kind   pve.Kind
	ID     int
	Action pve.StatusAction
}

// mockAPI is a mock implementation of the API interface for testing.
type mockAPI struct {
	mu sync.Mutex

	// Configurable behavior
	cloneFunc          func(kind pve.Kind, req pve.CloneRequest) (pve.UPID, error)
	deleteFunc         func(kind pve.Kind, id int) (pve.UPID, error)
	setStatusFunc      func(kind pve.Kind, id int, action pve.StatusAction) (pve.UPID, error)
	probeContainerFunc func(id int) ([]byte, error)
	taskStatusFunc     func(upid pve.UPID) (*pve.TaskStatus, error)

	// Call tracking
	cloneCalls          []cloneCall
	deleteCalls         []guestCall
	setStatusCalls      []guestCall
	probeContainerCalls []int
	taskStatusCalls     []pve.UPID
}

// newMockAPI creates a mock API where every request succeeds against the VM
// endpoints and every task finishes OK on the first poll.
func newMockAPI() *mockAPI {
	m := &mockAPI{}

	m.cloneFunc = func(kind pve.Kind, req pve.CloneRequest) (pve.UPID, error) {
		return testUPID(kind, "clone", req.NewID), nil
	}
	m.deleteFunc = func(kind pve.Kind, id int) (pve.UPID, error) {
		return testUPID(kind, "destroy", id), nil
	}
	m.setStatusFunc = func(kind pve.Kind, id int, action pve.StatusAction) (pve.UPID, error) {
		return testUPID(kind, string(action), id), nil
	}
	m.probeContainerFunc = func(id int) ([]byte, error) {
		return []byte(`{"data":null}`), nil
	}
	m.taskStatusFunc = func(upid pve.UPID) (*pve.TaskStatus, error) {
		return &pve.TaskStatus{Status: "stopped", ExitStatus: "OK"}, nil
	}

	return m
}

func (m *mockAPI) Clone(ctx context.Context, s *pve.Session, node string, kind pve.Kind, sourceID int, req pve.CloneRequest) (pve.UPID, error) {
	m.mu.Lock()
	m.cloneCalls = append(m.cloneCalls, cloneCall{Node: node, Kind: kind, SourceID: sourceID, Request: req})
	m.mu.Unlock()
	return m.cloneFunc(kind, req)
}

func (m *mockAPI) Delete(ctx context.Context, s *pve.Session, node string, kind pve.Kind, id int) (pve.UPID, error) {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, guestCall{Node: node, Kind: kind, ID: id})
	m.mu.Unlock()
	return m.deleteFunc(kind, id)
}

func (m *mockAPI) SetStatus(ctx context.Context, s *pve.Session, node string, kind pve.Kind, id int, action pve.StatusAction) (pve.UPID, error) {
	m.mu.Lock()
	m.setStatusCalls = append(m.setStatusCalls, guestCall{Node: node, Kind: kind, ID: id, Action: action})
	m.mu.Unlock()
	return m.setStatusFunc(kind, id, action)
}

func (m *mockAPI) ProbeContainer(ctx context.Context, s *pve.Session, node string, id int) ([]byte, error) {
	m.mu.Lock()
	m.probeContainerCalls = append(m.probeContainerCalls, id)
	m.mu.Unlock()
	return m.probeContainerFunc(id)
}

func (m *mockAPI) TaskStatus(ctx context.Context, s *pve.Session, node string, upid pve.UPID) (*pve.TaskStatus, error) {
	m.mu.Lock()
	m.taskStatusCalls = append(m.taskStatusCalls, upid)
	m.mu.Unlock()
	return m.taskStatusFunc(upid)
}

func testUPID(kind pve.Kind, action string, id int) pve.UPID {
	return pve.UPID(fmt.Sprintf("UPID:pve1:00001234:00ABCDEF:65000000:%s%s:%d:root@pam:", kind, action, id))
}

func testSession() *pve.Session {
	return pve.NewSession("root@pam", "ticket", "csrf")
}

// fastPoll keeps poll tests in the millisecond range.
func fastPoll() retry.Config {
	return retry.Config{
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   1.5,
		Timeout:      2 * time.Second,
	}
}

func rejected(path string, code int) error {
	return &pve.StatusError{Method: "POST", Path: path, StatusCode: code, Body: `{"data":null}`}
}

func unreachable(path string) error {
	return &pve.TransportError{Method: "POST", Path: path, Err: fmt.Errorf("connection refused")}
}
