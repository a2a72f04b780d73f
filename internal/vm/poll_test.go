package vm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jbweber/herd/internal/pve"
	"github.com/jbweber/herd/internal/retry"
)

func TestPoller_Await(t *testing.T) {
	target := Target{Node: "pve1", ID: 100}
	upid := testUPID(pve.KindVirtualMachine, "clone", 100)

	tests := []struct {
		name       string
		replies    []func() (*pve.TaskStatus, error)
		wantClass  FailureClass
		wantPolls  int
		wantDetail string
	}{
		{
			name: "running then ok",
			replies: []func() (*pve.TaskStatus, error){
				func() (*pve.TaskStatus, error) { return &pve.TaskStatus{Status: "running"}, nil },
				func() (*pve.TaskStatus, error) { return &pve.TaskStatus{Status: "running"}, nil },
				func() (*pve.TaskStatus, error) { return &pve.TaskStatus{Status: "stopped", ExitStatus: "OK"}, nil },
			},
			wantPolls: 3,
		},
		{
			name: "failed exit status",
			replies: []func() (*pve.TaskStatus, error){
				func() (*pve.TaskStatus, error) {
					return &pve.TaskStatus{Status: "stopped", ExitStatus: "clone failed: disk full"}, nil
				},
			},
			wantClass:  ClassPoll,
			wantPolls:  1,
			wantDetail: "failed: clone failed: disk full",
		},
		{
			name: "undecodable reply is retried",
			replies: []func() (*pve.TaskStatus, error){
				func() (*pve.TaskStatus, error) {
					return nil, &pve.DecodeError{Path: "/tasks", Body: "garbage", Err: errors.New("invalid character")}
				},
				func() (*pve.TaskStatus, error) {
					return nil, &pve.StatusError{Method: "GET", Path: "/tasks", StatusCode: 500}
				},
				func() (*pve.TaskStatus, error) { return &pve.TaskStatus{Status: "stopped", ExitStatus: "OK"}, nil },
			},
			wantPolls: 3,
		},
		{
			name: "transport failure ends the wait",
			replies: []func() (*pve.TaskStatus, error){
				func() (*pve.TaskStatus, error) { return nil, unreachable("/tasks") },
			},
			wantClass: ClassTransport,
			wantPolls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMockAPI()
			calls := 0
			api.taskStatusFunc = func(pve.UPID) (*pve.TaskStatus, error) {
				reply := tt.replies[calls]
				calls++
				return reply()
			}

			err := NewPoller(api, testSession(), fastPoll()).Await(context.Background(), target, upid)
			if tt.wantClass == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantClass != "" && ClassOf(err) != tt.wantClass {
				t.Errorf("class = %q, want %q (err: %v)", ClassOf(err), tt.wantClass, err)
			}
			if tt.wantDetail != "" && (err == nil || !strings.Contains(err.Error(), tt.wantDetail)) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantDetail)
			}
			if len(api.taskStatusCalls) != tt.wantPolls {
				t.Errorf("polls = %d, want %d", len(api.taskStatusCalls), tt.wantPolls)
			}
		})
	}
}

func TestPoller_Await_Timeout(t *testing.T) {
	api := newMockAPI()
	api.taskStatusFunc = func(pve.UPID) (*pve.TaskStatus, error) {
		return &pve.TaskStatus{Status: "running"}, nil
	}
	cfg := fastPoll()
	cfg.Timeout = 20 * time.Millisecond

	err := NewPoller(api, testSession(), cfg).Await(context.Background(), Target{Node: "pve1", ID: 1}, "UPID:x")
	if ClassOf(err) != ClassTimeout {
		t.Errorf("class = %q, want timeout (err: %v)", ClassOf(err), err)
	}
	if !errors.Is(err, retry.ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestPoller_Await_Cancelled(t *testing.T) {
	api := newMockAPI()
	ctx, cancel := context.WithCancel(context.Background())
	api.taskStatusFunc = func(pve.UPID) (*pve.TaskStatus, error) {
		cancel()
		return &pve.TaskStatus{Status: "running"}, nil
	}

	err := NewPoller(api, testSession(), fastPoll()).Await(ctx, Target{Node: "pve1", ID: 1}, "UPID:x")
	if ClassOf(err) != ClassCancelled {
		t.Errorf("class = %q, want cancelled (err: %v)", ClassOf(err), err)
	}
}
