package vm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jbweber/herd/internal/pve"
)

func TestCloneRequest(t *testing.T) {
	target := Target{Node: "pve1", ID: 205}

	tests := []struct {
		name string
		kind pve.Kind
		spec CloneSpec
		want pve.CloneRequest
	}{
		{
			name: "vm linked",
			kind: pve.KindVirtualMachine,
			spec: CloneSpec{SourceID: 9000, Mode: CloneLinked, Name: "web5"},
			want: pve.CloneRequest{NewID: 205, Node: "pve1", VMID: 9000, Full: false, Name: "web5"},
		},
		{
			name: "vm full",
			kind: pve.KindVirtualMachine,
			spec: CloneSpec{SourceID: 9000, Mode: CloneFull},
			want: pve.CloneRequest{NewID: 205, Node: "pve1", VMID: 9000, Full: true},
		},
		{
			name: "container forces full and hostname",
			kind: pve.KindContainer,
			spec: CloneSpec{SourceID: 9001, Mode: CloneLinked, Name: "ct5"},
			want: pve.CloneRequest{NewID: 205, Node: "pve1", VMID: 9001, Full: true, Hostname: "ct5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.spec
			got := cloneRequest(tt.kind, target, &spec)
			if got != tt.want {
				t.Errorf("cloneRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExecutor_Execute_RoutesByOperation(t *testing.T) {
	ctx := context.Background()
	target := Target{Node: "pve1", ID: 300}
	api := newMockAPI()
	e := NewExecutor(api, testSession())

	if _, err := e.Execute(ctx, pve.KindContainer, target, DestroyOp()); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := e.Execute(ctx, pve.KindVirtualMachine, target, StartOp()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := e.Execute(ctx, pve.KindVirtualMachine, target, StopOp()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if len(api.deleteCalls) != 1 || api.deleteCalls[0].Kind != pve.KindContainer || api.deleteCalls[0].ID != 300 {
		t.Errorf("delete calls = %+v", api.deleteCalls)
	}
	if len(api.setStatusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(api.setStatusCalls))
	}
	if api.setStatusCalls[0].Action != pve.ActionStart || api.setStatusCalls[1].Action != pve.ActionStop {
		t.Errorf("status actions = %v, %v", api.setStatusCalls[0].Action, api.setStatusCalls[1].Action)
	}
	if len(api.cloneCalls) != 0 {
		t.Error("no clone should be sent")
	}
}

func TestExecutor_Submit_VMAccepted(t *testing.T) {
	api := newMockAPI()
	e := NewExecutor(api, testSession())

	sub, err := e.Submit(context.Background(), TrialOrder(), Target{Node: "pve1", ID: 100}, CloneOp(9000, CloneLinked, "web0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Kind != pve.KindVirtualMachine || sub.Attempts != 1 {
		t.Errorf("submission = %+v, want qemu after 1 attempt", sub)
	}
	if len(api.cloneCalls) != 1 {
		t.Errorf("expected 1 clone call, got %d", len(api.cloneCalls))
	}
}

func TestExecutor_Submit_FallsBackToContainer(t *testing.T) {
	api := newMockAPI()
	api.cloneFunc = func(kind pve.Kind, req pve.CloneRequest) (pve.UPID, error) {
		if kind == pve.KindVirtualMachine {
			return "", rejected("/nodes/pve1/qemu/9001/clone", 500)
		}
		return testUPID(kind, "clone", req.NewID), nil
	}
	e := NewExecutor(api, testSession())

	sub, err := e.Submit(context.Background(), TrialOrder(), Target{Node: "pve1", ID: 101}, CloneOp(9001, CloneLinked, "ct1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Kind != pve.KindContainer || sub.Attempts != 2 {
		t.Errorf("submission = %+v, want lxc after 2 attempts", sub)
	}

	if len(api.cloneCalls) != 2 {
		t.Fatalf("expected 2 clone calls, got %d", len(api.cloneCalls))
	}
	lxc := api.cloneCalls[1].Request
	if !lxc.Full || lxc.Hostname != "ct1" || lxc.Name != "" {
		t.Errorf("container clone body = %+v, want full with hostname", lxc)
	}
}

func TestExecutor_Submit_Failures(t *testing.T) {
	target := Target{Node: "pve1", ID: 102}

	tests := []struct {
		name      string
		deleteErr func(kind pve.Kind) error
		wantCalls int
		wantClass FailureClass
	}{
		{
			name:      "both kinds rejected",
			deleteErr: func(pve.Kind) error { return rejected("/nodes/pve1/x/102", 500) },
			wantCalls: 2,
			wantClass: ClassExecution,
		},
		{
			name:      "transport failure does not fall back",
			deleteErr: func(pve.Kind) error { return unreachable("/nodes/pve1/qemu/102") },
			wantCalls: 1,
			wantClass: ClassTransport,
		},
		{
			name: "undecodable reply does not fall back",
			deleteErr: func(pve.Kind) error {
				return &pve.DecodeError{Path: "/nodes/pve1/qemu/102", Body: "{}", Err: errors.New("missing data")}
			},
			wantCalls: 1,
			wantClass: ClassExecution,
		},
		{
			name: "container transport failure after rejection",
			deleteErr: func(kind pve.Kind) error {
				if kind == pve.KindVirtualMachine {
					return rejected("/nodes/pve1/qemu/102", 500)
				}
				return unreachable("/nodes/pve1/lxc/102")
			},
			wantCalls: 2,
			wantClass: ClassTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newMockAPI()
			api.deleteFunc = func(kind pve.Kind, id int) (pve.UPID, error) {
				return "", tt.deleteErr(kind)
			}

			_, err := NewExecutor(api, testSession()).Submit(context.Background(), TrialOrder(), target, DestroyOp())
			if err == nil {
				t.Fatal("expected error")
			}
			if len(api.deleteCalls) != tt.wantCalls {
				t.Errorf("delete calls = %d, want %d", len(api.deleteCalls), tt.wantCalls)
			}
			if ClassOf(err) != tt.wantClass {
				t.Errorf("class = %q, want %q (err: %v)", ClassOf(err), tt.wantClass, err)
			}
			if !strings.Contains(err.Error(), "destroy pve1/102") {
				t.Errorf("error should name operation and target, got %v", err)
			}
		})
	}
}

func TestExecutor_Submit_NoKinds(t *testing.T) {
	api := newMockAPI()
	_, err := NewExecutor(api, testSession()).Submit(context.Background(), nil, Target{Node: "pve1", ID: 1}, StartOp())
	if ClassOf(err) != ClassExecution {
		t.Errorf("class = %q, want execution", ClassOf(err))
	}
}
