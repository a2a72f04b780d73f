package vm

import (
	"context"
	"testing"

	"github.com/jbweber/herd/internal/pve"
)

func TestPipeline_Run_CloneVM(t *testing.T) {
	api := newMockAPI()
	p := NewPipeline(api, testSession(), fastPoll())

	receipt, err := p.Run(context.Background(), Target{Node: "pve1", ID: 100}, CloneOp(9000, CloneLinked, "web0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Kind != pve.KindVirtualMachine {
		t.Errorf("kind = %v, want qemu", receipt.Kind)
	}
	if receipt.UPID == "" {
		t.Error("receipt should carry the task UPID")
	}
	if len(api.probeContainerCalls) != 0 {
		t.Error("clone should not probe")
	}
	if len(api.taskStatusCalls) != 1 || api.taskStatusCalls[0] != receipt.UPID {
		t.Errorf("task status calls = %v, want [%s]", api.taskStatusCalls, receipt.UPID)
	}
}

func TestPipeline_Run_StartContainerUsesProbe(t *testing.T) {
	api := newMockAPI()
	api.probeContainerFunc = func(id int) ([]byte, error) {
		return []byte(`{"data":{"hostname":"ct"}}`), nil
	}
	p := NewPipeline(api, testSession(), fastPoll())

	receipt, err := p.Run(context.Background(), Target{Node: "pve1", ID: 150}, StartOp())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Kind != pve.KindContainer {
		t.Errorf("kind = %v, want lxc", receipt.Kind)
	}
	if len(api.setStatusCalls) != 1 || api.setStatusCalls[0].Kind != pve.KindContainer {
		t.Errorf("status calls = %+v, want one lxc start", api.setStatusCalls)
	}
}

func TestPipeline_Run_StopDoesNotFallBack(t *testing.T) {
	api := newMockAPI()
	api.setStatusFunc = func(kind pve.Kind, id int, action pve.StatusAction) (pve.UPID, error) {
		return "", rejected("/nodes/pve1/qemu/150/status/stop", 500)
	}
	p := NewPipeline(api, testSession(), fastPoll())

	_, err := p.Run(context.Background(), Target{Node: "pve1", ID: 150}, StopOp())
	if ClassOf(err) != ClassExecution {
		t.Errorf("class = %q, want execution", ClassOf(err))
	}
	if len(api.setStatusCalls) != 1 {
		t.Errorf("status calls = %d, want 1", len(api.setStatusCalls))
	}
}

func TestPipeline_Run_UnknownProbeStopsPipeline(t *testing.T) {
	api := newMockAPI()
	api.probeContainerFunc = func(id int) ([]byte, error) {
		return []byte(`{"data":[]}`), nil
	}
	p := NewPipeline(api, testSession(), fastPoll())

	_, err := p.Run(context.Background(), Target{Node: "pve1", ID: 150}, StopOp())
	if ClassOf(err) != ClassResolution {
		t.Errorf("class = %q, want resolution", ClassOf(err))
	}
	if len(api.setStatusCalls) != 0 {
		t.Error("no request should be sent after a failed resolution")
	}
}

func TestPipeline_Run_PollFailureKeepsReceipt(t *testing.T) {
	api := newMockAPI()
	api.taskStatusFunc = func(pve.UPID) (*pve.TaskStatus, error) {
		return &pve.TaskStatus{Status: "stopped", ExitStatus: "VM is locked"}, nil
	}
	p := NewPipeline(api, testSession(), fastPoll())

	receipt, err := p.Run(context.Background(), Target{Node: "pve1", ID: 100}, DestroyOp())
	if ClassOf(err) != ClassPoll {
		t.Errorf("class = %q, want poll", ClassOf(err))
	}
	if receipt.UPID == "" || receipt.Kind != pve.KindVirtualMachine {
		t.Errorf("receipt = %+v, want kind and UPID filled", receipt)
	}
}

func TestPipeline_Run_InvalidOperation(t *testing.T) {
	api := newMockAPI()
	p := NewPipeline(api, testSession(), fastPoll())

	_, err := p.Run(context.Background(), Target{Node: "pve1", ID: 100}, Operation{Type: OpClone})
	if ClassOf(err) != ClassExecution {
		t.Errorf("class = %q, want execution", ClassOf(err))
	}
	if len(api.cloneCalls) != 0 {
		t.Error("invalid operation should not reach the API")
	}
}
