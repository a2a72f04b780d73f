package v1alpha1

import (
	"testing"
)

func TestNewBatch(t *testing.T) {
	b := NewBatch("lab-refresh")

	if b.APIVersion != "herd.io/v1alpha1" {
		t.Errorf("APIVersion = %s", b.APIVersion)
	}
	if b.Kind != "Batch" {
		t.Errorf("Kind = %s", b.Kind)
	}
	if b.Name != "lab-refresh" {
		t.Errorf("Name = %s", b.Name)
	}
	if b.UID == "" {
		t.Error("expected UID to be set")
	}
	if b.CreationTimestamp.IsZero() {
		t.Error("expected CreationTimestamp to be set")
	}
	if b.Status.Phase != BatchPhasePending {
		t.Errorf("Phase = %s, want Pending", b.Status.Phase)
	}
}

func TestSetDefaultAPIVersion(t *testing.T) {
	b := &Batch{}
	SetDefaultAPIVersion(b)
	if b.APIVersion != APIVersion() || b.Kind != BatchKind {
		t.Errorf("defaults = %+v", b.TypeMeta)
	}

	custom := &Batch{TypeMeta: TypeMeta{APIVersion: "herd.io/v2", Kind: "Other"}}
	SetDefaultAPIVersion(custom)
	if custom.APIVersion != "herd.io/v2" || custom.Kind != "Other" {
		t.Errorf("existing values overwritten: %+v", custom.TypeMeta)
	}
}

func TestBatch_Normalize(t *testing.T) {
	b := &Batch{
		ObjectMeta: ObjectMeta{Name: "  lab "},
		Spec: BatchSpec{
			Node:      " pve1 ",
			Operation: " Clone",
			Clone:     &CloneSpec{Mode: "FULL", NamePrefix: " web "},
		},
	}
	b.Normalize()

	if b.Name != "lab" || b.Spec.Node != "pve1" || b.Spec.Operation != "clone" {
		t.Errorf("normalized = %q %q %q", b.Name, b.Spec.Node, b.Spec.Operation)
	}
	if b.Spec.Clone.Mode != "full" || b.Spec.Clone.NamePrefix != "web" {
		t.Errorf("clone = %+v", b.Spec.Clone)
	}
}

func TestBatch_Size(t *testing.T) {
	tests := []struct {
		r    RangeSpec
		want int
	}{
		{RangeSpec{Min: 100, Max: 109}, 10},
		{RangeSpec{Min: 100, Max: 100}, 1},
		{RangeSpec{Min: 100, Max: 99}, 0},
	}
	for _, tt := range tests {
		b := &Batch{Spec: BatchSpec{Range: tt.r}}
		if got := b.Size(); got != tt.want {
			t.Errorf("Size(%+v) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestBatch_EnsureUID(t *testing.T) {
	b := &Batch{}
	b.EnsureUID()
	first := b.UID
	if first == "" {
		t.Fatal("expected UID")
	}
	b.EnsureUID()
	if b.UID != first {
		t.Error("EnsureUID must keep an existing UID")
	}
}

func TestBatchStatus_SetCondition(t *testing.T) {
	var s BatchStatus

	s.SetCondition(Condition{Type: ConditionComplete, Status: ConditionFalse, Reason: "Running"})
	first, ok := s.GetCondition(ConditionComplete)
	if !ok || first.LastTransitionTime.IsZero() {
		t.Fatalf("condition = %+v, %v", first, ok)
	}

	s.SetCondition(Condition{Type: ConditionComplete, Status: ConditionFalse, Reason: "StillRunning"})
	same, _ := s.GetCondition(ConditionComplete)
	if !same.LastTransitionTime.Equal(first.LastTransitionTime.Time) {
		t.Error("transition time must not change while status is unchanged")
	}
	if same.Reason != "StillRunning" {
		t.Errorf("Reason = %s", same.Reason)
	}

	s.SetCondition(Condition{Type: ConditionComplete, Status: ConditionTrue})
	if len(s.Conditions) != 1 {
		t.Errorf("expected one condition, got %d", len(s.Conditions))
	}
	if c, _ := s.GetCondition(ConditionComplete); c.Status != ConditionTrue {
		t.Errorf("Status = %s", c.Status)
	}

	if _, ok := s.GetCondition("Missing"); ok {
		t.Error("unexpected condition")
	}
}
