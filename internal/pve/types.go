package pve

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind is one of the two backend resource families. A VMID is only
// meaningful within one kind at a time.
type Kind string

const (
	// KindVirtualMachine addresses QEMU guests.
	KindVirtualMachine Kind = "qemu"
	// KindContainer addresses LXC containers.
	KindContainer Kind = "lxc"
)

// String returns the API path segment for the kind.
func (k Kind) String() string {
	return string(k)
}

// Other returns the opposite kind.
func (k Kind) Other() Kind {
	if k == KindContainer {
		return KindVirtualMachine
	}
	return KindContainer
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindVirtualMachine || k == KindContainer
}

// StatusAction is a power-state change issued against a guest.
type StatusAction string

const (
	// ActionStart boots a guest.
	ActionStart StatusAction = "start"
	// ActionStop hard-stops a guest.
	ActionStop StatusAction = "stop"
)

// UPID is the opaque task identifier returned by mutating requests.
type UPID string

// UPIDInfo holds the fields encoded in a well-formed UPID.
//
// Format: UPID:{node}:{pid}:{pstart}:{starttime}:{type}:{id}:{user}:
type UPIDInfo struct {
	Node      string
	PID       uint64
	StartTime int64
	Type      string
	ID        string
	User      string
}

// Parse decodes the fields of a UPID. Polling never depends on this; it is
// used for logging and for sanity checks on submit responses.
func (u UPID) Parse() (UPIDInfo, error) {
	parts := strings.Split(string(u), ":")
	if len(parts) < 8 || parts[0] != "UPID" {
		return UPIDInfo{}, fmt.Errorf("malformed UPID %q", string(u))
	}

	pid, err := strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return UPIDInfo{}, fmt.Errorf("malformed UPID pid %q: %w", parts[2], err)
	}
	start, err := strconv.ParseInt(parts[4], 16, 64)
	if err != nil {
		return UPIDInfo{}, fmt.Errorf("malformed UPID start time %q: %w", parts[4], err)
	}

	return UPIDInfo{
		Node:      parts[1],
		PID:       pid,
		StartTime: start,
		Type:      parts[5],
		ID:        parts[6],
		User:      parts[7],
	}, nil
}

// CloneRequest is the body of a clone request. Container clones send
// Hostname and leave Name empty.
type CloneRequest struct {
	NewID    int    `json:"newid"`
	Node     string `json:"node"`
	VMID     int    `json:"vmid"`
	Full     bool   `json:"full"`
	Name     string `json:"name,omitempty"`
	Hostname string `json:"hostname,omitempty"`
}

// TaskStatus is the decoded status of an asynchronous task.
//
// ExitStatus is empty while the task is still running.
type TaskStatus struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus,omitempty"`
	Type       string `json:"type,omitempty"`
	ID         string `json:"id,omitempty"`
	Node       string `json:"node,omitempty"`
	User       string `json:"user,omitempty"`
}

// VersionInfo is the reply of the version endpoint.
type VersionInfo struct {
	Version string `json:"version"`
	Release string `json:"release"`
	RepoID  string `json:"repoid"`
}

// envelope is the {"data": ...} wrapper around every API reply.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

type ticketData struct {
	Ticket    string `json:"ticket"`
	CSRFToken string `json:"CSRFPreventionToken"`
	Username  string `json:"username"`
}
