// Package status tracks the lifecycle of asynchronous API tasks.
//
// A task starts Running and moves exactly once to a terminal state:
// Succeeded when the API reports the success sentinel, Failed for any other
// exit status. No transition leaves a terminal state.
package status

import "fmt"

// JobState is the observed state of an asynchronous task.
type JobState string

const (
	// JobRunning means no terminal exit status has been observed yet.
	JobRunning JobState = "Running"
	// JobSucceeded means the task exited with the success sentinel.
	JobSucceeded JobState = "Succeeded"
	// JobFailed means the task exited with any other status.
	JobFailed JobState = "Failed"
)

// SuccessExitStatus is the exit status the API reports for successful tasks.
const SuccessExitStatus = "OK"

// FromExitStatus maps a task exit status to a JobState. An empty exit status
// belongs to a task that is still running.
func FromExitStatus(exitStatus string) JobState {
	switch exitStatus {
	case "":
		return JobRunning
	case SuccessExitStatus:
		return JobSucceeded
	default:
		return JobFailed
	}
}

// IsTerminal returns true if no further transition can happen from state.
func IsTerminal(state JobState) bool {
	return state == JobSucceeded || state == JobFailed
}

// Job follows one task through its states.
type Job struct {
	UPID   string
	State  JobState
	Detail string

	// Observations counts decoded status replies, including running ones.
	Observations int
}

// NewJob returns a Job in the Running state.
func NewJob(upid string) *Job {
	return &Job{UPID: upid, State: JobRunning}
}

// Observe records a decoded exit status and returns the resulting state.
// It returns an error if the job has already reached a terminal state.
func (j *Job) Observe(exitStatus string) (JobState, error) {
	if IsTerminal(j.State) {
		return j.State, fmt.Errorf("job %s already %s, cannot observe %q", j.UPID, j.State, exitStatus)
	}

	j.Observations++
	next := FromExitStatus(exitStatus)
	if next == JobFailed {
		j.Detail = exitStatus
	}
	j.State = next
	return j.State, nil
}

// Err returns an error describing a failed job, or nil otherwise.
func (j *Job) Err() error {
	if j.State != JobFailed {
		return nil
	}
	return fmt.Errorf("task %s failed: %s", j.UPID, j.Detail)
}
