package entity

import (
	"fmt"
	"time"
)

type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
	RunStatusError   RunStatus = "error"
)

func (s RunStatus) Valid() bool {
	switch s {
	case RunStatusPending, RunStatusRunning, RunStatusSuccess, RunStatusFailed, RunStatusError:
		return true
	}
	return false
}

func (s RunStatus) Terminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed || s == RunStatusError
}

// CanTransition reports whether the execution backend may move a run from s
// to next.
func (s RunStatus) CanTransition(next RunStatus) bool {
	switch s {
	case RunStatusPending:
		return next == RunStatusRunning || next == RunStatusFailed || next == RunStatusError
	case RunStatusRunning:
		return next.Terminal()
	}
	return false
}

// ReleaseRun is one recorded execution attempt of a release configuration.
type ReleaseRun struct {
	ID              ID        `json:"id"`
	ReleaseConfigID ID        `json:"release_config_id"`
	ImageName       string    `json:"image_name"`
	PRURL           string    `json:"pr_url,omitempty"`
	Jira            string    `json:"jira,omitempty"`
	Status          RunStatus `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *ReleaseRun) Transition(next RunStatus) error {
	if !next.Valid() {
		return Invalid("status", "unknown run status %q", next)
	}
	if !r.Status.CanTransition(next) {
		return Invalid("status", "cannot move run from %s to %s", r.Status, next)
	}
	r.Status = next
	return nil
}

func (r *ReleaseRun) String() string {
	return fmt.Sprintf("run %s (release %s, %s)", r.ID, r.ReleaseConfigID, r.Status)
}
