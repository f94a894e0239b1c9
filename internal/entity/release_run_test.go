package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReleaseRunTransition(t *testing.T) {
	tests := []struct {
		from RunStatus
		to   RunStatus
		ok   bool
	}{
		{RunStatusPending, RunStatusRunning, true},
		{RunStatusPending, RunStatusError, true},
		{RunStatusPending, RunStatusSuccess, false},
		{RunStatusRunning, RunStatusSuccess, true},
		{RunStatusRunning, RunStatusFailed, true},
		{RunStatusRunning, RunStatusPending, false},
		{RunStatusSuccess, RunStatusFailed, false},
		{RunStatusFailed, RunStatusRunning, false},
		{RunStatusPending, RunStatus("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			run := &ReleaseRun{Status: tt.from}
			err := run.Transition(tt.to)
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.to, run.Status)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
				assert.Equal(t, tt.from, run.Status)
			}
		})
	}
}
