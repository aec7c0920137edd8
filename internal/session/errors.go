package session

import (
	"errors"
	"fmt"

	"github.com/smazurov/ipcam/internal/process"
)

var (
	// ErrSessionActive is returned by Start while a session is starting or
	// streaming, and by KillStaleBinaries for the same reason.
	ErrSessionActive = errors.New("session already active")

	// ErrNoSession is returned by Reconfigure when nothing is running.
	ErrNoSession = errors.New("no active session")

	errCancelled = errors.New("session cancelled")
)

// SpawnError reports a child process the OS refused to launch.
type SpawnError struct {
	Role  process.Role
	Cause error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Role, e.Cause)
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}
