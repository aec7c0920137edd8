package events

// Event type constants for kelindar/event.
const (
	TypeSessionStateChanged uint32 = iota + 1
	TypeProducerExited
	TypeStaleProcessesReaped
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStateChangedEvent is published on every session state transition.
// Fields are a consistent snapshot of the session at the time of the change.
type SessionStateChangedEvent struct {
	State         string `json:"state" example:"streaming" doc:"Session state"`
	StatusMessage string `json:"status_message" example:"Streaming" doc:"Human-readable status"`
	RTSPURL       string `json:"rtsp_url" example:"rtsp://192.168.1.20:8554/webcam" doc:"Endpoint URL, empty unless streaming or reconnecting"`
	Restarts      int    `json:"restarts" example:"0" doc:"Producer restarts in this session"`
	Timestamp     string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Transition timestamp"`
}

// Type returns the event type identifier for SessionStateChangedEvent.
func (e SessionStateChangedEvent) Type() uint32 { return TypeSessionStateChanged }

// ProducerExitedEvent is published when the producer exits while a session is active.
type ProducerExitedEvent struct {
	PID       int    `json:"pid" example:"4242" doc:"Process ID of the exited producer"`
	ExitCode  int    `json:"exit_code" example:"1" doc:"Exit code, -1 when killed by a signal"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Exit timestamp"`
}

// Type returns the event type identifier for ProducerExitedEvent.
func (e ProducerExitedEvent) Type() uint32 { return TypeProducerExited }

// StaleProcessesReapedEvent is published after a stale process sweep.
type StaleProcessesReapedEvent struct {
	Killed    int    `json:"killed" example:"2" doc:"Number of processes signalled"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Sweep timestamp"`
}

// Type returns the event type identifier for StaleProcessesReapedEvent.
func (e StaleProcessesReapedEvent) Type() uint32 { return TypeStaleProcessesReaped }
