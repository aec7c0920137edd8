package session

import (
	"sync"
	"time"

	"github.com/smazurov/ipcam/internal/events"
	"github.com/smazurov/ipcam/internal/metrics"
)

// State is the lifecycle state of the streaming session.
type State string

// Session states.
const (
	StateStopped      State = "stopped"
	StateStarting     State = "starting"
	StateStreaming    State = "streaming"
	StateReconnecting State = "reconnecting"
	StateError        State = "error"
)

// Status messages shown to the user.
const (
	StatusStopped      = "Stopped"
	StatusStarting     = "Starting..."
	StatusStreaming    = "Streaming"
	StatusReconnecting = "Reconnecting..."
	statusErrorPrefix  = "Error: "
)

// Snapshot is a consistent view of the session at one point in time.
type Snapshot struct {
	State         State     `json:"state" enum:"stopped,starting,streaming,reconnecting,error" doc:"Session state"`
	StatusMessage string    `json:"status_message" example:"Streaming" doc:"Human-readable status"`
	RTSPURL       string    `json:"rtsp_url" example:"rtsp://192.168.1.20:8554/webcam" doc:"Endpoint URL, empty unless streaming or reconnecting"`
	CameraIndex   int       `json:"camera_index" doc:"Selected camera"`
	MicIndex      int       `json:"mic_index" doc:"Selected microphone"`
	IncludeAudio  bool      `json:"include_audio" doc:"Whether audio is captured"`
	RelayPID      int       `json:"relay_pid,omitempty" doc:"Relay process ID"`
	ProducerPID   int       `json:"producer_pid,omitempty" doc:"Producer process ID"`
	Restarts      int       `json:"restarts" doc:"Producer restarts in this session"`
	LastError     string    `json:"last_error,omitempty" doc:"Most recent error"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Time of the last transition"`
}

// IsStreaming reports whether the session is publishing or about to again.
func (s Snapshot) IsStreaming() bool {
	return s.State == StateStreaming || s.State == StateReconnecting
}

// Active reports whether the session owns, or is acquiring, child processes.
func (s Snapshot) Active() bool {
	return s.State == StateStarting || s.IsStreaming()
}

func errorStatus(err error) string {
	return statusErrorPrefix + err.Error()
}

// stateStore is the single serialization point for session transitions.
// Events are published while the lock is held so subscribers observe
// transitions in the order they were applied.
type stateStore struct {
	mu   sync.Mutex
	snap Snapshot
	bus  *events.Bus
	now  func() time.Time
}

func newStateStore(bus *events.Bus) *stateStore {
	s := &stateStore{
		bus: bus,
		now: time.Now,
	}
	s.snap = Snapshot{
		State:         StateStopped,
		StatusMessage: StatusStopped,
		UpdatedAt:     s.now(),
	}
	return s
}

func (s *stateStore) get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// update applies fn to a copy of the current snapshot and publishes it.
func (s *stateStore) update(fn func(*Snapshot)) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(fn)
}

// updateIf applies fn only when allow accepts the current snapshot.
func (s *stateStore) updateIf(allow func(Snapshot) bool, fn func(*Snapshot)) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !allow(s.snap) {
		return s.snap, false
	}
	return s.applyLocked(fn), true
}

func (s *stateStore) applyLocked(fn func(*Snapshot)) Snapshot {
	next := s.snap
	fn(&next)
	if !next.IsStreaming() {
		next.RTSPURL = ""
	}
	next.UpdatedAt = s.now()

	prev := s.snap.State
	s.snap = next

	if prev != next.State {
		metrics.SetSessionState(string(next.State))
	}
	if s.bus != nil {
		s.bus.Publish(events.SessionStateChangedEvent{
			State:         string(next.State),
			StatusMessage: next.StatusMessage,
			RTSPURL:       next.RTSPURL,
			Restarts:      next.Restarts,
			Timestamp:     next.UpdatedAt.Format(time.RFC3339),
		})
	}
	return next
}
