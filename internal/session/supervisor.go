// Package session supervises one relay and one producer process per
// streaming session: staging, ordered startup, restart on producer exit, and
// shutdown.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/ipcam/internal/events"
	"github.com/smazurov/ipcam/internal/lanip"
	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/metrics"
	"github.com/smazurov/ipcam/internal/process"
	"github.com/smazurov/ipcam/internal/reaper"
	"github.com/smazurov/ipcam/internal/stager"
)

const (
	defaultSettleDelay = 2 * time.Second
	defaultBackoff     = 2 * time.Second
)

// Options configures a Supervisor.
type Options struct {
	BundleDir   string // read-only source of binaries and relay config
	WorkDir     string // per-user staging directory; empty resolves stager.WorkDir
	InputFormat string // producer capture framework; empty picks the OS default

	// StopTimeout bounds how long Stop waits for each child to exit before
	// killing it. Zero sends SIGTERM and returns immediately.
	StopTimeout time.Duration

	Resolver lanip.Resolver
	Bus      *events.Bus
	Logger   *slog.Logger
}

// Selection is the device choice a session was started with.
type Selection struct {
	CameraIndex  int
	MicIndex     int
	IncludeAudio bool
}

// Supervisor owns the session and its child processes.
type Supervisor struct {
	opts       Options
	logger     *slog.Logger
	procLogger *slog.Logger
	bus        *events.Bus
	store      *stateStore
	resources  []stager.Resource
	paths      stager.Paths

	settleDelay time.Duration
	backoff     time.Duration

	// lifecycle serializes Start, Stop and KillStaleBinaries.
	lifecycle sync.Mutex
	cancel    context.CancelFunc
	loopDone  chan struct{}

	procMu   sync.Mutex
	relay    *process.Process
	producer *process.Process
}

// New creates a Supervisor in the stopped state.
func New(opts Options) (*Supervisor, error) {
	if opts.WorkDir == "" {
		dir, err := stager.WorkDir()
		if err != nil {
			return nil, err
		}
		opts.WorkDir = dir
	}
	if opts.Resolver == nil {
		opts.Resolver = lanip.NewInterfaceResolver()
	}
	if opts.Bus == nil {
		opts.Bus = events.New()
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger("session")
	}

	return &Supervisor{
		opts:        opts,
		logger:      opts.Logger,
		procLogger:  logging.GetLogger("process"),
		bus:         opts.Bus,
		store:       newStateStore(opts.Bus),
		resources:   stager.DefaultResources(opts.BundleDir, opts.WorkDir),
		paths:       stager.PathsIn(opts.WorkDir),
		settleDelay: defaultSettleDelay,
		backoff:     defaultBackoff,
	}, nil
}

// Start stages the binaries, launches the relay and returns. The producer is
// launched by the session loop after the settle delay.
func (s *Supervisor) Start(cameraIndex, micIndex int, includeAudio bool) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	sel := Selection{CameraIndex: cameraIndex, MicIndex: micIndex, IncludeAudio: includeAudio}

	_, ok := s.store.updateIf(func(cur Snapshot) bool {
		return !cur.Active()
	}, func(next *Snapshot) {
		*next = Snapshot{
			State:         StateStarting,
			StatusMessage: StatusStarting,
			CameraIndex:   sel.CameraIndex,
			MicIndex:      sel.MicIndex,
			IncludeAudio:  sel.IncludeAudio,
		}
	})
	if !ok {
		return ErrSessionActive
	}

	// leftovers of a session that ended in error
	s.teardownLocked()

	s.logger.Info("Starting session", "camera", cameraIndex, "mic", micIndex, "audio", includeAudio)

	if err := stager.Stage(s.resources); err != nil {
		metrics.IncStagingFailure()
		s.fail(err)
		return err
	}

	relay := process.New(process.RoleRelay, s.paths.Relay, []string{s.paths.RelayConfig}, s.procLogger)
	if err := relay.Start(); err != nil {
		metrics.IncSpawnFailure(string(process.RoleRelay))
		spawnErr := &SpawnError{Role: process.RoleRelay, Cause: err}
		s.fail(spawnErr)
		return spawnErr
	}

	s.procMu.Lock()
	s.relay = relay
	s.procMu.Unlock()

	s.store.update(func(next *Snapshot) {
		next.RelayPID = relay.PID()
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	go s.watch(ctx, sel, s.loopDone)

	return nil
}

// Stop cancels the session loop, waits for it to return, then terminates
// the producer and the relay. No restart fires after Stop returns.
func (s *Supervisor) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopLocked()
}

func (s *Supervisor) stopLocked() {
	hadSession := s.cancel != nil
	s.teardownLocked()

	if !hadSession && s.store.get().State == StateStopped {
		return
	}

	s.store.update(func(next *Snapshot) {
		next.State = StateStopped
		next.StatusMessage = StatusStopped
		next.RelayPID = 0
		next.ProducerPID = 0
	})
	s.logger.Info("Session stopped")
}

// teardownLocked stops the loop and terminates any child processes without
// touching the published state.
func (s *Supervisor) teardownLocked() {
	if s.cancel != nil {
		s.cancel()
		<-s.loopDone
		s.cancel = nil
		s.loopDone = nil
	}

	s.procMu.Lock()
	producer, relay := s.producer, s.relay
	s.producer, s.relay = nil, nil
	s.procMu.Unlock()

	s.terminate(producer)
	s.terminate(relay)
}

func (s *Supervisor) terminate(p *process.Process) {
	if p == nil {
		return
	}
	if s.opts.StopTimeout > 0 {
		p.Stop(s.opts.StopTimeout)
		return
	}
	p.Terminate()
}

// Reconfigure restarts an active session with a new device selection.
func (s *Supervisor) Reconfigure(cameraIndex, micIndex int, includeAudio bool) error {
	if !s.store.get().Active() {
		return ErrNoSession
	}
	s.Stop()
	return s.Start(cameraIndex, micIndex, includeAudio)
}

// KillStaleBinaries terminates every relay and producer process on the
// machine by name. It is refused while a session is active.
func (s *Supervisor) KillStaleBinaries(ctx context.Context) (int, error) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.store.get().Active() {
		return 0, ErrSessionActive
	}
	return s.killStaleLocked(ctx)
}

func (s *Supervisor) killStaleLocked(ctx context.Context) (int, error) {
	killed, err := reaper.KillStale(ctx, stager.RelayBinary, stager.ProducerBinary)
	metrics.AddStaleKilled(killed)
	if killed > 0 {
		s.logger.Info("Killed stale processes", "count", killed)
	}
	s.bus.Publish(events.StaleProcessesReapedEvent{
		Killed:    killed,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return killed, fmt.Errorf("kill stale binaries: %w", err)
	}
	return killed, nil
}

// Close stops the session and reaps any stale binaries. Used on shutdown.
func (s *Supervisor) Close(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopLocked()
	_, err := s.killStaleLocked(ctx)
	return err
}

// fail moves the session to the error state.
func (s *Supervisor) fail(err error) {
	s.logger.Error("Session failed", "error", err)
	s.store.update(func(next *Snapshot) {
		next.State = StateError
		next.StatusMessage = errorStatus(err)
		next.LastError = err.Error()
		next.RelayPID = 0
		next.ProducerPID = 0
	})
}

// Snapshot returns the current session state.
func (s *Supervisor) Snapshot() Snapshot {
	return s.store.get()
}

// IsStreaming reports whether the session is streaming or reconnecting.
func (s *Supervisor) IsStreaming() bool {
	return s.store.get().IsStreaming()
}

// RTSPURL returns the endpoint URL, empty unless streaming.
func (s *Supervisor) RTSPURL() string {
	return s.store.get().RTSPURL
}

// StatusMessage returns the human-readable status.
func (s *Supervisor) StatusMessage() string {
	return s.store.get().StatusMessage
}

// Events returns the bus session transitions are published on.
func (s *Supervisor) Events() *events.Bus {
	return s.bus
}

// Paths returns where the binaries are staged.
func (s *Supervisor) Paths() stager.Paths {
	return s.paths
}

// Stage runs the stager without starting a session.
func (s *Supervisor) Stage() error {
	return stager.Stage(s.resources)
}
