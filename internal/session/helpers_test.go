package session

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/smazurov/ipcam/internal/events"
	"github.com/smazurov/ipcam/internal/ffmpeg"
	"github.com/smazurov/ipcam/internal/lanip"
	"github.com/smazurov/ipcam/internal/stager"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testBundle is a fake bundle whose producer records each launch.
type testBundle struct {
	dir      string
	launches string
}

const relayScript = "#!/bin/sh\nexec sleep 600\n"

// newTestBundle writes sh stand-ins for the relay and the producer.
func newTestBundle(t *testing.T) *testBundle {
	t.Helper()
	b := &testBundle{
		dir:      t.TempDir(),
		launches: filepath.Join(t.TempDir(), "launches"),
	}
	b.write(t, stager.RelayBinary, relayScript)
	b.write(t, stager.ProducerBinary, fmt.Sprintf("#!/bin/sh\necho $$ >> %q\nexec sleep 600\n", b.launches))
	return b
}

func (b *testBundle) write(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(b.dir, name), []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}
}

// launchCount returns how many times the producer has been executed.
func (b *testBundle) launchCount(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile(b.launches)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return len(strings.Fields(string(data)))
}

// newTestSupervisor creates a Supervisor with short delays for testing.
func newTestSupervisor(t *testing.T, b *testBundle) *Supervisor {
	t.Helper()
	s, err := New(Options{
		BundleDir:   b.dir,
		WorkDir:     t.TempDir(),
		InputFormat: ffmpeg.FormatAVFoundation,
		StopTimeout: time.Second,
		Resolver:    lanip.Static("10.0.0.7"),
		Logger:      testLogger(),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.settleDelay = 50 * time.Millisecond
	s.backoff = 100 * time.Millisecond
	t.Cleanup(s.Stop)
	return s
}

// recordStates subscribes to session transitions.
func recordStates(t *testing.T, s *Supervisor) <-chan events.SessionStateChangedEvent {
	t.Helper()
	ch := make(chan events.SessionStateChangedEvent, 128)
	unsub := s.Events().Subscribe(func(e events.SessionStateChangedEvent) {
		select {
		case ch <- e:
		default:
		}
	})
	t.Cleanup(unsub)
	return ch
}

// expectState reads transitions until one with state arrives.
func expectState(t *testing.T, ch <-chan events.SessionStateChangedEvent, state State, timeout time.Duration) events.SessionStateChangedEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case e := <-ch:
			if e.State == string(state) {
				return e
			}
		case <-deadline:
			t.Fatalf("timeout waiting for state %s", state)
			return events.SessionStateChangedEvent{}
		}
	}
}

// waitFor polls cond until it holds or timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}

// waitLaunches waits until the producer script has recorded n launches. The
// script appends its pid after exec, so the count can trail Process.Start.
func waitLaunches(t *testing.T, b *testBundle, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if b.launchCount(t) == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("producer launched %d times, want %d", b.launchCount(t), n)
}

func alive(pid int) bool {
	return pid > 0 && syscall.Kill(pid, 0) == nil
}
