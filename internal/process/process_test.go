package process

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestProcess creates a sh-backed Process with short timeouts for testing.
func newTestProcess(script string) *Process {
	p := New(RoleProducer, "/bin/sh", []string{"-c", script}, testLogger())
	p.killTimeout = 100 * time.Millisecond
	return p
}

// waitDone waits for the process to exit, failing the test on timeout.
func waitDone(t *testing.T, p *Process, timeout time.Duration) {
	t.Helper()
	select {
	case <-p.Done():
	case <-time.After(timeout):
		t.Fatal("timeout waiting for process to exit")
	}
}

func TestProcessExitCode(t *testing.T) {
	p := newTestProcess("exit 42")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, p, time.Second)

	if got := p.ExitCode(); got != 42 {
		t.Errorf("ExitCode() = %d, want 42", got)
	}
	if p.Running() {
		t.Error("Running() = true after exit")
	}
}

func TestProcessTerminate(t *testing.T) {
	p := newTestProcess("trap 'exit 0' TERM; while :; do sleep 0.05; done")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if !p.Running() {
		t.Fatal("Running() = false before terminate")
	}

	start := time.Now()
	p.Terminate()
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Terminate() blocked for %v", elapsed)
	}

	waitDone(t, p, time.Second)
}

func TestProcessStopGraceful(t *testing.T) {
	p := newTestProcess("trap 'exit 0' TERM; while :; do sleep 0.05; done")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if code := p.Stop(time.Second); code != 0 {
		t.Errorf("Stop() = %d, want 0", code)
	}
}

func TestProcessStopForceKill(t *testing.T) {
	p := newTestProcess("trap '' TERM; while :; do sleep 0.05; done")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if code := p.Stop(50 * time.Millisecond); code != 137 {
		t.Errorf("Stop() = %d, want 137", code)
	}
	waitDone(t, p, time.Second)
}

func TestProcessStopBeforeStart(t *testing.T) {
	p := newTestProcess("true")
	if code := p.Stop(10 * time.Millisecond); code != -1 {
		t.Errorf("Stop() = %d, want -1", code)
	}
	p.Terminate() // must not panic
	if p.PID() != 0 {
		t.Errorf("PID() = %d, want 0", p.PID())
	}
}

func TestProcessStartTwice(t *testing.T) {
	p := newTestProcess("sleep 10")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop(time.Second)

	if err := p.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestProcessStartFailures(t *testing.T) {
	dir := t.TempDir()
	notExec := filepath.Join(dir, "mediamtx")
	if err := os.WriteFile(notExec, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing executable", filepath.Join(dir, "missing")},
		{"not executable", notExec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(RoleRelay, tt.path, nil, testLogger())
			if err := p.Start(); err == nil {
				t.Fatal("Start() succeeded, want error")
			}
			if p.Running() {
				t.Error("Running() = true after failed start")
			}
			if p.PID() != 0 {
				t.Errorf("PID() = %d, want 0", p.PID())
			}
		})
	}
}

func TestProcessArgsCopy(t *testing.T) {
	args := []string{"-c", "true"}
	p := New(RoleRelay, "/bin/sh", args, testLogger())

	args[1] = "false"
	got := p.Args()
	if got[1] != "true" {
		t.Errorf("Args()[1] = %q, constructor slice leaked", got[1])
	}

	got[0] = "mutated"
	if p.Args()[0] != "-c" {
		t.Error("Args() returned internal slice")
	}

	if p.Role() != RoleRelay || p.Path() != "/bin/sh" {
		t.Errorf("Role/Path = %s/%s", p.Role(), p.Path())
	}
}

func TestProcessOutputDiscarded(t *testing.T) {
	// Writing to stdout/stderr must not block or fail with nobody reading.
	p := newTestProcess("i=0; while [ $i -lt 2000 ]; do echo line $i; echo err $i >&2; i=$((i+1)); done")
	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitDone(t, p, 5*time.Second)
	if got := p.ExitCode(); got != 0 {
		t.Errorf("ExitCode() = %d, want 0", got)
	}
}

func TestExitCodeFromError(t *testing.T) {
	if got := exitCodeFromError(nil); got != 0 {
		t.Errorf("exitCodeFromError(nil) = %d, want 0", got)
	}
	if got := exitCodeFromError(errors.New("boom")); got != 1 {
		t.Errorf("exitCodeFromError(other) = %d, want 1", got)
	}
}
