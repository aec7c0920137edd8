package reaper

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestKillStaleNoMatches(t *testing.T) {
	name := fmt.Sprintf("nx%d", time.Now().UnixNano()%1_000_000_000)

	killed, err := KillStale(context.Background(), name)
	if err != nil {
		t.Fatalf("KillStale() error = %v", err)
	}
	if killed != 0 {
		t.Errorf("KillStale() = %d, want 0", killed)
	}
}

func TestKillStaleNoNames(t *testing.T) {
	killed, err := KillStale(context.Background())
	if err != nil || killed != 0 {
		t.Errorf("KillStale() = %d, %v, want 0, nil", killed, err)
	}
}

func TestKillStaleCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := KillStale(ctx, "mediamtx"); err == nil {
		t.Error("KillStale() with cancelled context returned nil error")
	}
}

// copySleep copies the sleep binary under a unique short name so it can be
// matched without touching unrelated processes.
func copySleep(t *testing.T) string {
	t.Helper()
	src, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not available")
	}

	in, err := os.Open(src)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	name := fmt.Sprintf("stl%d", time.Now().UnixNano()%1_000_000_000)
	dst := filepath.Join(t.TempDir(), name)
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY, 0o755)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.Copy(out, in); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	return dst
}

func TestKillStaleTerminatesMatches(t *testing.T) {
	bin := copySleep(t)

	cmd := exec.Command(bin, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start stale process: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	t.Cleanup(func() { _ = cmd.Process.Kill() })

	// let the exec settle so the process name is the copied binary
	time.Sleep(100 * time.Millisecond)

	killed, err := KillStale(context.Background(), filepath.Base(bin))
	if err != nil {
		t.Fatalf("KillStale() error = %v", err)
	}
	if killed != 1 {
		t.Errorf("KillStale() = %d, want 1", killed)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stale process still running after KillStale")
	}
}
