package process

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"sync"
	"syscall"
	"time"
)

// Role identifies which half of a session a process plays.
type Role string

// Process roles.
const (
	RoleRelay    Role = "relay"    // serves the stream to the network
	RoleProducer Role = "producer" // captures, encodes and publishes to the relay
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("process already started")

// Process manages the lifecycle of one subprocess. Path and args are
// immutable once constructed.
type Process struct {
	role   Role
	path   string
	args   []string
	logger *slog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
	waitErr  error

	killTimeout time.Duration // timeout after SIGKILL before giving up
}

// New creates a process that has not been started yet.
func New(role Role, path string, args []string, logger *slog.Logger) *Process {
	if logger == nil {
		logger = slog.Default()
	}
	return &Process{
		role:        role,
		path:        path,
		args:        slices.Clone(args),
		logger:      logger.With("role", string(role)),
		done:        make(chan struct{}),
		exitCode:    -1,
		killTimeout: 5 * time.Second,
	}
}

// Start launches the subprocess. It does not wait for the child to become
// ready; the returned error only reports whether the OS accepted the launch.
func (p *Process) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return ErrAlreadyStarted
	}

	cmd := exec.Command(p.path, p.args...)
	// nil stdio is wired to os.DevNull by os/exec
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		p.logger.Error("Failed to start process", "path", p.path, "error", err)
		return err
	}
	p.cmd = cmd

	p.logger.Info("Process started", "pid", cmd.Process.Pid, "path", p.path, "args", p.args)

	go p.wait(cmd)
	return nil
}

// wait reaps the child and publishes its exit status.
func (p *Process) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	code := exitCodeFromError(err)

	p.mu.Lock()
	p.exitCode = code
	p.waitErr = err
	p.mu.Unlock()

	p.logger.Info("Process exited", "pid", cmd.Process.Pid, "exit_code", code)
	close(p.done)
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError (-1 when killed by a
// signal), or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Done is closed once the process has exited and been reaped.
// It never closes for a process that failed to start.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code, or -1 while the process is running.
func (p *Process) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// Running reports whether the process was started and has not exited.
func (p *Process) Running() bool {
	p.mu.Lock()
	started := p.cmd != nil
	p.mu.Unlock()
	if !started {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// PID returns the OS process id, or 0 if not started.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Role returns the process role.
func (p *Process) Role() Role { return p.role }

// Path returns the executable path.
func (p *Process) Path() string { return p.path }

// Args returns a copy of the arguments.
func (p *Process) Args() []string { return slices.Clone(p.args) }

// Terminate sends SIGTERM to the process group without waiting.
func (p *Process) Terminate() {
	p.signal(syscall.SIGTERM)
}

// Stop sends SIGTERM and waits up to timeout for the process to exit,
// force killing it afterwards. A zero timeout behaves like Terminate.
// Returns the exit code, 137 when the process had to be killed.
func (p *Process) Stop(timeout time.Duration) int {
	if p.PID() == 0 {
		return -1
	}

	p.Terminate()
	if timeout <= 0 {
		return p.ExitCode()
	}
	return p.waitForExit(timeout)
}

// waitForExit waits for the process to exit with a timeout, force-killing if needed.
func (p *Process) waitForExit(timeout time.Duration) int {
	select {
	case <-p.done:
		return p.ExitCode()
	case <-time.After(timeout):
		p.logger.Warn("Graceful shutdown timeout, forcing kill", "timeout", timeout)
		p.signal(syscall.SIGKILL)

		select {
		case <-p.done:
		case <-time.After(p.killTimeout):
			p.logger.Error("Process did not exit after kill signal")
		}
		return 137
	}
}

func (p *Process) signal(sig syscall.Signal) {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}

	select {
	case <-p.done:
		return
	default:
	}

	pid := cmd.Process.Pid
	p.logger.Debug("Signalling process group", "pid", pid, "signal", sig.String())
	if err := syscall.Kill(-pid, sig); err != nil {
		// group may be gone already; fall back to the leader
		if err := cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Warn("Failed to signal process", "pid", pid, "signal", sig.String(), "error", err)
		}
	}
}
