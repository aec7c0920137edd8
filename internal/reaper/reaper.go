// Package reaper terminates leftover relay and producer processes by
// executable name, whoever started them.
package reaper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/smazurov/ipcam/internal/logging"
)

// KillStale sends SIGTERM to every process whose executable name exactly
// matches one of names, skipping the current process. It returns the number
// of processes signalled. Processes that exit during the scan are ignored.
func KillStale(ctx context.Context, names ...string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	logger := logging.GetLogger("reaper")

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("list processes: %w", err)
	}

	self := int32(os.Getpid())
	killed := 0
	var errs []error

	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return killed, err
		}
		if p.Pid == self {
			continue
		}

		name, err := p.NameWithContext(ctx)
		if err != nil {
			// vanished or not ours to inspect
			continue
		}
		if !slices.Contains(names, name) {
			continue
		}

		if err := p.TerminateWithContext(ctx); err != nil {
			if running, _ := p.IsRunningWithContext(ctx); !running {
				continue
			}
			logger.Warn("Failed to terminate stale process", "pid", p.Pid, "name", name, "error", err)
			errs = append(errs, fmt.Errorf("terminate %s (pid %d): %w", name, p.Pid, err))
			continue
		}

		logger.Info("Terminated stale process", "pid", p.Pid, "name", name)
		killed++
	}

	return killed, errors.Join(errs...)
}
