// Package process wraps a single supervised child process.
//
// A Process is launched once and never reused:
//   - Standard streams go to the null device; child output is discarded
//   - The child runs in its own process group so signals reach its children
//   - Done() is closed when the child has been reaped
//   - Terminate() sends SIGTERM without waiting
//   - Stop(timeout) sends SIGTERM, waits, then force kills with SIGKILL
//
// Example:
//
//	p := process.New(process.RoleRelay, "/path/to/mediamtx", []string{"/path/to/mediamtx.yml"}, logger)
//	if err := p.Start(); err != nil {
//	    return err
//	}
//	defer p.Stop(2 * time.Second)
package process
