// Package stager copies the relay and producer executables and the relay
// configuration from a read-only bundle into a per-user working directory.
package stager

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/relay"
)

// Executable names looked up in the bundle and the working directory.
const (
	RelayBinary    = "mediamtx"
	ProducerBinary = "ffmpeg"
)

// AppDirName is the per-user directory name under os.UserConfigDir.
const AppDirName = "ipcam"

const (
	execMode = 0o755
	fileMode = 0o644
)

// Resource is one artifact that must exist in the working directory.
type Resource struct {
	Name        string
	Source      string // read-only bundle location
	Destination string // writable per-user location
	Executable  bool

	// Generate produces the contents when Source is missing. Nil means a
	// missing source is an error.
	Generate func() ([]byte, error)
}

// StagingError reports the resource that could not be staged.
type StagingError struct {
	Resource string
	Cause    error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Resource, e.Cause)
}

func (e *StagingError) Unwrap() error {
	return e.Cause
}

// Paths of the staged artifacts.
type Paths struct {
	Relay       string
	Producer    string
	RelayConfig string
}

// PathsIn returns the artifact paths inside workDir.
func PathsIn(workDir string) Paths {
	return Paths{
		Relay:       filepath.Join(workDir, RelayBinary),
		Producer:    filepath.Join(workDir, ProducerBinary),
		RelayConfig: filepath.Join(workDir, relay.DefaultConfigName),
	}
}

// DefaultResources returns the relay binary, the producer binary and the
// relay configuration, in staging order.
func DefaultResources(bundleDir, workDir string) []Resource {
	dst := PathsIn(workDir)
	return []Resource{
		{
			Name:        RelayBinary,
			Source:      filepath.Join(bundleDir, RelayBinary),
			Destination: dst.Relay,
			Executable:  true,
		},
		{
			Name:        ProducerBinary,
			Source:      filepath.Join(bundleDir, ProducerBinary),
			Destination: dst.Producer,
			Executable:  true,
		},
		{
			Name:        relay.DefaultConfigName,
			Source:      filepath.Join(bundleDir, relay.DefaultConfigName),
			Destination: dst.RelayConfig,
			Generate:    relay.Render,
		},
	}
}

// WorkDir returns the per-user working directory, creating it if needed.
func WorkDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	dir := filepath.Join(base, AppDirName)
	if err := os.MkdirAll(dir, execMode); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	return dir, nil
}

// Stage makes every resource present at its destination. Existing
// destinations are never rewritten, so a newer bundle does not replace an
// installed copy; executables only get their owner exec bits re-ensured.
// The first failure aborts and is returned as *StagingError.
func Stage(resources []Resource) error {
	logger := logging.GetLogger("stager")

	for _, r := range resources {
		copied, err := stageOne(r)
		if err != nil {
			logger.Error("Staging failed", "resource", r.Name, "error", err)
			return &StagingError{Resource: r.Name, Cause: err}
		}
		if copied {
			logger.Info("Staged resource", "resource", r.Name, "path", r.Destination)
		} else {
			logger.Debug("Resource already staged", "resource", r.Name, "path", r.Destination)
		}
	}
	return nil
}

// stageOne reports whether the destination was written.
func stageOne(r Resource) (bool, error) {
	info, err := os.Stat(r.Destination)
	switch {
	case err == nil:
		if info.IsDir() {
			return false, fmt.Errorf("destination %s is a directory", r.Destination)
		}
		if r.Executable && info.Mode().Perm()&0o100 == 0 {
			if err := os.Chmod(r.Destination, info.Mode().Perm()|0o700); err != nil {
				return false, fmt.Errorf("chmod: %w", err)
			}
		}
		return false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("stat destination: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.Destination), execMode); err != nil {
		return false, fmt.Errorf("create destination dir: %w", err)
	}

	mode := os.FileMode(fileMode)
	if r.Executable {
		mode = execMode
	}

	src, err := os.Open(r.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && r.Generate != nil {
			data, genErr := r.Generate()
			if genErr != nil {
				return false, fmt.Errorf("generate: %w", genErr)
			}
			return true, writeAtomic(r.Destination, mode, func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			})
		}
		return false, fmt.Errorf("open bundled source: %w", err)
	}
	defer func() { _ = src.Close() }()

	return true, writeAtomic(r.Destination, mode, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
}

// writeAtomic writes through a temp file in the destination directory and
// renames it into place so a crash never leaves a truncated executable.
func writeAtomic(dst string, mode os.FileMode, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		cleanup()
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
