// Package cmd holds the standalone subcommands registered on the root CLI.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/smazurov/ipcam/internal/logging"
	"github.com/spf13/cobra"
)

// DefaultBundleDir returns the bundle directory shipped next to the
// executable.
func DefaultBundleDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "bundle"
	}
	return filepath.Join(filepath.Dir(exe), "bundle")
}

// initLogging sets up minimal logging for one-shot commands.
func initLogging(logJSON bool, level string) {
	cfg := logging.Config{
		Level:  level,
		Format: "text",
	}
	if logJSON {
		cfg.Format = "json"
	}
	logging.Initialize(cfg)
}

func addLoggingFlags(c *cobra.Command, logJSON *bool, level *string) {
	c.Flags().BoolVar(logJSON, "log-json", false, "Output logs in JSON format")
	c.Flags().StringVar(level, "log-level", "info", "Logging level (debug, info, warn, error)")
}

func addDirFlags(c *cobra.Command, bundleDir, workDir *string) {
	c.Flags().StringVar(bundleDir, "bundle-dir", DefaultBundleDir(), "Directory holding the bundled relay and producer")
	c.Flags().StringVar(workDir, "work-dir", "", "Staging directory (defaults to the per-user config dir)")
}
