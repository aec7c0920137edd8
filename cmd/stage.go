package cmd

import (
	"fmt"
	"os"

	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/metrics"
	"github.com/smazurov/ipcam/internal/session"
	"github.com/spf13/cobra"
)

// CreateStageCmd creates the stage command.
func CreateStageCmd() *cobra.Command {
	var bundleDir, workDir, logLevel string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Copy bundled binaries into the working directory",
		Long: `Copies the relay, the producer and the relay configuration from the bundle ` +
			`into the per-user working directory. Existing files are left untouched.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			initLogging(logJSON, logLevel)
			logger := logging.GetLogger("stager")

			sup, err := session.New(session.Options{BundleDir: bundleDir, WorkDir: workDir})
			if err != nil {
				logger.Error("Failed to resolve working directory", "error", err)
				os.Exit(1)
			}

			if err := sup.Stage(); err != nil {
				metrics.IncStagingFailure()
				logger.Error("Staging failed", "error", err, "bundle_dir", bundleDir)
				os.Exit(1)
			}

			paths := sup.Paths()
			fmt.Printf("relay:        %s\n", paths.Relay)
			fmt.Printf("producer:     %s\n", paths.Producer)
			fmt.Printf("relay config: %s\n", paths.RelayConfig)
		},
	}

	addDirFlags(cmd, &bundleDir, &workDir)
	addLoggingFlags(cmd, &logJSON, &logLevel)
	return cmd
}
