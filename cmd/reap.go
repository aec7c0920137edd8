package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/reaper"
	"github.com/smazurov/ipcam/internal/stager"
	"github.com/spf13/cobra"
)

// CreateReapCmd creates the reap command.
func CreateReapCmd() *cobra.Command {
	var logLevel string
	var logJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Kill leftover relay and producer processes",
		Long: `Terminates every running process named like the relay or the producer binary. ` +
			`Run it before starting a session if a previous instance crashed.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			initLogging(logJSON, logLevel)
			logger := logging.GetLogger("reaper")

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			killed, err := reaper.KillStale(ctx, stager.RelayBinary, stager.ProducerBinary)
			if err != nil {
				logger.Error("Reaping stale processes failed", "error", err, "killed", killed)
				os.Exit(1)
			}
			fmt.Printf("killed %d stale process(es)\n", killed)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Give up after this long")
	addLoggingFlags(cmd, &logJSON, &logLevel)
	return cmd
}
