package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/ipcam/internal/ffmpeg"
	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/session"
	"github.com/spf13/cobra"
)

// CreateRunCmd creates the run command: a headless session without the
// HTTP API.
func CreateRunCmd() *cobra.Command {
	var bundleDir, workDir, inputFormat, logLevel string
	var camera, mic int
	var audio, logJSON bool
	var stopTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a capture session in the foreground",
		Long: `Stages the bundle, reaps leftovers, starts the relay and the producer and ` +
			`keeps the producer running until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			initLogging(logJSON, logLevel)
			logger := logging.GetLogger("session").With("camera", camera, "mic", mic)

			sup, err := session.New(session.Options{
				BundleDir:   bundleDir,
				WorkDir:     workDir,
				InputFormat: inputFormat,
				StopTimeout: stopTimeout,
			})
			if err != nil {
				logger.Error("Failed to create session", "error", err)
				os.Exit(1)
			}

			reapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if killed, reapErr := sup.KillStaleBinaries(reapCtx); reapErr != nil {
				logger.Warn("Reaping stale processes failed", "error", reapErr)
			} else if killed > 0 {
				logger.Info("Killed stale processes", "count", killed)
			}
			cancel()

			if startErr := sup.Start(camera, mic, audio); startErr != nil {
				logger.Error("Failed to start session", "error", startErr)
				os.Exit(1)
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigChan
			logger.Info("Received signal, shutting down", "signal", sig)

			closeCtx, closeCancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer closeCancel()
			if closeErr := sup.Close(closeCtx); closeErr != nil {
				logger.Warn("Shutdown incomplete", "error", closeErr)
			}
		},
	}

	addDirFlags(cmd, &bundleDir, &workDir)
	cmd.Flags().IntVar(&camera, "camera", 0, "Camera device index")
	cmd.Flags().IntVar(&mic, "mic", 0, "Microphone device index")
	cmd.Flags().BoolVar(&audio, "audio", true, "Capture audio")
	cmd.Flags().StringVar(&inputFormat, "input-format", ffmpeg.DefaultInputFormat(), "Capture framework (avfoundation, v4l2)")
	cmd.Flags().DurationVar(&stopTimeout, "stop-timeout", 0, "Wait this long for children to exit before killing (0 = do not wait)")
	addLoggingFlags(cmd, &logJSON, &logLevel)
	return cmd
}
