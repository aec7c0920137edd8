package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/relay"
	"github.com/spf13/cobra"
)

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var logLevel string
	var logJSON bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "probe [rtsp-url]",
		Short: "Describe the stream currently published on the relay",
		Long: `Issues an RTSP DESCRIBE against the relay and prints the published tracks. ` +
			`Defaults to the local publish URL.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			initLogging(logJSON, logLevel)
			logger := logging.GetLogger("relay")

			url := relay.PublishURL(relay.DefaultPath)
			if len(args) == 1 {
				url = args[0]
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			res, err := relay.Probe(ctx, url)
			if err != nil {
				if errors.Is(err, relay.ErrNoMedia) {
					fmt.Printf("%s: nothing published\n", url)
					os.Exit(2)
				}
				logger.Error("Probe failed", "url", url, "error", err)
				os.Exit(1)
			}

			out, _ := json.MarshalIndent(res, "", "  ")
			fmt.Println(string(out))
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Give up after this long")
	addLoggingFlags(cmd, &logJSON, &logLevel)
	return cmd
}
