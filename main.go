package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/ipcam/cmd"
	"github.com/smazurov/ipcam/internal/api"
	"github.com/smazurov/ipcam/internal/config"
	"github.com/smazurov/ipcam/internal/events"
	"github.com/smazurov/ipcam/internal/ffmpeg"
	"github.com/smazurov/ipcam/internal/logging"
	"github.com/smazurov/ipcam/internal/metrics"
	"github.com/smazurov/ipcam/internal/session"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Auth settings (empty username disables auth)
	AuthUsername string `help:"Basic auth username" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Paths
	PathsBundleDir string `help:"Directory holding the bundled relay and producer" default:"" toml:"paths.bundle_dir" env:"PATHS_BUNDLE_DIR"`
	PathsWorkDir   string `help:"Staging directory" default:"" toml:"paths.work_dir" env:"PATHS_WORK_DIR"`

	// Session settings
	SessionCameraIndex  int    `help:"Camera device index" default:"0" toml:"session.camera_index" env:"SESSION_CAMERA_INDEX"`
	SessionMicIndex     int    `help:"Microphone device index" default:"0" toml:"session.mic_index" env:"SESSION_MIC_INDEX"`
	SessionIncludeAudio bool   `help:"Capture audio" default:"true" toml:"session.include_audio" env:"SESSION_INCLUDE_AUDIO"`
	SessionAutostart    bool   `help:"Start a session when the server starts" default:"false" toml:"session.autostart" env:"SESSION_AUTOSTART"`
	SessionInputFormat  string `help:"Capture framework (avfoundation, v4l2)" default:"" toml:"session.input_format" env:"SESSION_INPUT_FORMAT"`
	SessionStopTimeout  string `help:"Wait for children to exit before killing (0s = do not wait)" default:"0s" toml:"session.stop_timeout" env:"SESSION_STOP_TIMEOUT"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSession string `help:"Session logging level" default:"info" toml:"logging.session" env:"LOGGING_SESSION"`
	LoggingProcess string `help:"Child process logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingStager  string `help:"Stager logging level" default:"info" toml:"logging.stager" env:"LOGGING_STAGER"`
	LoggingReaper  string `help:"Reaper logging level" default:"info" toml:"logging.reaper" env:"LOGGING_REAPER"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP    string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingConfig  string `help:"Config watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically; flags set on the command line win
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}
		// flag and env values keep beating the file when it is reloaded
		pinned := config.OverriddenKeys(opts, cli.Root())

		loggingConfig := logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"session": opts.LoggingSession,
				"process": opts.LoggingProcess,
				"stager":  opts.LoggingStager,
				"reaper":  opts.LoggingReaper,
				"api":     opts.LoggingAPI,
				"http":    opts.LoggingHTTP,
				"config":  opts.LoggingConfig,
			},
		}
		logging.Initialize(loggingConfig)

		logger := logging.GetLogger("main")

		bundleDir := opts.PathsBundleDir
		if bundleDir == "" {
			bundleDir = cmd.DefaultBundleDir()
		}
		inputFormat := opts.SessionInputFormat
		if inputFormat == "" {
			inputFormat = ffmpeg.DefaultInputFormat()
		}
		stopTimeout, err := time.ParseDuration(opts.SessionStopTimeout)
		if err != nil {
			logger.Warn("Invalid session stop timeout, not waiting", "value", opts.SessionStopTimeout, "error", err)
			stopTimeout = 0
		}

		eventBus := events.New()

		supervisor, err := session.New(session.Options{
			BundleDir:   bundleDir,
			WorkDir:     opts.PathsWorkDir,
			InputFormat: inputFormat,
			StopTimeout: stopTimeout,
			Bus:         eventBus,
		})
		if err != nil {
			logger.Error("Failed to create session supervisor", "error", err)
			os.Exit(1)
		}

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Session:           supervisor,
			PrometheusHandler: metrics.Handler(),
		})

		current := config.SessionSettings{
			CameraIndex:  opts.SessionCameraIndex,
			MicIndex:     opts.SessionMicIndex,
			IncludeAudio: opts.SessionIncludeAudio,
			Autostart:    opts.SessionAutostart,
		}
		configLogger := logging.GetLogger("config")
		watcher := config.NewConfigWatcher(
			opts.Config,
			func(path string) (config.SessionSettings, error) {
				return config.LoadSessionSettings(path, current, pinned)
			},
			configLogger,
		)
		watcher.OnReload(func(next config.SessionSettings) {
			changed := current.DeviceSelectionChanged(next)
			current = next
			if !changed || !supervisor.Snapshot().Active() {
				return
			}
			configLogger.Info("Device selection changed, restarting session",
				"camera", next.CameraIndex, "mic", next.MicIndex, "audio", next.IncludeAudio)
			if restartErr := supervisor.Reconfigure(next.CameraIndex, next.MicIndex, next.IncludeAudio); restartErr != nil {
				configLogger.Error("Failed to restart session", "error", restartErr)
			}
		})

		hooks.OnStart(func() {
			reapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if killed, reapErr := supervisor.KillStaleBinaries(reapCtx); reapErr != nil {
				logger.Warn("Failed to reap stale processes", "error", reapErr)
			} else if killed > 0 {
				logger.Info("Killed stale processes from a previous run", "count", killed)
			}
			cancel()

			if opts.SessionAutostart {
				if startErr := supervisor.Start(current.CameraIndex, current.MicIndex, current.IncludeAudio); startErr != nil {
					logger.Error("Autostart failed", "error", startErr)
				}
			}

			// current is owned by the watcher goroutine from here on
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Warn("Config hot reload disabled", "path", opts.Config, "error", watchErr)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			if stopErr := watcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping config watcher", "error", stopErr)
			}

			// Children go last so no API request can start a new session
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if closeErr := supervisor.Close(ctx); closeErr != nil {
				logger.Error("Error shutting down session", "error", closeErr)
			}
		})
	})

	cli.Root().AddCommand(cmd.CreateStageCmd())
	cli.Root().AddCommand(cmd.CreateReapCmd())
	cli.Root().AddCommand(cmd.CreateRunCmd())
	cli.Root().AddCommand(cmd.CreateProbeCmd())
	cli.Root().AddCommand(cmd.CreateVersionCmd())

	cli.Run()
}
