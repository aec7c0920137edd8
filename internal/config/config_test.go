package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	Port         string        `toml:"server.port" env:"TEST_PORT"`
	IncludeAudio bool          `toml:"session.include_audio" env:"TEST_INCLUDE_AUDIO"`
	CameraIndex  int           `toml:"session.camera_index" env:"TEST_CAMERA_INDEX"`
	StopTimeout  time.Duration `toml:"session.stop_timeout" env:"TEST_STOP_TIMEOUT"`
	Names        []string      `toml:"reaper.names" env:"TEST_NAMES"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeFile(t, `
[server]
port = ":9000"

[session]
include_audio = true
camera_index = 2
stop_timeout = "3s"

[reaper]
names = ["ffmpeg", "mediamtx"]
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != ":9000" {
		t.Errorf("Port = %q, want :9000", opts.Port)
	}
	if !opts.IncludeAudio {
		t.Error("IncludeAudio = false, want true")
	}
	if opts.CameraIndex != 2 {
		t.Errorf("CameraIndex = %d, want 2", opts.CameraIndex)
	}
	if opts.StopTimeout != 3*time.Second {
		t.Errorf("StopTimeout = %v, want 3s", opts.StopTimeout)
	}
	if want := []string{"ffmpeg", "mediamtx"}; !reflect.DeepEqual(opts.Names, want) {
		t.Errorf("Names = %v, want %v", opts.Names, want)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "[server]\nport = \":9000\"\n[session]\ncamera_index = 2\n")

	t.Setenv("IPCAM_TEST_PORT", ":9100")
	t.Setenv("IPCAM_TEST_STOP_TIMEOUT", "250ms")
	t.Setenv("IPCAM_TEST_NAMES", "a, b")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != ":9100" {
		t.Errorf("Port = %q, want env value :9100", opts.Port)
	}
	if opts.CameraIndex != 2 {
		t.Errorf("CameraIndex = %d, want file value 2", opts.CameraIndex)
	}
	if opts.StopTimeout != 250*time.Millisecond {
		t.Errorf("StopTimeout = %v, want 250ms", opts.StopTimeout)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(opts.Names, want) {
		t.Errorf("Names = %v, want %v", opts.Names, want)
	}
}

func TestLoadConfigCLIFlagWins(t *testing.T) {
	path := writeFile(t, "[server]\nport = \":9000\"\n")
	t.Setenv("IPCAM_TEST_PORT", ":9100")

	opts := &testOptions{Config: path}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.Port, "port", ":8090", "")
	if err := cmd.Flags().Set("port", ":7000"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if opts.Port != ":7000" {
		t.Errorf("Port = %q, want CLI value :7000", opts.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), Port: ":8090"}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing config file should not be an error, got %v", err)
	}
	if opts.Port != ":8090" {
		t.Errorf("Port = %q, want default :8090", opts.Port)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	opts := &testOptions{Config: writeFile(t, "[server\nport=")}
	if err := LoadConfig(opts, nil); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":               "port",
		"LoggingLevel":       "logging-level",
		"SessionCameraIndex": "session-camera-index",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadSessionSettings(t *testing.T) {
	path := writeFile(t, "[session]\ncamera_index = 1\ninclude_audio = false\n")

	got, err := LoadSessionSettings(path, SessionSettings{MicIndex: 3, IncludeAudio: true}, nil)
	if err != nil {
		t.Fatalf("LoadSessionSettings failed: %v", err)
	}
	want := SessionSettings{CameraIndex: 1, MicIndex: 3, IncludeAudio: false}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestDeviceSelectionChanged(t *testing.T) {
	base := SessionSettings{CameraIndex: 0, MicIndex: 1, IncludeAudio: true}

	if base.DeviceSelectionChanged(SessionSettings{CameraIndex: 0, MicIndex: 1, IncludeAudio: true, Autostart: true}) {
		t.Error("autostart alone must not count as a selection change")
	}
	if !base.DeviceSelectionChanged(SessionSettings{CameraIndex: 1, MicIndex: 1, IncludeAudio: true}) {
		t.Error("camera change not detected")
	}
	if !base.DeviceSelectionChanged(SessionSettings{CameraIndex: 0, MicIndex: 1, IncludeAudio: false}) {
		t.Error("audio toggle not detected")
	}
}

func TestOverriddenKeys(t *testing.T) {
	t.Setenv("IPCAM_TEST_INCLUDE_AUDIO", "false")

	opts := &testOptions{}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&opts.CameraIndex, "camera-index", 0, "")
	cmd.Flags().StringVar(&opts.Port, "port", ":8090", "")
	if err := cmd.Flags().Set("camera-index", "2"); err != nil {
		t.Fatal(err)
	}

	got := OverriddenKeys(opts, cmd)
	want := map[string]bool{
		"session.camera_index":  true,
		"session.include_audio": true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OverriddenKeys() = %v, want %v", got, want)
	}
}

func TestLoadSessionSettingsKeepsPinnedKeys(t *testing.T) {
	// the file disagrees with a flag-set camera and only the mic is free to change
	path := writeFile(t, "[logging]\nlevel = \"debug\"\n\n[session]\ncamera_index = 0\nmic_index = 4\n")
	current := SessionSettings{CameraIndex: 2, MicIndex: 1, IncludeAudio: true}
	pinned := map[string]bool{"session.camera_index": true}

	got, err := LoadSessionSettings(path, current, pinned)
	if err != nil {
		t.Fatalf("LoadSessionSettings failed: %v", err)
	}
	want := SessionSettings{CameraIndex: 2, MicIndex: 4, IncludeAudio: true}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !current.DeviceSelectionChanged(got) {
		t.Error("mic change not detected")
	}

	unchanged := writeFile(t, "[logging]\nlevel = \"warn\"\n\n[session]\ncamera_index = 0\n")
	got, err = LoadSessionSettings(unchanged, current, pinned)
	if err != nil {
		t.Fatalf("LoadSessionSettings failed: %v", err)
	}
	if current.DeviceSelectionChanged(got) {
		t.Errorf("reload overrode the pinned camera: %+v", got)
	}
}
