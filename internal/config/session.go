package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/pelletier/go-toml/v2"
)

const sessionTable = "session"

// SessionSettings is the [session] table of the config file: the device
// selection handed to the supervisor on start.
type SessionSettings struct {
	CameraIndex  int  `toml:"camera_index"`
	MicIndex     int  `toml:"mic_index"`
	IncludeAudio bool `toml:"include_audio"`
	Autostart    bool `toml:"autostart"`
}

// DeviceSelectionChanged reports whether a session started with s must be
// restarted to honor other. Autostart is not part of the selection.
func (s SessionSettings) DeviceSelectionChanged(other SessionSettings) bool {
	return s.CameraIndex != other.CameraIndex ||
		s.MicIndex != other.MicIndex ||
		s.IncludeAudio != other.IncludeAudio
}

// LoadSessionSettings reads the [session] table from a TOML file on top of
// current. Keys listed in pinned (full toml paths such as
// "session.camera_index") keep their value from current, so settings given on
// the command line or in the environment survive a reload.
func LoadSessionSettings(path string, current SessionSettings, pinned map[string]bool) (SessionSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return current, fmt.Errorf("failed to read config file: %w", err)
	}

	raw := struct {
		Session SessionSettings `toml:"session"`
	}{Session: current}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return current, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	next := raw.Session
	nv := reflect.ValueOf(&next).Elem()
	cv := reflect.ValueOf(current)
	for i := 0; i < nv.NumField(); i++ {
		if pinned[sessionTable+"."+nv.Type().Field(i).Tag.Get("toml")] {
			nv.Field(i).Set(cv.Field(i))
		}
	}
	return next, nil
}
