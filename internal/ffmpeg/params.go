// Package ffmpeg builds producer argument lists.
package ffmpeg

import "runtime"

// Input formats understood by BuildArgs.
const (
	FormatAVFoundation = "avfoundation"
	FormatV4L2         = "v4l2"
)

// Fixed capture and encode policy.
const (
	DefaultFPS           = 30
	DefaultResolution    = "1280x720"
	DefaultEncoder       = "libx264"
	DefaultPreset        = "ultrafast"
	DefaultTune          = "zerolatency"
	DefaultAudioCodec    = "aac"
	DefaultAudioBitrate  = "128k"
	DefaultRTSPTransport = "tcp"
)

// Params represents all parameters needed to generate a producer command.
type Params struct {
	// Input configuration
	InputFormat  string // avfoundation, v4l2
	CameraIndex  int
	MicIndex     int
	IncludeAudio bool
	FPS          int    // 30
	Resolution   string // 1280x720

	// Encoder configuration
	Encoder string // libx264
	Preset  string // ultrafast
	Tune    string // zerolatency

	// Audio
	AudioCodec   string // aac
	AudioBitrate string // 128k

	// Output
	OutputURL     string // rtsp://localhost:8554/webcam
	RTSPTransport string // tcp
}

// NewParams returns Params carrying the fixed policy for the given device selection.
func NewParams(format string, camera, mic int, includeAudio bool, outputURL string) *Params {
	if format == "" {
		format = DefaultInputFormat()
	}
	return &Params{
		InputFormat:   format,
		CameraIndex:   camera,
		MicIndex:      mic,
		IncludeAudio:  includeAudio,
		FPS:           DefaultFPS,
		Resolution:    DefaultResolution,
		Encoder:       DefaultEncoder,
		Preset:        DefaultPreset,
		Tune:          DefaultTune,
		AudioCodec:    DefaultAudioCodec,
		AudioBitrate:  DefaultAudioBitrate,
		OutputURL:     outputURL,
		RTSPTransport: DefaultRTSPTransport,
	}
}

// DefaultInputFormat returns the capture framework for the running OS.
func DefaultInputFormat() string {
	if runtime.GOOS == "darwin" {
		return FormatAVFoundation
	}
	return FormatV4L2
}
