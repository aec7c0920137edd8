package ffmpeg

import (
	"strconv"
)

// Base returns the global flags that keep the producer quiet.
func Base() []string {
	return []string{"-hide_banner", "-loglevel", "error", "-nostats"}
}

// InputSpec returns the device spec passed to -i for the video input.
// The "<camera>" / "<camera>:<mic>" form holds for avfoundation only. For
// v4l2 it is "/dev/video<camera>" and the microphone is a separate ALSA
// input (see AudioDevice).
func (p *Params) InputSpec() string {
	camera := strconv.Itoa(p.CameraIndex)
	switch p.InputFormat {
	case FormatV4L2:
		return "/dev/video" + camera
	default:
		if p.IncludeAudio {
			return camera + ":" + strconv.Itoa(p.MicIndex)
		}
		return camera
	}
}

// AudioDevice returns the ALSA device for v4l2 capture, empty otherwise.
func (p *Params) AudioDevice() string {
	if p.InputFormat != FormatV4L2 || !p.IncludeAudio {
		return ""
	}
	return "hw:" + strconv.Itoa(p.MicIndex)
}

// BuildArgs builds the producer argument list, without the executable.
func (p *Params) BuildArgs() []string {
	args := Base()

	// Input configuration
	args = append(args, "-f", p.InputFormat)
	if p.FPS > 0 {
		args = append(args, "-framerate", strconv.Itoa(p.FPS))
	}
	if p.Resolution != "" {
		args = append(args, "-video_size", p.Resolution)
	}
	args = append(args, "-i", p.InputSpec())

	if dev := p.AudioDevice(); dev != "" {
		args = append(args, "-thread_queue_size", "1024", "-f", "alsa", "-i", dev)
		args = append(args, "-map", "0:v", "-map", "1:a")
	}

	// Encoder
	args = append(args, "-c:v", p.Encoder)
	if p.Preset != "" {
		args = append(args, "-preset", p.Preset)
	}
	if p.Tune != "" {
		args = append(args, "-tune", p.Tune)
	}

	// Audio codec
	if p.IncludeAudio {
		args = append(args, "-c:a", p.AudioCodec, "-b:a", p.AudioBitrate)
	} else {
		args = append(args, "-an")
	}

	// Output
	args = append(args, "-f", "rtsp")
	if p.RTSPTransport != "" {
		args = append(args, "-rtsp_transport", p.RTSPTransport)
	}
	args = append(args, p.OutputURL)

	return args
}

// BuildArgs is shorthand for p.BuildArgs.
func BuildArgs(p *Params) []string {
	return p.BuildArgs()
}
