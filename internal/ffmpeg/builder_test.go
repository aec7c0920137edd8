package ffmpeg

import (
	"slices"
	"strings"
	"testing"
)

const testURL = "rtsp://localhost:8554/webcam"

// argAfter returns the argument following the first occurrence of flag.
func argAfter(args []string, flag string) (string, bool) {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return "", false
	}
	return args[i+1], true
}

func TestBuildArgsAVFoundation(t *testing.T) {
	tests := []struct {
		name         string
		includeAudio bool
		wantInput    string
		wantAN       bool
	}{
		{"audio disabled", false, "2", true},
		{"audio enabled", true, "2:1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := NewParams(FormatAVFoundation, 2, 1, tt.includeAudio, testURL).BuildArgs()

			input, ok := argAfter(args, "-i")
			if !ok || input != tt.wantInput {
				t.Errorf("-i = %q, want %q", input, tt.wantInput)
			}
			if got := slices.Contains(args, "-an"); got != tt.wantAN {
				t.Errorf("contains -an = %v, want %v", got, tt.wantAN)
			}

			codec, hasCodec := argAfter(args, "-c:a")
			bitrate, hasBitrate := argAfter(args, "-b:a")
			if tt.includeAudio {
				if codec != "aac" || bitrate != "128k" {
					t.Errorf("audio = %q @ %q, want aac @ 128k", codec, bitrate)
				}
			} else if hasCodec || hasBitrate {
				t.Errorf("audio codec args present with audio disabled: %v", args)
			}
		})
	}
}

func TestBuildArgsFixedPolicy(t *testing.T) {
	args := NewParams(FormatAVFoundation, 0, 0, true, testURL).BuildArgs()

	want := map[string]string{
		"-loglevel":       "error",
		"-framerate":      "30",
		"-video_size":     "1280x720",
		"-c:v":            "libx264",
		"-preset":         "ultrafast",
		"-tune":           "zerolatency",
		"-rtsp_transport": "tcp",
	}
	for flag, value := range want {
		if got, _ := argAfter(args, flag); got != value {
			t.Errorf("%s = %q, want %q", flag, got, value)
		}
	}

	if args[len(args)-1] != testURL {
		t.Errorf("last arg = %q, want output URL", args[len(args)-1])
	}
	if !slices.Contains(args, "-nostats") || !slices.Contains(args, "-hide_banner") {
		t.Errorf("missing quiet flags: %v", args)
	}

	// -f avfoundation must precede -i
	if slices.Index(args, "avfoundation") > slices.Index(args, "-i") {
		t.Errorf("input format after -i: %v", args)
	}
}

func TestBuildArgsV4L2(t *testing.T) {
	t.Run("audio enabled", func(t *testing.T) {
		args := NewParams(FormatV4L2, 1, 3, true, testURL).BuildArgs()
		joined := strings.Join(args, " ")

		if !strings.Contains(joined, "-f v4l2 -framerate 30 -video_size 1280x720 -i /dev/video1") {
			t.Errorf("video input wrong: %s", joined)
		}
		if !strings.Contains(joined, "-f alsa -i hw:3") {
			t.Errorf("alsa input missing: %s", joined)
		}
		if !strings.Contains(joined, "-map 0:v -map 1:a") {
			t.Errorf("stream mapping missing: %s", joined)
		}
		if slices.Contains(args, "-an") {
			t.Errorf("-an present with audio enabled")
		}
	})

	t.Run("audio disabled", func(t *testing.T) {
		p := NewParams(FormatV4L2, 1, 3, false, testURL)
		args := p.BuildArgs()

		if p.AudioDevice() != "" {
			t.Errorf("AudioDevice() = %q, want empty", p.AudioDevice())
		}
		if slices.Contains(args, "alsa") {
			t.Errorf("alsa input present with audio disabled: %v", args)
		}
		if !slices.Contains(args, "-an") {
			t.Errorf("-an missing: %v", args)
		}
	})
}

func TestNewParamsDefaultFormat(t *testing.T) {
	p := NewParams("", 0, 0, false, testURL)
	if p.InputFormat != DefaultInputFormat() {
		t.Errorf("InputFormat = %q, want %q", p.InputFormat, DefaultInputFormat())
	}
}

func TestInputSpec(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		audio     bool
		wantSpec  string
		wantAudio string
	}{
		{"avfoundation video only", FormatAVFoundation, false, "2", ""},
		{"avfoundation with mic", FormatAVFoundation, true, "2:5", ""},
		{"v4l2 video only", FormatV4L2, false, "/dev/video2", ""},
		{"v4l2 with mic", FormatV4L2, true, "/dev/video2", "hw:5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParams(tt.format, 2, 5, tt.audio, testURL)
			if got := p.InputSpec(); got != tt.wantSpec {
				t.Errorf("InputSpec() = %q, want %q", got, tt.wantSpec)
			}
			if got := p.AudioDevice(); got != tt.wantAudio {
				t.Errorf("AudioDevice() = %q, want %q", got, tt.wantAudio)
			}
		})
	}
}
