// Package relay describes the local RTSP relay (MediaMTX): its configuration
// file, its endpoint URLs and a diagnostic probe.
package relay

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Relay defaults.
const (
	DefaultPort       = 8554
	DefaultPath       = "webcam"
	DefaultConfigName = "mediamtx.yml"
)

// Config represents a MediaMTX configuration
type Config struct {
	LogLevel       string   `yaml:"logLevel"`
	API            bool     `yaml:"api"`
	Metrics        bool     `yaml:"metrics"`
	RTSP           bool     `yaml:"rtsp"`
	RTSPAddress    string   `yaml:"rtspAddress"`
	RTSPTransports []string `yaml:"rtspTransports"`
	RTMP           bool     `yaml:"rtmp"`
	HLS            bool     `yaml:"hls"`
	WebRTC         bool     `yaml:"webrtc"`
	SRT            bool     `yaml:"srt"`

	Paths map[string]PathConfig `yaml:"paths"`
}

// PathConfig represents a MediaMTX path configuration
type PathConfig struct {
	Source string `yaml:"source,omitempty"`
}

// DefaultConfig returns an RTSP-only configuration that accepts one
// published stream on the webcam path over TCP.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "error",
		RTSP:           true,
		RTSPAddress:    fmt.Sprintf(":%d", DefaultPort),
		RTSPTransports: []string{"tcp"},
		Paths: map[string]PathConfig{
			DefaultPath: {Source: "publisher"},
		},
	}
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	return data, nil
}

// Render returns the YAML bytes of DefaultConfig.
func Render() ([]byte, error) {
	return DefaultConfig().Marshal()
}

// Load loads configuration from a YAML file. Missing fields keep their
// default values.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	config.Paths = nil
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML config: %w", err)
	}

	if config.Paths == nil {
		config.Paths = make(map[string]PathConfig)
	}

	return config, nil
}

// Port returns the RTSP listen port from RTSPAddress, or DefaultPort.
func (c *Config) Port() string {
	if i := strings.LastIndex(c.RTSPAddress, ":"); i >= 0 && i+1 < len(c.RTSPAddress) {
		return c.RTSPAddress[i+1:]
	}
	return fmt.Sprint(DefaultPort)
}

// PublishURL returns the URL the producer publishes to on this machine.
func PublishURL(path string) string {
	return EndpointURL("localhost", path)
}

// EndpointURL returns the URL remote clients use to read the stream.
func EndpointURL(host, path string) string {
	return fmt.Sprintf("rtsp://%s:%d/%s", host, DefaultPort, path)
}
