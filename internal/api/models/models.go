// Package models holds the request and response bodies of the HTTP API.
package models

import (
	"time"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Product   string `json:"product" example:"ipcam" doc:"Product name"`
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2024-12-15 14:30" doc:"Build timestamp"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Platform  string `json:"platform" example:"darwin/arm64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Session models
type SessionData struct {
	State         string    `json:"state" enum:"stopped,starting,streaming,reconnecting,error" example:"streaming" doc:"Session state"`
	StatusMessage string    `json:"status_message" example:"Streaming" doc:"Human-readable status"`
	IsStreaming   bool      `json:"is_streaming" example:"true" doc:"True while streaming or reconnecting"`
	RTSPURL       string    `json:"rtsp_url,omitempty" example:"rtsp://192.168.1.20:8554/webcam" doc:"Endpoint URL for RTSP clients"`
	CameraIndex   int       `json:"camera_index" example:"0" doc:"Selected camera index"`
	MicIndex      int       `json:"mic_index" example:"0" doc:"Selected microphone index"`
	IncludeAudio  bool      `json:"include_audio" example:"true" doc:"Whether audio is captured"`
	RelayPID      int       `json:"relay_pid,omitempty" example:"4100" doc:"Relay process ID"`
	ProducerPID   int       `json:"producer_pid,omitempty" example:"4102" doc:"Producer process ID"`
	Restarts      int       `json:"restarts" example:"0" doc:"Producer restarts in this session"`
	LastError     string    `json:"last_error,omitempty" doc:"Most recent error"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Time of the last state transition"`
}

type SessionResponse struct {
	Body SessionData
}

type StartSessionData struct {
	CameraIndex  int  `json:"camera_index" minimum:"0" example:"0" doc:"Camera device index"`
	MicIndex     int  `json:"mic_index" minimum:"0" example:"0" doc:"Microphone device index, ignored when include_audio is false"`
	IncludeAudio bool `json:"include_audio" example:"true" doc:"Capture and encode audio"`
}

type StartSessionRequest struct {
	Body StartSessionData
}

type ReapData struct {
	Killed int `json:"killed" example:"2" doc:"Number of stale processes terminated"`
}

type ReapResponse struct {
	Body ReapData
}

// Log models
type LogEntryData struct {
	Timestamp  time.Time      `json:"timestamp" doc:"Log entry time"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module,omitempty" example:"session" doc:"Logging module"`
	Message    string         `json:"message" example:"Streaming" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured attributes"`
}

type LogsRequest struct {
	Lines int `query:"lines" minimum:"1" maximum:"500" default:"100" doc:"Number of most recent entries"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Recent log entries, oldest first"`
	Count   int            `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
