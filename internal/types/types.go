// Package types provides shared type definitions used across the monitor.
package types

import "time"

// MonitorState represents the lifecycle state of the monitor.
type MonitorState string

const (
	// StateStarting indicates devices are being opened.
	StateStarting MonitorState = "starting"
	// StateRunning indicates both loops are running.
	StateRunning MonitorState = "running"
	// StateStopping indicates shutdown is in progress.
	StateStopping MonitorState = "stopping"
	// StateStopped indicates all devices have been released.
	StateStopped MonitorState = "stopped"
)

// AlertStatus is the shared alert cell as seen by the status panel.
type AlertStatus struct {
	Level   string `json:"level"`   // "quiet" or "loud"
	Changes uint64 `json:"changes"` // Quiet/loud transitions since start
}

// AudioStatus describes the microphone side.
type AudioStatus struct {
	Backend         string  `json:"backend"`
	SampleRate      int     `json:"sample_rate"`
	ChunkFrames     int     `json:"chunk_frames"`
	Threshold       float64 `json:"threshold"`
	Energy          float64 `json:"energy"`
	EnergyDB        float64 `json:"energy_db"`
	PeakDB          float64 `json:"peak_db"`
	Chunks          uint64  `json:"chunks"`
	BeepSink        string  `json:"beep_sink"`
	BeepFrequencyHz int     `json:"beep_frequency_hz,omitzero"`
	BeepDurationMs  int64   `json:"beep_duration_ms,omitzero"`
	Beeps           uint64  `json:"beeps"`
	BeepErrors      uint64  `json:"beep_errors,omitzero"`
}

// CameraStatus describes the video side.
type CameraStatus struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Frames   uint64 `json:"frames"`            // Frames received from the camera
	Restarts uint64 `json:"restarts,omitzero"` // Capture process restarts
}

// RenderStatus describes the render loop.
type RenderStatus struct {
	PeriodMs int64  `json:"period_ms"`
	Rendered uint64 `json:"frames_rendered"`
	Skipped  uint64 `json:"frames_skipped"`
}

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// Status is a point-in-time snapshot of the whole monitor.
type Status struct {
	State    MonitorState `json:"state"`
	Uptime   string       `json:"uptime,omitempty"`
	Started  time.Time    `json:"started,omitzero"`
	Alert    AlertStatus  `json:"alert"`
	Audio    AudioStatus  `json:"audio"`
	Camera   CameraStatus `json:"camera"`
	Render   RenderStatus `json:"render"`
	Viewers  int          `json:"viewers"`
	Platform string       `json:"platform"`
	Version  VersionInfo  `json:"version"`
}

// WSStatusResponse is sent to viewer clients on connect and periodically.
type WSStatusResponse struct {
	Type string `json:"type"` // "status"
	Status
}
