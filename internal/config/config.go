// Package config provides application configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// Configuration defaults are used when values are not specified.
const (
	DefaultAudioBackend    = "portaudio"
	DefaultChunkFrames     = 1024
	DefaultThreshold       = 0.01
	DefaultPeakHoldMs      = 3000
	DefaultBeepSink        = "portaudio"
	DefaultBeepFrequencyHz = 440
	DefaultBeepDurationMs  = 200
	DefaultBeepAmplitude   = 0.5
	DefaultCameraFrameRate = 30
	DefaultRenderPeriodMs  = 15
	DefaultBorderWidth     = 10
	DefaultBorderColor     = "#FF0000"
	DefaultTimestampColor  = "#FFFFFF"
	DefaultJPEGQuality     = 80
	DefaultViewerAddr      = "127.0.0.1:8080"
	DefaultLogFormat       = "text"
	DefaultLogLevel        = "info"
	DefaultLogMaxSizeMB    = 10
	DefaultLogMaxBackups   = 3
)

// SystemConfig holds paths to external tools.
type SystemConfig struct {
	FFmpegPath  string `json:"ffmpeg_path"`  // Path to FFmpeg binary (empty = use PATH)
	FFprobePath string `json:"ffprobe_path"` // Path to FFprobe binary (empty = use PATH)
}

// CameraConfig holds video input settings.
type CameraConfig struct {
	Device    string `json:"device"`                                // Camera device (empty = platform default)
	FrameRate int    `json:"frame_rate" validate:"gte=1,lte=120"` // Requested capture frame rate
}

// AudioConfig holds microphone and loudness detection settings.
type AudioConfig struct {
	Backend     string  `json:"backend" validate:"oneof=portaudio command"` // Input backend
	Device      string  `json:"device"`                                     // Input device for the command backend
	ChunkFrames int     `json:"chunk_frames" validate:"gte=64,lte=16384"`   // Samples per chunk
	Threshold   float64 `json:"threshold" validate:"gt=0,lte=1"`            // Energy above which a chunk is loud
	PeakHoldMs  int     `json:"peak_hold_ms" validate:"gte=100,lte=60000"`  // Peak hold shown on the status panel
}

// BeepConfig holds alert tone settings.
type BeepConfig struct {
	Sink        string  `json:"sink" validate:"oneof=portaudio speaker none"` // Output backend
	FrequencyHz int     `json:"frequency_hz" validate:"gte=20,lte=20000"`     // Tone frequency
	DurationMs  int     `json:"duration_ms" validate:"gte=10,lte=5000"`       // Tone length
	Amplitude   float64 `json:"amplitude" validate:"gt=0,lte=1"`              // Peak amplitude
}

// RenderConfig holds frame overlay and cadence settings.
type RenderConfig struct {
	PeriodMs       int    `json:"period_ms" validate:"gte=1,lte=1000"`
	BorderWidth    int    `json:"border_width" validate:"gte=1,lte=100"`
	BorderColor    string `json:"border_color" validate:"hexcolor,len=7"`
	TimestampColor string `json:"timestamp_color" validate:"hexcolor,len=7"`
	JPEGQuality    int    `json:"jpeg_quality" validate:"gte=1,lte=100"`
}

// ViewerConfig holds the local display server settings.
type ViewerConfig struct {
	Addr string `json:"addr" validate:"hostname_port"` // Listen address
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format     string `json:"format" validate:"oneof=text json"`
	Level      string `json:"level" validate:"oneof=debug info warn error"`
	File       string `json:"file"` // Optional rotated log file
	MaxSizeMB  int    `json:"max_size_mb" validate:"gte=1,lte=1024"`
	// MaxBackups is the number of rotated files kept. Zero selects the
	// default: the rotator treats zero as unlimited, so it cannot mean none.
	MaxBackups int    `json:"max_backups" validate:"gte=1,lte=100"`
}

// Config holds all application configuration. It is safe for concurrent use.
type Config struct {
	System SystemConfig `json:"system"`
	Camera CameraConfig `json:"camera"`
	Audio  AudioConfig  `json:"audio"`
	Beep   BeepConfig   `json:"beep"`
	Render RenderConfig `json:"render"`
	Viewer ViewerConfig `json:"viewer"`
	Log    LogConfig    `json:"log"`

	mu       sync.RWMutex
	filePath string
}

// New creates a new Config with default values.
// An empty filePath means the defaults are used as-is by Load.
func New(filePath string) *Config {
	c := &Config{filePath: filePath}
	c.applyDefaults()
	return c
}

// Load reads config from file. A missing file leaves the defaults in place.
func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.filePath != "" {
		data, err := os.ReadFile(c.filePath)
		switch {
		case os.IsNotExist(err):
			// Defaults only; the file is never created.
		case err != nil:
			return fmt.Errorf("failed to read config: %w", err)
		default:
			if err := json.Unmarshal(data, c); err != nil {
				return util.WrapError("parse config", err)
			}
		}
	}

	c.applyDefaults()

	return c.validate()
}

// FilePath returns the path the config was loaded from.
func (c *Config) FilePath() string {
	return c.filePath
}

// validate checks all configuration fields for correctness.
func (c *Config) validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.Log.File != "" {
		if err := util.ValidatePath("log.file", c.Log.File); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults sets default values for zero-value fields.
func (c *Config) applyDefaults() {
	if c.Camera.FrameRate == 0 {
		c.Camera.FrameRate = DefaultCameraFrameRate
	}

	if c.Audio.Backend == "" {
		c.Audio.Backend = DefaultAudioBackend
	}
	if c.Audio.ChunkFrames == 0 {
		c.Audio.ChunkFrames = DefaultChunkFrames
	}
	if c.Audio.Threshold == 0 {
		c.Audio.Threshold = DefaultThreshold
	}
	if c.Audio.PeakHoldMs == 0 {
		c.Audio.PeakHoldMs = DefaultPeakHoldMs
	}

	if c.Beep.Sink == "" {
		c.Beep.Sink = DefaultBeepSink
	}
	if c.Beep.FrequencyHz == 0 {
		c.Beep.FrequencyHz = DefaultBeepFrequencyHz
	}
	if c.Beep.DurationMs == 0 {
		c.Beep.DurationMs = DefaultBeepDurationMs
	}
	if c.Beep.Amplitude == 0 {
		c.Beep.Amplitude = DefaultBeepAmplitude
	}

	if c.Render.PeriodMs == 0 {
		c.Render.PeriodMs = DefaultRenderPeriodMs
	}
	if c.Render.BorderWidth == 0 {
		c.Render.BorderWidth = DefaultBorderWidth
	}
	if c.Render.BorderColor == "" {
		c.Render.BorderColor = DefaultBorderColor
	}
	if c.Render.TimestampColor == "" {
		c.Render.TimestampColor = DefaultTimestampColor
	}
	if c.Render.JPEGQuality == 0 {
		c.Render.JPEGQuality = DefaultJPEGQuality
	}

	if c.Viewer.Addr == "" {
		c.Viewer.Addr = DefaultViewerAddr
	}

	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = DefaultLogMaxBackups
	}
}

// Snapshot is a point-in-time copy of the configuration.
type Snapshot struct {
	// System
	FFmpegPath  string
	FFprobePath string

	// Camera
	CameraDevice    string
	CameraFrameRate int

	// Audio
	AudioBackend string
	AudioDevice  string
	ChunkFrames  int
	Threshold    float64
	PeakHold     time.Duration

	// Beep
	BeepSink        string
	BeepFrequencyHz int
	BeepDuration    time.Duration
	BeepAmplitude   float64

	// Render
	RenderPeriod   time.Duration
	BorderWidth    int
	BorderColor    string
	TimestampColor string
	JPEGQuality    int

	// Viewer
	ViewerAddr string

	// Log
	LogFormat     string
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

// Snapshot returns a copy of the current configuration.
func (c *Config) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		FFmpegPath:      c.System.FFmpegPath,
		FFprobePath:     c.System.FFprobePath,
		CameraDevice:    c.Camera.Device,
		CameraFrameRate: c.Camera.FrameRate,
		AudioBackend:    c.Audio.Backend,
		AudioDevice:     c.Audio.Device,
		ChunkFrames:     c.Audio.ChunkFrames,
		Threshold:       c.Audio.Threshold,
		PeakHold:        time.Duration(c.Audio.PeakHoldMs) * time.Millisecond,
		BeepSink:        c.Beep.Sink,
		BeepFrequencyHz: c.Beep.FrequencyHz,
		BeepDuration:    time.Duration(c.Beep.DurationMs) * time.Millisecond,
		BeepAmplitude:   c.Beep.Amplitude,
		RenderPeriod:    time.Duration(c.Render.PeriodMs) * time.Millisecond,
		BorderWidth:     c.Render.BorderWidth,
		BorderColor:     c.Render.BorderColor,
		TimestampColor:  c.Render.TimestampColor,
		JPEGQuality:     c.Render.JPEGQuality,
		ViewerAddr:      c.Viewer.Addr,
		LogFormat:       c.Log.Format,
		LogLevel:        c.Log.Level,
		LogFile:         c.Log.File,
		LogMaxSizeMB:    c.Log.MaxSizeMB,
		LogMaxBackups:   c.Log.MaxBackups,
	}
}
