package camera

import "strconv"

// CaptureConfig defines platform-specific camera capture configuration.
type CaptureConfig struct {
	// InputFormat is the FFmpeg input format (e.g., "v4l2", "avfoundation", "dshow").
	InputFormat string

	// DefaultDevice is used when no device is configured.
	DefaultDevice string

	// Devices lists cameras when there is no safe default. Optional.
	Devices func(ffmpegPath string) []Device

	// BuildArgs returns the FFmpeg arguments for BGR24 rawvideo capture.
	BuildArgs func(device string, frameRate int) []string
}

// Device represents an available camera.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// rawVideoOutputArgs are the FFmpeg output arguments shared by all platforms.
func rawVideoOutputArgs() []string {
	return []string{
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}
}

func inputArgs(inputFormat, device string, frameRate int) []string {
	return []string{
		"-f", inputFormat,
		"-framerate", strconv.Itoa(frameRate),
		"-i", device,
	}
}
