//go:build windows

package audio

import (
	"cmp"
	"regexp"
	"strings"
)

func getPlatformConfig() CaptureConfig {
	return CaptureConfig{
		Command:       "ffmpeg",
		DefaultDevice: "", // Auto-detect, no safe default on Windows
		UsesFFmpeg:    true,
		BuildArgs:     buildWindowsArgs,
	}
}

func buildWindowsArgs(device string) []string {
	return buildFFmpegCaptureArgs("dshow", device)
}

// Match lines like: [dshow @ addr] "Device Name" (audio)
var windowsDevicePattern = regexp.MustCompile(`\[dshow[^\]]*\]\s*"([^"]+)"\s*\(audio\)`)

// Devices lists DirectShow audio inputs.
func (cfg *CaptureConfig) Devices(ffmpegPath string) []Device {
	return parseDeviceList(DeviceListConfig{
		Command: []string{cmp.Or(ffmpegPath, "ffmpeg"), "-hide_banner", "-f", "dshow", "-list_devices", "true", "-i", "dummy"},
		// No section markers - FFmpeg versions vary in output format.
		// Instead, we filter by lines ending with "(audio)".
		DevicePattern: windowsDevicePattern,
		ParseDevice: func(matches []string) *Device {
			if len(matches) < 2 {
				return nil
			}
			name := strings.TrimSpace(matches[1])
			return &Device{
				ID:   "audio=" + name,
				Name: name,
			}
		},
	})
}
