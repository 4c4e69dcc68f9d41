//go:build windows

package camera

import (
	"cmp"
	"log/slog"
	"os/exec"
	"regexp"
	"strings"
)

// Match lines like: [dshow @ addr] "Device Name" (video)
var windowsDevicePattern = regexp.MustCompile(`\[dshow[^\]]*\]\s*"([^"]+)"\s*\(video\)`)

func getPlatformConfig() CaptureConfig {
	return CaptureConfig{
		InputFormat:   "dshow",
		DefaultDevice: "", // Auto-detect, no safe default on Windows
		Devices:       listWindowsDevices,
		BuildArgs:     buildWindowsArgs,
	}
}

// Note: -nostdin is NOT used on Windows to allow graceful shutdown via 'q' command.
func buildWindowsArgs(device string, frameRate int) []string {
	args := []string{"-hide_banner", "-loglevel", "warning"}
	args = append(args, inputArgs("dshow", device, frameRate)...)
	return append(args, rawVideoOutputArgs()...)
}

func listWindowsDevices(ffmpegPath string) []Device {
	cmd := exec.Command(cmp.Or(ffmpegPath, "ffmpeg"), "-hide_banner", "-f", "dshow", "-list_devices", "true", "-i", "dummy")
	output, err := cmd.CombinedOutput()
	if err != nil && len(output) == 0 {
		slog.Error("failed to list cameras", "error", err)
		return nil
	}

	var devices []Device
	for line := range strings.SplitSeq(string(output), "\n") {
		if m := windowsDevicePattern.FindStringSubmatch(line); m != nil {
			name := strings.TrimSpace(m[1])
			devices = append(devices, Device{ID: "video=" + name, Name: name})
		}
	}
	return devices
}
