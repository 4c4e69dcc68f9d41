//go:build linux

package camera

func getPlatformConfig() CaptureConfig {
	return CaptureConfig{
		InputFormat:   "v4l2",
		DefaultDevice: "/dev/video0",
		BuildArgs:     buildLinuxArgs,
	}
}

func buildLinuxArgs(device string, frameRate int) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "warning"}
	args = append(args, inputArgs("v4l2", device, frameRate)...)
	return append(args, rawVideoOutputArgs()...)
}
