//go:build darwin

package camera

func getPlatformConfig() CaptureConfig {
	return CaptureConfig{
		InputFormat:   "avfoundation",
		DefaultDevice: "0",
		BuildArgs:     buildDarwinArgs,
	}
}

func buildDarwinArgs(device string, frameRate int) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "warning"}
	args = append(args, inputArgs("avfoundation", device, frameRate)...)
	return append(args, rawVideoOutputArgs()...)
}
