package camera

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/ffmpeg"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// probeTimeout bounds how long ffprobe may take to open the camera.
const probeTimeout = 10 * time.Second

// ErrNoVideoStream is returned when ffprobe reports no usable video stream.
var ErrNoVideoStream = errors.New("no video stream")

type probeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
}

// Probe asks ffprobe for the frame size of device.
func Probe(ctx context.Context, ffprobePath, inputFormat, device string) (width, height int, err error) {
	if ffprobePath == "" {
		return 0, 0, ffmpeg.ErrNoBinary
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	args := []string{"-v", "error"}
	if inputFormat != "" {
		args = append(args, "-f", inputFormat)
	}
	args = append(args,
		"-i", device,
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
	)

	cmd := exec.CommandContext(ctx, ffprobePath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := util.ExtractLastError(stderr.String()); msg != "" {
			return 0, 0, errors.New(msg)
		}
		return 0, 0, err
	}

	return parseProbeOutput(out)
}

func parseProbeOutput(data []byte) (width, height int, err error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, 0, util.WrapError("parse ffprobe output", err)
	}
	for _, s := range probe.Streams {
		if s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, nil
		}
	}
	return 0, 0, ErrNoVideoStream
}
