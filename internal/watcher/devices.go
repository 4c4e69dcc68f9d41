package watcher

import (
	"context"
	"errors"

	"github.com/gordonklaus/portaudio"

	"github.com/oszuidwest/zwfm-camwatch/internal/audio"
	"github.com/oszuidwest/zwfm-camwatch/internal/beep"
	"github.com/oszuidwest/zwfm-camwatch/internal/camera"
	"github.com/oszuidwest/zwfm-camwatch/internal/config"
	"github.com/oszuidwest/zwfm-camwatch/internal/types"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// OpenDevices opens the production camera and prepares the audio backends
// selected in cfg. On error everything opened so far is released.
//
//nolint:gocritic // hugeParam: snapshot is copied once at startup
func OpenDevices(ctx context.Context, cfg config.Snapshot) (Devices, error) {
	var devs Devices

	if usesPortAudio(cfg) {
		if err := portaudio.Initialize(); err != nil {
			return devs, util.WrapError("initialize portaudio", err)
		}
		devs.Release = portaudio.Terminate
	}

	fail := func(err error) (Devices, error) {
		return Devices{}, errors.Join(err, devs.Close())
	}

	source, err := audio.NewSource(cfg.AudioBackend, cfg.AudioDevice, util.ResolveBinary(cfg.FFmpegPath, "ffmpeg"), cfg.ChunkFrames)
	if err != nil {
		return fail(err)
	}
	devs.Audio = source

	sink, err := beep.NewSink(cfg.BeepSink)
	if err != nil {
		return fail(err)
	}
	devs.Sink = sink

	cam, err := camera.Open(ctx, camera.Options{
		Device:      cfg.CameraDevice,
		FrameRate:   cfg.CameraFrameRate,
		FFmpegPath:  util.ResolveBinary(cfg.FFmpegPath, "ffmpeg"),
		FFprobePath: util.ResolveBinary(cfg.FFprobePath, "ffprobe"),
	})
	if err != nil {
		return fail(util.WrapError("open camera", err))
	}
	devs.Camera = cam

	return devs, nil
}

//nolint:gocritic // hugeParam: snapshot is copied once at startup
func usesPortAudio(cfg config.Snapshot) bool {
	return cfg.AudioBackend == audio.BackendPortAudio || cfg.BeepSink == beep.SinkPortAudio
}

// OptionsFromConfig maps configuration onto watcher options.
//
//nolint:gocritic // hugeParam: snapshot is copied once at startup
func OptionsFromConfig(cfg config.Snapshot, version types.VersionInfo) (Options, error) {
	borderColor, err := util.ParseHexColor(cfg.BorderColor)
	if err != nil {
		return Options{}, util.WrapError("parse border color", err)
	}
	timestampColor, err := util.ParseHexColor(cfg.TimestampColor)
	if err != nil {
		return Options{}, util.WrapError("parse timestamp color", err)
	}

	return Options{
		AudioBackend: cfg.AudioBackend,
		BeepSink:     cfg.BeepSink,
		ChunkFrames:  cfg.ChunkFrames,
		Threshold:    cfg.Threshold,
		PeakHold:     cfg.PeakHold,
		Tone: beep.Tone{
			FrequencyHz: cfg.BeepFrequencyHz,
			Duration:    cfg.BeepDuration,
			SampleRate:  audio.SampleRate,
			Amplitude:   cfg.BeepAmplitude,
		},
		RenderPeriod:   cfg.RenderPeriod,
		BorderWidth:    cfg.BorderWidth,
		BorderColor:    borderColor,
		TimestampColor: timestampColor,
		JPEGQuality:    cfg.JPEGQuality,
		Version:        version,
	}, nil
}
