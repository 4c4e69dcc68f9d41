// Package main provides a webcam monitor that shows a live annotated camera
// feed in the browser and raises a visual and audible alert when ambient
// sound exceeds a threshold.
//
// Usage:
//
//	camwatch [-config path/to/config.json]
//
// Without -config the built-in defaults are used. A missing config file is
// not an error and is never created.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"

	"golang.org/x/sync/errgroup"

	"github.com/oszuidwest/zwfm-camwatch/internal/audio"
	"github.com/oszuidwest/zwfm-camwatch/internal/config"
	"github.com/oszuidwest/zwfm-camwatch/internal/logging"
	"github.com/oszuidwest/zwfm-camwatch/internal/metrics"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
	"github.com/oszuidwest/zwfm-camwatch/internal/watcher"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: built-in settings)")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		v := versionInfo()
		slog.Info("version info", "version", v.Version, "commit", v.Commit, "build_time", v.BuildTime)
		return
	}

	os.Exit(run(*configPath))
}

// run starts the monitor and blocks until shutdown. It returns the process exit code.
func run(configPath string) int {
	cfg := config.New(configPath)
	if err := cfg.Load(); err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}
	snap := cfg.Snapshot()

	logFile := logging.Init(logging.Options{
		Format:     snap.LogFormat,
		Level:      snap.LogLevel,
		File:       snap.LogFile,
		MaxSizeMB:  snap.LogMaxSizeMB,
		MaxBackups: snap.LogMaxBackups,
	})
	defer util.SafeCloseFunc(logFile, "log file")()

	if path := cfg.FilePath(); path != "" {
		slog.Info("using config file", "path", path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), util.ShutdownSignals()...)
	defer stop()

	version := versionInfo()
	m := metrics.New()

	opts, err := watcher.OptionsFromConfig(snap, version)
	if err != nil {
		slog.Error("invalid monitor options", "error", err)
		return 1
	}
	opts.Metrics = m

	devs, err := watcher.OpenDevices(ctx, snap)
	if err != nil {
		slog.Error("failed to open devices", "error", err)
		return 1
	}

	w, err := watcher.New(devs, opts)
	if err != nil {
		slog.Error("failed to create monitor", "error", err)
		if cerr := devs.Close(); cerr != nil {
			slog.Error("failed to release devices", "error", cerr)
		}
		return 1
	}

	if err := w.Start(ctx); err != nil {
		slog.Error("failed to start monitor", "error", err)
		logShutdownError(w.Close())
		return 1
	}

	ln, err := net.Listen("tcp", snap.ViewerAddr)
	if err != nil {
		slog.Error("failed to listen for viewer", "addr", snap.ViewerAddr, "error", err)
		logShutdownError(w.Close())
		return 1
	}

	ffmpegPath := util.ResolveBinary(snap.FFmpegPath, "ffmpeg")
	srv := NewServer(w, m, func() []audio.Device {
		return audio.Devices(snap.AudioBackend, ffmpegPath)
	}, version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return srv.Serve(gctx, ln) })

	runErr := g.Wait()
	failed := runErr != nil && !errors.Is(runErr, context.Canceled)
	if failed {
		slog.Error("monitor stopped", "error", runErr)
	}

	slog.Info("shutting down")
	closeErr := w.Close()
	logShutdownError(closeErr)

	if failed || closeErr != nil {
		return 1
	}
	slog.Info("shutdown complete")
	return 0
}

func logShutdownError(err error) {
	if err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
