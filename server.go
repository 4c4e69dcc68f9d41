package main

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/oszuidwest/zwfm-camwatch/internal/audio"
	"github.com/oszuidwest/zwfm-camwatch/internal/display"
	"github.com/oszuidwest/zwfm-camwatch/internal/metrics"
	"github.com/oszuidwest/zwfm-camwatch/internal/server"
	"github.com/oszuidwest/zwfm-camwatch/internal/types"
	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

var indexTmpl = template.Must(template.New("index").Parse(indexHTML))

type indexData struct {
	Version string
}

// Monitor is the part of the watcher the viewer server reads from.
type Monitor interface {
	Status() types.Status
	Viewer() *display.Viewer
}

// Server is an HTTP server that provides the browser viewer for the monitor.
type Server struct {
	monitor Monitor
	metrics *metrics.Metrics
	stream  *server.FrameStreamer
	devices func() []audio.Device
	version types.VersionInfo
}

// NewServer returns a new Server reading from mon. devices lists the audio
// inputs shown on the status panel.
func NewServer(mon Monitor, m *metrics.Metrics, devices func() []audio.Device, version types.VersionInfo) *Server {
	s := &Server{
		monitor: mon,
		metrics: m,
		devices: devices,
		version: version,
	}
	s.stream = server.NewFrameStreamer(mon.Viewer(), func() any { return s.buildWSStatus() })
	return s
}

// buildWSStatus returns the current WebSocket status response.
func (s *Server) buildWSStatus() types.WSStatusResponse {
	return types.WSStatusResponse{
		Type:   "status",
		Status: s.monitor.Status(),
	}
}

// SetupRoutes returns an [http.Handler] configured with all application routes.
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/ws", s.stream)
	mux.HandleFunc("/api/status", s.handleAPIStatus)
	mux.HandleFunc("/api/devices", s.handleAPIDevices)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	mux.HandleFunc("/", s.handleStatic)

	return securityHeaders(mux)
}

// securityHeaders returns middleware that wraps handlers with security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// staticFile is an embedded static file with content type and data.
type staticFile struct {
	contentType string
	content     string
	name        string
}

// staticFiles is a map from URL paths to static file definitions.
var staticFiles = map[string]staticFile{
	"/style.css": {
		contentType: "text/css",
		content:     styleCSS,
		name:        "style.css",
	},
	"/app.js": {
		contentType: "application/javascript",
		content:     appJS,
		name:        "app.js",
	},
}

// serveStaticFile serves a static file by path and reports whether it was found.
func serveStaticFile(w http.ResponseWriter, path string) bool {
	file, ok := staticFiles[path]
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", file.contentType)
	if _, err := w.Write([]byte(file.content)); err != nil {
		slog.Error("failed to write static file", "file", file.name, "error", err)
	}
	return true
}

// handleStatic handles requests for embedded static web interface files.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if path == "/" {
		path = "/index.html"
	}

	if path == "/index.html" {
		w.Header().Set("Content-Type", "text/html")
		if err := indexTmpl.Execute(w, indexData{Version: s.version.Version}); err != nil {
			slog.Error("failed to write index.html", "error", err)
		}
		return
	}

	if serveStaticFile(w, path) {
		return
	}

	http.NotFound(w, r)
}

// Serve serves the viewer on ln until ctx is cancelled, then shuts down
// gracefully. Open WebSocket streams end when their clients disconnect.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("starting viewer", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return util.WrapError("serve viewer", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return util.WrapError("shut down viewer", err)
	}
	return nil
}
