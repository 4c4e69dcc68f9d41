package main

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oszuidwest/zwfm-camwatch/internal/audio"
	"github.com/oszuidwest/zwfm-camwatch/internal/display"
	"github.com/oszuidwest/zwfm-camwatch/internal/metrics"
	"github.com/oszuidwest/zwfm-camwatch/internal/types"
)

type fakeMonitor struct {
	viewer *display.Viewer
	status types.Status
}

func (f *fakeMonitor) Status() types.Status { return f.status }
func (f *fakeMonitor) Viewer() *display.Viewer { return f.viewer }

func newTestServer(t *testing.T) (*Server, *fakeMonitor) {
	t.Helper()
	mon := &fakeMonitor{
		viewer: display.NewViewer(display.DefaultJPEGQuality),
		status: types.Status{
			State: types.StateRunning,
			Alert: types.AlertStatus{Level: "loud", Changes: 3},
			Audio: types.AudioStatus{Backend: "portaudio", Threshold: 0.01},
		},
	}
	devices := func() []audio.Device {
		return []audio.Device{{ID: "0", Name: "Built-in Microphone", Default: true}}
	}
	return NewServer(mon, metrics.New(), devices, types.VersionInfo{Version: "1.2.3"}), mon
}

func TestStaticRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.SetupRoutes()

	tests := []struct {
		path        string
		status      int
		contentType string
		contains    string
	}{
		{"/", http.StatusOK, "text/html", "v1.2.3"},
		{"/index.html", http.StatusOK, "text/html", "/app.js"},
		{"/app.js", http.StatusOK, "application/javascript", "WebSocket"},
		{"/style.css", http.StatusOK, "text/css", ".alert.loud"},
		{"/missing", http.StatusNotFound, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			if tt.contentType != "" {
				assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			}
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestAPIStatus(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.SetupRoutes()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got types.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, types.StateRunning, got.State)
	assert.Equal(t, "loud", got.Alert.Level)
	assert.Equal(t, uint64(3), got.Alert.Changes)
	assert.InDelta(t, 0.01, got.Audio.Threshold, 1e-12)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPIDevices(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.SetupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []audio.Device
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "Built-in Microphone", got[0].Name)
	assert.True(t, got[0].Default)
}

func TestAPIDevicesEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.devices = func() []audio.Device { return nil }

	rec := httptest.NewRecorder()
	srv.SetupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/devices", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.SetupRoutes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "camwatch_viewers")
}

func TestWebSocketStreamsStatusAndFrames(t *testing.T) {
	srv, mon := newTestServer(t)
	ts := httptest.NewServer(srv.SetupRoutes())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, kind)

	var msg types.WSStatusResponse
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "status", msg.Type)
	assert.Equal(t, "loud", msg.Status.Alert.Level)

	mon.viewer.Show(image.NewRGBA(image.Rect(0, 0, 16, 16)))

	for {
		kind, data, err = conn.ReadMessage()
		require.NoError(t, err)
		if kind == websocket.BinaryMessage {
			break
		}
	}
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2], "JPEG start of image")
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/api/status")
		if err != nil {
			return false
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
