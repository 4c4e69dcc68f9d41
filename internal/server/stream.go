package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oszuidwest/zwfm-camwatch/internal/display"
)

const (
	// StatusInterval is how often status is pushed to each viewer.
	StatusInterval = 1000 * time.Millisecond
	// writeTimeout bounds a single WebSocket write.
	writeTimeout = 5 * time.Second
)

// WSCommand is a message sent by the viewer page.
type WSCommand struct {
	Type string `json:"type"`
}

// message is queued for the writer goroutine. Exactly one field is set.
type message struct {
	frame  []byte
	status any
}

// FrameStreamer serves rendered frames and status to viewer clients.
type FrameStreamer struct {
	viewer *display.Viewer
	status func() any
}

// NewFrameStreamer creates a streamer for viewer. status builds the JSON status message.
func NewFrameStreamer(viewer *display.Viewer, status func() any) *FrameStreamer {
	return &FrameStreamer{viewer: viewer, status: status}
}

// ServeHTTP upgrades the request and streams until the client disconnects.
func (s *FrameStreamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := UpgradeConnection(w, r)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	// Create buffered send channel for thread-safe writes.
	// Only the writer goroutine writes to the connection, preventing race conditions.
	send := make(chan message, 4)
	done := make(chan struct{})
	statusUpdate := make(chan struct{}, 1)

	// Writer goroutine - sole writer to the connection
	go s.runWriter(conn, send)

	// Reader goroutine - handles incoming commands
	go s.runReader(conn, done, statusUpdate)

	s.runEventLoop(send, done, statusUpdate)
}

// runWriter writes messages from the send channel to the connection.
func (s *FrameStreamer) runWriter(conn WebSocketConn, send <-chan message) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Debug("WebSocket close error", "error", err)
		}
	}()
	for msg := range send {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return
		}
		var err error
		if msg.frame != nil {
			err = conn.WriteMessage(websocket.BinaryMessage, msg.frame)
		} else {
			err = conn.WriteJSON(msg.status)
		}
		if err != nil {
			return
		}
	}
}

// runReader reads commands from the connection until it closes.
func (s *FrameStreamer) runReader(conn WebSocketConn, done, statusUpdate chan<- struct{}) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in WebSocket reader", "panic", r)
		}
		close(done)
	}()

	for {
		var cmd WSCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if cmd.Type == "status" {
			select {
			case statusUpdate <- struct{}{}:
			default:
			}
		}
	}
}

// runEventLoop forwards new frames and periodic status until the client goes away.
func (s *FrameStreamer) runEventLoop(send chan message, done, statusUpdate <-chan struct{}) {
	defer close(send)

	_, frames, cancel := s.viewer.Subscribe()
	defer cancel()

	statusTicker := time.NewTicker(StatusInterval)
	defer statusTicker.Stop()

	// trySend attempts to send a message, returning false if done is closed
	trySend := func(msg message) bool {
		select {
		case send <- msg:
			return true
		case <-done:
			return false
		}
	}

	var lastSeq uint64
	sendLatest := func() bool {
		f := s.viewer.Latest()
		if f == nil || f.Seq == lastSeq {
			return true
		}
		lastSeq = f.Seq
		return trySend(message{frame: f.JPEG})
	}

	// Send initial status and the current frame
	if !trySend(message{status: s.status()}) || !sendLatest() {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-frames:
			if !sendLatest() {
				return
			}
		case <-statusUpdate:
			if !trySend(message{status: s.status()}) {
				return
			}
		case <-statusTicker.C:
			if !trySend(message{status: s.status()}) {
				return
			}
		}
	}
}
