// Package display publishes rendered frames to local browser viewers.
package display

import (
	"bytes"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultJPEGQuality is the encoding quality for published frames.
const DefaultJPEGQuality = 80

// Frame is one encoded image. It is immutable once published.
type Frame struct {
	JPEG   []byte
	Seq    uint64
	Width  int
	Height int
	Time   time.Time
}

// Viewer is a display surface that keeps the latest encoded frame and
// notifies subscribers when it changes. It is safe for concurrent use.
type Viewer struct {
	quality int

	latest atomic.Pointer[Frame]
	seq    atomic.Uint64
	buf    bytes.Buffer // Show is only called from the render goroutine

	mu          sync.Mutex
	subscribers map[string]chan struct{}
	onClients   func(int)
}

// NewViewer creates a viewer encoding at quality (1-100).
func NewViewer(quality int) *Viewer {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	return &Viewer{
		quality:     quality,
		subscribers: make(map[string]chan struct{}),
	}
}

// OnClientsChanged registers fn to be called with the subscriber count whenever it changes.
func (v *Viewer) OnClientsChanged(fn func(int)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onClients = fn
}

// Show encodes img and swaps it in as the latest frame. The previous frame
// stays valid for readers that already hold it. img is not retained.
func (v *Viewer) Show(img *image.RGBA) {
	v.buf.Reset()
	if err := jpeg.Encode(&v.buf, img, &jpeg.Options{Quality: v.quality}); err != nil {
		slog.Warn("failed to encode frame", "error", err)
		return
	}

	b := img.Bounds()
	frame := &Frame{
		JPEG:   bytes.Clone(v.buf.Bytes()),
		Seq:    v.seq.Add(1),
		Width:  b.Dx(),
		Height: b.Dy(),
		Time:   time.Now(),
	}
	v.latest.Store(frame)
	v.notify()
}

// Latest returns the most recent frame, or nil before the first Show.
func (v *Viewer) Latest() *Frame {
	return v.latest.Load()
}

// notify wakes every subscriber without blocking. A subscriber that has
// not consumed the previous signal simply sees one wakeup for both frames.
func (v *Viewer) notify() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, ch := range v.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe registers a client. The returned channel receives a signal after
// each new frame; cancel unregisters the client and is idempotent.
func (v *Viewer) Subscribe() (id string, frames <-chan struct{}, cancel func()) {
	id = uuid.NewString()
	ch := make(chan struct{}, 1)

	v.mu.Lock()
	v.subscribers[id] = ch
	n, fn := len(v.subscribers), v.onClients
	v.mu.Unlock()

	if fn != nil {
		fn(n)
	}
	slog.Info("viewer connected", "client_id", id, "clients", n)

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subscribers, id)
			n, fn := len(v.subscribers), v.onClients
			v.mu.Unlock()

			if fn != nil {
				fn(n)
			}
			slog.Info("viewer disconnected", "client_id", id, "clients", n)
		})
	}
	return id, ch, cancel
}

// Clients returns the number of subscribed clients.
func (v *Viewer) Clients() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subscribers)
}
