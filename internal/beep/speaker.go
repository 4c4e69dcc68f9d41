package beep

import (
	"context"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/oszuidwest/zwfm-camwatch/internal/util"
)

// speakerBuffer is the speaker's output latency.
const speakerBuffer = 100 * time.Millisecond

// SpeakerSink plays through the faiface/beep speaker package.
// The speaker is process-global, so calls are serialized.
type SpeakerSink struct {
	mu sync.Mutex
}

// Play initializes the speaker, plays samples and closes the speaker.
func (s *SpeakerSink) Play(ctx context.Context, samples []float32, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(speakerBuffer)); err != nil {
		return util.WrapError("open speaker", err)
	}
	defer speaker.Close()

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamSamples(samples), beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}

	// The callback fires when the last samples enter the buffer; let them play out.
	timer := time.NewTimer(speakerBuffer)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	return nil
}
