package camera

import "sync"

// latestSlot holds the most recent frame. The writer fills a spare buffer
// and swaps it in, so readers never see a partially written frame.
// It is safe for concurrent use.
type latestSlot struct {
	mu     sync.Mutex
	latest *Frame
	spare  *Frame
	fresh  bool
	seq    uint64
}

func newLatestSlot(width, height int) *latestSlot {
	return &latestSlot{
		latest: NewFrame(width, height),
		spare:  NewFrame(width, height),
	}
}

// writable returns the buffer the writer may fill. Only the writer goroutine may call it.
func (s *latestSlot) writable() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spare
}

// publish swaps the filled spare buffer in as the latest frame.
func (s *latestSlot) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest, s.spare = s.spare, s.latest
	s.fresh = true
	s.seq++
}

// invalidate marks the slot empty until the next publish.
func (s *latestSlot) invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fresh = false
}

// copyTo copies the latest frame into dst and reports its sequence number.
func (s *latestSlot) copyTo(dst *Frame) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return 0, false
	}
	dst.CopyFrom(s.latest)
	return s.seq, true
}
