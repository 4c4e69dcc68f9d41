// Package alert provides the alert cell shared between the audio monitor
// and the frame renderer.
package alert

import "sync/atomic"

// Level is the loudness classification of the most recent audio chunk.
type Level uint32

const (
	// Quiet indicates the last chunk was at or below the threshold.
	Quiet Level = iota
	// Loud indicates the last chunk exceeded the threshold.
	Loud
)

// String returns the lower-case name of the level.
func (l Level) String() string {
	if l == Loud {
		return "loud"
	}
	return "quiet"
}

// State holds the current alert level. It is safe for concurrent use:
// one goroutine calls Set while another calls Get, and neither blocks.
// The zero value is ready to use and reports Quiet.
type State struct {
	level   atomic.Uint32
	changes atomic.Uint64
}

// New returns a State initialized to Quiet.
func New() *State {
	return &State{}
}

// Set overwrites the current level.
func (s *State) Set(l Level) {
	if Level(s.level.Swap(uint32(l))) != l {
		s.changes.Add(1)
	}
}

// Get returns the most recently set level.
func (s *State) Get() Level {
	return Level(s.level.Load())
}

// Changes returns how many times the level has flipped between Quiet and Loud.
func (s *State) Changes() uint64 {
	return s.changes.Load()
}
