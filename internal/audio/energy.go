// Package audio samples the microphone in fixed-size chunks and scores their loudness.
package audio

import (
	"math"
	"time"
)

const (
	// SampleRate is the capture rate in Hz.
	SampleRate = 44100
	// Channels is the number of captured channels.
	Channels = 1
	// DefaultChunkFrames is the number of samples per chunk.
	DefaultChunkFrames = 1024
	// DefaultThreshold is the energy above which a chunk counts as loud.
	DefaultThreshold = 0.01
	// MinDB is the minimum dB level reported for display.
	MinDB = -60.0
)

// Chunk is one block of mono samples in [-1, 1].
type Chunk struct {
	Samples []float32
	// Status is a device condition reported alongside the chunk, such as an input overflow.
	Status string
	Time   time.Time
}

// Energy returns the L2 norm of samples divided by the number of samples.
// An empty chunk has zero energy.
func Energy(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSquares float64
	for _, s := range samples {
		v := float64(s)
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares) / float64(len(samples))
}

// IsLoud reports whether energy strictly exceeds threshold.
func IsLoud(energy, threshold float64) bool {
	return energy > threshold
}

// ToDB converts a linear value to dB, clamped at MinDB.
func ToDB(v float64) float64 {
	if v <= 0 {
		return MinDB
	}
	return max(20*math.Log10(v), MinDB)
}
