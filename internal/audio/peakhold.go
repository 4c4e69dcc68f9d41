package audio

import (
	"sync"
	"time"
)

// DefaultPeakHoldDuration is the default duration that peak values are held before decaying.
const DefaultPeakHoldDuration = 3000 * time.Millisecond

// PeakHolder tracks the latest chunk energy and a held peak for the status panel.
// It is safe for concurrent use.
type PeakHolder struct {
	mu           sync.Mutex
	levels       Levels
	heldPeak     float64
	peakHoldTime time.Time
	holdDuration time.Duration
}

// NewPeakHolder creates a new peak holder initialized to minimum levels with default duration.
func NewPeakHolder() *PeakHolder {
	p := &PeakHolder{holdDuration: DefaultPeakHoldDuration}
	p.Reset()
	return p
}

// Update records a chunk's energy and returns the held peak energy.
func (p *PeakHolder) Update(energy float64, loud bool, now time.Time) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if energy >= p.heldPeak || now.Sub(p.peakHoldTime) > p.holdDuration {
		p.heldPeak = energy
		p.peakHoldTime = now
	}
	p.levels = Levels{
		Energy:   energy,
		EnergyDB: ToDB(energy),
		PeakDB:   ToDB(p.heldPeak),
		Loud:     loud,
		Chunks:   p.levels.Chunks + 1,
	}
	return p.heldPeak
}

// Levels returns the most recent measurement.
func (p *PeakHolder) Levels() Levels {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.levels
}

// SetHoldDuration updates the peak hold duration.
func (p *PeakHolder) SetHoldDuration(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.holdDuration = d
}

// Reset clears held peak values to minimum levels.
func (p *PeakHolder) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.heldPeak = 0
	p.peakHoldTime = time.Time{}
	p.levels = Levels{EnergyDB: MinDB, PeakDB: MinDB}
}
