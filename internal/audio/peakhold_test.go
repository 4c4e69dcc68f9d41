package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeakHolderHoldsThenDecays(t *testing.T) {
	p := NewPeakHolder()
	p.SetHoldDuration(time.Second)
	start := time.Unix(1000, 0)

	assert.Equal(t, 0.1, p.Update(0.1, true, start))
	assert.Equal(t, 0.1, p.Update(0.01, false, start.Add(500*time.Millisecond)), "peak held within hold duration")
	assert.Equal(t, 0.02, p.Update(0.02, true, start.Add(1500*time.Millisecond)), "peak replaced after hold duration")

	levels := p.Levels()
	assert.Equal(t, 0.02, levels.Energy)
	assert.True(t, levels.Loud)
	assert.Equal(t, uint64(3), levels.Chunks)
	assert.InDelta(t, ToDB(0.02), levels.PeakDB, 1e-9)
}

func TestPeakHolderReset(t *testing.T) {
	p := NewPeakHolder()
	p.Update(0.5, true, time.Now())
	p.Reset()

	levels := p.Levels()
	assert.Equal(t, MinDB, levels.EnergyDB)
	assert.Equal(t, MinDB, levels.PeakDB)
	assert.Zero(t, levels.Chunks)
}
