package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualitySchedulerStepsDownByTen(t *testing.T) {
	s := newQualityScheduler(ByPercent(50), false, 0, 0)

	assert.Equal(t, 95, s.Initial().Quality)

	want := []int{85, 75, 65, 55, 45, 35, 25, 15, 5, 5}
	for i, q := range want {
		p := s.Advance(i, 900_000, 500_000, 1_000_000)
		assert.Equal(t, q, p.Quality, "iteration %d", i)
		assert.Zero(t, p.Width)
		assert.Zero(t, p.Height)
	}
}

func TestQualitySchedulerAbsoluteTargetStepsByEight(t *testing.T) {
	s := newQualityScheduler(ToBytes(100_000), false, 0, 0)

	assert.Equal(t, 95, s.Initial().Quality)
	assert.Equal(t, 87, s.Advance(0, 900_000, 100_000, 1_000_000).Quality)
	assert.Equal(t, 79, s.Advance(1, 900_000, 100_000, 1_000_000).Quality)
}

func TestQualitySchedulerNeverDropsBelowFloor(t *testing.T) {
	s := newQualityScheduler(ByPercent(90), false, 0, 0)
	var q int
	for i := 0; i < 20; i++ {
		q = s.Advance(i, 900_000, 100_000, 1_000_000).Quality
	}
	assert.Equal(t, qualityFloor, q)
}

func TestQualitySchedulerPNGDownscalesAtFloor(t *testing.T) {
	s := newQualityScheduler(ByPercent(80), true, 1000, 800)

	assert.Equal(t, 95, s.Initial().Quality)

	// Quality walks down to the PNG floor first.
	for i, want := range []int{85, 75, 65, 55} {
		p := s.Advance(i, 800_000, 200_000, 1_000_000)
		assert.Equal(t, want, p.Quality)
	}

	// Next step would cross 50, so dimensions shrink by sqrt(target/current)
	// and quality resets.
	p := s.Advance(4, 800_000, 200_000, 1_000_000)
	assert.Equal(t, 95, p.Quality)
	assert.Equal(t, 500, p.Width)
	assert.Equal(t, 400, p.Height)

	// Quality stepping resumes from the top at the new dimensions.
	p = s.Advance(5, 600_000, 200_000, 1_000_000)
	assert.Equal(t, 85, p.Quality)
	assert.Equal(t, 500, p.Width)
	assert.Equal(t, 400, p.Height)
}

func TestQualitySchedulerPNGAbsoluteFloorIsThirty(t *testing.T) {
	s := newQualityScheduler(ToBytes(100_000), true, 1000, 1000)

	q := s.Initial().Quality
	for i := 0; q > 31; i++ {
		p := s.Advance(i, 900_000, 100_000, 1_000_000)
		q = p.Quality
		assert.Zero(t, p.Width, "no downscale above the floor")
	}

	// 31 - 8 < 30 triggers the downscale.
	p := s.Advance(9, 900_000, 100_000, 1_000_000)
	assert.Equal(t, 95, p.Quality)
	assert.NotZero(t, p.Width)
}

func TestQualitySchedulerDownscaleNeverReachesZero(t *testing.T) {
	s := newQualityScheduler(ByPercent(99), true, 2, 2)
	for i := 0; i < 40; i++ {
		p := s.Advance(i, 1_000_000, 100, 1_000_000)
		if p.Width > 0 {
			assert.GreaterOrEqual(t, p.Width, 1)
			assert.GreaterOrEqual(t, p.Height, 1)
		}
	}
}

func TestBitrateSchedulerDerivesTargetFromSizeRatio(t *testing.T) {
	// 1 Mbps source, halving the file: first attempt at 500 kbps.
	s := newBitrateScheduler(ByPercent(50), 1_000_000, 500_000, 1_000_000, "medium")

	p := s.Initial()
	assert.Equal(t, 500, p.BitrateKbps)
	assert.Equal(t, "medium", p.Preset)

	// Each miss decays the working bitrate by 0.8 for percent targets.
	assert.Equal(t, 400, s.Advance(0, 600_000, 500_000, 1_000_000).BitrateKbps)
	assert.Equal(t, 320, s.Advance(1, 560_000, 500_000, 1_000_000).BitrateKbps)
}

func TestBitrateSchedulerAbsoluteTargetDecaysFaster(t *testing.T) {
	s := newBitrateScheduler(ToBytes(500_000), 1_000_000, 500_000, 1_000_000, "fast")

	assert.Equal(t, 500, s.Initial().BitrateKbps)
	assert.Equal(t, 375, s.Advance(0, 600_000, 500_000, 1_000_000).BitrateKbps)
}

func TestBitrateSchedulerClampsAtOneKbps(t *testing.T) {
	s := newBitrateScheduler(ByPercent(99), 2_000, 10_000, 1_000_000, "")
	p := s.Initial()
	for i := 0; i < 50; i++ {
		p = s.Advance(i, 1_000_000, 10_000, 1_000_000)
	}
	assert.Equal(t, 1, p.BitrateKbps)
}
