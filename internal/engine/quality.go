package engine

import "math"

const (
	initialQuality = 95
	qualityFloor   = 5

	percentQualityStep  = 10
	absoluteQualityStep = 8

	// PNG sources cannot shrink much below these quality levels through
	// lossy re-encoding alone; past them the scheduler switches to
	// dimension downscaling.
	percentDownscaleFloor  = 50
	absoluteDownscaleFloor = 30
)

// qualityScheduler steps JPEG quality down by a fixed amount per failed
// iteration. For PNG sources it additionally shrinks pixel dimensions by
// sqrt(target/current) once quality pressure is exhausted, resetting
// quality to the starting value afterwards.
type qualityScheduler struct {
	quality       int
	step          int
	downscaleAt   int // 0 disables the downscale fallback
	width, height int // current target dimensions
	downscaled    bool
}

func newQualityScheduler(target TargetSpec, png bool, width, height int) *qualityScheduler {
	s := &qualityScheduler{
		quality: initialQuality,
		step:    percentQualityStep,
		width:   width,
		height:  height,
	}
	if !target.IsPercent() {
		s.step = absoluteQualityStep
	}
	if png {
		s.downscaleAt = percentDownscaleFloor
		if !target.IsPercent() {
			s.downscaleAt = absoluteDownscaleFloor
		}
	}
	return s
}

func (s *qualityScheduler) Initial() Params {
	return s.params()
}

func (s *qualityScheduler) Advance(_ int, candidateSize, targetSize, _ int64) Params {
	next := s.quality - s.step
	if s.downscaleAt > 0 && next < s.downscaleAt {
		s.downscale(candidateSize, targetSize)
	} else {
		if next < qualityFloor {
			next = qualityFloor
		}
		s.quality = next
	}
	return s.params()
}

func (s *qualityScheduler) downscale(candidateSize, targetSize int64) {
	scale := math.Sqrt(float64(targetSize) / float64(candidateSize))
	s.width = scaled(s.width, scale)
	s.height = scaled(s.height, scale)
	s.quality = initialQuality
	s.downscaled = true
}

func (s *qualityScheduler) params() Params {
	p := Params{Quality: s.quality}
	if s.downscaled {
		p.Width = s.width
		p.Height = s.height
	}
	return p
}

func scaled(dim int, factor float64) int {
	n := int(float64(dim) * factor)
	if n < 1 {
		return 1
	}
	return n
}
