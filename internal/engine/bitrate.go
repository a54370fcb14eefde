package engine

const (
	percentBitrateDecay  = 0.8
	absoluteBitrateDecay = 0.75
)

// bitrateScheduler derives each iteration's target bitrate from the size
// ratio the job has to achieve, and geometrically decays its working
// bitrate after every miss.
type bitrateScheduler struct {
	current float64 // working bitrate, bits per second
	ratio   float64 // targetSize / originalSize
	decay   float64
	preset  string
}

func newBitrateScheduler(target TargetSpec, sourceBitrate int64, targetSize, originalSize int64, preset string) *bitrateScheduler {
	decay := percentBitrateDecay
	if !target.IsPercent() {
		decay = absoluteBitrateDecay
	}
	return &bitrateScheduler{
		current: float64(sourceBitrate),
		ratio:   float64(targetSize) / float64(originalSize),
		decay:   decay,
		preset:  preset,
	}
}

func (s *bitrateScheduler) Initial() Params {
	return s.params()
}

func (s *bitrateScheduler) Advance(_ int, _, _, _ int64) Params {
	s.current *= s.decay
	return s.params()
}

func (s *bitrateScheduler) params() Params {
	kbps := int(s.current * s.ratio / 1000)
	if kbps < 1 {
		kbps = 1
	}
	return Params{BitrateKbps: kbps, Preset: s.preset}
}
