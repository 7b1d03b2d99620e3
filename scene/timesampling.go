package scene

// TimeSamplingKind mirrors the sampling descriptors scene-cache formats
// declare: uniform (fixed step), cyclic (repeating set of offsets) and
// acyclic (explicit time per sample).
type TimeSamplingKind int

const (
	SamplingUniform TimeSamplingKind = iota
	SamplingCyclic
	SamplingAcyclic
)

func (k TimeSamplingKind) String() string {
	switch k {
	case SamplingUniform:
		return "Uniform"
	case SamplingCyclic:
		return "Cyclic"
	default:
		return "Acyclic"
	}
}

// TimeSampling is the frame-rate/time descriptor declared by a SourceReader.
type TimeSampling struct {
	Kind       TimeSamplingKind
	FPS        float64
	NumSamples int
	Times      []float64 // explicit sample times, cyclic/acyclic only
}

const fallbackFrameCount = 120

// FrameCount returns the number of whole frames covered by the sampling,
// falling back to a fixed default when the descriptor is empty (matches the
// behavior of trackers that do not write a time range at all).
func (ts TimeSampling) FrameCount() int {
	if ts.NumSamples > 0 {
		return ts.NumSamples
	}
	if len(ts.Times) > 0 {
		return len(ts.Times)
	}
	return fallbackFrameCount
}

// FrameTimes lays out the uniform per-frame sample grid used by the
// canonical scene: frame f (1-based) samples at f/fps seconds.
func FrameTimes(fps float64, frameCount int) []float64 {
	if frameCount < 1 {
		frameCount = 1
	}
	if fps <= 0 {
		fps = 24
	}
	times := make([]float64, frameCount)
	for f := 0; f < frameCount; f++ {
		times[f] = float64(f+1) / fps
	}
	return times
}
