// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Streams interleaved 16-bit frames across chunk boundaries
package prep

// Resampler performs linear interpolation to convert between sample rates.
// The last input frame of each chunk is kept so interpolation continues
// seamlessly into the next chunk.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
	frames     []int16 // previous frame followed by the current chunk
	hasPrev    bool
}

// NewResampler creates a new resampler
func NewResampler(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample appends input resampled to the output rate to dst.
// input: interleaved samples at inputRate
func (r *Resampler) Resample(dst, input []int16) []int16 {
	if len(input) < r.channels {
		return dst
	}

	if r.hasPrev {
		prev := r.frames[len(r.frames)-r.channels:]
		r.frames = append(r.frames[:0], prev...)
	} else {
		r.frames = r.frames[:0]
	}
	r.frames = append(r.frames, input[:len(input)/r.channels*r.channels]...)
	totalFrames := len(r.frames) / r.channels

	for {
		inputIdx := int(r.position)

		// If we've consumed all input, stop
		if inputIdx >= totalFrames-1 {
			break
		}

		// Linear interpolation factor
		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			sample1 := float64(r.frames[inputIdx*r.channels+ch])
			sample2 := float64(r.frames[(inputIdx+1)*r.channels+ch])
			dst = append(dst, int16(sample1*(1.0-frac)+sample2*frac))
		}

		r.position += r.ratio
	}

	// Keep position relative to the frame carried into the next chunk
	r.position -= float64(totalFrames - 1)
	r.hasPrev = true

	return dst
}

// Flush emits the final input frame, which interpolation never reaches
func (r *Resampler) Flush(dst []int16) []int16 {
	if !r.hasPrev || r.position > 0 {
		return dst
	}
	return append(dst, r.frames[len(r.frames)-r.channels:]...)
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0.0
	r.frames = r.frames[:0]
	r.hasPrev = false
}

// OutputFrames estimates how many output frames inputFrames produce
func (r *Resampler) OutputFrames(inputFrames int) int {
	return int(float64(inputFrames) / r.ratio)
}
