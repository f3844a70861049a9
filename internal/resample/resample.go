package resample

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidRate = errors.New("sample rate must be positive")

// Converter performs stateless whole-buffer sample rate conversion.
//
// Streaming converters carry filter state across calls; feeding them small,
// irregular capture frames corrupts the signal at buffer boundaries. The
// session pipeline therefore concatenates the full recording first and
// converts it here in a single pass.
type Converter struct{}

func NewConverter() *Converter {
	return &Converter{}
}

// Resample converts samples from inRate to outRate by linear interpolation.
// The output length is round(len(samples) * outRate / inRate).
func (c *Converter) Resample(samples []int16, inRate, outRate int) ([]int16, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("%w: in=%d out=%d", ErrInvalidRate, inRate, outRate)
	}
	if inRate == outRate {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out, nil
	}
	if len(samples) == 0 {
		return nil, nil
	}

	outLen := int(math.Round(float64(len(samples)) * float64(outRate) / float64(inRate)))
	if outLen == 0 {
		return nil, nil
	}

	out := make([]int16, outLen)
	step := float64(inRate) / float64(outRate)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = int16(math.Round(a + (b-a)*frac))
	}
	return out, nil
}

// DownmixMono averages interleaved multi-channel samples into one channel.
// Mono input is returned unchanged.
func DownmixMono(samples []int16, channels int) []int16 {
	if channels <= 1 || len(samples) == 0 {
		return samples
	}
	out := make([]int16, len(samples)/channels)
	for i := range out {
		var sum int
		for ch := 0; ch < channels; ch++ {
			sum += int(samples[i*channels+ch])
		}
		out[i] = int16(sum / channels)
	}
	return out
}
