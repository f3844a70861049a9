package usecase

import (
	"math"
	"time"

	"holdmic/internal/domain"
)

// rmsLevel computes a normalized [0,1] amplitude metric for one raw frame.
// Metering reads the frame before it is appended and never touches the
// accumulator's buffer.
func rmsLevel(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(samples))) / math.MaxInt16
}

// drainRemaining consumes frames still in flight after capture stop so the
// tail of the recording is not lost. The frames channel closes once the
// capture reader flushes; the deadline only guards against a wedged reader.
func drainRemaining(frames <-chan domain.RawAudioChunk, acc *accumulator, deadline time.Duration) {
	if frames == nil {
		return
	}
	timeout := time.After(deadline)
	for {
		select {
		case chunk, ok := <-frames:
			if !ok {
				return
			}
			acc.Append(chunk)
		case <-timeout:
			return
		}
	}
}
