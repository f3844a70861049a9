package usecase

import (
	"sync"

	"holdmic/internal/domain"
)

// accumulator collects native-rate frames for the duration of one session.
// It is owned exclusively by the controller loop and is non-empty only while
// the session is recording; Drain moves the buffer out exactly once.
type accumulator struct {
	mu         sync.Mutex
	samples    []int16
	sampleRate int
	channels   int
}

func newAccumulator() *accumulator {
	return &accumulator{}
}

func (a *accumulator) Append(chunk domain.RawAudioChunk) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, chunk.Samples...)
	a.sampleRate = chunk.SampleRate
	a.channels = chunk.Channels
}

func (a *accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.samples)
}

// Drain moves the accumulated buffer out, leaving the accumulator empty.
func (a *accumulator) Drain() (samples []int16, sampleRate, channels int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	samples, sampleRate, channels = a.samples, a.sampleRate, a.channels
	a.samples = nil
	a.sampleRate = 0
	a.channels = 0
	return samples, sampleRate, channels
}

// Discard drops any buffered audio without handing it to anyone.
func (a *accumulator) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = nil
	a.sampleRate = 0
	a.channels = 0
}
