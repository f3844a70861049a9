package usecase

import (
	"sync"
	"time"

	"holdmic/internal/domain"
	"holdmic/internal/ports"
)

// sessionGuard is the single authoritative record of session state. It is
// mutated only by the controller loop; the mutex exists for Status readers.
// The generation counter increments on every start and cancel, and any async
// continuation that captured an older generation must no-op on completion.
type sessionGuard struct {
	mu               sync.Mutex
	phase            domain.SessionPhase
	generation       uint64
	startedAt        time.Time
	endedAt          time.Time
	lastTransitionAt time.Time
}

func (g *sessionGuard) set(phase domain.SessionPhase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = phase
	g.lastTransitionAt = time.Now()
}

func (g *sessionGuard) snapshot() (domain.SessionPhase, uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase, g.generation
}

func (g *sessionGuard) bump() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.generation++
	return g.generation
}

// activeSession tracks the live capture for one recording window.
type activeSession struct {
	id         string
	generation uint64
	capture    ports.CaptureSession
	frames     <-chan domain.RawAudioChunk
	// startedAt is the hotkey source timestamp, not handler-entry time.
	startedAt   time.Time
	startedWall time.Time
}
