package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"holdmic/internal/domain"
	"holdmic/internal/logging"
	"holdmic/internal/ports"
	"holdmic/internal/resample"
)

var ErrHotkeySourceClosed = errors.New("hotkey event source closed")

const drainDeadline = 2 * time.Second

// Config controls session timing and audio parameters.
type Config struct {
	Capture          ports.CaptureConfig
	EngineSampleRate int
	Language         string

	// MinHold cancels releases shorter than a deliberate hold.
	MinHold time.Duration
	// StaleAfter force-resets a recording whose release event was lost.
	StaleAfter time.Duration
	// TranscribeTimeout bounds the external engine call; expiry rejects the
	// pending result, it does not abort already-closed audio resources.
	TranscribeTimeout time.Duration
	// CompletionLinger delays the terminal-to-idle transition on the
	// completion path so the UI can show the result. Cancel resets at once.
	CompletionLinger time.Duration
}

// SessionController reconciles hotkey events, capture frames and async
// completions into one race-free recording session. All state lives behind a
// single guard mutated only by the Run loop; asynchronous continuations are
// invalidated by the generation counter, never by blocking cancellation.
type SessionController struct {
	capture     ports.AudioCapture
	resampler   ports.Resampler
	transcriber ports.Transcriber
	inserter    ports.Inserter
	rules       ports.RulesEngine
	events      ports.EventSink
	hotkeys     <-chan domain.HotkeyEvent
	cfg         Config

	guard    sessionGuard
	acc      *accumulator
	active   *activeSession
	commands chan any
}

type cancelCmd struct {
	done chan struct{}
}

type transcribedCmd struct {
	generation uint64
	id         string
	duration   time.Duration
	result     domain.Transcription
	err        error
}

type insertedCmd struct {
	generation uint64
	id         string
	duration   time.Duration
	text       string
	confidence float64
	outcome    domain.InsertOutcome
	err        error
}

type resetCmd struct {
	generation uint64
}

func NewSessionController(
	capture ports.AudioCapture,
	resampler ports.Resampler,
	transcriber ports.Transcriber,
	inserter ports.Inserter,
	rules ports.RulesEngine,
	events ports.EventSink,
	hotkeys <-chan domain.HotkeyEvent,
	cfg Config,
) *SessionController {
	if cfg.EngineSampleRate <= 0 {
		cfg.EngineSampleRate = 16000
	}
	if cfg.MinHold <= 0 {
		cfg.MinHold = 150 * time.Millisecond
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Second
	}
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = 10 * time.Second
	}
	return &SessionController{
		capture:     capture,
		resampler:   resampler,
		transcriber: transcriber,
		inserter:    inserter,
		rules:       rules,
		events:      events,
		hotkeys:     hotkeys,
		cfg:         cfg,
		acc:         newAccumulator(),
		commands:    make(chan any, 32),
	}
}

// Run executes the controller loop until ctx is cancelled or the hotkey
// source closes. Press/release events are processed in strict arrival order.
func (c *SessionController) Run(ctx context.Context) error {
	c.transition(domain.PhaseIdle, domain.ReasonReady)

	for {
		var frames <-chan domain.RawAudioChunk
		if c.active != nil {
			frames = c.active.frames
		}

		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case ev, ok := <-c.hotkeys:
			if !ok {
				c.shutdown()
				return ErrHotkeySourceClosed
			}
			c.onHotkey(ctx, ev)
		case chunk, ok := <-frames:
			if !ok {
				c.active.frames = nil
				continue
			}
			c.events.AudioLevel(rmsLevel(chunk.Samples))
			c.acc.Append(chunk)
		case cmd := <-c.commands:
			c.dispatch(ctx, cmd)
		}
	}
}

// Cancel discards any session in any phase and returns once the controller
// has reset to idle. Safe to call repeatedly.
func (c *SessionController) Cancel(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case c.commands <- cancelCmd{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns the current session status.
func (c *SessionController) Status() domain.Status {
	phase, _ := c.guard.snapshot()
	active := phase == domain.PhaseRecording ||
		phase == domain.PhaseTranscribing ||
		phase == domain.PhaseInserting
	return domain.Status{Phase: phase, Active: active}
}

func (c *SessionController) onHotkey(ctx context.Context, ev domain.HotkeyEvent) {
	switch ev.Kind {
	case domain.HotkeyPressed:
		c.onPress(ctx, ev)
	case domain.HotkeyReleased:
		c.onRelease(ctx, ev)
	}
}

func (c *SessionController) onPress(ctx context.Context, ev domain.HotkeyEvent) {
	phase, gen := c.guard.snapshot()
	switch {
	case phase == domain.PhaseRecording:
		if c.active != nil && time.Since(c.active.startedWall) > c.cfg.StaleAfter {
			// Release event was lost (focus change, grab conflict). Abandon
			// the zombie recording and treat this press as a fresh session.
			logging.Warnw("recording exceeded staleness threshold, forcing reset",
				"session", c.active.id, "age", time.Since(c.active.startedWall))
			c.abandonActive()
			c.transition(domain.PhaseCancelled, domain.ReasonStaleSessionReset)
		} else {
			// Overlapping press while recording: protocol noise, not a user
			// intent. Logged, never surfaced.
			logging.Debugw("press ignored, session already recording", "generation", gen)
			return
		}
	case phase != domain.PhaseIdle:
		// A new hold while transcribing/inserting or during the terminal
		// linger supersedes the old session; the generation bump below
		// invalidates its in-flight continuations.
		logging.Infow("new press supersedes in-flight session", "phase", phase, "generation", gen)
	}
	c.startSession(ctx, ev)
}

func (c *SessionController) startSession(ctx context.Context, ev domain.HotkeyEvent) {
	gen := c.guard.bump()

	session, err := c.capture.Start(ctx, c.cfg.Capture)
	if err != nil {
		// Device unavailable: fail before Recording is ever entered.
		logging.Errorw("audio capture start failed", "error", err)
		c.events.SessionError(domain.ErrorCodeCaptureStart, err.Error())
		c.transition(domain.PhaseIdle, domain.ReasonReady)
		return
	}

	c.acc.Discard()
	c.active = &activeSession{
		id:          uuid.NewString(),
		generation:  gen,
		capture:     session,
		frames:      session.Frames(),
		startedAt:   ev.SourceTime,
		startedWall: time.Now(),
	}
	c.guard.mu.Lock()
	c.guard.startedAt = ev.SourceTime
	c.guard.endedAt = time.Time{}
	c.guard.mu.Unlock()

	logging.Infow("recording started", "session", c.active.id, "generation", gen)
	c.transition(domain.PhaseRecording, domain.ReasonRecordingStarted)
}

func (c *SessionController) onRelease(ctx context.Context, ev domain.HotkeyEvent) {
	phase, _ := c.guard.snapshot()
	if phase != domain.PhaseRecording || c.active == nil {
		logging.Debugw("release ignored", "phase", phase)
		return
	}

	active := c.active
	c.active = nil

	if err := active.capture.Stop(); err != nil {
		c.events.SessionError(domain.ErrorCodeCaptureStop, err.Error())
	}
	drainRemaining(active.frames, c.acc, drainDeadline)

	// Both timestamps come from the event source, so scheduler lag between
	// the physical key action and this handler cannot skew the duration.
	duration := ev.SourceTime.Sub(active.startedAt)
	c.guard.mu.Lock()
	c.guard.endedAt = ev.SourceTime
	c.guard.mu.Unlock()

	if duration < c.cfg.MinHold {
		logging.Infow("hold below minimum, discarding", "session", active.id, "duration", duration)
		c.acc.Discard()
		c.finishTerminal(active.generation, domain.PhaseCancelled, domain.ReasonHoldTooShort, true)
		return
	}

	samples, rate, channels := c.acc.Drain()
	c.transition(domain.PhaseTranscribing, domain.ReasonTranscribing)

	mono := resample.DownmixMono(samples, channels)
	if len(mono) == 0 {
		c.finishTerminal(active.generation, domain.PhaseCancelled, domain.ReasonEmptyTranscript, true)
		return
	}
	converted, err := c.resampler.Resample(mono, rate, c.cfg.EngineSampleRate)
	if err != nil {
		// Malformed audio is never sent downstream.
		c.events.SessionError(domain.ErrorCodeConversion, err.Error())
		c.finishTerminal(active.generation, domain.PhaseFailed, domain.ReasonConversionError, false)
		return
	}

	buf := domain.ResampledBuffer{
		Samples:    converted,
		SampleRate: c.cfg.EngineSampleRate,
		Duration:   duration,
	}
	logging.Infow("recording stopped, transcribing",
		"session", active.id, "duration", duration, "samples", len(converted))
	go c.transcribe(ctx, active.generation, active.id, duration, buf)
}

func (c *SessionController) transcribe(ctx context.Context, gen uint64, id string, duration time.Duration, buf domain.ResampledBuffer) {
	tctx, cancel := context.WithTimeout(ctx, c.cfg.TranscribeTimeout)
	defer cancel()
	result, err := c.transcriber.Transcribe(tctx, buf, c.cfg.Language)
	c.post(transcribedCmd{generation: gen, id: id, duration: duration, result: result, err: err})
}

func (c *SessionController) dispatch(ctx context.Context, cmd any) {
	switch cmd := cmd.(type) {
	case cancelCmd:
		c.onCancel()
		close(cmd.done)
	case transcribedCmd:
		c.onTranscribed(ctx, cmd)
	case insertedCmd:
		c.onInserted(cmd)
	case resetCmd:
		c.onReset(cmd)
	}
}

func (c *SessionController) onTranscribed(ctx context.Context, cmd transcribedCmd) {
	phase, gen := c.guard.snapshot()
	if cmd.generation != gen || phase != domain.PhaseTranscribing {
		logging.Debugw("discarding stale transcription result",
			"session", cmd.id, "generation", cmd.generation, "current", gen)
		return
	}

	if cmd.err != nil {
		reason := domain.ReasonTranscriptionError
		if errors.Is(cmd.err, context.DeadlineExceeded) {
			reason = domain.ReasonTimeout
		}
		c.events.SessionError(domain.ErrorCodeTranscription, cmd.err.Error())
		c.finishTerminal(gen, domain.PhaseFailed, reason, false)
		return
	}

	text := strings.TrimSpace(cmd.result.Text)
	if text == "" {
		c.finishTerminal(gen, domain.PhaseCancelled, domain.ReasonEmptyTranscript, false)
		return
	}

	if c.rules != nil {
		transformed, err := c.rules.Apply(text)
		if err != nil {
			logging.Warnw("transcript rules failed, inserting raw text", "error", err)
		} else {
			text = transformed
		}
	}

	c.transition(domain.PhaseInserting, domain.ReasonInserting)
	go c.insert(ctx, cmd, text)
}

func (c *SessionController) insert(ctx context.Context, cmd transcribedCmd, text string) {
	outcome, err := c.inserter.Insert(ctx, text)
	c.post(insertedCmd{
		generation: cmd.generation,
		id:         cmd.id,
		duration:   cmd.duration,
		text:       text,
		confidence: cmd.result.Confidence,
		outcome:    outcome,
		err:        err,
	})
}

func (c *SessionController) onInserted(cmd insertedCmd) {
	phase, gen := c.guard.snapshot()
	if cmd.generation != gen || phase != domain.PhaseInserting {
		logging.Debugw("discarding stale insertion result",
			"session", cmd.id, "generation", cmd.generation, "current", gen)
		return
	}

	if cmd.err != nil {
		c.events.SessionError(domain.ErrorCodeInsertion, cmd.err.Error())
		c.finishTerminal(gen, domain.PhaseFailed, domain.ReasonInsertionError, false)
		return
	}

	reason := domain.ReasonTextInserted
	if cmd.outcome == domain.CopiedToClipboard {
		reason = domain.ReasonTextOnClipboard
	}
	c.events.SessionCompleted(domain.SessionResult{
		SessionID:  cmd.id,
		Text:       cmd.text,
		Confidence: cmd.confidence,
		Duration:   cmd.duration,
		Outcome:    cmd.outcome,
	})
	logging.Infow("session completed", "session", cmd.id, "outcome", cmd.outcome)
	c.finishTerminal(gen, domain.PhaseCompleted, reason, false)
}

func (c *SessionController) onCancel() {
	phase, _ := c.guard.snapshot()
	if phase == domain.PhaseIdle && c.active == nil {
		c.guard.bump()
		return
	}
	c.abandonActive()
	c.guard.bump()
	c.transition(domain.PhaseCancelled, domain.ReasonCancelled)
	c.transition(domain.PhaseIdle, domain.ReasonReady)
}

func (c *SessionController) onReset(cmd resetCmd) {
	phase, gen := c.guard.snapshot()
	if cmd.generation != gen || !phase.Terminal() {
		return
	}
	c.transition(domain.PhaseIdle, domain.ReasonReady)
}

// finishTerminal moves to a terminal phase and schedules the single return
// edge to idle: immediately on cancel paths, after the linger otherwise.
// The deferred reset is generation-guarded like any other continuation.
func (c *SessionController) finishTerminal(gen uint64, phase domain.SessionPhase, reason domain.PhaseReason, immediate bool) {
	c.transition(phase, reason)
	if immediate || c.cfg.CompletionLinger <= 0 {
		c.transition(domain.PhaseIdle, domain.ReasonReady)
		return
	}
	time.AfterFunc(c.cfg.CompletionLinger, func() {
		c.post(resetCmd{generation: gen})
	})
}

func (c *SessionController) abandonActive() {
	if c.active != nil {
		_ = c.active.capture.Stop()
		c.active = nil
	}
	c.acc.Discard()
}

func (c *SessionController) shutdown() {
	c.abandonActive()
}

func (c *SessionController) transition(phase domain.SessionPhase, reason domain.PhaseReason) {
	c.guard.set(phase)
	c.events.PhaseChanged(phase, reason)
}

// post delivers a continuation message to the loop. It must not block: if
// the loop is gone the message is dropped, and the generation check makes
// dropped resets harmless.
func (c *SessionController) post(cmd any) {
	select {
	case c.commands <- cmd:
	default:
		logging.Warnw("controller command inbox full, dropping message")
	}
}
