package ports

import (
	"context"

	"holdmic/internal/domain"
)

// CaptureConfig describes how the microphone should be captured. SampleRate
// is the device's native rate; no rate conversion happens during capture.
type CaptureConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
	FrameSize   int
}

// CaptureSession is a live microphone capture session. Frames delivers
// native-rate chunks on a bounded channel and is closed when the capture
// ends; the producer never blocks on a full channel.
type CaptureSession interface {
	Frames() <-chan domain.RawAudioChunk
	Stop() error
}

// AudioCapture creates microphone capture sessions at the device native rate.
type AudioCapture interface {
	Start(ctx context.Context, cfg CaptureConfig) (CaptureSession, error)
}

// Resampler converts a whole session's native-rate samples to the engine
// rate in one stateless pass.
type Resampler interface {
	Resample(samples []int16, inRate, outRate int) ([]int16, error)
}

// Transcriber is the external speech-to-text engine: audio in, text out.
type Transcriber interface {
	Transcribe(ctx context.Context, buf domain.ResampledBuffer, language string) (domain.Transcription, error)
}

// Inserter delivers transcript text to the focused application, falling back
// to the clipboard when direct insertion is unavailable.
type Inserter interface {
	Insert(ctx context.Context, text string) (domain.InsertOutcome, error)
}

// HotkeySource delivers timestamped press/release events for the configured
// global shortcut. The OS callback only timestamps and enqueues; Events is
// the single serialized inbox consumers read from.
type HotkeySource interface {
	Events() <-chan domain.HotkeyEvent
	Close() error
}

// RulesEngine transforms transcripts using deterministic substitution rules.
type RulesEngine interface {
	Apply(text string) (string, error)
}

// EventSink emits backend state/events to the UI. Implementations must not
// block; the controller calls these from its own goroutine.
type EventSink interface {
	PhaseChanged(phase domain.SessionPhase, reason domain.PhaseReason)
	AudioLevel(level float64)
	SessionCompleted(result domain.SessionResult)
	SessionError(code domain.ErrorCode, detail string)
}
