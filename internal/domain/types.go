package domain

import "time"

// SessionPhase models the hold-to-record lifecycle. Transitions form a DAG:
// every non-terminal phase has one forward edge and one failure/cancel edge
// back to Idle; terminal phases return to Idle exactly once.
type SessionPhase string

const (
	PhaseIdle         SessionPhase = "idle"
	PhaseRecording    SessionPhase = "recording"
	PhaseTranscribing SessionPhase = "transcribing"
	PhaseInserting    SessionPhase = "inserting"
	PhaseCompleted    SessionPhase = "completed"
	PhaseCancelled    SessionPhase = "cancelled"
	PhaseFailed       SessionPhase = "failed"
)

// Terminal reports whether the phase has no forward edge.
func (p SessionPhase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseCancelled || p == PhaseFailed
}

// PhaseReason provides a structured reason for phase transitions.
type PhaseReason string

const (
	ReasonReady              PhaseReason = "ready"
	ReasonRecordingStarted   PhaseReason = "recording_started"
	ReasonStaleSessionReset  PhaseReason = "stale_session_reset"
	ReasonTranscribing       PhaseReason = "transcribing"
	ReasonInserting          PhaseReason = "inserting"
	ReasonTextInserted       PhaseReason = "text_inserted"
	ReasonTextOnClipboard    PhaseReason = "text_on_clipboard"
	ReasonHoldTooShort       PhaseReason = "hold_too_short"
	ReasonCancelled          PhaseReason = "cancelled"
	ReasonEmptyTranscript    PhaseReason = "empty_transcript"
	ReasonTranscriptionError PhaseReason = "transcription_error"
	ReasonConversionError    PhaseReason = "conversion_error"
	ReasonInsertionError     PhaseReason = "insertion_error"
	ReasonTimeout            PhaseReason = "timeout"
)

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeHotkey        ErrorCode = "hotkey"
	ErrorCodeCaptureStart  ErrorCode = "capture_start"
	ErrorCodeCaptureStop   ErrorCode = "capture_stop"
	ErrorCodeCaptureStream ErrorCode = "capture_stream"
	ErrorCodeConversion    ErrorCode = "conversion"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeInsertion     ErrorCode = "insertion"
	ErrorCodeProtocol      ErrorCode = "protocol"
)

// HotkeyKind distinguishes press from release.
type HotkeyKind string

const (
	HotkeyPressed  HotkeyKind = "pressed"
	HotkeyReleased HotkeyKind = "released"
)

// HotkeyEvent is a timestamped press or release of the global shortcut.
// SourceTime is captured in the OS callback context at delivery, never at
// handler execution, so hold duration is immune to scheduler lag.
type HotkeyEvent struct {
	Kind       HotkeyKind
	SourceTime time.Time
}

// RawAudioChunk is one capture frame at the device's native rate. It is owned
// by the session accumulator for the lifetime of one session and discarded
// after transcription; audio is never retained.
type RawAudioChunk struct {
	Samples    []int16
	SampleRate int
	Channels   int
	CapturedAt time.Time
}

// ResampledBuffer is the whole-session audio converted to the engine rate.
// Produced once per session by the resampler, consumed once downstream.
type ResampledBuffer struct {
	Samples    []int16
	SampleRate int
	Duration   time.Duration
}

// Transcription is the engine's output for one session.
type Transcription struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Elapsed    time.Duration `json:"elapsed"`
}

// InsertOutcome reports how transcript text was delivered.
type InsertOutcome string

const (
	InsertedDirectly  InsertOutcome = "inserted"
	CopiedToClipboard InsertOutcome = "clipboard"
)

// SessionResult is published when a session reaches a terminal phase.
type SessionResult struct {
	SessionID  string        `json:"sessionId"`
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"`
	Duration   time.Duration `json:"duration"`
	Outcome    InsertOutcome `json:"outcome"`
}

// Status summarizes the current runtime status.
type Status struct {
	Phase   SessionPhase `json:"phase"`
	Active  bool         `json:"active"`
	Message string       `json:"message,omitempty"`
}
