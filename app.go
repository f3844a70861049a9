package main

import (
	"context"
	"fmt"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"holdmic/internal/bootstrap"
	"holdmic/internal/config"
	"holdmic/internal/domain"
	"holdmic/internal/logging"
	"holdmic/internal/usecase"
)

const (
	eventPhase     = "holdmic:phase"
	eventLevel     = "holdmic:level"
	eventCompleted = "holdmic:completed"
	eventError     = "holdmic:error"
)

// App is the Wails application root. It owns the controller goroutine and
// relays backend events to the frontend.
type App struct {
	ctx context.Context

	controller *usecase.SessionController
	cfg        config.Config
	stop       context.CancelFunc
	bootErr    error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	logging.Init()

	services, err := bootstrap.Build(bootstrap.Options{
		EventSink: a,
		Clipboard: &wailsClipboard{ctx: ctx},
	})
	if err != nil {
		a.bootErr = err
		a.SessionError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.controller = services.Controller

	runCtx, cancel := context.WithCancel(context.Background())
	a.stop = cancel
	go func() {
		defer services.Hotkey.Close()
		if err := services.Controller.Run(runCtx); err != nil && runCtx.Err() == nil {
			logging.Errorw("controller stopped", "error", err)
			a.SessionError(domain.ErrorCodeHotkey, err.Error())
		}
	}()
}

func (a *App) shutdown(_ context.Context) {
	if a.stop != nil {
		a.stop()
	}
}

// CancelSession discards the session in flight, whatever stage it is in.
func (a *App) CancelSession() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
	defer cancel()
	return a.controller.Cancel(ctx)
}

// GetStatus returns the current session status.
func (a *App) GetStatus() domain.Status {
	if a.controller == nil {
		if a.bootErr != nil {
			return domain.Status{Phase: domain.PhaseFailed, Message: a.bootErr.Error()}
		}
		return domain.Status{Phase: domain.PhaseIdle}
	}
	return a.controller.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"hotkey":           a.cfg.Hotkey.Combo,
		"engine":           a.cfg.Engine.BaseURL,
		"language":         a.cfg.Engine.Language,
		"rulesFile":        a.cfg.Rules.Path,
		"audioInput":       a.cfg.Audio.InputDevice,
		"audioInputFormat": a.cfg.Audio.InputFormat,
		"nativeRate":       fmt.Sprintf("%d", a.cfg.Audio.SampleRate),
		"engineRate":       fmt.Sprintf("%d", a.cfg.Engine.SampleRate),
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.controller == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// PhaseChanged emits session lifecycle updates to the frontend.
func (a *App) PhaseChanged(phase domain.SessionPhase, reason domain.PhaseReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPhase, map[string]string{
		"phase":   string(phase),
		"reason":  string(reason),
		"message": phaseMessage(phase, reason),
	})
}

// AudioLevel emits the live input meter while recording.
func (a *App) AudioLevel(level float64) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventLevel, level)
}

// SessionCompleted emits the final transcript and how it was delivered.
func (a *App) SessionCompleted(result domain.SessionResult) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCompleted, map[string]any{
		"sessionId":  result.SessionID,
		"text":       result.Text,
		"confidence": result.Confidence,
		"durationMs": result.Duration.Milliseconds(),
		"outcome":    string(result.Outcome),
	})
}

// SessionError emits backend errors to the UI.
func (a *App) SessionError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func phaseMessage(phase domain.SessionPhase, reason domain.PhaseReason) string {
	switch reason {
	case domain.ReasonReady:
		return "Ready"
	case domain.ReasonRecordingStarted:
		return "Recording"
	case domain.ReasonStaleSessionReset:
		return "Previous recording discarded"
	case domain.ReasonTranscribing:
		return "Transcribing..."
	case domain.ReasonInserting:
		return "Inserting text..."
	case domain.ReasonTextInserted:
		return "Text inserted"
	case domain.ReasonTextOnClipboard:
		return "Text copied to clipboard"
	case domain.ReasonHoldTooShort:
		return "Hold longer to record"
	case domain.ReasonCancelled:
		return "Cancelled"
	case domain.ReasonEmptyTranscript:
		return "Nothing transcribed"
	case domain.ReasonTranscriptionError:
		return "Transcription failed"
	case domain.ReasonConversionError:
		return "Audio conversion failed"
	case domain.ReasonInsertionError:
		return "Text delivery failed"
	case domain.ReasonTimeout:
		return "Transcription timed out"
	default:
		return string(phase)
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeHotkey:
		return "Hotkey unavailable"
	case domain.ErrorCodeCaptureStart:
		return "Could not start the microphone"
	case domain.ErrorCodeCaptureStop:
		return "Microphone stop issue"
	case domain.ErrorCodeCaptureStream:
		return "Microphone streaming issue"
	case domain.ErrorCodeConversion:
		return "Audio conversion failed"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeInsertion:
		return "Text delivery failed"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}

type wailsClipboard struct {
	ctx context.Context
}

func (c *wailsClipboard) SetText(_ context.Context, text string) error {
	return runtime.ClipboardSetText(c.ctx, text)
}
