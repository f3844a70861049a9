package bootstrap

import (
	"fmt"
	"strings"

	"holdmic/internal/audio"
	"holdmic/internal/config"
	"holdmic/internal/hotkey"
	"holdmic/internal/insert"
	"holdmic/internal/ports"
	"holdmic/internal/providers/whisper"
	"holdmic/internal/resample"
	"holdmic/internal/rules"
	"holdmic/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Controller *usecase.SessionController
	Hotkey     ports.HotkeySource
	Config     config.Config
}

// Options carries the host-provided pieces of the graph. NewHotkeySource
// may be overridden when global hotkey registration is unavailable, for
// example in headless test runs.
type Options struct {
	EventSink       ports.EventSink
	Clipboard       insert.Clipboard
	NewHotkeySource func(combo string) (ports.HotkeySource, error)
}

// Build wires all backend dependencies for the current runtime.
func Build(opts Options) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.PassLimit)
	if err != nil {
		return Services{}, fmt.Errorf("load corrections: %w", err)
	}

	newSource := opts.NewHotkeySource
	if newSource == nil {
		newSource = func(combo string) (ports.HotkeySource, error) {
			return hotkey.NewSource(combo)
		}
	}
	source, err := newSource(cfg.Hotkey.Combo)
	if err != nil {
		return Services{}, fmt.Errorf("register hotkey %q: %w", cfg.Hotkey.Combo, err)
	}

	controller := usecase.NewSessionController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		resample.NewConverter(),
		whisper.NewClient(whisper.Config{
			BaseURL:    cfg.Engine.BaseURL,
			Model:      cfg.Engine.Model,
			Timeout:    cfg.Engine.Timeout,
			RetryCount: cfg.Engine.RetryCount,
		}),
		insert.NewExecInserter(insert.Config{
			TypeCommand:      splitCommand(cfg.Insert.TypeCommand),
			ClipboardCommand: splitCommand(cfg.Insert.ClipboardCommand),
			Timeout:          cfg.Insert.Timeout,
		}, opts.Clipboard),
		rulesEngine,
		opts.EventSink,
		source.Events(),
		usecase.Config{
			Capture: ports.CaptureConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
				FrameSize:   cfg.Audio.FrameSize,
			},
			EngineSampleRate:  cfg.Engine.SampleRate,
			Language:          cfg.Engine.Language,
			MinHold:           cfg.Session.MinHold,
			StaleAfter:        cfg.Session.StaleAfter,
			TranscribeTimeout: cfg.Session.TranscribeWithin,
			CompletionLinger:  cfg.Session.CompletionLinger,
		},
	)

	return Services{Controller: controller, Hotkey: source, Config: cfg}, nil
}

func splitCommand(command string) []string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
