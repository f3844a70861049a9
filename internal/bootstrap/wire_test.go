package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"holdmic/internal/domain"
	"holdmic/internal/ports"
)

func TestBuildSuccess(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	services, err := Build(Options{
		EventSink:       noopEventSink{},
		Clipboard:       noopClipboard{},
		NewHotkeySource: fakeHotkeySource,
	})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if services.Controller == nil {
		t.Fatalf("expected controller")
	}
	if services.Hotkey == nil {
		t.Fatalf("expected hotkey source")
	}
	if services.Config.Hotkey.Combo != "ctrl+shift+space" {
		t.Fatalf("unexpected default combo %q", services.Config.Hotkey.Combo)
	}
}

func TestBuildFailsOnInvalidRules(t *testing.T) {
	home := t.TempDir()
	rules := filepath.Join(home, "bad.rules")
	if err := os.WriteFile(rules, []byte("not a valid rule\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	t.Setenv("HOME", home)
	t.Setenv("HOLDMIC_RULES_FILE", rules)

	_, err := Build(Options{
		EventSink:       noopEventSink{},
		Clipboard:       noopClipboard{},
		NewHotkeySource: fakeHotkeySource,
	})
	if err == nil {
		t.Fatalf("expected build error due to invalid rules")
	}
}

func TestBuildFailsOnBadCombo(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HOLDMIC_HOTKEY_COMBO", "hyper+nope")

	_, err := Build(Options{
		EventSink: noopEventSink{},
		Clipboard: noopClipboard{},
		NewHotkeySource: func(combo string) (ports.HotkeySource, error) {
			if combo != "hyper+nope" {
				t.Fatalf("unexpected combo %q", combo)
			}
			return nil, os.ErrInvalid
		},
	})
	if err == nil {
		t.Fatalf("expected build error due to hotkey registration")
	}
}

func fakeHotkeySource(string) (ports.HotkeySource, error) {
	return stubHotkeySource{events: make(chan domain.HotkeyEvent)}, nil
}

type stubHotkeySource struct {
	events chan domain.HotkeyEvent
}

func (s stubHotkeySource) Events() <-chan domain.HotkeyEvent { return s.events }
func (s stubHotkeySource) Close() error                      { return nil }

type noopEventSink struct{}

func (noopEventSink) PhaseChanged(_ domain.SessionPhase, _ domain.PhaseReason) {}
func (noopEventSink) AudioLevel(_ float64)                                     {}
func (noopEventSink) SessionCompleted(_ domain.SessionResult)                  {}
func (noopEventSink) SessionError(_ domain.ErrorCode, _ string)                {}

type noopClipboard struct{}

func (noopClipboard) SetText(_ context.Context, _ string) error { return nil }
