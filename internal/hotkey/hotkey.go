package hotkey

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.design/x/hotkey"

	"holdmic/internal/domain"
	"holdmic/internal/logging"
)

// ErrRegistration is returned when the OS refuses the shortcut, typically
// because another application already owns the combination. Not retryable
// without user action.
var ErrRegistration = errors.New("global shortcut registration failed")

const inboxSize = 16

// Source registers a global shortcut and funnels press/release events into a
// single serialized inbox. The listen goroutine only timestamps and enqueues;
// it never blocks and holds no session logic, so it tolerates the OS firing
// re-entrantly before a previous event has been processed.
type Source struct {
	hk     *hotkey.Hotkey
	events chan domain.HotkeyEvent
	done   chan struct{}

	closeOnce sync.Once
}

// NewSource parses combo (e.g. "ctrl+shift+space"), registers it with the OS
// and starts delivering events.
func NewSource(combo string) (*Source, error) {
	mods, key, err := ParseCombo(combo)
	if err != nil {
		return nil, err
	}

	hk := hotkey.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrRegistration, combo, err)
	}

	s := &Source{
		hk:     hk,
		events: make(chan domain.HotkeyEvent, inboxSize),
		done:   make(chan struct{}),
	}
	go s.listen()
	return s, nil
}

// Events returns the serialized event inbox.
func (s *Source) Events() <-chan domain.HotkeyEvent {
	return s.events
}

func (s *Source) listen() {
	for {
		select {
		case <-s.hk.Keydown():
			s.enqueue(domain.HotkeyPressed)
		case <-s.hk.Keyup():
			s.enqueue(domain.HotkeyReleased)
		case <-s.done:
			return
		}
	}
}

func (s *Source) enqueue(kind domain.HotkeyKind) {
	ev := domain.HotkeyEvent{Kind: kind, SourceTime: time.Now()}
	select {
	case s.events <- ev:
	default:
		logging.Warnw("hotkey inbox full, dropping event", "kind", kind)
	}
}

// Close unregisters the shortcut and stops event delivery.
func (s *Source) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.hk.Unregister()
	})
	return err
}
