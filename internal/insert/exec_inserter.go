package insert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"holdmic/internal/domain"
	"holdmic/internal/logging"
)

var ErrNoDeliveryPath = errors.New("no insertion command or clipboard available")

// Clipboard is the last-resort delivery target, typically backed by the
// desktop shell.
type Clipboard interface {
	SetText(ctx context.Context, text string) error
}

// Config controls how transcript text is delivered.
type Config struct {
	// TypeCommand synthesizes keystrokes into the focused window, e.g.
	// ["wtype", "-"] or ["xdotool", "type", "--file", "-"]. Text is written
	// to the command's stdin.
	TypeCommand []string
	// ClipboardCommand is the fallback writer, e.g. ["wl-copy"]. When empty
	// the injected Clipboard is used instead.
	ClipboardCommand []string
	Timeout          time.Duration
}

// ExecInserter delivers text via an external typing tool, falling back to
// the clipboard so the transcript survives even when direct insertion fails.
type ExecInserter struct {
	cfg       Config
	clipboard Clipboard
}

func NewExecInserter(cfg Config, clipboard Clipboard) *ExecInserter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &ExecInserter{cfg: cfg, clipboard: clipboard}
}

func (i *ExecInserter) Insert(ctx context.Context, text string) (domain.InsertOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("refusing to insert empty text")
	}

	if len(i.cfg.TypeCommand) > 0 {
		if err := i.runWithStdin(ctx, i.cfg.TypeCommand, text); err == nil {
			return domain.InsertedDirectly, nil
		} else {
			logging.Warnw("direct insertion failed, falling back to clipboard",
				"command", i.cfg.TypeCommand[0], "error", err)
		}
	}

	if len(i.cfg.ClipboardCommand) > 0 {
		if err := i.runWithStdin(ctx, i.cfg.ClipboardCommand, text); err != nil {
			return "", fmt.Errorf("clipboard command failed: %w", err)
		}
		return domain.CopiedToClipboard, nil
	}

	if i.clipboard != nil {
		if err := i.clipboard.SetText(ctx, text); err != nil {
			return "", fmt.Errorf("clipboard write failed: %w", err)
		}
		return domain.CopiedToClipboard, nil
	}

	return "", ErrNoDeliveryPath
}

func (i *ExecInserter) runWithStdin(ctx context.Context, argv []string, text string) error {
	cctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return err
	}
	return nil
}
