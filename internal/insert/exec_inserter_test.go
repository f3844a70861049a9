package insert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"holdmic/internal/domain"
)

func writeScript(t *testing.T, name string, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o700); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

func TestInsertDirectSuccess(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "typed.txt")
	script := writeScript(t, "type.sh", "#!/usr/bin/env bash\ncat > "+out+"\n")

	inserter := NewExecInserter(Config{TypeCommand: []string{script}}, nil)
	outcome, err := inserter.Insert(context.Background(), "hello there")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if outcome != domain.InsertedDirectly {
		t.Fatalf("expected direct insertion, got %s", outcome)
	}

	typed, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("typed output missing: %v", err)
	}
	if string(typed) != "hello there" {
		t.Fatalf("unexpected typed text: %q", typed)
	}
}

func TestInsertFallsBackToClipboardCommand(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "clip.txt")
	failing := writeScript(t, "type.sh", "#!/usr/bin/env bash\necho 'no display' 1>&2\nexit 1\n")
	clip := writeScript(t, "clip.sh", "#!/usr/bin/env bash\ncat > "+out+"\n")

	inserter := NewExecInserter(Config{
		TypeCommand:      []string{failing},
		ClipboardCommand: []string{clip},
	}, nil)

	outcome, err := inserter.Insert(context.Background(), "fallback text")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if outcome != domain.CopiedToClipboard {
		t.Fatalf("expected clipboard fallback, got %s", outcome)
	}
	typed, _ := os.ReadFile(out)
	if string(typed) != "fallback text" {
		t.Fatalf("clipboard did not receive text: %q", typed)
	}
}

type recordingClipboard struct {
	text string
	err  error
}

func (c *recordingClipboard) SetText(ctx context.Context, text string) error {
	c.text = text
	return c.err
}

func TestInsertUsesInjectedClipboard(t *testing.T) {
	t.Parallel()

	clip := &recordingClipboard{}
	inserter := NewExecInserter(Config{}, clip)
	outcome, err := inserter.Insert(context.Background(), "clip me")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if outcome != domain.CopiedToClipboard || clip.text != "clip me" {
		t.Fatalf("clipboard fallback broken: outcome=%s text=%q", outcome, clip.text)
	}
}

func TestInsertNoDeliveryPath(t *testing.T) {
	t.Parallel()

	inserter := NewExecInserter(Config{}, nil)
	_, err := inserter.Insert(context.Background(), "text")
	if !errors.Is(err, ErrNoDeliveryPath) {
		t.Fatalf("expected ErrNoDeliveryPath, got %v", err)
	}
}

func TestInsertRejectsEmptyText(t *testing.T) {
	t.Parallel()

	inserter := NewExecInserter(Config{}, &recordingClipboard{})
	if _, err := inserter.Insert(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty text")
	}
}
