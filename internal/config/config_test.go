package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ctrl+shift+space", cfg.Hotkey.Combo)
	assert.Equal(t, "ffmpeg", cfg.Audio.RecorderCommand)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, 1, cfg.Audio.Channels)
	assert.Equal(t, 1024, cfg.Audio.FrameSize)
	assert.Equal(t, "http://127.0.0.1:8080", cfg.Engine.BaseURL)
	assert.Equal(t, 16000, cfg.Engine.SampleRate)
	assert.Equal(t, 30*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 150*time.Millisecond, cfg.Session.MinHold)
	assert.Equal(t, 10*time.Second, cfg.Session.StaleAfter)
	assert.Equal(t, 10*time.Second, cfg.Session.TranscribeWithin)
	assert.Equal(t, 5*time.Second, cfg.Insert.Timeout)
	assert.Equal(t, 30, cfg.Rules.PassLimit)
}

func TestLoadReadsEnvironmentOverrides(t *testing.T) {
	t.Setenv("HOLDMIC_HOTKEY_COMBO", "ctrl+alt+r")
	t.Setenv("HOLDMIC_AUDIO_SAMPLE_RATE", "44100")
	t.Setenv("HOLDMIC_ENGINE_BASE_URL", "http://localhost:9001/")
	t.Setenv("HOLDMIC_SESSION_MIN_HOLD", "250ms")
	t.Setenv("HOLDMIC_SESSION_STALE_AFTER", "30s")
	t.Setenv("HOLDMIC_INSERT_TYPE_COMMAND", "xdotool type --file -")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ctrl+alt+r", cfg.Hotkey.Combo)
	assert.Equal(t, 44100, cfg.Audio.SampleRate)
	assert.Equal(t, "http://localhost:9001", cfg.Engine.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Session.MinHold)
	assert.Equal(t, 30*time.Second, cfg.Session.StaleAfter)
	assert.Equal(t, "xdotool type --file -", cfg.Insert.TypeCommand)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("HOLDMIC_AUDIO_SAMPLE_RATE", "-1")
	t.Setenv("HOLDMIC_AUDIO_FRAME_SIZE", "10")
	t.Setenv("HOLDMIC_ENGINE_SAMPLE_RATE", "0")
	t.Setenv("HOLDMIC_SESSION_STALE_AFTER", "0s")
	t.Setenv("HOLDMIC_RULES_PASS_LIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, 1024, cfg.Audio.FrameSize)
	assert.Equal(t, 16000, cfg.Engine.SampleRate)
	assert.Equal(t, 10*time.Second, cfg.Session.StaleAfter)
	assert.Equal(t, 30, cfg.Rules.PassLimit)
}

func TestLoadPrefersConfiguredRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "my.rules")
	require.NoError(t, os.WriteFile(path, []byte("a => b\n"), 0o600))
	t.Setenv("HOLDMIC_RULES_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Rules.Path)
}
