package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores runtime configuration for the capture controller.
type Config struct {
	Hotkey  HotkeyConfig
	Audio   AudioConfig
	Engine  EngineConfig
	Insert  InsertConfig
	Rules   RulesConfig
	Session SessionConfig
}

type HotkeyConfig struct {
	Combo string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	FrameSize       int
}

type EngineConfig struct {
	BaseURL    string
	Model      string
	Language   string
	SampleRate int
	Timeout    time.Duration
	RetryCount int
}

type InsertConfig struct {
	TypeCommand      string
	ClipboardCommand string
	Timeout          time.Duration
}

type RulesConfig struct {
	Path      string
	PassLimit int
}

type SessionConfig struct {
	MinHold          time.Duration
	StaleAfter       time.Duration
	TranscribeWithin time.Duration
	CompletionLinger time.Duration
}

// Load resolves configuration from HOLDMIC_* environment variables
// with sensible defaults for a Linux desktop setup.
func Load() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	v := viper.New()
	v.SetEnvPrefix("HOLDMIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, home)

	cfg := Config{
		Hotkey: HotkeyConfig{
			Combo: strings.TrimSpace(v.GetString("hotkey.combo")),
		},
		Audio: AudioConfig{
			RecorderCommand: v.GetString("audio.recorder_command"),
			InputFormat:     v.GetString("audio.input_format"),
			InputDevice:     v.GetString("audio.input_device"),
			SampleRate:      v.GetInt("audio.sample_rate"),
			Channels:        v.GetInt("audio.channels"),
			FrameSize:       v.GetInt("audio.frame_size"),
		},
		Engine: EngineConfig{
			BaseURL:    strings.TrimRight(v.GetString("engine.base_url"), "/"),
			Model:      v.GetString("engine.model"),
			Language:   strings.TrimSpace(v.GetString("engine.language")),
			SampleRate: v.GetInt("engine.sample_rate"),
			Timeout:    v.GetDuration("engine.timeout"),
			RetryCount: v.GetInt("engine.retry_count"),
		},
		Insert: InsertConfig{
			TypeCommand:      v.GetString("insert.type_command"),
			ClipboardCommand: v.GetString("insert.clipboard_command"),
			Timeout:          v.GetDuration("insert.timeout"),
		},
		Rules: RulesConfig{
			Path:      resolveRulesPath(v.GetString("rules.file"), home),
			PassLimit: v.GetInt("rules.pass_limit"),
		},
		Session: SessionConfig{
			MinHold:          v.GetDuration("session.min_hold"),
			StaleAfter:       v.GetDuration("session.stale_after"),
			TranscribeWithin: v.GetDuration("session.transcribe_within"),
			CompletionLinger: v.GetDuration("session.completion_linger"),
		},
	}

	if cfg.Hotkey.Combo == "" {
		cfg.Hotkey.Combo = "ctrl+shift+space"
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 48000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.FrameSize < 256 {
		cfg.Audio.FrameSize = 1024
	}
	if cfg.Engine.SampleRate <= 0 {
		cfg.Engine.SampleRate = 16000
	}
	if cfg.Engine.Timeout <= 0 {
		cfg.Engine.Timeout = 30 * time.Second
	}
	if cfg.Rules.PassLimit <= 0 {
		cfg.Rules.PassLimit = 30
	}
	if cfg.Session.MinHold < 0 {
		cfg.Session.MinHold = 0
	}
	if cfg.Session.StaleAfter <= 0 {
		cfg.Session.StaleAfter = 10 * time.Second
	}
	if cfg.Session.TranscribeWithin <= 0 {
		cfg.Session.TranscribeWithin = 10 * time.Second
	}
	if cfg.Session.CompletionLinger < 0 {
		cfg.Session.CompletionLinger = 0
	}
	if cfg.Insert.Timeout <= 0 {
		cfg.Insert.Timeout = 5 * time.Second
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("hotkey.combo", "ctrl+shift+space")

	v.SetDefault("audio.recorder_command", "ffmpeg")
	v.SetDefault("audio.input_format", "pulse")
	v.SetDefault("audio.input_device", "default")
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.frame_size", 1024)

	v.SetDefault("engine.base_url", "http://127.0.0.1:8080")
	v.SetDefault("engine.model", "")
	v.SetDefault("engine.language", "")
	v.SetDefault("engine.sample_rate", 16000)
	v.SetDefault("engine.timeout", 30*time.Second)
	v.SetDefault("engine.retry_count", 0)

	v.SetDefault("insert.type_command", "wtype -")
	v.SetDefault("insert.clipboard_command", "wl-copy")
	v.SetDefault("insert.timeout", 5*time.Second)

	v.SetDefault("rules.file", "")
	v.SetDefault("rules.pass_limit", 30)

	v.SetDefault("session.min_hold", 150*time.Millisecond)
	v.SetDefault("session.stale_after", 10*time.Second)
	v.SetDefault("session.transcribe_within", 10*time.Second)
	v.SetDefault("session.completion_linger", 1200*time.Millisecond)
}

func resolveRulesPath(configured string, home string) string {
	configured = strings.TrimSpace(configured)
	if configured != "" {
		return configured
	}
	return firstExisting(
		filepath.Join(home, ".config", "holdmic", "corrections.rules"),
		filepath.Join(home, ".config", "hypr", "whisper-substitutions.rules"),
	)
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
