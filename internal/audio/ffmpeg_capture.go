package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"holdmic/internal/domain"
	"holdmic/internal/logging"
	"holdmic/internal/ports"
)

// FFMPEGCapture streams microphone PCM audio using ffmpeg at the device's
// native sample rate. No rate conversion happens here; the session pipeline
// resamples the whole recording once at session end.
type FFMPEGCapture struct {
	command string
}

func NewFFMPEGCapture(command string) *FFMPEGCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFMPEGCapture{command: command}
}

func (c *FFMPEGCapture) Start(ctx context.Context, cfg ports.CaptureConfig) (ports.CaptureSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = 1024
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// Fail the session before Recording is ever entered when the device is
	// unavailable and ffmpeg bails out immediately.
	select {
	case err := <-waitErr:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, trimSpaceSafe(stderr.String()))
		}
		return nil, errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	session := &ffmpegSession{
		cfg:     cfg,
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
		frames:  make(chan domain.RawAudioChunk, 64),
	}
	go session.readFrames()
	return session, nil
}

type ffmpegSession struct {
	cfg    ports.CaptureConfig
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	frames chan domain.RawAudioChunk

	stopOnce sync.Once
	stopErr  error
}

func (s *ffmpegSession) Frames() <-chan domain.RawAudioChunk {
	return s.frames
}

// readFrames slices the s16le byte stream into fixed-size sample frames and
// hands them off on the bounded frames channel. It must never block on a
// slow consumer; overflow frames are dropped and logged.
func (s *ffmpegSession) readFrames() {
	defer close(s.frames)

	frameBytes := s.cfg.FrameSize * s.cfg.Channels * 2
	buf := make([]byte, frameBytes)
	filled := 0
	for {
		n, err := s.stdout.Read(buf[filled:])
		if n > 0 {
			filled += n
			if filled == frameBytes {
				s.deliver(buf)
				filled = 0
			}
		}
		if err != nil {
			if filled > 0 {
				s.deliver(buf[:filled])
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				logging.Warnw("capture stream ended with error", "error", err)
			}
			return
		}
	}
}

func (s *ffmpegSession) deliver(raw []byte) {
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	chunk := domain.RawAudioChunk{
		Samples:    samples,
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
		CapturedAt: time.Now(),
	}
	select {
	case s.frames <- chunk:
	default:
		logging.Warnw("frame channel full, dropping capture frame", "samples", len(samples))
	}
}

func (s *ffmpegSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimSpaceSafe(s.stderr.String()))
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimSpaceSafe(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}
