package whisper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"holdmic/internal/domain"
)

var (
	// ErrEngineUnavailable covers connection failures and a server that has
	// no model loaded yet.
	ErrEngineUnavailable = errors.New("transcription engine unavailable")
	ErrInference         = errors.New("transcription inference failed")
)

// Config controls the whisper-server HTTP endpoint.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	RetryCount int
}

// Client implements ports.Transcriber against a whisper-compatible HTTP
// server: WAV in, JSON text out.
type Client struct {
	cfg  Config
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://127.0.0.1:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond)

	return &Client{cfg: cfg, http: httpClient}
}

type inferenceResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Error      string  `json:"error"`
}

// Transcribe wraps the PCM buffer in a WAV container and posts it to the
// engine. Audio is sent exactly once per session; failed sessions are never
// retried with the same audio by the caller.
func (c *Client) Transcribe(ctx context.Context, buf domain.ResampledBuffer, language string) (domain.Transcription, error) {
	if len(buf.Samples) == 0 {
		return domain.Transcription{}, fmt.Errorf("%w: empty audio buffer", ErrInference)
	}

	wav := buildWAV(buf.Samples, buf.SampleRate, 1)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "audio/wav").
		SetBody(wav).
		SetResult(&inferenceResponse{}).
		SetError(&inferenceResponse{})
	if language != "" {
		req.SetQueryParam("language", language)
	}
	if c.cfg.Model != "" {
		req.SetQueryParam("model", c.cfg.Model)
	}

	started := time.Now()
	resp, err := req.Post("/inference")
	elapsed := time.Since(started)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	if resp.IsError() {
		detail := ""
		if body, ok := resp.Error().(*inferenceResponse); ok && body.Error != "" {
			detail = body.Error
		}
		if resp.StatusCode() == 503 {
			return domain.Transcription{}, fmt.Errorf("%w: model not loaded: %s", ErrEngineUnavailable, detail)
		}
		return domain.Transcription{}, fmt.Errorf("%w: status %d: %s", ErrInference, resp.StatusCode(), detail)
	}

	out, ok := resp.Result().(*inferenceResponse)
	if !ok {
		return domain.Transcription{}, fmt.Errorf("%w: malformed response", ErrInference)
	}

	return domain.Transcription{
		Text:       strings.TrimSpace(out.Text),
		Confidence: clampConfidence(out.Confidence),
		Elapsed:    elapsed,
	}, nil
}

func clampConfidence(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
