package whisper

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"holdmic/internal/domain"
)

func testBuffer(n int) domain.ResampledBuffer {
	return domain.ResampledBuffer{
		Samples:    make([]int16, n),
		SampleRate: 16000,
		Duration:   time.Duration(n) * time.Second / 16000,
	}
}

func TestTranscribePostsWAVAndParsesResult(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotLanguage = r.URL.Query().Get("language")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"text": "  testing one two  ", "confidence": 0.87})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	result, err := client.Transcribe(context.Background(), testBuffer(1600), "en")
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}

	if result.Text != "testing one two" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if result.Confidence != 0.87 {
		t.Fatalf("unexpected confidence: %v", result.Confidence)
	}
	if result.Elapsed <= 0 {
		t.Fatalf("elapsed not measured")
	}
	if gotLanguage != "en" {
		t.Fatalf("language tag not forwarded, got %q", gotLanguage)
	}

	if string(gotBody[:4]) != "RIFF" || string(gotBody[8:12]) != "WAVE" {
		t.Fatalf("body is not a WAV container: %q", gotBody[:12])
	}
	if rate := binary.LittleEndian.Uint32(gotBody[24:28]); rate != 16000 {
		t.Fatalf("unexpected WAV sample rate: %d", rate)
	}
	if dataLen := binary.LittleEndian.Uint32(gotBody[40:44]); dataLen != 3200 {
		t.Fatalf("unexpected WAV data length: %d", dataLen)
	}
}

func TestTranscribeModelNotLoaded(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not loaded"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), testBuffer(160), "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected engine-unavailable error, got %v", err)
	}
}

func TestTranscribeInferenceFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "decode failed"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), testBuffer(160), "")
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected inference error, got %v", err)
	}
}

func TestTranscribeConnectionRefused(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := client.Transcribe(context.Background(), testBuffer(160), "")
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected engine-unavailable error, got %v", err)
	}
}

func TestTranscribeEmptyBufferRejected(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Transcribe(context.Background(), domain.ResampledBuffer{SampleRate: 16000}, "")
	if !errors.Is(err, ErrInference) {
		t.Fatalf("expected inference error for empty buffer, got %v", err)
	}
}

func TestClampConfidence(t *testing.T) {
	t.Parallel()

	if got := clampConfidence(1.5); got != 1 {
		t.Fatalf("expected clamp to 1, got %v", got)
	}
	if got := clampConfidence(-0.2); got != 0 {
		t.Fatalf("expected clamp to 0, got %v", got)
	}
}

