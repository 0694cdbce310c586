// Package speech turns recorded voice complaints into text.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"grievance/internal/config"
)

// DefaultModel is used when STT_MODEL is empty.
const DefaultModel = "whisper-1"

var ErrNotConfigured = errors.New("speech: OPENAI_API_KEY is not set")

// Transcriber calls an OpenAI-compatible transcription endpoint.
type Transcriber struct {
	client   oai.Client
	model    string
	language string
}

func NewTranscriber(cfg config.Config) (*Transcriber, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, ErrNotConfigured
	}
	model := cfg.STTModel
	if model == "" {
		model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIAPIKey),
		option.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
	}
	if cfg.OpenAIBaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return &Transcriber{
		client:   oai.NewClient(reqOpts...),
		model:    model,
		language: cfg.STTLanguage,
	}, nil
}

// Transcribe uploads one recording and returns the trimmed transcript.
// An empty STT_LANGUAGE leaves detection to the service.
func (t *Transcriber) Transcribe(ctx context.Context, filename string, r io.Reader) (string, error) {
	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(r, filepath.Base(filename), ""),
		Model: oai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = oai.String(t.language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("speech: transcribe %s: %w", filepath.Base(filename), err)
	}
	return strings.TrimSpace(resp.Text), nil
}
