// Package ocr extracts complaint text from photographed complaint letters
// through an HTTP OCR service.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"grievance/internal/config"
)

const maxAttempts = 3

// ErrNotConfigured is returned when OCR_API_BASE_URL is empty.
var ErrNotConfigured = errors.New("ocr: OCR_API_BASE_URL is not set")

type Client struct {
	baseURL    string
	token      string
	languages  []string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Line is one recognized line of text.
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type ocrResponse struct {
	Lines []Line `json:"lines"`
	Error string `json:"error"`
}

func NewClient(cfg config.Config) *Client {
	rps := cfg.OCRRateLimitRPS
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.OCRAPIBaseURL, "/"),
		token:      cfg.OCRAPIToken,
		languages:  cfg.Languages(),
		httpClient: &http.Client{Timeout: time.Duration(cfg.OCRTimeoutMs) * time.Millisecond},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// RecognizeText returns every recognized line joined by single spaces.
func (c *Client) RecognizeText(ctx context.Context, filename string, r io.Reader) (string, error) {
	lines, err := c.Recognize(ctx, filename, r)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		if t := strings.TrimSpace(l.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

// Recognize uploads one image and returns the recognized lines.
func (c *Client) Recognize(ctx context.Context, filename string, r io.Reader) ([]Line, error) {
	if c.baseURL == "" {
		return nil, ErrNotConfigured
	}
	image, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ocr: read image: %w", err)
	}
	body, contentType, err := c.encode(filename, image)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		payload, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < maxAttempts {
				lastErr = fmt.Errorf("ocr status %d", resp.StatusCode)
				if err := sleepBackoff(ctx, attempt); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("ocr api error: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(payload)))
		}

		var out ocrResponse
		if err := json.Unmarshal(payload, &out); err != nil {
			return nil, fmt.Errorf("ocr: decode response: %w", err)
		}
		if out.Error != "" {
			return nil, fmt.Errorf("ocr api unsuccessful: %s", out.Error)
		}
		return out.Lines, nil
	}

	if lastErr == nil {
		lastErr = errors.New("ocr request failed")
	}
	return nil, lastErr
}

func (c *Client) encode(filename string, image []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", err
	}
	if len(c.languages) > 0 {
		if err := w.WriteField("languages", strings.Join(c.languages, ",")); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := time.Duration(250*(1<<(attempt-1))+rand.Intn(100)) * time.Millisecond
	t := time.NewTimer(backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
