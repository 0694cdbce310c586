package ocr

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/time/rate"

	"grievance/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	cfg := config.Config{
		OCRAPIBaseURL:   "https://ocr.test/v1/",
		OCRAPIToken:     "secret",
		OCRLanguages:    "en, mr",
		OCRRateLimitRPS: 1000,
		OCRTimeoutMs:    1000,
	}
	client := NewClient(cfg)
	client.limiter = rate.NewLimiter(rate.Inf, 1)
	client.httpClient = &http.Client{Transport: rt}
	return client
}

func TestRecognizeTextWithRetry(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/ocr" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("authorization=%q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		if got := r.FormValue("languages"); got != "en,mr" {
			t.Fatalf("languages=%q", got)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Fatal(err)
		}
		blob, _ := io.ReadAll(file)
		if header.Filename != "letter.png" || string(blob) != "PNGDATA" {
			t.Fatalf("upload=%s %q", header.Filename, blob)
		}

		attempt++
		if attempt == 1 {
			return jsonResponse(http.StatusServiceUnavailable, `{"error":"busy"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"lines":[{"text":"No water supply","confidence":0.91},{"text":"  ","confidence":0.1},{"text":"in Shirur","confidence":0.8}]}`), nil
	})

	text, err := client.RecognizeText(context.Background(), "uploads/letter.png", strings.NewReader("PNGDATA"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "No water supply in Shirur" {
		t.Fatalf("text=%q", text)
	}
	if attempt != 2 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestRecognizeClientErrorNotRetried(t *testing.T) {
	attempt := 0
	client := testClient(t, func(r *http.Request) (*http.Response, error) {
		attempt++
		return jsonResponse(http.StatusBadRequest, `unsupported image`), nil
	})

	_, err := client.Recognize(context.Background(), "a.jpg", strings.NewReader("x"))
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("err=%v", err)
	}
	if attempt != 1 {
		t.Fatalf("attempts=%d", attempt)
	}
}

func TestRecognizeNotConfigured(t *testing.T) {
	client := NewClient(config.Config{})
	_, err := client.RecognizeText(context.Background(), "a.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err=%v", err)
	}
}
