package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grievance/internal/config"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization=%q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model=%q", got)
		}
		if got := r.FormValue("language"); got != "mr" {
			t.Errorf("language=%q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("file: %v", err)
		} else {
			blob, _ := io.ReadAll(file)
			if header.Filename != "voice.wav" || string(blob) != "RIFF" {
				t.Errorf("upload=%s %q", header.Filename, blob)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"  पाणी पुरवठा बंद आहे  "}`)
	}))
	defer srv.Close()

	tr, err := NewTranscriber(config.Config{
		OpenAIAPIKey:  "sk-test",
		OpenAIBaseURL: srv.URL + "/v1/",
		STTLanguage:   "mr",
	})
	if err != nil {
		t.Fatal(err)
	}

	text, err := tr.Transcribe(context.Background(), "recordings/voice.wav", strings.NewReader("RIFF"))
	if err != nil {
		t.Fatal(err)
	}
	if text != "पाणी पुरवठा बंद आहे" {
		t.Fatalf("text=%q", text)
	}
}

func TestNewTranscriberRequiresKey(t *testing.T) {
	if _, err := NewTranscriber(config.Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err=%v", err)
	}
}
