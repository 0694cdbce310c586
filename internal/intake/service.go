// Package intake turns a citizen submission (typed text, a photographed
// letter or a voice recording) into a stored, classified complaint.
package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"grievance/internal"
	"grievance/internal/normalize"
)

// NoTextMessage is stored when no text could be obtained from a submission.
const NoTextMessage = "No complaint text provided."

// DepartmentUnknown is assigned to complaints without text.
const DepartmentUnknown = "Unknown"

const timestampLayout = "2006-01-02 15:04:05"

type TextRecognizer interface {
	RecognizeText(ctx context.Context, filename string, r io.Reader) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, filename string, r io.Reader) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

type Store interface {
	InsertComplaint(c internal.Complaint) (int64, error)
}

// Attachment is an uploaded file kept in memory until it is saved.
type Attachment struct {
	Name string
	Data []byte
}

type Submission struct {
	UserID   *int64
	EmailID  *int
	FullName string
	Mobile   string
	Village  string
	Pincode  string
	Aadhar   string
	Text     string
	Image    *Attachment
	Audio    *Attachment
	// Source overrides the source derived from which input was used.
	Source internal.ComplaintSource
	// SkipExport stores the complaint without appending it to the CSV export.
	SkipExport bool
}

type Result struct {
	Complaint internal.Complaint
	// SavedPath is where the image or recording was written, if any.
	SavedPath string
}

type Service struct {
	Store        Store
	Classifier   Classifier
	OCR          TextRecognizer
	Speech       Transcriber
	UploadDir    string
	RecordingDir string
	Export       *CSVExport
	Logger       *slog.Logger

	now func() time.Time
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Submit extracts text (typed text first, then image, then audio),
// classifies it, stores the complaint and appends it to the CSV export.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	if s.Store == nil || s.Classifier == nil {
		return Result{}, errors.New("intake: store and classifier are required")
	}
	log := s.logger()

	var res Result
	text := strings.TrimSpace(sub.Text)
	source := internal.SourceWebText

	switch {
	case text != "":
	case sub.Image != nil && len(sub.Image.Data) > 0:
		source = internal.SourceWebImage
		path, err := saveAttachment(s.UploadDir, sub.Image)
		if err != nil {
			return Result{}, fmt.Errorf("intake: save image: %w", err)
		}
		res.SavedPath = path
		if s.OCR == nil {
			log.Warn("image submitted but no OCR backend configured", "path", path)
			break
		}
		text, err = s.OCR.RecognizeText(ctx, path, bytes.NewReader(sub.Image.Data))
		if err != nil {
			return Result{}, fmt.Errorf("intake: ocr: %w", err)
		}
	case sub.Audio != nil && len(sub.Audio.Data) > 0:
		source = internal.SourceWebAudio
		path, err := saveAttachment(s.RecordingDir, sub.Audio)
		if err != nil {
			return Result{}, fmt.Errorf("intake: save recording: %w", err)
		}
		res.SavedPath = path
		if s.Speech == nil {
			log.Warn("recording submitted but no transcriber configured", "path", path)
			break
		}
		text, err = s.Speech.Transcribe(ctx, path, bytes.NewReader(sub.Audio.Data))
		if err != nil {
			return Result{}, fmt.Errorf("intake: transcribe: %w", err)
		}
	}
	text = strings.TrimSpace(text)
	if sub.Source != "" {
		source = sub.Source
	}

	department := DepartmentUnknown
	standardized := normalize.LabelUnknown
	if text == "" {
		text = NoTextMessage
	} else {
		dept, err := s.Classifier.Classify(ctx, text)
		if err != nil {
			return Result{}, fmt.Errorf("intake: classify: %w", err)
		}
		department = dept
		standardized = normalize.Standardize(normalize.CleanText(text))
	}

	c := internal.Complaint{
		UserID:        sub.UserID,
		EmailID:       sub.EmailID,
		FullName:      strings.TrimSpace(sub.FullName),
		Village:       strings.TrimSpace(sub.Village),
		Pincode:       strings.TrimSpace(sub.Pincode),
		Aadhar:        strings.TrimSpace(sub.Aadhar),
		ComplaintText: text,
		Department:    department,
		Standardized:  standardized,
		Source:        source,
		CreatedAt:     s.clock().Format(timestampLayout),
	}
	id, err := s.Store.InsertComplaint(c)
	if err != nil {
		return Result{}, fmt.Errorf("intake: store complaint: %w", err)
	}
	c.ID = id

	if s.Export != nil && !sub.SkipExport {
		if err := s.Export.Append(c, sub.Mobile); err != nil {
			return Result{}, fmt.Errorf("intake: csv export: %w", err)
		}
	}

	log.Info("complaint stored", "id", id, "source", source, "department", department, "standardized", standardized)
	res.Complaint = c
	return res, nil
}

func saveAttachment(dir string, a *Attachment) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Base(strings.TrimSpace(a.Name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	path := filepath.Join(dir, uuid.NewString()+"_"+name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
