package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"grievance/internal"
	"grievance/internal/intake"
	"grievance/internal/storage"
	"grievance/internal/util"
)

// Email statuses.
const (
	StatusFetched   = "fetched"
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

type Submitter interface {
	Submit(ctx context.Context, sub intake.Submission) (intake.Result, error)
}

type ProcessingService struct {
	db     *storage.DB
	intake Submitter
	log    *slog.Logger
}

func NewProcessingService(db *storage.DB, submitter Submitter, log *slog.Logger) *ProcessingService {
	if log == nil {
		log = slog.Default()
	}
	return &ProcessingService{db: db, intake: submitter, log: log}
}

type ProcessResult struct {
	EmailID     int
	Status      string
	ComplaintID int64
	Department  string
}

func (s *ProcessingService) ProcessByProviderMessageID(ctx context.Context, provider, messageID string) (ProcessResult, error) {
	email, err := s.db.MustEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessEmail(ctx, email)
}

// ProcessPending processes fetched emails, optionally for one provider, and
// returns how many were handled and how many became complaints. A failing
// email is marked failed and does not stop the batch.
func (s *ProcessingService) ProcessPending(ctx context.Context, limit int, provider string) (int, int, error) {
	pending, err := s.db.ListEmailsByStatus(StatusFetched, provider, limit)
	if err != nil {
		return 0, 0, err
	}
	processedEmails := 0
	complaints := 0
	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return processedEmails, complaints, err
		}
		res, err := s.ProcessEmail(ctx, email)
		if err != nil {
			s.log.Error("mail processing failed", "emailId", email.ID, "messageId", email.MessageID, "err", err)
			if uerr := s.db.UpdateEmailStatus(email.ID, StatusFailed); uerr != nil {
				return processedEmails, complaints, uerr
			}
			continue
		}
		processedEmails++
		if res.Status == StatusProcessed {
			complaints++
		}
	}
	return processedEmails, complaints, nil
}

// ProcessEmail turns one stored email into at most one complaint.
// Reprocessing replaces the complaint created by the previous run once the
// new one is stored; if intake fails the previous complaint stays.
func (s *ProcessingService) ProcessEmail(ctx context.Context, email internal.EmailRow) (ProcessResult, error) {
	start := time.Now()
	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	mc, err := ExtractComplaintFromEmailRaw(raw)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("parse email %d: %w", email.ID, err)
	}
	if mc.Subject == "" {
		mc.Subject = email.Subject
	}
	extractMs := float64(time.Since(start).Milliseconds())

	emailID := email.ID
	detect := DetectComplaint(mc)
	if !detect.IsComplaint {
		if err := s.db.DeleteComplaintsByEmail(email.ID); err != nil {
			return ProcessResult{}, err
		}
		if err := s.db.UpdateEmailStatus(email.ID, StatusSkipped); err != nil {
			return ProcessResult{}, err
		}
		s.log.Info("mail skipped", "emailId", email.ID, "reason", detect.Reason)
		_ = s.db.InsertRun(uuid.NewString(), "mail", &emailID,
			map[string]float64{"extractMs": extractMs, "totalMs": float64(time.Since(start).Milliseconds())},
			map[string]int{"complaints": 0, "attachments": len(mc.AttachmentNames)})
		return ProcessResult{EmailID: email.ID, Status: StatusSkipped}, nil
	}

	senderName := util.FirstNonEmpty(mc.FullName, mc.FromName, mc.FromAddress, email.Sender)
	user, err := s.db.GetOrCreateUserByEmail(senderName, util.FirstNonEmpty(mc.FromAddress, email.Sender))
	if err != nil {
		return ProcessResult{}, err
	}
	userID := user.ID
	previous, err := s.db.CountComplaintsByEmail(email.ID)
	if err != nil {
		return ProcessResult{}, err
	}

	res, err := s.intake.Submit(ctx, intake.Submission{
		UserID:   &userID,
		EmailID:  &emailID,
		FullName: mc.FullName,
		Mobile:   mc.Mobile,
		Village:  mc.Village,
		Pincode:  mc.Pincode,
		Aadhar:   mc.Aadhar,
		Text:     mc.Text,
		Image:    mc.Image,
		Audio:    mc.Audio,
		Source:   internal.SourceEmail,
		// the flat CSV already holds a row for this email
		SkipExport: previous > 0,
	})
	if err != nil {
		return ProcessResult{}, err
	}
	if err := s.db.DeleteComplaintsByEmailExcept(email.ID, res.Complaint.ID); err != nil {
		return ProcessResult{}, err
	}

	if err := s.db.UpdateEmailStatus(email.ID, StatusProcessed); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(uuid.NewString(), "mail", &emailID,
		map[string]float64{"extractMs": extractMs, "totalMs": float64(time.Since(start).Milliseconds())},
		map[string]int{"complaints": 1, "attachments": len(mc.AttachmentNames)})
	s.log.Info("mail processed", "emailId", email.ID, "complaintId", res.Complaint.ID,
		"department", res.Complaint.Department, "score", detect.Score)

	return ProcessResult{
		EmailID:     email.ID,
		Status:      StatusProcessed,
		ComplaintID: res.Complaint.ID,
		Department:  res.Complaint.Department,
	}, nil
}
