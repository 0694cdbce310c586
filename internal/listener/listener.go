// Package listener polls a mailbox and turns new emails into complaints.
package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"grievance/internal/config"
	"grievance/internal/connectors"
	gmailconnector "grievance/internal/connectors/gmail"
	imapconnector "grievance/internal/connectors/imap"
	"grievance/internal/pipeline"
	"grievance/internal/storage"
)

const (
	metaLastCycle  = "listener.lastCycleAt"
	metaLastExport = "listener.lastExportPath"
)

type Service struct {
	db        *storage.DB
	cfg       config.Config
	connector connectors.MailConnector
	processor *pipeline.ProcessingService
	log       *slog.Logger
}

type CycleResult struct {
	Fetched    int
	Stored     int
	Processed  int
	Complaints int
	ExportPath string
}

func NewService(db *storage.DB, cfg config.Config, connector connectors.MailConnector, processor *pipeline.ProcessingService, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{db: db, cfg: cfg, connector: connector, processor: processor, log: log}
}

// Run executes cycles until ctx is cancelled. Cycle errors are logged and
// retried on the next tick.
func (s *Service) Run(ctx context.Context) error {
	interval := time.Duration(s.cfg.MailListenerIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	s.log.Info("mail listener started", "provider", s.Provider(), "label", s.cfg.MailListenerLabel, "interval", interval)

	for {
		if _, err := s.RunCycle(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("listener cycle failed", "err", err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("mail listener stopped")
			return nil
		case <-timer.C:
		}
	}
}

func (s *Service) Provider() string {
	return strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
}

func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	var res CycleResult
	provider := s.Provider()

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, s.connector, s.log)
	fetched, err := fetchService.FetchAndStore(ctx, s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}
	res.Fetched, res.Stored = fetched.Fetched, fetched.Stored

	res.Processed, res.Complaints, err = s.processor.ProcessPending(ctx, s.cfg.MailListenerProcessBatch, provider)
	if err != nil {
		return res, fmt.Errorf("process: %w", err)
	}

	if s.cfg.MailListenerAutoExport && res.Complaints > 0 {
		path, err := s.exportComplaints()
		if err != nil {
			return res, fmt.Errorf("export: %w", err)
		}
		res.ExportPath = path
	}

	if err := s.db.SetMetadata(metaLastCycle, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return res, err
	}
	s.log.Info("listener cycle done", "provider", provider, "fetched", res.Fetched, "stored", res.Stored,
		"processed", res.Processed, "complaints", res.Complaints)
	return res, nil
}

func (s *Service) exportComplaints() (string, error) {
	rows, err := s.db.ListComplaints()
	if err != nil {
		return "", err
	}
	outputPath := filepath.Join(s.cfg.OutputDir, "listener", "complaints.xlsx")
	if err := pipeline.ExportComplaintsToXLSX(rows, outputPath); err != nil {
		return "", err
	}
	if err := s.db.SetMetadata(metaLastExport, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

// MakeConnector builds the connector named by MAIL_LISTENER_PROVIDER.
func MakeConnector(ctx context.Context, cfg config.Config) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MailListenerProvider)) {
	case gmailconnector.Provider:
		return gmailconnector.NewConnector(ctx, cfg)
	case imapconnector.Provider:
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", cfg.MailListenerProvider)
	}
}
