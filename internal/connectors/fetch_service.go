package connectors

import (
	"context"
	"log/slog"

	"grievance/internal/storage"
)

type FetchService struct {
	connector MailConnector
	store     *MailStoreService
	log       *slog.Logger
}

type FetchResult struct {
	Fetched int
	Stored  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector, log *slog.Logger) *FetchService {
	if log == nil {
		log = slog.Default()
	}
	return &FetchService{
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
		log:       log,
	}
}

// FetchAndStore pulls up to max messages from label. Stored counts only
// messages that were new.
func (s *FetchService) FetchAndStore(ctx context.Context, label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(ctx, label, max)
	if err != nil {
		return FetchResult{}, err
	}

	stored := 0
	for _, msg := range messages {
		row, isNew, err := s.store.Store(msg)
		if err != nil {
			return FetchResult{}, err
		}
		if isNew {
			stored++
			s.log.Debug("mail stored", "emailId", row.ID, "provider", row.Provider, "messageId", row.MessageID)
		}
	}

	return FetchResult{Fetched: len(messages), Stored: stored}, nil
}
