// Package connectors pulls complaint emails from a mailbox provider into the
// raw mail directory and the emails table.
package connectors

import (
	"context"

	"grievance/internal"
)

type MailConnector interface {
	FetchInbox(ctx context.Context, label string, max int) ([]internal.FetchedMailMessage, error)
}
