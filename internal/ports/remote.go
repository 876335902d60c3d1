package ports

import (
	"context"

	"github.com/quotevault/quotesync/internal/domain"
)

// RemoteSource is the read-mostly remote collaborator the sync engine
// reconciles against. Adapters translate the remote wire format to domain
// quotes; raw remote ids never cross this boundary.
type RemoteSource interface {
	// Fetch retrieves the current remote collection. Returned quotes are
	// always Synced=true and carry remote-prefixed ids.
	// Returns domain.ErrUnavailable if the source is unreachable or answers
	// with a non-success status; implementations never panic or raise fatal
	// errors past this boundary.
	Fetch(ctx context.Context) ([]domain.Quote, error)

	// Push writes local unsynced quotes to the remote write-back endpoint,
	// best effort. A nil return means the remote acknowledged the batch.
	// Returns domain.ErrUnavailable on any transport or status failure;
	// callers retry on the next cycle.
	Push(ctx context.Context, quotes []domain.Quote) error
}
