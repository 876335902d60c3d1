package app

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/quotevault/quotesync/internal/domain"
	"github.com/quotevault/quotesync/internal/ports"
)

// SyncResult summarizes one reconcile cycle.
type SyncResult struct {
	// CycleID correlates log lines of a single cycle.
	CycleID string `json:"cycle_id"`

	// Pushed is how many local quotes were acknowledged by the remote and
	// flipped to synced this cycle.
	Pushed int `json:"pushed"`

	// Fetched is the size of the remote snapshot, 0 when FetchFailed.
	Fetched int `json:"fetched"`

	// Discarded is how many local quotes lost an id collision to a remote
	// record and were dropped by the merge.
	Discarded int `json:"discarded"`

	// Survivors is the collection size after the cycle.
	Survivors int `json:"survivors"`

	// FetchFailed reports that the remote could not be read; the merge was
	// skipped and the local collection kept, push flag flips included.
	FetchFailed bool `json:"fetch_failed"`
}

// SyncEngine reconciles the local collection with the remote source:
// push unsynced quotes, fetch the remote snapshot, merge with remote
// precedence, persist.
type SyncEngine struct {
	service *QuoteService
	remote  ports.RemoteSource
	exec    *Executor
	logger  *slog.Logger
}

// NewSyncEngine creates a sync engine.
func NewSyncEngine(service *QuoteService, remote ports.RemoteSource, logger *slog.Logger) *SyncEngine {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.SyncEngine"))

	return &SyncEngine{
		service: service,
		remote:  remote,
		exec:    NewExecutor(logger),
		logger:  logger,
	}
}

// pushPhase carries the ids acknowledged by the remote into the fetch step.
type pushPhase struct {
	pushedIDs map[string]struct{}
}

// fetchPhase carries the remote snapshot into the archive step. The merge
// itself happens there, against the collection as it stands at archive time,
// so local mutations landed during push or fetch are never lost.
type fetchPhase struct {
	remote      []domain.Quote
	pushedIDs   map[string]struct{}
	fetchFailed bool
}

// Reconcile runs one sync cycle through the transactional pattern.
//
// Push and fetch failures are expected operating conditions: a failed push
// leaves quotes unsynced for the next cycle, a failed fetch skips the
// merge and surfaces as FetchFailed on the result. Only persistence
// failures return an error.
//
// The archive step re-reads the collection under the service's write lock
// before merging, so a quote added through the API while the cycle was
// suspended at the remote survives the cycle unsynced.
func (e *SyncEngine) Reconcile(ctx context.Context) (SyncResult, error) {
	cycleID := ulid.Make().String()
	logger := e.logger.With(slog.String("cycle_id", cycleID))

	var discarded, survivors int

	op := Operation[string, pushPhase, fetchPhase, SyncResult]{
		Name: "sync.reconcile",

		Perform: func(ctx context.Context, _ string) (pushPhase, error) {
			return e.push(ctx, logger), nil
		},

		Verify: func(ctx context.Context, _ string, performed pushPhase) (fetchPhase, error) {
			return e.fetch(ctx, logger, performed), nil
		},

		Archive: func(ctx context.Context, _ string, verified fetchPhase) error {
			merged, err := e.service.ReplaceWith(ctx, func(current []domain.Quote) []domain.Quote {
				for i := range current {
					if _, pushed := verified.pushedIDs[current[i].ID]; pushed {
						current[i].Synced = true
					}
				}

				if verified.fetchFailed {
					return current
				}

				dropped := domain.Discarded(current, verified.remote)
				for i := range dropped {
					// Known data-loss path: remote precedence drops the local record.
					logger.WarnContext(ctx, "local quote discarded by remote precedence",
						slog.String("id", dropped[i].ID),
						slog.String("category", dropped[i].Category),
					)
				}
				discarded = len(dropped)

				return domain.Merge(current, verified.remote)
			})
			if err != nil {
				return err
			}

			survivors = len(merged)

			return nil
		},

		Respond: func(_ context.Context, cycleID string, verified fetchPhase) (SyncResult, error) {
			return SyncResult{
				CycleID:     cycleID,
				Pushed:      len(verified.pushedIDs),
				Fetched:     len(verified.remote),
				Discarded:   discarded,
				Survivors:   survivors,
				FetchFailed: verified.fetchFailed,
			}, nil
		},
	}

	result, err := Execute(ctx, e.exec, op, cycleID)
	if err != nil {
		return SyncResult{CycleID: cycleID}, err
	}

	logger.InfoContext(ctx, "reconcile cycle completed",
		slog.Int("pushed", result.Pushed),
		slog.Int("fetched", result.Fetched),
		slog.Int("discarded", result.Discarded),
		slog.Int("survivors", result.Survivors),
		slog.Bool("fetch_failed", result.FetchFailed),
	)

	return result, nil
}

// push sends unsynced quotes to the remote, best effort. On success it
// returns the acknowledged ids so the archive step can flip their synced
// flags; on failure it returns nothing and the next cycle retries.
func (e *SyncEngine) push(ctx context.Context, logger *slog.Logger) pushPhase {
	unsynced, _ := domain.Partition(e.service.Snapshot())
	if len(unsynced) == 0 {
		return pushPhase{}
	}

	if err := e.remote.Push(ctx, unsynced); err != nil {
		logger.WarnContext(ctx, "push failed, quotes stay unsynced",
			slog.Int("unsynced", len(unsynced)),
			slog.Any("error", err),
		)

		return pushPhase{}
	}

	ids := make(map[string]struct{}, len(unsynced))
	for i := range unsynced {
		ids[unsynced[i].ID] = struct{}{}
	}

	return pushPhase{pushedIDs: ids}
}

// fetch reads the remote snapshot. A fetch failure is reported on the
// phase, never as an error; the archive step then keeps the local
// collection apart from the push flag flips.
func (e *SyncEngine) fetch(ctx context.Context, logger *slog.Logger, performed pushPhase) fetchPhase {
	remote, err := e.remote.Fetch(ctx)
	if err != nil {
		logger.WarnContext(ctx, "fetch failed, keeping local collection",
			slog.Any("error", err),
		)

		return fetchPhase{pushedIDs: performed.pushedIDs, fetchFailed: true}
	}

	return fetchPhase{remote: remote, pushedIDs: performed.pushedIDs}
}
