// Package app contains application services orchestrating domain logic:
// the quote collection owner, the sync engine, and its scheduler.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/quotevault/quotesync/internal/domain"
	"github.com/quotevault/quotesync/internal/ports"
)

// lastViewedKey is the session store key remembering the last random pick.
const lastViewedKey = "last_viewed_quote"

// QuoteService owns the in-memory quote collection. Every mutation
// replaces the slice under the mutex and persists the whole blob before
// returning, so the store always holds the latest accepted state.
type QuoteService struct {
	mu     sync.RWMutex
	quotes []domain.Quote
	filter string

	store     ports.KeyValueStore
	session   ports.SessionStore
	quotesKey string
	filterKey string
	logger    *slog.Logger

	// pick is overridable for deterministic tests.
	pick func(n int) int
}

// QuoteServiceConfig wires the service's collaborators.
type QuoteServiceConfig struct {
	Store     ports.KeyValueStore
	Session   ports.SessionStore
	QuotesKey string
	FilterKey string
	Logger    *slog.Logger
}

// NewQuoteService creates a quote service with an empty collection.
// Call Load before serving to warm it from the store.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteService{
		store:     cfg.Store,
		session:   cfg.Session,
		quotesKey: cfg.QuotesKey,
		filterKey: cfg.FilterKey,
		logger:    logger.With(slog.String("component", "app.QuoteService")),
		pick:      rand.IntN,
	}
}

// Load warms the collection and the saved category filter from the store.
// Missing keys mean an empty collection and no filter; both reads run
// concurrently.
func (s *QuoteService) Load(ctx context.Context) error {
	blob, filter, err := Parallel2(ctx,
		func(ctx context.Context) ([]byte, error) {
			b, err := s.store.Get(ctx, s.quotesKey)
			if domain.IsNotFound(err) {
				return nil, nil
			}

			return b, err
		},
		func(ctx context.Context) (string, error) {
			value, err := s.store.Get(ctx, s.filterKey)
			if domain.IsNotFound(err) {
				return "", nil
			}

			return string(value), err
		},
	)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	quotes := []domain.Quote{}
	if len(blob) > 0 {
		if err := json.Unmarshal(blob, &quotes); err != nil {
			return fmt.Errorf("decoding stored collection: %w", err)
		}
	}

	s.mu.Lock()
	s.quotes = quotes
	s.filter = filter
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "collection loaded",
		slog.Int("quotes", len(quotes)),
		slog.String("filter", filter),
	)

	return nil
}

// Add validates and appends a new local quote, persisting before returning.
func (s *QuoteService) Add(ctx context.Context, text, category string) (*domain.Quote, error) {
	quote, err := domain.NewQuote(text, category)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(domain.CloneAll(s.quotes), *quote)
	if err := s.persistLocked(ctx, next); err != nil {
		return nil, err
	}

	s.quotes = next

	return quote, nil
}

// importQuote is the accepted import wire shape. ID and Synced are
// optional; missing ids are generated, missing synced defaults to false.
type importQuote struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
	Synced   bool   `json:"synced"`
}

// Import appends quotes decoded from a JSON array in input order. Anything
// that is not a list is ErrMalformedImport; a validation failure or id
// collision rejects the whole batch. The collection is unchanged on any
// error.
func (s *QuoteService) Import(ctx context.Context, r io.Reader) (int, error) {
	var incoming []importQuote

	dec := json.NewDecoder(r)
	if err := dec.Decode(&incoming); err != nil {
		return 0, domain.NewMalformedImportError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(s.quotes)+len(incoming))
	for i := range s.quotes {
		seen[s.quotes[i].ID] = struct{}{}
	}

	next := domain.CloneAll(s.quotes)
	if next == nil {
		next = []domain.Quote{}
	}

	for i := range incoming {
		quote := domain.Quote{
			ID:       strings.TrimSpace(incoming[i].ID),
			Text:     strings.TrimSpace(incoming[i].Text),
			Category: strings.TrimSpace(incoming[i].Category),
			Synced:   incoming[i].Synced,
		}

		if quote.ID == "" {
			quote.ID = uuid.New().String()
		}

		if err := quote.Validate(); err != nil {
			return 0, fmt.Errorf("import item %d: %w", i, err)
		}

		if _, dup := seen[quote.ID]; dup {
			return 0, domain.NewConflictError("quote", fmt.Sprintf("duplicate id %q in import", quote.ID))
		}

		seen[quote.ID] = struct{}{}
		next = append(next, quote)
	}

	if err := s.persistLocked(ctx, next); err != nil {
		return 0, err
	}

	imported := len(next) - len(s.quotes)
	s.quotes = next

	s.logger.InfoContext(ctx, "quotes imported", slog.Int("count", imported))

	return imported, nil
}

// Export returns the full collection as indented JSON.
func (s *QuoteService) Export(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	quotes := domain.CloneAll(s.quotes)
	s.mu.RUnlock()

	if quotes == nil {
		quotes = []domain.Quote{}
	}

	data, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding collection: %w", err)
	}

	return data, nil
}

// List returns a page of quotes in insertion order, optionally filtered by
// category, along with the total number of matches.
func (s *QuoteService) List(_ context.Context, category string, limit, offset int) ([]domain.Quote, int, error) {
	s.mu.RLock()
	matched := domain.FilterByCategory(s.quotes, category)
	s.mu.RUnlock()

	total := len(matched)

	if offset >= total {
		return []domain.Quote{}, total, nil
	}

	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	return matched, total, nil
}

// Random returns a uniformly random quote, optionally restricted to a
// category, and remembers the pick in the session store.
func (s *QuoteService) Random(ctx context.Context, category string) (*domain.Quote, error) {
	s.mu.RLock()
	matched := domain.FilterByCategory(s.quotes, category)
	s.mu.RUnlock()

	if len(matched) == 0 {
		return nil, domain.NewNotFoundError("quote", "")
	}

	quote := matched[s.pick(len(matched))]

	if err := s.session.Set(ctx, lastViewedKey, []byte(quote.ID)); err != nil {
		// Session state is best effort; the pick itself is still valid.
		s.logger.WarnContext(ctx, "failed to remember last viewed quote", slog.Any("error", err))
	}

	return &quote, nil
}

// LastViewed returns the id of the last quote handed out by Random, or
// ErrNotFound when none was viewed this session.
func (s *QuoteService) LastViewed(ctx context.Context) (string, error) {
	id, err := s.session.Get(ctx, lastViewedKey)
	if err != nil {
		return "", err
	}

	return string(id), nil
}

// Categories returns the distinct categories in first-seen order.
func (s *QuoteService) Categories(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.Categories(s.quotes), nil
}

// SetFilter persists the selected category and clears the last viewed
// session entry, since the remembered pick may not match the new filter.
// An empty category clears the filter.
func (s *QuoteService) SetFilter(ctx context.Context, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" {
		if err := s.store.Delete(ctx, s.filterKey); err != nil {
			return fmt.Errorf("clearing filter: %w", err)
		}
	} else {
		if err := s.store.Set(ctx, s.filterKey, []byte(category)); err != nil {
			return fmt.Errorf("saving filter: %w", err)
		}
	}

	s.filter = category

	if err := s.session.Delete(ctx, lastViewedKey); err != nil {
		s.logger.WarnContext(ctx, "failed to clear last viewed quote", slog.Any("error", err))
	}

	return nil
}

// Filter returns the persisted category filter, or "" when none is set.
func (s *QuoteService) Filter(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.filter, nil
}

// Snapshot returns an independent copy of the current collection.
func (s *QuoteService) Snapshot() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return domain.CloneAll(s.quotes)
}

// ReplaceWith transforms the current collection under the write lock and
// persists the result before committing it, returning the committed
// collection. The sync engine's archive step merges through here so the
// reconcile never overwrites a quote added while the cycle was suspended
// at the remote. The transform receives a copy and must return the full
// next collection.
func (s *QuoteService) ReplaceWith(ctx context.Context, transform func(current []domain.Quote) []domain.Quote) ([]domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := transform(domain.CloneAll(s.quotes))
	if err := s.persistLocked(ctx, next); err != nil {
		return nil, err
	}

	s.quotes = next

	return domain.CloneAll(next), nil
}

// Count returns the current collection size.
func (s *QuoteService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.quotes)
}

// persistLocked writes the candidate collection blob. Callers hold the
// write lock and only commit the slice after persistence succeeds.
func (s *QuoteService) persistLocked(ctx context.Context, quotes []domain.Quote) error {
	if quotes == nil {
		quotes = []domain.Quote{}
	}

	blob, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("encoding collection: %w", err)
	}

	if err := s.store.Set(ctx, s.quotesKey, blob); err != nil {
		return fmt.Errorf("persisting collection: %w", err)
	}

	return nil
}
