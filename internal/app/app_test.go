package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quotevault/quotesync/internal/domain"
)

// fakeStore is an in-memory ports.KeyValueStore with injectable failures.
type fakeStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string][]byte)}
}

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	value, ok := f.data[key]
	if !ok {
		return nil, domain.NewNotFoundError("key", key)
	}

	return value, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.setErr != nil {
		return f.setErr
	}

	f.data[key] = value

	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.data, key)

	return nil
}

func (f *fakeStore) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.data[key]

	return value, ok
}

// fakeRemote is a controllable ports.RemoteSource.
type fakeRemote struct {
	mu         sync.Mutex
	quotes     []domain.Quote
	fetchErr   error
	pushErr    error
	pushes     [][]domain.Quote
	fetchDelay time.Duration
}

func (f *fakeRemote) Fetch(ctx context.Context) ([]domain.Quote, error) {
	if f.fetchDelay > 0 {
		select {
		case <-time.After(f.fetchDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchErr != nil {
		return nil, f.fetchErr
	}

	return domain.CloneAll(f.quotes), nil
}

func (f *fakeRemote) Push(_ context.Context, quotes []domain.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pushErr != nil {
		return f.pushErr
	}

	f.pushes = append(f.pushes, domain.CloneAll(quotes))

	return nil
}

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.pushes)
}

func newTestService(store, session *fakeStore) *QuoteService {
	return NewQuoteService(QuoteServiceConfig{
		Store:     store,
		Session:   session,
		QuotesKey: "quotes",
		FilterKey: "selected_category",
		Logger:    slog.New(slog.DiscardHandler),
	})
}
