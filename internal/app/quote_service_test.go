package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotevault/quotesync/internal/domain"
)

func TestQuoteService_Add(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeStore())

	quote, err := svc.Add(ctx, "The only way out is through.", "Perseverance")
	require.NoError(t, err)

	assert.NotEmpty(t, quote.ID)
	assert.Equal(t, "The only way out is through.", quote.Text)
	assert.Equal(t, "Perseverance", quote.Category)
	assert.False(t, quote.Synced)
	assert.Equal(t, 1, svc.Count())

	// Mutation persists the whole blob before returning.
	blob, ok := store.get("quotes")
	require.True(t, ok)

	var stored []domain.Quote
	require.NoError(t, json.Unmarshal(blob, &stored))
	require.Len(t, stored, 1)
	assert.Equal(t, quote.ID, stored[0].ID)
}

func TestQuoteService_AddValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	_, err := svc.Add(ctx, "", "Cat")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Add(ctx, "Text", "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, svc.Count(), "failed add must not mutate")
}

func TestQuoteService_AddPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.setErr = errors.New("disk full")
	svc := newTestService(store, newFakeStore())

	_, err := svc.Add(ctx, "Text", "Cat")
	require.Error(t, err)
	assert.Zero(t, svc.Count(), "collection unchanged when persistence fails")
}

func TestQuoteService_ReplaceWith(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeStore())

	_, err := svc.Add(ctx, "Keep me", "Cat")
	require.NoError(t, err)

	merged, err := svc.ReplaceWith(ctx, func(current []domain.Quote) []domain.Quote {
		// The transform sees the live collection, not a stale snapshot.
		require.Len(t, current, 1)

		return append(current, domain.Quote{ID: "server-1", Text: "Remote", Category: "Server-1", Synced: true})
	})
	require.NoError(t, err)

	require.Len(t, merged, 2)
	assert.Equal(t, 2, svc.Count())

	// The committed collection is persisted before ReplaceWith returns.
	blob, ok := store.get("quotes")
	require.True(t, ok)

	var stored []domain.Quote
	require.NoError(t, json.Unmarshal(blob, &stored))
	assert.Len(t, stored, 2)
}

func TestQuoteService_ReplaceWithPersistFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := newTestService(store, newFakeStore())

	_, err := svc.Add(ctx, "Keep me", "Cat")
	require.NoError(t, err)

	store.mu.Lock()
	store.setErr = errors.New("disk full")
	store.mu.Unlock()

	_, err = svc.ReplaceWith(ctx, func([]domain.Quote) []domain.Quote {
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 1, svc.Count(), "collection unchanged when persistence fails")
}

func TestQuoteService_Import(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	count, err := svc.Import(ctx, strings.NewReader(`[
		{"text": "Imported one", "category": "Books"},
		{"id": "fixed-id", "text": "Imported two", "category": "Books", "synced": true}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	quotes, total, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	// Missing id and synced get defaulted; provided values survive.
	assert.NotEmpty(t, quotes[0].ID)
	assert.False(t, quotes[0].Synced)
	assert.Equal(t, "fixed-id", quotes[1].ID)
	assert.True(t, quotes[1].Synced)
	assert.True(t, domain.UniqueIDs(quotes))
}

func TestQuoteService_ImportIntoEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	count, err := svc.Import(ctx, strings.NewReader(`[{"text": "Q", "category": "Cat"}]`))
	require.NoError(t, err)
	require.Equal(t, 1, count)

	quotes, _, err := svc.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "Q", quotes[0].Text)
	assert.Equal(t, "Cat", quotes[0].Category)
	assert.False(t, quotes[0].Synced)
	assert.NotEmpty(t, quotes[0].ID)
}

func TestQuoteService_ImportMalformed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	tests := []struct {
		name  string
		input string
	}{
		{name: "object not list", input: `{"text": "Q"}`},
		{name: "scalar", input: `42`},
		{name: "garbage", input: `not json at all`},
		{name: "empty input", input: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Import(ctx, strings.NewReader(tt.input))
			assert.ErrorIs(t, err, domain.ErrMalformedImport)
			assert.Zero(t, svc.Count())
		})
	}
}

func TestQuoteService_ImportRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	_, err := svc.Import(ctx, strings.NewReader(`[
		{"text": "Valid", "category": "Cat"},
		{"text": "", "category": "Cat"}
	]`))
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, svc.Count(), "partial imports are not applied")
}

func TestQuoteService_ImportDuplicateID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	_, err := svc.Import(ctx, strings.NewReader(`[{"id": "dup", "text": "First", "category": "Cat"}]`))
	require.NoError(t, err)

	_, err = svc.Import(ctx, strings.NewReader(`[{"id": "dup", "text": "Second", "category": "Cat"}]`))
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, svc.Count())
}

func TestQuoteService_Export(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	data, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data), "empty collection exports as empty list")

	_, err = svc.Add(ctx, "Exported", "Cat")
	require.NoError(t, err)

	data, err = svc.Export(ctx)
	require.NoError(t, err)

	var quotes []domain.Quote
	require.NoError(t, json.Unmarshal(data, &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, "Exported", quotes[0].Text)
}

func TestQuoteService_List(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	for _, q := range []struct{ text, cat string }{
		{"One", "A"}, {"Two", "B"}, {"Three", "A"}, {"Four", "A"},
	} {
		_, err := svc.Add(ctx, q.text, q.cat)
		require.NoError(t, err)
	}

	t.Run("insertion order", func(t *testing.T) {
		quotes, total, err := svc.List(ctx, "", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Equal(t, "One", quotes[0].Text)
		assert.Equal(t, "Four", quotes[3].Text)
	})

	t.Run("category filter", func(t *testing.T) {
		quotes, total, err := svc.List(ctx, "A", 0, 0)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Equal(t, "One", quotes[0].Text)
		assert.Equal(t, "Three", quotes[1].Text)
	})

	t.Run("paging", func(t *testing.T) {
		quotes, total, err := svc.List(ctx, "", 2, 1)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		require.Len(t, quotes, 2)
		assert.Equal(t, "Two", quotes[0].Text)
		assert.Equal(t, "Three", quotes[1].Text)
	})

	t.Run("offset past end", func(t *testing.T) {
		quotes, total, err := svc.List(ctx, "", 10, 100)
		require.NoError(t, err)
		assert.Equal(t, 4, total)
		assert.Empty(t, quotes)
	})
}

func TestQuoteService_Random(t *testing.T) {
	ctx := context.Background()
	session := newFakeStore()
	svc := newTestService(newFakeStore(), session)

	_, err := svc.Add(ctx, "Alpha", "A")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "Beta", "B")
	require.NoError(t, err)

	svc.pick = func(int) int { return 1 }

	quote, err := svc.Random(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Beta", quote.Text)

	// The pick is remembered for the session.
	last, err := svc.LastViewed(ctx)
	require.NoError(t, err)
	assert.Equal(t, quote.ID, last)
}

func TestQuoteService_RandomWithCategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	_, err := svc.Add(ctx, "Alpha", "A")
	require.NoError(t, err)
	_, err = svc.Add(ctx, "Beta", "B")
	require.NoError(t, err)

	svc.pick = func(int) int { return 0 }

	quote, err := svc.Random(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "Beta", quote.Text)
}

func TestQuoteService_RandomEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	_, err := svc.Random(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Add(ctx, "Alpha", "A")
	require.NoError(t, err)

	_, err = svc.Random(ctx, "NoSuchCategory")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuoteService_Categories(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeStore(), newFakeStore())

	for _, q := range []struct{ text, cat string }{
		{"One", "B"}, {"Two", "A"}, {"Three", "B"},
	} {
		_, err := svc.Add(ctx, q.text, q.cat)
		require.NoError(t, err)
	}

	categories, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, categories, "first-seen order")
}

func TestQuoteService_Filter(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	session := newFakeStore()
	svc := newTestService(store, session)

	filter, err := svc.Filter(ctx)
	require.NoError(t, err)
	assert.Empty(t, filter)

	_, err = svc.Add(ctx, "Alpha", "A")
	require.NoError(t, err)

	svc.pick = func(int) int { return 0 }
	_, err = svc.Random(ctx, "")
	require.NoError(t, err)

	require.NoError(t, svc.SetFilter(ctx, "A"))

	filter, err = svc.Filter(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", filter)

	// Selecting a filter forgets the last viewed quote.
	_, err = svc.LastViewed(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The selection is persisted under its own key.
	value, ok := store.get("selected_category")
	require.True(t, ok)
	assert.Equal(t, "A", string(value))

	require.NoError(t, svc.SetFilter(ctx, ""))

	filter, err = svc.Filter(ctx)
	require.NoError(t, err)
	assert.Empty(t, filter)

	_, ok = store.get("selected_category")
	assert.False(t, ok)
}

func TestQuoteService_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("missing keys mean empty state", func(t *testing.T) {
		svc := newTestService(newFakeStore(), newFakeStore())

		require.NoError(t, svc.Load(ctx))
		assert.Zero(t, svc.Count())

		filter, err := svc.Filter(ctx)
		require.NoError(t, err)
		assert.Empty(t, filter)
	})

	t.Run("restores collection and filter", func(t *testing.T) {
		store := newFakeStore()
		store.data["quotes"] = []byte(`[{"id":"a","text":"Stored","category":"Cat","synced":true}]`)
		store.data["selected_category"] = []byte("Cat")

		svc := newTestService(store, newFakeStore())
		require.NoError(t, svc.Load(ctx))

		assert.Equal(t, 1, svc.Count())

		filter, err := svc.Filter(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Cat", filter)
	})

	t.Run("corrupt blob is an error", func(t *testing.T) {
		store := newFakeStore()
		store.data["quotes"] = []byte(`{{{`)

		svc := newTestService(store, newFakeStore())
		require.Error(t, svc.Load(ctx))
	})

	t.Run("store failure is an error", func(t *testing.T) {
		store := newFakeStore()
		store.getErr = errors.New("database locked")

		svc := newTestService(store, newFakeStore())
		require.Error(t, svc.Load(ctx))
	})
}
