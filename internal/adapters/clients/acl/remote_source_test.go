package acl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotevault/quotesync/internal/adapters/clients"
	"github.com/quotevault/quotesync/internal/domain"
	"github.com/quotevault/quotesync/internal/platform/config"
)

func newTestSource(t *testing.T, handler http.Handler) (*RemoteSource, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := clients.New(&clients.Config{
		BaseURL:     server.URL,
		ServiceName: "remote-source",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   10,
			Timeout:       time.Second,
			HalfOpenLimit: 1,
		},
	})
	require.NoError(t, err)

	return NewRemoteSource(client, "remote-source"), server
}

func TestRemoteSource_Fetch(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": 1, "title": "First remote quote", "userId": 1},
			{"id": 2, "title": "Second remote quote", "userId": 3}
		]`))
	}))

	quotes, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "server-1", quotes[0].ID)
	assert.Equal(t, "First remote quote", quotes[0].Text)
	assert.Equal(t, "Server-1", quotes[0].Category)
	assert.True(t, quotes[0].Synced)

	assert.Equal(t, "server-2", quotes[1].ID)
	assert.Equal(t, "Server-3", quotes[1].Category)
	assert.True(t, quotes[1].Synced)
}

func TestRemoteSource_FetchEmpty(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	quotes, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestRemoteSource_FetchServerError(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := source.Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestRemoteSource_FetchMalformedBody(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not": "a list"}`))
	}))

	_, err := source.Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestRemoteSource_FetchInvalidRecord(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id": 0, "title": "missing id", "userId": 1}]`))
	}))

	_, err := source.Fetch(context.Background())
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestRemoteSource_Push(t *testing.T) {
	var received []outboundPostDTO

	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/posts", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var dto outboundPostDTO
		require.NoError(t, json.NewDecoder(r.Body).Decode(&dto))
		received = append(received, dto)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 101}`))
	}))

	quotes := []domain.Quote{
		{ID: "a", Text: "Local one", Category: "Wisdom"},
		{ID: "b", Text: "Local two", Category: "Humor"},
	}

	require.NoError(t, source.Push(context.Background(), quotes))
	require.Len(t, received, 2)

	assert.Equal(t, "Local one", received[0].Title)
	assert.Equal(t, "Wisdom", received[0].Body)
	assert.Equal(t, 1, received[0].UserID)
	assert.Equal(t, "Local two", received[1].Title)
}

func TestRemoteSource_PushAbortsOnFailure(t *testing.T) {
	var count int

	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	quotes := []domain.Quote{
		{ID: "a", Text: "Local one", Category: "Wisdom"},
		{ID: "b", Text: "Local two", Category: "Humor"},
	}

	err := source.Push(context.Background(), quotes)
	require.ErrorIs(t, err, domain.ErrUnavailable)

	// Two client attempts for the first quote; the second is never sent.
	assert.Equal(t, 2, count)
}

func TestRemoteSource_PushNothing(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Fatal("no request expected")
	}))

	require.NoError(t, source.Push(context.Background(), nil))
}

func TestRemoteSource_Check(t *testing.T) {
	source, _ := newTestSource(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))

	assert.Equal(t, "remote-source", source.Name())
	assert.NoError(t, source.Check(context.Background()))
}

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "not found", status: http.StatusNotFound, wantErr: domain.ErrNotFound},
		{name: "conflict", status: http.StatusConflict, wantErr: domain.ErrConflict},
		{name: "bad request", status: http.StatusBadRequest, wantErr: domain.ErrValidation},
		{name: "server error", status: http.StatusInternalServerError, wantErr: domain.ErrUnavailable},
		{name: "bad gateway", status: http.StatusBadGateway, wantErr: domain.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Body: http.NoBody}
			err := MapHTTPError(resp, nil, "remote-source", "fetch quotes")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("success is nil", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}
		assert.NoError(t, MapHTTPError(resp, nil, "remote-source", "fetch quotes"))
	})

	t.Run("circuit open", func(t *testing.T) {
		err := MapHTTPError(nil, clients.ErrCircuitOpen, "remote-source", "fetch quotes")
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})

	t.Run("no response", func(t *testing.T) {
		err := MapHTTPError(nil, nil, "remote-source", "fetch quotes")
		assert.ErrorIs(t, err, domain.ErrUnavailable)
	})
}

func TestTranslateSlice_Errors(t *testing.T) {
	dtos := []postDTO{
		{ID: 1, Title: "ok", UserID: 1},
		{ID: 2, Title: "", UserID: 1},
	}

	_, err := TranslateSlice(dtos, translatePost)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "item 1")
}
