package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotevault/quotesync/internal/adapters/http/handlers"
	"github.com/quotevault/quotesync/internal/adapters/http/middleware"
	"github.com/quotevault/quotesync/internal/adapters/storage"
	"github.com/quotevault/quotesync/internal/app"
	"github.com/quotevault/quotesync/internal/domain"
	"github.com/quotevault/quotesync/internal/platform/config"
	"github.com/quotevault/quotesync/internal/ports"
)

type noopRemote struct{}

func (noopRemote) Fetch(context.Context) ([]domain.Quote, error) { return nil, nil }
func (noopRemote) Push(context.Context, []domain.Quote) error    { return nil }

func newWiredEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)

	service := app.NewQuoteService(app.QuoteServiceConfig{
		Store:     storage.NewMemoryStore(),
		Session:   storage.NewMemoryStore(),
		QuotesKey: "quotes",
		FilterKey: "selected_category",
		Logger:    logger,
	})

	engine := app.NewSyncEngine(service, noopRemote{}, logger)
	scheduler := app.NewSyncScheduler(engine, app.SchedulerConfig{
		Interval:     time.Hour,
		CycleTimeout: time.Second,
		Logger:       logger,
	})

	router := gin.New()
	SetupRouter(router, RouterConfig{
		Logger:        logger,
		ServiceName:   "quotesync-test",
		QuoteHandler:  handlers.NewQuoteHandler(service),
		SyncHandler:   handlers.NewSyncHandler(scheduler),
		HealthHandler: handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.NewBuildInfo("test", "", "")),
		Timeout:       time.Second,
	})

	return router
}

func TestSetupRouter_Routes(t *testing.T) {
	router := newWiredEngine(t)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/-/live", "", http.StatusOK},
		{http.MethodGet, "/-/ready", "", http.StatusOK},
		{http.MethodGet, "/-/metrics", "", http.StatusOK},
		{http.MethodGet, "/api/v1/quotes", "", http.StatusOK},
		{http.MethodGet, "/api/v1/categories", "", http.StatusOK},
		{http.MethodGet, "/api/v1/filter", "", http.StatusOK},
		{http.MethodPost, "/api/v1/quotes", `{"text":"T","category":"C"}`, http.StatusCreated},
		{http.MethodPost, "/api/v1/sync", "", http.StatusOK},
		{http.MethodGet, "/api/v1/sync", "", http.StatusOK},
		{http.MethodGet, "/api/v1/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSetupRouter_RequestIDHeader(t *testing.T) {
	router := newWiredEngine(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))

	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	// A supplied request id is echoed back.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set(middleware.HeaderRequestID, "fixed-id")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", w.Header().Get(middleware.HeaderRequestID))
}

func TestSetupMinimalRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.DiscardHandler)
	health := handlers.NewHealthHandler(ports.NewHealthRegistry(), handlers.NewBuildInfo("test", "", ""))

	router := gin.New()
	SetupMinimalRouter(router, logger, health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/-/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	srv := New(&config.ServerConfig{
		Host:           "127.0.0.1",
		Port:           0,
		ReadTimeout:    time.Second,
		WriteTimeout:   time.Second,
		IdleTimeout:    time.Second,
		MaxRequestSize: 1 << 20,
	}, logger)

	require.NotNil(t, srv.Engine())
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	errCh := srv.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err, ok := <-errCh:
		if ok {
			require.NoError(t, err)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}
