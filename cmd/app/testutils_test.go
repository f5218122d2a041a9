package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/blogservice"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/engagementservice"
	"github.com/sushihentaime/inkwell/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, envelope
}

// newUnitApplication returns an application without backing services, for middleware and helpers.
func newUnitApplication(t *testing.T) *application {
	cfg, err := loadConfig("")
	require.NoError(t, err)

	registry := prometheus.NewRegistry()

	return &application{
		config:  cfg,
		logger:  common.TestLogger(),
		metrics: newHTTPMetrics(registry),
		limiter: newClientLimiter(cfg.RateLimit),
	}
}

// newTestApplication returns an application backed by a fresh postgres container.
func newTestApplication(t *testing.T) (*application, *sql.DB) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	db := common.TestDB("file://../../migrations", t)

	app := newUnitApplication(t)
	app.limiter = newClientLimiter(RateLimitConfig{Enabled: false})

	mb := new(engagementservice.MockMessageProducer)
	mb.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	cache := common.NewCache(time.Minute, time.Minute)
	app.userService = userservice.NewUserService(db, cache)
	app.blogService = blogservice.NewBlogService(db)
	app.engagementService = engagementservice.NewEngagementService(db, cache, mb, app.logger, engagementservice.NewMetrics(prometheus.NewRegistry()), engagementservice.Config{})
	app.reconciler = engagementservice.NewReconciler(app.engagementService, 0, app.logger)

	t.Cleanup(app.wg.Wait)

	return app, db
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}
