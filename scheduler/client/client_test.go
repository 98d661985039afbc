package client

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sjf/scheduler/api"
	"github.com/twitter/sjf/scheduler/domain"
	"github.com/twitter/sjf/scheduler/feed"
	"github.com/twitter/sjf/scheduler/server"
)

type testServer struct {
	store   *server.JobStore
	handler *api.Handler
	http    *httptest.Server
}

// makeTestServer runs a full gateway whose jobs take their declared duration.
func makeTestServer(t *testing.T, workers int) *testServer {
	return makeTestServerOn(t, workers, nil)
}

// makeTestServerOn serves on ln if it's non-nil.
func makeTestServerOn(t *testing.T, workers int, ln net.Listener) *testServer {
	ctx, cancel := context.WithCancel(context.Background())
	js := server.NewJobStore(nil, feed.NewFeed(0, nil), nil)
	sched := server.NewStatefulScheduler(ctx, js, server.NewTimerExecutor(),
		server.SchedulerConfiguration{Workers: workers, TickRate: 5 * time.Millisecond}, nil)
	h := api.NewHandler(js, sched, api.DefaultGatewayConfig(), nil)
	ts := httptest.NewUnstartedServer(h.NewRouter())
	if ln != nil {
		ts.Listener.Close()
		ts.Listener = ln
	}
	ts.Start()
	srv := &testServer{store: js, handler: h, http: ts}
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv
}

// Close disconnects websocket clients and stops serving. Safe to call twice.
func (s *testServer) Close() {
	s.handler.Close()
	s.http.Close()
}

func testClient(ts *testServer) *Client {
	return NewCustomClient(ts.http.URL, http.DefaultClient, http.DefaultClient)
}

func TestClient_SubmitListGet(t *testing.T) {
	ts := makeTestServer(t, 1)
	c := testClient(ts)
	ctx := context.Background()

	a, err := c.Submit(ctx, "a", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, domain.Pending, a.Status)
	b, err := c.Submit(ctx, "b", time.Hour)
	require.NoError(t, err)

	jobs, seq, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, a.ID, jobs[0].ID)
	assert.Equal(t, b.ID, jobs[1].ID)
	assert.True(t, seq >= 2)

	got, err := c.Get(ctx, b.ID)
	assert.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = c.Get(ctx, "nonexistent")
	assert.True(t, domain.IsNotFound(err), "got %v", err)
	assert.Contains(t, err.Error(), "nonexistent")
}

func TestClient_SubmitInvalid(t *testing.T) {
	ts := makeTestServer(t, 1)
	_, err := testClient(ts).Submit(context.Background(), "", time.Second)
	assert.True(t, domain.IsInvalidInput(err), "got %v", err)
}

func TestClient_Status(t *testing.T) {
	ts := makeTestServer(t, 3)
	raw, err := testClient(ts).Status(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"workers":3`)
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", baseURL(""))
	assert.Equal(t, "http://h:1", baseURL("h:1"))
	assert.Equal(t, "https://h:1", baseURL("https://h:1/"))
	assert.Equal(t, "wss://h:1/ws", NewCustomClient("https://h:1", nil, nil).WebsocketURL())
	assert.Equal(t, "ws://h:1/ws", NewCustomClient("h:1", nil, nil).WebsocketURL())
}

// notFoundClient answers every request with a 404 and remembers the last one
type notFoundClient struct {
	last *http.Request
}

func (c *notFoundClient) Do(req *http.Request) (*http.Response, error) {
	c.last = req
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(`{"error":"no such thing"}`)),
		Request:    req,
	}, nil
}

func TestClient_NotFoundPaths(t *testing.T) {
	hc := &notFoundClient{}
	c := NewCustomClient("h:1", hc, hc)
	ctx := context.Background()

	_, err := c.Get(ctx, "a/b?c")
	require.NotNil(t, hc.last)
	assert.Equal(t, "/jobs/a%2Fb%3Fc", hc.last.URL.EscapedPath())
	assert.Empty(t, hc.last.URL.RawQuery)
	require.True(t, domain.IsNotFound(err), "got %v", err)
	assert.Equal(t, "a/b?c", err.(*domain.NotFound).ID)

	_, err = c.Status(ctx)
	assert.Error(t, err)
	assert.False(t, domain.IsNotFound(err), "a missing admin path isn't a missing job")
	assert.Contains(t, err.Error(), "no such thing")
	assert.Contains(t, err.Error(), "/admin/status")
}
