package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/luci/go-render/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/sjf/common/stats"
	"github.com/twitter/sjf/scheduler/domain"
	"github.com/twitter/sjf/scheduler/feed"
	"github.com/twitter/sjf/scheduler/server"
)

// blockingExecutor holds every job until the test releases it.
type blockingExecutor struct {
	release chan struct{}
}

func (e *blockingExecutor) Run(ctx context.Context, job domain.Job) error {
	select {
	case <-e.release:
	case <-ctx.Done():
	}
	return nil
}

type testGateway struct {
	handler  *Handler
	store    *server.JobStore
	server   *httptest.Server
	executor *blockingExecutor
	statsReg stats.StatsRegistry
}

func makeTestGateway(t *testing.T, config GatewayConfig) *testGateway {
	ctx, cancel := context.WithCancel(context.Background())
	reg := stats.NewFinagleStatsRegistry()
	stat := stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg })
	js := server.NewJobStore(nil, feed.NewFeed(100, stat), stat)
	exec := &blockingExecutor{release: make(chan struct{})}
	sched := server.NewStatefulScheduler(ctx, js, exec,
		server.SchedulerConfiguration{Workers: 1, TickRate: 5 * time.Millisecond}, stat)
	h := NewHandler(js, sched, config, stat)
	ts := httptest.NewServer(h.NewRouter())
	t.Cleanup(func() {
		h.Close()
		ts.Close()
		cancel()
	})
	return &testGateway{handler: h, store: js, server: ts, executor: exec, statsReg: reg}
}

func (g *testGateway) post(t *testing.T, body string) (*http.Response, []byte) {
	resp, err := http.Post(g.server.URL+"/jobs", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func (g *testGateway) dial(t *testing.T) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(g.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJob(t *testing.T, conn *websocket.Conn) domain.Job {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var j domain.Job
	require.NoError(t, conn.ReadJSON(&j))
	return j
}

func Test_CreateJob(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())

	resp, body := g.post(t, `{"name":"build","duration":2000000000}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var j domain.Job
	require.NoError(t, json.Unmarshal(body, &j))
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, "build", j.Name)
	assert.Equal(t, 2*time.Second, j.Duration)
	assert.Equal(t, domain.Pending, j.Status)
	assert.Nil(t, j.StartedAt)
	assert.Nil(t, j.CompletedAt)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &raw))
	for _, key := range []string{"id", "name", "duration", "status", "createdAt", "startedAt", "completedAt", "revision"} {
		assert.Contains(t, raw, key)
	}
}

func Test_CreateJob_InvalidInput(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())

	for _, body := range []string{
		`{"name":"","duration":1}`,
		`{"name":"   ","duration":1}`,
		`{"name":"neg","duration":-1}`,
		`{"name":"float","duration":1.5}`,
		`{"name":`,
		`not json`,
	} {
		resp, respBody := g.post(t, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		var e errorResponse
		assert.NoError(t, json.Unmarshal(respBody, &e), body)
		assert.NotEmpty(t, e.Error, body)
	}

	jobs, _ := g.store.Snapshot()
	assert.Empty(t, jobs, "rejected requests must not create jobs")
}

func Test_ListJobs_SubmissionOrder(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	for _, body := range []string{
		`{"name":"A","duration":5000000000}`,
		`{"name":"B","duration":2000000000}`,
		`{"name":"C","duration":8000000000}`,
	} {
		resp, _ := g.post(t, body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err := http.Get(g.server.URL + "/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var jobs []domain.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.Len(t, jobs, 3, render.Render(jobs))
	assert.Equal(t, "A", jobs[0].Name)
	assert.Equal(t, "B", jobs[1].Name)
	assert.Equal(t, "C", jobs[2].Name)

	seq, err := strconv.ParseUint(resp.Header.Get(FeedSequenceHeader), 10, 64)
	assert.NoError(t, err)
	assert.True(t, seq >= 3, "three creates at least, got %d", seq)
}

func Test_ListJobs_EmptyIsArray(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	resp, err := http.Get(g.server.URL + "/jobs")
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))
	assert.Equal(t, "0", resp.Header.Get(FeedSequenceHeader))
}

func Test_GetJob(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	j, err := g.store.Create("a", time.Second)
	require.NoError(t, err)

	resp, err := http.Get(g.server.URL + "/jobs/" + j.ID)
	require.NoError(t, err)
	var got domain.Job
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, j.ID, got.ID)

	resp, err = http.Get(g.server.URL + "/jobs/nonexistent")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func Test_CreateJob_RateLimited(t *testing.T) {
	config := DefaultGatewayConfig()
	config.SubmitRate = 0.001
	config.SubmitBurst = 2
	g := makeTestGateway(t, config)

	codes := []int{}
	for i := 0; i < 3; i++ {
		resp, _ := g.post(t, `{"name":"a","duration":0}`)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusCreated, http.StatusTooManyRequests}, codes)
	stats.StatsOk("", g.statsReg, t, map[string]stats.Rule{
		stats.GwRateLimitedCounter: {Checker: stats.Int64EqTest, Value: 1},
		stats.GwCreateJobCounter:   {Checker: stats.Int64EqTest, Value: 3},
	})
}

func Test_CORS(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())

	req, _ := http.NewRequest(http.MethodGet, g.server.URL+"/jobs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func Test_WatchJobs_StreamsLifecycle(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	conn := g.dial(t)

	resp, body := g.post(t, `{"name":"a","duration":0}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created domain.Job
	require.NoError(t, json.Unmarshal(body, &created))

	pending := readJob(t, conn)
	assert.Equal(t, created.ID, pending.ID)
	assert.Equal(t, domain.Pending, pending.Status)

	started := readJob(t, conn)
	assert.Equal(t, domain.InProgress, started.Status)
	assert.NotNil(t, started.StartedAt)

	g.executor.release <- struct{}{}
	done := readJob(t, conn)
	assert.Equal(t, domain.Completed, done.Status)
	assert.Equal(t, uint64(3), done.Revision)
}

func Test_WatchJobs_NoReplay(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	early, err := g.store.Create("early", time.Hour)
	require.NoError(t, err)

	// wait until early has been dispatched so its events are behind us
	deadline := time.Now().Add(5 * time.Second)
	for j, _ := g.store.Get(early.ID); j.Status != domain.InProgress; j, _ = g.store.Get(early.ID) {
		require.True(t, time.Now().Before(deadline), "early never started")
		time.Sleep(time.Millisecond)
	}

	conn := g.dial(t)
	late, err := g.store.Create("late", time.Second)
	require.NoError(t, err)
	got := readJob(t, conn)
	assert.Equal(t, late.ID, got.ID)
}

func Test_WatchJobs_CloseDisconnects(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	conn := g.dial(t)
	// wait for the subscription before closing
	deadline := time.Now().Add(5 * time.Second)
	for g.store.Feed().NumSubscribers() == 0 {
		require.True(t, time.Now().Before(deadline))
		time.Sleep(time.Millisecond)
	}

	g.handler.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func Test_GetSchedulerStatus(t *testing.T) {
	g := makeTestGateway(t, DefaultGatewayConfig())
	resp, err := http.Get(g.server.URL + "/admin/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status schedulerStatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.Scheduler.Running)
	assert.True(t, status.Scheduler.Idle)
	assert.Equal(t, 1, status.Scheduler.Workers)
}
