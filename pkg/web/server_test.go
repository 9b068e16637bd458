package web

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/facelight/pkg/presence"
)

type stubChecker struct {
	mu      sync.Mutex
	outcome presence.Outcome
	calls   int
}

func (c *stubChecker) Check(ctx context.Context) presence.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	out := c.outcome
	out.CheckedAt = time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)
	return out
}

type stubMonitor struct {
	state   *presence.State
	enabled []bool
}

func (m *stubMonitor) SetEnabled(enabled bool) {
	m.enabled = append(m.enabled, enabled)
	m.state.SetMonitoring(enabled, "")
}

func newTestServer(t *testing.T, cfg Config, out presence.Outcome) (*Server, *stubChecker, *stubMonitor) {
	t.Helper()
	state := presence.NewState()
	checker := &stubChecker{outcome: out}
	monitor := &stubMonitor{state: state}
	return NewServer(cfg, state, checker, monitor), checker, monitor
}

func do(t *testing.T, s *Server, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var m map[string]any
	if len(body) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, jsoniter.Unmarshal(body, &m), "body: %s", body)
	}
	return resp.StatusCode, m
}

func TestRoot(t *testing.T) {
	s, _, _ := newTestServer(t, DefaultConfig(), presence.Outcome{})

	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, RootMessage, body["message"])
}

func TestCheckFaces_Success(t *testing.T) {
	s, checker, _ := newTestServer(t, DefaultConfig(), presence.Outcome{Faces: 1, Brightness: 100, Frames: 3})

	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/check-faces", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["faces_detected"])
	assert.EqualValues(t, 100, body["brightness_set"])
	assert.NotContains(t, body, "error")
	assert.Equal(t, 1, checker.calls)

	snap := s.state.Snapshot()
	assert.Equal(t, presence.StatusActive, snap.Status)
	assert.False(t, snap.Loading)
	assert.Equal(t, "09:30:15", snap.LastCheckedClock)
}

func TestCheckFaces_FailureIsErrorBody(t *testing.T) {
	fail := presence.Outcome{
		Err: &presence.Error{Kind: presence.KindCameraUnavailable, Err: presence.ErrCameraUnavailable},
	}
	s, _, _ := newTestServer(t, DefaultConfig(), fail)

	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/check-faces", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "camera not accessible", body["error"])
	assert.Equal(t, string(presence.KindCameraUnavailable), body["kind"])
	assert.NotContains(t, body, "faces_detected")

	snap := s.state.Snapshot()
	assert.Equal(t, presence.StatusError, snap.Status)
	assert.Equal(t, presence.BrightnessUnset, snap.Brightness)
}

func TestCheckFaces_RateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckRate = 0.001
	cfg.CheckBurst = 1
	s, checker, _ := newTestServer(t, cfg, presence.Outcome{})

	code, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/check-faces", nil))
	assert.Equal(t, http.StatusOK, code)

	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/check-faces", nil))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many requests", body["error"])
	assert.Equal(t, 1, checker.calls, "rejected request must not run a check")
}

func TestCheckFaces_NoLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CheckRate = 0
	s, checker, _ := newTestServer(t, cfg, presence.Outcome{})

	for i := 0; i < 5; i++ {
		code, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/check-faces", nil))
		require.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, 5, checker.calls)
}

func TestStatus(t *testing.T) {
	s, _, _ := newTestServer(t, DefaultConfig(), presence.Outcome{})

	code, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, -1, body["brightness_set"])
	assert.Equal(t, "idle", body["status"])
	assert.Equal(t, false, body["monitoring"])
}

func TestMonitoring(t *testing.T) {
	post := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/monitoring", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("enable", func(t *testing.T) {
		s, _, mon := newTestServer(t, DefaultConfig(), presence.Outcome{})
		code, body := do(t, s, post(`{"enabled":true}`))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, true, body["monitoring"])
		assert.Equal(t, []bool{true}, mon.enabled)
	})

	t.Run("disable", func(t *testing.T) {
		s, _, mon := newTestServer(t, DefaultConfig(), presence.Outcome{})
		code, body := do(t, s, post(`{"enabled":false}`))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, false, body["monitoring"])
		assert.Equal(t, []bool{false}, mon.enabled)
	})

	t.Run("missing field", func(t *testing.T) {
		s, _, mon := newTestServer(t, DefaultConfig(), presence.Outcome{})
		code, body := do(t, s, post(`{}`))
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "enabled is required", body["error"])
		assert.Empty(t, mon.enabled)
	})

	t.Run("malformed", func(t *testing.T) {
		s, _, _ := newTestServer(t, DefaultConfig(), presence.Outcome{})
		code, _ := do(t, s, post(`{"enabled":`))
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestStatusWS_RequiresUpgrade(t *testing.T) {
	s, _, _ := newTestServer(t, DefaultConfig(), presence.Outcome{})

	code, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/ws/status", nil))
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestRequestID(t *testing.T) {
	s, _, _ := newTestServer(t, DefaultConfig(), presence.Outcome{})

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestStatusWS_SnapshotThenUpdates(t *testing.T) {
	s, _, _ := newTestServer(t, DefaultConfig(), presence.Outcome{})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Hub().Run(ctx)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go s.App().Listener(ln)
	t.Cleanup(func() {
		cancel()
		<-s.Hub().Done()
		s.App().Shutdown()
	})

	conn, _, err := gorilla.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/status", nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() presence.Snapshot {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var snap presence.Snapshot
		require.NoError(t, conn.ReadJSON(&snap))
		return snap
	}

	first := read()
	assert.Equal(t, presence.StatusIdle, first.Status)
	assert.Equal(t, presence.BrightnessUnset, first.Brightness)

	s.state.Publish(presence.Outcome{Faces: 2, Brightness: 100, CheckedAt: time.Now()})
	next := read()
	assert.Equal(t, presence.StatusActive, next.Status)
	assert.Equal(t, 2, next.Faces)
}
