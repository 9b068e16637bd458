package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/facelight/pkg/presence"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, 2*time.Second)
	require.NoError(t, err)
	return c
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func TestNew(t *testing.T) {
	c, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = New("http://pi.local:8000/", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://pi.local:8000", c.BaseURL())
	assert.Equal(t, "ws://pi.local:8000/ws/status", c.WatchURL())

	c, err = New("https://lights.example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, "wss://lights.example.com/ws/status", c.WatchURL())

	_, err = New("ftp://pi.local", 0)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.Handle("/check-faces", jsonHandler(http.StatusOK, `{"faces_detected":2,"brightness_set":100}`))
		c := newTestClient(t, mux)

		res, err := c.Check(context.Background())
		require.NoError(t, err)
		assert.Equal(t, CheckResult{Faces: 2, Brightness: 100}, res)
	})

	t.Run("check failed on server", func(t *testing.T) {
		c := newTestClient(t, jsonHandler(http.StatusOK, `{"error":"camera not accessible","kind":"camera_unavailable"}`))

		_, err := c.Check(context.Background())
		require.Error(t, err)
		assert.Equal(t, "camera not accessible", err.Error())
		kind, ok := presence.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, presence.KindCameraUnavailable, kind)
	})

	t.Run("rate limited", func(t *testing.T) {
		c := newTestClient(t, jsonHandler(http.StatusTooManyRequests, `{"error":"Too many requests"}`))

		_, err := c.Check(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsRateLimited())
		assert.Equal(t, "Too many requests", apiErr.Message)
	})

	t.Run("malformed success", func(t *testing.T) {
		c := newTestClient(t, jsonHandler(http.StatusOK, `{}`))
		_, err := c.Check(context.Background())
		assert.Error(t, err)
	})
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(url, time.Second)
	require.NoError(t, err)

	_, err = c.Status(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, presence.ErrUpstreamUnreachable)
	kind, _ := presence.KindOf(err)
	assert.Equal(t, presence.KindUpstreamUnreachable, kind)
	assert.Contains(t, err.Error(), "is the backend running?")

	err = c.Watch(context.Background(), func(presence.Snapshot) {})
	assert.ErrorIs(t, err, presence.ErrUpstreamUnreachable)
}

func TestStatus(t *testing.T) {
	c := newTestClient(t, jsonHandler(http.StatusOK,
		`{"faces_detected":1,"brightness_set":100,"status":"active","monitoring":true,"loading":false,"last_checked_clock":"09:30:15"}`))

	snap, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Faces)
	assert.Equal(t, presence.StatusActive, snap.Status)
	assert.True(t, snap.Monitoring)
	assert.Equal(t, "09:30:15", snap.LastCheckedClock)
}

func TestSetMonitoring(t *testing.T) {
	var gotBody string
	var gotMethod string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotMethod = r.Method
		jsonHandler(http.StatusOK, `{"monitoring":false,"status":"idle","brightness_set":-1}`)(w, r)
	}))

	snap, err := c.SetMonitoring(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.JSONEq(t, `{"enabled":false}`, gotBody)
	assert.False(t, snap.Monitoring)
	assert.Equal(t, -1, snap.Brightness)
}

func TestWatch(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/status" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"faces_detected":0,"status":"idle","brightness_set":-1}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"faces_detected":1,"status":"active","brightness_set":100}`))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))

	var got []presence.Snapshot
	err := c.Watch(context.Background(), func(s presence.Snapshot) {
		got = append(got, s)
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, presence.StatusIdle, got[0].Status)
	assert.Equal(t, 100, got[1].Brightness)
}

func TestWatch_StopsOnCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"status":"idle"}`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.Watch(ctx, func(presence.Snapshot) { cancel() })
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
