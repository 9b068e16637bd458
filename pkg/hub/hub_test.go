package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu      sync.Mutex
	written [][]byte
	types   []int
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(t int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, t)
	f.written = append(f.written, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for i, t := range f.types {
		if t == websocket.TextMessage {
			out = append(out, string(f.written[i]))
		}
	}
	return out
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h, cancel
}

func TestHub_SendThenBroadcast(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()

	c := NewClient(h, conn)
	require.NotNil(t, c)
	go c.Run()

	h.Send(c, []byte(`{"n":0}`))
	require.NoError(t, h.BroadcastJSON(map[string]int{"n": 1}))

	require.Eventually(t, func() bool { return len(conn.texts()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`{"n":0}`, `{"n":1}`}, conn.texts())
}

func TestHub_BroadcastAfterRegisterIsDelivered(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()

	// No wait on ClientCount: NewClient returns only once registered.
	c := NewClient(h, conn)
	require.NotNil(t, c)
	h.Broadcast([]byte(`{"n":1}`))
	go c.Run()

	require.Eventually(t, func() bool { return len(conn.texts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`{"n":1}`}, conn.texts())
}

func TestHub_SendTargetsOneClient(t *testing.T) {
	h, _ := startHub(t)
	a, b := newFakeConn(), newFakeConn()

	ca := NewClient(h, a)
	cb := NewClient(h, b)
	require.NotNil(t, ca)
	require.NotNil(t, cb)
	go ca.Run()
	go cb.Run()

	h.Send(ca, []byte(`"a"`))
	h.Broadcast([]byte(`"all"`))

	require.Eventually(t, func() bool { return len(a.texts()) == 2 && len(b.texts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{`"a"`, `"all"`}, a.texts())
	assert.Equal(t, []string{`"all"`}, b.texts())
}

func TestHub_DisconnectUnregisters(t *testing.T) {
	h, _ := startHub(t)
	conn := newFakeConn()

	c := NewClient(h, conn)
	require.NotNil(t, c)
	done := make(chan struct{})
	go func() {
		c.Run()
		close(done)
	}()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("client Run did not return after disconnect")
	}
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	h, cancel := startHub(t)
	conn := newFakeConn()

	c := NewClient(h, conn)
	require.NotNil(t, c)
	go c.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-h.Done()

	select {
	case <-conn.closed:
	case <-time.After(time.Second):
		t.Fatal("connection not closed on hub shutdown")
	}
	assert.Equal(t, 0, h.ClientCount())

	// Registering after shutdown does not block.
	assert.Nil(t, NewClient(h, newFakeConn()))
}
