package client

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/facelight/pkg/presence"
)

// WatchURL returns the websocket URL of the status feed.
func (c *Client) WatchURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/ws/status"
	return u.String()
}

// Watch streams state snapshots to fn until ctx is cancelled or the
// server closes the feed. The first snapshot is the current state.
func (c *Client) Watch(ctx context.Context, fn func(presence.Snapshot)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.WatchURL(), nil)
	if err != nil {
		return c.unreachable(err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline())
		conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return c.unreachable(err)
		}

		var snap presence.Snapshot
		if err := jsoniter.Unmarshal(data, &snap); err != nil {
			return fmt.Errorf("decode status: %w", err)
		}
		fn(snap)
	}
}

func deadline() time.Time {
	return time.Now().Add(time.Second)
}
