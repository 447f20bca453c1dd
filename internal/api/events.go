package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"

	"github.com/hearthkeep/hearthkeep/internal/realtime"
)

// EventStream is a live feed of change notifications from the server.
type EventStream struct {
	conn *ws.Conn
}

// Subscribe opens the websocket change feed. The returned stream stays
// valid until Close or until the context passed to Next is cancelled.
func (c *Client) Subscribe(ctx context.Context) (*EventStream, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/api/ws"

	headers := http.Header{}
	if c.token != "" {
		headers.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := ws.Dial(ctx, wsURL, &ws.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("dial change feed: %w", err)
	}
	return &EventStream{conn: conn}, nil
}

// Next blocks until the next event arrives. Ping frames are handled by
// the underlying connection; only data messages surface here.
func (s *EventStream) Next(ctx context.Context) (realtime.Message, error) {
	var msg realtime.Message
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			return msg, fmt.Errorf("read change feed: %w", err)
		}
		if typ != ws.MessageText {
			continue
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			// Skip frames we do not understand rather than killing the feed.
			continue
		}
		return msg, nil
	}
}

// Close shuts the stream down.
func (s *EventStream) Close() error {
	return s.conn.Close(ws.StatusNormalClosure, "client closing")
}
