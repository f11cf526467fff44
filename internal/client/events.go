package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/courseware/internal/model"
	ws "github.com/stemsi/courseware/internal/websocket"
)

// SubscribeBatch opens the batch event stream. It returns once the server
// confirms the subscription, so no change made after the call is missed.
// The channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeBatch(ctx context.Context, batchID int64) (<-chan model.ContentEvent, error) {
	endpoint := c.baseURL + "/ws/v1/batches/" + id(batchID) + "/events"
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := http.Header{}
	if token := c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: "subscribe failed: " + http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	var ready ws.Frame
	if err := conn.ReadJSON(&ready); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	if ready.Event != ws.EventReady {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe: unexpected %q frame", ready.Event)
	}

	out := make(chan model.ContentEvent, 16)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer close(done)
		for {
			var frame ws.Frame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			if frame.Event != ws.EventContent || frame.Content == nil {
				continue
			}
			select {
			case out <- *frame.Content:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
