package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// Event is one message from the ingestion event stream. Control messages
// ("reset", "shutdown") carry no ID.
type Event struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Time    time.Time       `json:"time,omitzero"`
	Reason  string          `json:"reason,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Event types sent by the server.
const (
	EventArticleIngested = "article.ingested"
	EventArticleFailed   = "article.failed"
	EventReset           = "reset"
	EventShutdown        = "shutdown"
)

// WatchEvents streams ingestion events to handle until ctx is cancelled, the
// server closes the stream, or handle returns an error. With since > 0 the
// server first replays buffered events after that ID; a "reset" event means
// some were evicted. Replayed duplicates are dropped.
func (c *Client) WatchEvents(ctx context.Context, since uint64, handle func(*Event) error) error {
	u := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/v1/events"

	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("dial event stream: %w", err)
	}
	defer conn.CloseNow() //nolint:errcheck // best-effort close

	if since > 0 {
		sub, _ := json.Marshal(map[string]any{"type": "subscribe", "last_event_id": since})
		if err := conn.Write(ctx, websocket.MessageText, sub); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}

	last := since

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}

			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}

			return fmt.Errorf("read event: %w", err)
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}

		if evt.ID != 0 {
			if evt.ID <= last {
				continue
			}

			last = evt.ID
		}

		if err := handle(&evt); err != nil {
			conn.Close(websocket.StatusNormalClosure, "") //nolint:errcheck // best-effort

			return err
		}
	}
}

