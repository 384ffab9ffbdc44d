package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
)

// eventServer accepts one stream, checks the subscribe request and writes msgs
// before closing with GoingAway.
func eventServer(t *testing.T, wantSince uint64, msgs ...string) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.CloseNow() //nolint:errcheck

		ctx := r.Context()

		if wantSince > 0 {
			_, data, err := conn.Read(ctx)
			if err != nil {
				t.Errorf("reading subscribe: %v", err)
				return
			}

			var sub struct {
				Type        string `json:"type"`
				LastEventID uint64 `json:"last_event_id"`
			}
			if err := json.Unmarshal(data, &sub); err != nil || sub.Type != "subscribe" || sub.LastEventID != wantSince {
				t.Errorf("unexpected subscribe %s", data)
			}
		}

		for _, m := range msgs {
			if err := conn.Write(ctx, websocket.MessageText, []byte(m)); err != nil {
				return
			}
		}

		conn.Close(websocket.StatusGoingAway, "") //nolint:errcheck
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return New(srv.URL)
}

func TestWatchEvents_ReplayDedupAndClose(t *testing.T) {
	c := eventServer(t, 1,
		`{"type":"article.ingested","id":1,"data":{"articleID":"old"}}`,
		`{"type":"article.ingested","id":2,"data":{"articleID":"a2"}}`,
		`{"type":"article.ingested","id":2,"data":{"articleID":"a2"}}`,
		`{"type":"article.failed","id":3,"data":{"articleID":"a3","outcome":"not_found"}}`,
		`{"type":"reset","reason":"requested events no longer available"}`,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var got []Event
	err := c.WatchEvents(ctx, 1, func(e *Event) error {
		got = append(got, *e)
		return nil
	})
	if err != nil {
		t.Fatalf("WatchEvents() error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(got), got)
	}

	if got[0].ID != 2 || got[0].Type != EventArticleIngested {
		t.Errorf("first event = %+v", got[0])
	}

	if got[1].ID != 3 || got[1].Type != EventArticleFailed {
		t.Errorf("second event = %+v", got[1])
	}

	if got[2].Type != EventReset || got[2].Reason == "" {
		t.Errorf("third event = %+v", got[2])
	}
}

func TestWatchEvents_HandlerErrorStops(t *testing.T) {
	c := eventServer(t, 0,
		`{"type":"article.ingested","id":7}`,
		`{"type":"article.ingested","id":8}`,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop := errors.New("stop")
	calls := 0

	err := c.WatchEvents(ctx, 0, func(*Event) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("expected handler error, got %v", err)
	}

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestWatchEvents_DialFailure(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{})

	err := c.WatchEvents(context.Background(), 0, func(*Event) error { return nil })
	if err == nil {
		t.Fatal("expected dial error for a server without the stream")
	}
}
