package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/middleware"
	"github.com/persistorai/conceptmap/internal/ws"
)

// originPatterns reduces CORS origins to the host patterns websocket.Accept
// matches against.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))

	for _, o := range origins {
		u, err := url.Parse(o)
		if err == nil && u.Host != "" {
			out = append(out, u.Host)

			continue
		}

		out = append(out, o)
	}

	return out
}

// eventsHandler upgrades the request and streams ingestion events until the
// client leaves or the server shuts down.
func eventsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string) gin.HandlerFunc {
	patterns := originPatterns(corsOrigins)

	return func(c *gin.Context) {
		entry := middleware.Logger(c, log)

		// The server's write timeout sizes ingestion requests, not streams.
		rc := http.NewResponseController(c.Writer)
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			entry.WithError(err).Debug("clearing write deadline")
		}

		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       patterns,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			entry.WithError(err).Warn("websocket accept failed")

			return
		}

		wsCtx, wsCancel := context.WithCancel(appCtx)
		defer wsCancel()

		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		ws.NewClient(hub, conn, entry).Serve(wsCtx)
	}
}
