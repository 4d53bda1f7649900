package handler

import (
	"io"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/mcxwatch/models"
)

// Stream returns a handler for GET /stream.
//
// It pushes the current snapshot as a data-only server-sent event right away
// and then once per interval until the client disconnects. Sequence numbers
// sent on one connection never decrease.
func Stream(src SnapshotSource, interval time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var (
			sent    uint64
			started bool
		)
		emit := func() {
			snap, ok := src.Latest()
			switch {
			case !ok:
				c.Render(-1, sse.Event{Data: models.ErrorResponse{Error: "no data yet"}})
			case started && snap.Seq < sent:
				// Never step backwards on this connection.
			default:
				sent, started = snap.Seq, true
				c.Render(-1, sse.Event{Data: snap.View()})
			}
		}

		done := c.Request.Context().Done()
		first := true
		c.Stream(func(io.Writer) bool {
			if first {
				first = false
				emit()
				return true
			}
			select {
			case <-done:
				return false
			case <-ticker.C:
				emit()
				return true
			}
		})
	}
}
