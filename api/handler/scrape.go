package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/mcxwatch/models"
)

// Scrape returns a handler for GET /scrape.
//
// The cycle runs to completion even if the client goes away, and its
// snapshot is published exactly like a loop cycle. On failure the last
// published snapshot is served, marked stale, when one exists.
func Scrape(runner CycleRunner, src SnapshotSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx := context.WithoutCancel(c.Request.Context())

		snap, err := runner.RunOnce(ctx)
		if snap != nil {
			if err != nil {
				slog.Warn("on-demand cycle published but not recorded", "seq", snap.Seq, "error", err)
			}
			slog.Info("on-demand cycle", "seq", snap.Seq, "duration", time.Since(start).Round(time.Millisecond))
			c.JSON(http.StatusOK, snap.View())
			return
		}

		if prev, ok := src.Latest(); ok {
			view := prev.View()
			view.Stale = true
			view.Error = err.Error()
			c.JSON(http.StatusOK, view)
			return
		}
		respondError(c, err)
	}
}

// Latest returns a handler for GET /latest.
func Latest(src SnapshotSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := src.Latest()
		if !ok {
			respondError(c, models.NewExtractError(models.ErrCodeNoData, "no data yet", nil))
			return
		}
		c.JSON(http.StatusOK, snap.View())
	}
}
