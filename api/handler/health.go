package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/mcxwatch/models"
	"github.com/use-agent/mcxwatch/refresh"
)

// StatsSource reports cycle counters.
type StatsSource interface {
	Stats() refresh.Stats
}

// Health returns a handler for GET /health.
//
// Status is "starting" until the first snapshot is published and "degraded"
// while the most recent cycle failed.
func Health(src SnapshotSource, stats StatsSource, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := stats.Stats()

		resp := models.HealthResponse{
			Status:    "healthy",
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			LastError: st.LastError,
			Cycles:    models.CycleStats{Succeeded: st.Succeeded, Failed: st.Failed},
			Version:   Version,
		}
		if !st.LastSuccess.IsZero() {
			resp.LastSuccess = st.LastSuccess.Format(time.RFC3339)
		}

		snap, ok := src.Latest()
		switch {
		case !ok:
			resp.Status = "starting"
		case st.LastError != "":
			resp.Status = "degraded"
			resp.LatestSeq = snap.Seq
		default:
			resp.LatestSeq = snap.Seq
		}

		c.JSON(http.StatusOK, resp)
	}
}
