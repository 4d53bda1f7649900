package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/mcxwatch/models"
)

// Version is reported by /health.
const Version = "0.1.0"

// SnapshotSource exposes the latest published snapshot.
type SnapshotSource interface {
	Latest() (*models.Snapshot, bool)
}

// CycleRunner runs one on-demand cycle through the shared publish path.
type CycleRunner interface {
	RunOnce(ctx context.Context) (*models.Snapshot, error)
}

// respondError maps err to a status code and writes {error, code}.
func respondError(c *gin.Context, err error) {
	var extractErr *models.ExtractError
	if !errors.As(err, &extractErr) {
		extractErr = models.NewExtractError(models.ErrCodeInternal, "internal error", err)
	}
	c.JSON(mapErrorToStatus(extractErr), extractErr.ToResponse())
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ExtractError) int {
	switch e.Code {
	case models.ErrCodeRendererUnavailable:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeNoData:
		return http.StatusNotFound // 404
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
