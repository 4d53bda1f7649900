package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/mcxwatch/models"
)

// HistoryFile is the CSV served by /download.
type HistoryFile interface {
	Path() string
	Bytes() ([]byte, error)
}

// Download returns a handler for GET /download.
func Download(h HistoryFile) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h.Bytes()
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "CSV file not found"})
			return
		}
		if err != nil {
			respondError(c, models.NewExtractError(models.ErrCodePersistence, "read history file", err))
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(h.Path())))
		c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
	}
}
