package api

import (
	"alcyxob/workout-log/internal/service"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Legacy logs are small; anything above this is not one.
const maxImportBytes = 8 << 20

type BackupHandler struct {
	backup *service.BackupService
}

func NewBackupHandler(backup *service.BackupService) *BackupHandler {
	return &BackupHandler{backup: backup}
}

// Import godoc
// @Summary Import a legacy log
// @Description Replays a {"YYYY-MM-DD": [{exercise, sets}]} log into the user's log.
// @Tags Workouts
// @Accept json
// @Produce json
// @Success 200 {object} gin.H "{imported: n}"
// @Failure 400 {object} gin.H "Invalid log"
// @Security BearerAuth
// @Router /workouts/import [post]
func (h *BackupHandler) Import(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read request body")
		return
	}
	if len(body) > maxImportBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge, "Log is too large")
		return
	}

	n, err := h.backup.Import(c.Request.Context(), userID, body)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		log.WithError(err).WithFields(log.Fields{"user": userID, "imported": n}).Error("legacy import failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Import failed", "imported": n})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// Export godoc
// @Summary Export the log
// @Description Stores a JSON snapshot of the log and returns a temporary download URL.
// @Tags Workouts
// @Produce json
// @Success 200 {object} service.ExportResult
// @Failure 503 {object} gin.H "Snapshot storage not configured"
// @Security BearerAuth
// @Router /workouts/export [post]
func (h *BackupHandler) Export(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	res, err := h.backup.Export(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			abortWithError(c, http.StatusServiceUnavailable, err.Error())
			return
		}
		log.WithError(err).WithField("user", userID).Error("export failed")
		abortWithError(c, http.StatusInternalServerError, "Export failed")
		return
	}
	c.JSON(http.StatusOK, res)
}
