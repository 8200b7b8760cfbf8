package handler

import (
	"log/slog"
	"net/http"

	"github.com/steeplehq/steeple/internal/backup"
)

type BackupHandler struct {
	manager *backup.Manager
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, logger: logger}
}

func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "backup status", h.manager.Status())
}

// Run triggers a snapshot immediately instead of waiting for the schedule.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.manager.Enabled() {
		writeJSON(w, http.StatusConflict, envelope{Success: false, Message: "backups are not configured"})
		return
	}

	key, err := h.manager.RunNow(r.Context())
	if err != nil {
		h.logger.Error("manual backup failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "backup failed"})
		return
	}
	writeData(w, http.StatusOK, "backup complete", map[string]any{"key": key, "status": h.manager.Status()})
}
