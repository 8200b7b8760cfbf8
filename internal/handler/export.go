package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/steeplehq/steeple/internal/access"
	"github.com/steeplehq/steeple/internal/export"
	"github.com/steeplehq/steeple/internal/schema"
	"github.com/steeplehq/steeple/internal/store"
)

type ExportHandler struct {
	people   *store.PersonStore
	registry *schema.Registry
	logger   *slog.Logger
}

func NewExportHandler(people *store.PersonStore, reg *schema.Registry, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{people: people, registry: reg, logger: logger}
}

// People streams the roster as a CSV attachment. The column set follows the
// caller's role, so a viewer's export never contains staff-only fields.
func (h *ExportHandler) People(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	people, err := h.people.List(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	visible, err := h.registry.VisibleFieldsFor(sc.OrgID, sc.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	allDefs, err := h.registry.Fields(sc.OrgID, true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	people = access.FilterPeople(people, allDefs, sc.Role)

	filename := fmt.Sprintf("people-%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.PeopleCSV(w, people, visible); err != nil {
		h.logger.Error("csv export failed", "error", err)
	}
}
