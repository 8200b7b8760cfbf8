package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/steeplehq/steeple/internal/store"
	"github.com/steeplehq/steeple/internal/views"
)

type DashboardHandler struct {
	people *store.PersonStore
	tags   *store.TagStore
	logger *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

func NewDashboardHandler(people *store.PersonStore, tags *store.TagStore, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{people: people, tags: tags, logger: logger, now: time.Now}
}

// Stats recomputes the dashboard summary from current records on every call.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	people, err := h.people.List(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	tags, err := h.tags.List(sc.OrgID, false)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	stats := views.Dashboard(people, tags, h.now())
	writeData(w, http.StatusOK, "dashboard stats", stats)
}
