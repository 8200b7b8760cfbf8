package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/store"
)

// OrganizationHandler serves the unscoped org endpoints. Everything else in
// the API lives under an organization scope.
type OrganizationHandler struct {
	orgs   *store.OrganizationStore
	logger *slog.Logger
}

func NewOrganizationHandler(orgs *store.OrganizationStore, logger *slog.Logger) *OrganizationHandler {
	return &OrganizationHandler{orgs: orgs, logger: logger}
}

func (h *OrganizationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.orgs.List()
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if orgs == nil {
		orgs = []model.Organization{}
	}
	writeList(w, "organizations listed", orgs, len(orgs))
}

func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeBadRequest(w, "name is required")
		return
	}

	org, err := h.orgs.Create(name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeData(w, http.StatusCreated, "organization created", org)
}
