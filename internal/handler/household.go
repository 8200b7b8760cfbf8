package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/steeplehq/steeple/internal/access"
	"github.com/steeplehq/steeple/internal/integrity"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/schema"
	"github.com/steeplehq/steeple/internal/store"
	"github.com/steeplehq/steeple/internal/views"
	"github.com/steeplehq/steeple/internal/websocket"
)

type HouseholdHandler struct {
	households  *store.HouseholdStore
	people      *store.PersonStore
	registry    *schema.Registry
	coordinator *integrity.Coordinator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewHouseholdHandler(households *store.HouseholdStore, people *store.PersonStore, reg *schema.Registry, co *integrity.Coordinator, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{households: households, people: people, registry: reg, coordinator: co, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	households, err := h.households.List(sc.OrgID, r.URL.Query().Get("include_archived") == "true")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if households == nil {
		households = []model.Household{}
	}
	writeList(w, "households listed", households, len(households))
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	household, err := h.households.GetByID(sc.OrgID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "household not found"})
		return
	}
	writeData(w, http.StatusOK, "household found", household)
}

type householdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	household, err := h.coordinator.CreateHousehold(sc.OrgID, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "household", "created", household.ID))
	writeData(w, http.StatusCreated, "household created", household)
}

func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	household, err := h.coordinator.RenameHousehold(sc.OrgID, id, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "household", "updated", id))
	writeData(w, http.StatusOK, "household renamed", household)
}

// Archive refuses to leave members behind: a non-empty household archives
// only when ?cascade=true, which removes every membership first.
func (h *HouseholdHandler) Archive(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	cascade := r.URL.Query().Get("cascade") == "true"
	if err := h.coordinator.ArchiveHousehold(sc.OrgID, id, cascade); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "household", "archived", id))
	writeData(w, http.StatusOK, "household archived", nil)
}

type memberRequest struct {
	PersonID     int64  `json:"person_id"`
	Relationship string `json:"relationship"`
}

func (h *HouseholdHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	member, err := h.coordinator.AddHouseholdMember(sc.OrgID, id, req.PersonID, req.Relationship)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "household", "member_added", id))
	writeData(w, http.StatusCreated, "member added", member)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}
	personID, err := parseIDParam(r, "personID")
	if err != nil {
		writeBadRequest(w, "invalid person id")
		return
	}

	if err := h.coordinator.RemoveHouseholdMember(sc.OrgID, id, personID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "household", "member_removed", id))
	writeData(w, http.StatusOK, "member removed", nil)
}

// Roster returns the household's members joined with their person records,
// filtered for the caller's role.
func (h *HouseholdHandler) Roster(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	household, err := h.households.GetByID(sc.OrgID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if household == nil {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "household not found"})
		return
	}

	members, err := h.households.Members(id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	people, err := h.people.List(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	defs, err := h.registry.Fields(sc.OrgID, true)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	roster := views.Roster(members, access.FilterPeople(people, defs, sc.Role))
	writeList(w, "household roster", roster, len(roster))
}
