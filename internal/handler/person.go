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
	"github.com/steeplehq/steeple/internal/websocket"
)

type PersonHandler struct {
	people      *store.PersonStore
	registry    *schema.Registry
	coordinator *integrity.Coordinator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewPersonHandler(people *store.PersonStore, reg *schema.Registry, co *integrity.Coordinator, hub *websocket.Hub, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{people: people, registry: reg, coordinator: co, hub: hub, logger: logger}
}

func (h *PersonHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// allDefs loads every definition, archived included, so historical values
// stay classified when projecting for a viewer.
func (h *PersonHandler) allDefs(orgID int64) ([]model.FieldDef, error) {
	return h.registry.Fields(orgID, true)
}

func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	people, err := h.people.List(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if people == nil {
		people = []model.Person{}
	}

	defs, err := h.allDefs(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	people = access.FilterPeople(people, defs, sc.Role)
	writeList(w, "people listed", people, len(people))
}

func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	person, err := h.people.GetByID(sc.OrgID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if person == nil {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "person not found"})
		return
	}

	defs, err := h.allDefs(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	filtered := access.FilterPerson(*person, defs, sc.Role)
	writeData(w, http.StatusOK, "person found", filtered)
}

type personCreateRequest struct {
	Name   string         `json:"name"`
	Email  string         `json:"email"`
	Phone  string         `json:"phone"`
	Status string         `json:"status"`
	Fields map[string]any `json:"fields"`
	TagIDs []int64        `json:"tag_ids"`
}

func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	var req personCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	person, err := h.coordinator.CreatePerson(sc.OrgID, integrity.PersonInput{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Status: req.Status,
		Fields: req.Fields,
		TagIDs: req.TagIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "person", "created", person.ID))
	writeData(w, http.StatusCreated, "person created", person)
}

type personUpdateRequest struct {
	Name   *string        `json:"name"`
	Email  *string        `json:"email"`
	Phone  *string        `json:"phone"`
	Status *string        `json:"status"`
	Fields map[string]any `json:"fields"`
	TagIDs *[]int64       `json:"tag_ids"`
}

// Update applies a partial merge: only attributes present in the body change.
// Inside fields, an explicit null removes the key.
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var req personUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	person, err := h.coordinator.UpdatePerson(sc.OrgID, id, integrity.PersonPatch{
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Status: req.Status,
		Fields: req.Fields,
		TagIDs: req.TagIDs,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "person", "updated", id))
	writeData(w, http.StatusOK, "person updated", person)
}

func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	if err := h.coordinator.DeletePerson(sc.OrgID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "person", "deleted", id))
	writeData(w, http.StatusOK, "person deleted", nil)
}
