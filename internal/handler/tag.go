package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/steeplehq/steeple/internal/integrity"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/store"
	"github.com/steeplehq/steeple/internal/views"
	"github.com/steeplehq/steeple/internal/websocket"
)

type TagHandler struct {
	tags        *store.TagStore
	people      *store.PersonStore
	coordinator *integrity.Coordinator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewTagHandler(tags *store.TagStore, people *store.PersonStore, co *integrity.Coordinator, hub *websocket.Hub, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, people: people, coordinator: co, hub: hub, logger: logger}
}

func (h *TagHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	tags, err := h.tags.List(sc.OrgID, r.URL.Query().Get("include_archived") == "true")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeList(w, "tags listed", tags, len(tags))
}

// Usage reports how many people currently carry the tag.
func (h *TagHandler) Usage(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	tag, err := h.tags.GetByID(sc.OrgID, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if tag == nil {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "tag not found"})
		return
	}

	people, err := h.people.List(sc.OrgID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	usage := views.TagUsage{Tag: *tag, Count: views.UsageCount(people, id)}
	writeData(w, http.StatusOK, "tag usage", usage)
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	tag, err := h.coordinator.CreateTag(sc.OrgID, req.Name, req.Color)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "tag", "created", tag.ID))
	writeData(w, http.StatusCreated, "tag created", tag)
}

func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var req tagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	tag, err := h.coordinator.UpdateTag(sc.OrgID, id, req.Name, req.Color)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "tag", "updated", id))
	writeData(w, http.StatusOK, "tag updated", tag)
}

// Archive cascades the removal of every person's reference before the tag is
// hidden from lookups. Calling it on an archived tag is a no-op success.
func (h *TagHandler) Archive(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	if err := h.coordinator.ArchiveTag(sc.OrgID, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "tag", "archived", id))
	writeData(w, http.StatusOK, "tag archived", nil)
}
