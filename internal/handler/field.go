package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/steeplehq/steeple/internal/integrity"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/schema"
	"github.com/steeplehq/steeple/internal/websocket"
)

type FieldHandler struct {
	registry    *schema.Registry
	coordinator *integrity.Coordinator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewFieldHandler(reg *schema.Registry, co *integrity.Coordinator, hub *websocket.Hub, logger *slog.Logger) *FieldHandler {
	return &FieldHandler{registry: reg, coordinator: co, hub: hub, logger: logger}
}

func (h *FieldHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// List returns the field definitions the caller's role may see, in display
// order.
func (h *FieldHandler) List(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	defs, err := h.registry.VisibleFieldsFor(sc.OrgID, sc.Role)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if defs == nil {
		defs = []model.FieldDef{}
	}
	writeList(w, "fields listed", defs, len(defs))
}

type fieldRequest struct {
	Key        string              `json:"key"`
	Label      string              `json:"label"`
	Type       model.FieldType     `json:"type"`
	Options    []model.FieldOption `json:"options"`
	Required   bool                `json:"required"`
	Visibility model.Visibility    `json:"visibility"`
	OrderIndex *int                `json:"order_index"`
}

func (h *FieldHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	var req fieldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	def, err := h.coordinator.DefineField(sc.OrgID, schema.FieldInput{
		Key:        req.Key,
		Label:      req.Label,
		Type:       req.Type,
		Options:    req.Options,
		Required:   req.Required,
		Visibility: req.Visibility,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "field", "created", def.ID))
	writeData(w, http.StatusCreated, "field defined", def)
}

// Archive soft-deletes a definition; stored person values under the key are
// preserved.
func (h *FieldHandler) Archive(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	key := r.PathValue("key")

	if err := h.coordinator.ArchiveField(sc.OrgID, key); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "field", "archived", 0))
	writeData(w, http.StatusOK, "field archived", nil)
}

func (h *FieldHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)

	var req struct {
		Keys []string `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	if err := h.coordinator.ReorderFields(sc.OrgID, req.Keys); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(websocket.NewMessage(sc.OrgID, "field", "reordered", 0))
	writeData(w, http.StatusOK, "fields reordered", nil)
}
