package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/steeplehq/steeple/internal/access"
	"github.com/steeplehq/steeple/internal/integrity"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/store"
	"github.com/steeplehq/steeple/internal/websocket"
)

type NoteHandler struct {
	notes       *store.NoteStore
	coordinator *integrity.Coordinator
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewNoteHandler(notes *store.NoteStore, co *integrity.Coordinator, hub *websocket.Hub, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, coordinator: co, hub: hub, logger: logger}
}

// ListForPerson returns a person's notes newest first, with staff-only notes
// withheld from viewers.
func (h *NoteHandler) ListForPerson(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	personID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	notes, err := h.notes.ListForPerson(sc.OrgID, personID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	notes = access.FilterNotes(notes, sc.Role)
	if notes == nil {
		notes = []model.Note{}
	}
	writeList(w, "notes listed", notes, len(notes))
}

type noteRequest struct {
	Body       string `json:"body"`
	Visibility string `json:"visibility"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	sc := scopeFrom(r)
	personID, err := parseIDParam(r, "id")
	if err != nil {
		writeBadRequest(w, "invalid id")
		return
	}

	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON")
		return
	}

	note, err := h.coordinator.CreateNote(sc.OrgID, personID, req.Body, model.Visibility(req.Visibility))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(sc.OrgID, "note", "created", note.ID))
	}
	writeData(w, http.StatusCreated, "note created", note)
}
