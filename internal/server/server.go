package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/steeplehq/steeple/internal/backup"
	"github.com/steeplehq/steeple/internal/handler"
	"github.com/steeplehq/steeple/internal/integrity"
	"github.com/steeplehq/steeple/internal/middleware"
	"github.com/steeplehq/steeple/internal/schema"
	"github.com/steeplehq/steeple/internal/store"
	ws "github.com/steeplehq/steeple/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	orgStore      *store.OrganizationStore
	orgH          *handler.OrganizationHandler
	fieldH        *handler.FieldHandler
	personH       *handler.PersonHandler
	tagH          *handler.TagHandler
	householdH    *handler.HouseholdHandler
	noteH         *handler.NoteHandler
	dashboardH    *handler.DashboardHandler
	exportH       *handler.ExportHandler
	backupH       *handler.BackupHandler
	backupManager *backup.Manager
	logger        *slog.Logger
}

func New(db *sql.DB, backupCfg backup.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	orgStore := store.NewOrganizationStore(db)
	fieldStore := store.NewFieldDefStore(db)
	personStore := store.NewPersonStore(db)
	tagStore := store.NewTagStore(db)
	householdStore := store.NewHouseholdStore(db)
	noteStore := store.NewNoteStore(db)

	registry := schema.NewRegistry(fieldStore)
	coordinator := integrity.NewCoordinator(db, registry, personStore, tagStore, householdStore, noteStore)

	backupMgr := backup.NewManager(backupCfg, db, func(st backup.Status) {
		hub.Broadcast(ws.Message{
			Type:   "backup_status",
			Entity: "backup",
			Action: string(st.State),
			Extra: map[string]any{
				"in_progress": st.InProgress,
				"error":       st.Error,
			},
		})
	}, logger.With("component", "backup"))

	return &Server{
		db:            db,
		hub:           hub,
		orgStore:      orgStore,
		orgH:          handler.NewOrganizationHandler(orgStore, logger.With("component", "organization")),
		fieldH:        handler.NewFieldHandler(registry, coordinator, hub, logger.With("component", "field")),
		personH:       handler.NewPersonHandler(personStore, registry, coordinator, hub, logger.With("component", "person")),
		tagH:          handler.NewTagHandler(tagStore, personStore, coordinator, hub, logger.With("component", "tag")),
		householdH:    handler.NewHouseholdHandler(householdStore, personStore, registry, coordinator, hub, logger.With("component", "household")),
		noteH:         handler.NewNoteHandler(noteStore, coordinator, hub, logger.With("component", "note")),
		dashboardH:    handler.NewDashboardHandler(personStore, tagStore, logger.With("component", "dashboard")),
		exportH:       handler.NewExportHandler(personStore, registry, logger.With("component", "export")),
		backupH:       handler.NewBackupHandler(backupMgr, logger.With("component", "backup_handler")),
		backupManager: backupMgr,
		logger:        logger,
	}
}

// Hub returns the change-feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// BackupManager returns the backup manager for lifecycle control.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Unscoped routes
	outerMux.HandleFunc("GET /health", s.healthHandler)
	outerMux.HandleFunc("GET /api/orgs", s.orgH.List)
	outerMux.HandleFunc("POST /api/orgs", s.orgH.Create)
	outerMux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// Org-scoped routes, wrapped with RequireScope middleware
	scopedMux := http.NewServeMux()
	s.registerScopedRoutes(scopedMux)

	scope := middleware.RequireScope(s.orgStore)
	outerMux.Handle("/api/", scope(scopedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerScopedRoutes(mux *http.ServeMux) {
	// Profile field definitions
	mux.HandleFunc("GET /api/fields", s.fieldH.List)
	mux.HandleFunc("POST /api/fields", s.fieldH.Create)
	mux.HandleFunc("DELETE /api/fields/{key}", s.fieldH.Archive)
	mux.HandleFunc("PUT /api/fields/order", s.fieldH.Reorder)

	// People
	mux.HandleFunc("GET /api/people", s.personH.List)
	mux.HandleFunc("POST /api/people", s.personH.Create)
	mux.HandleFunc("GET /api/people/{id}", s.personH.Get)
	mux.HandleFunc("PUT /api/people/{id}", s.personH.Update)
	mux.HandleFunc("DELETE /api/people/{id}", s.personH.Delete)

	// Notes hang off their person
	mux.HandleFunc("GET /api/people/{id}/notes", s.noteH.ListForPerson)
	mux.HandleFunc("POST /api/people/{id}/notes", s.noteH.Create)

	// Tags
	mux.HandleFunc("GET /api/tags", s.tagH.List)
	mux.HandleFunc("POST /api/tags", s.tagH.Create)
	mux.HandleFunc("PUT /api/tags/{id}", s.tagH.Update)
	mux.HandleFunc("DELETE /api/tags/{id}", s.tagH.Archive)
	mux.HandleFunc("GET /api/tags/{id}/usage", s.tagH.Usage)

	// Households and membership
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Rename)
	mux.HandleFunc("DELETE /api/households/{id}", s.householdH.Archive)
	mux.HandleFunc("POST /api/households/{id}/members", s.householdH.AddMember)
	mux.HandleFunc("DELETE /api/households/{id}/members/{personID}", s.householdH.RemoveMember)
	mux.HandleFunc("GET /api/households/{id}/roster", s.householdH.Roster)

	// Derived views and exports
	mux.HandleFunc("GET /api/dashboard", s.dashboardH.Stats)
	mux.HandleFunc("GET /api/export/people.csv", s.exportH.People)

	// Backup control
	mux.HandleFunc("GET /api/backup/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backup/run", s.backupH.Run)
}
