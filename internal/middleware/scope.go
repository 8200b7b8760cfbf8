package middleware

import (
	"net/http"
	"strconv"

	"github.com/steeplehq/steeple/internal/access"
	"github.com/steeplehq/steeple/internal/model"
	"github.com/steeplehq/steeple/internal/store"
)

// Headers set by the fronting authorization layer. The core trusts them; it
// holds no policy beyond field and note visibility.
const (
	orgHeader  = "X-Steeple-Org"
	roleHeader = "X-Steeple-Role"
)

// RequireScope resolves the organization and role headers into an
// access.Scope on the request context. Requests without a resolvable
// organization are rejected before they reach a handler.
func RequireScope(orgs *store.OrganizationStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, err := strconv.ParseInt(r.Header.Get(orgHeader), 10, 64)
			if err != nil || orgID <= 0 {
				http.Error(w, "missing or invalid "+orgHeader+" header", http.StatusBadRequest)
				return
			}

			org, err := orgs.GetByID(orgID)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if org == nil {
				http.Error(w, "unknown organization", http.StatusNotFound)
				return
			}

			role := model.Role(r.Header.Get(roleHeader))
			if role == "" {
				role = model.RoleViewer
			}
			if !role.Valid() {
				http.Error(w, "unknown role", http.StatusBadRequest)
				return
			}

			ctx := access.WithScope(r.Context(), access.Scope{OrgID: orgID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
