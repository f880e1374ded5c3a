package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Trusted headers set by the authentication layer in front of this
// service. Tenant identity is never read from the request body or query
// string.
const (
	OrganizationHeader = "X-Organization-Id"
	UserHeader         = "X-User-Id"
)

// Middleware resolves the organization and user scope from trusted
// headers and stores them on the request context. Requests without a
// usable organization header are rejected before any handler runs.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgRaw := strings.TrimSpace(r.Header.Get(OrganizationHeader))
		if orgRaw == "" {
			http.Error(w, "missing organization header", http.StatusUnauthorized)
			return
		}
		orgID, err := uuid.Parse(orgRaw)
		if err != nil || orgID == uuid.Nil {
			http.Error(w, "invalid organization header", http.StatusUnauthorized)
			return
		}

		ctx := ContextWithOrganizationID(r.Context(), orgID)

		if userRaw := strings.TrimSpace(r.Header.Get(UserHeader)); userRaw != "" {
			if userID, err := uuid.Parse(userRaw); err == nil {
				ctx = ContextWithUserID(ctx, userID)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
