package api

import (
	"net/http"
	"strings"

	"inventory-marketplace/internal/auth"
	"inventory-marketplace/internal/domain"
)

// Authenticate requires a valid "Authorization: Bearer <token>" header and
// puts the caller's principal in the request context.
func (h *HTTPHandler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			h.respondWithError(w, r, &domain.UnauthenticatedError{Message: "access token required"})
			return
		}
		p, err := h.svc.Auth.Authenticate(strings.TrimSpace(token))
		if err != nil {
			h.respondWithError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
	})
}

// RequireAdmin rejects callers without the admin flag. It must run after
// Authenticate.
func (h *HTTPHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		if !ok {
			h.respondWithError(w, r, &domain.UnauthenticatedError{Message: "access token required"})
			return
		}
		if !p.IsAdmin {
			h.respondWithError(w, r, &domain.AuthorizationError{Message: "admin access required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
