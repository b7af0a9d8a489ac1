package http

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// requireAdmin guards mutating endpoints with HTTP basic auth against
// the single configured admin credential. The password is stored as a
// bcrypt hash only.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminPasswordHash == "" {
			writeJSONError(w, http.StatusUnauthorized, "auth_not_configured", "Admin credentials are not configured")
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || user != s.config.AdminUser {
			w.Header().Set("WWW-Authenticate", `Basic realm="attendance-hub"`)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Admin credentials required")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.config.AdminPasswordHash), []byte(pass)); err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="attendance-hub"`)
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Admin credentials required")
			return
		}

		next(w, r)
	}
}
