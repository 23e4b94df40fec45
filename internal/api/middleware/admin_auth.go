package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/engsync/briefing/internal/api/shared"
	"github.com/engsync/briefing/internal/service/auth"
)

// AdminAuthMiddleware gates the /admin surface behind HTTP basic auth. The
// password is verified against a bcrypt hash from configuration, so the
// plaintext never lives in config files.
type AdminAuthMiddleware struct {
	username     string
	passwordHash string
	verifier     auth.PasswordVerifier
}

// NewAdminAuthMiddleware creates a new AdminAuthMiddleware.
func NewAdminAuthMiddleware(username, passwordHash string, verifier auth.PasswordVerifier) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		username:     username,
		passwordHash: passwordHash,
		verifier:     verifier,
	}
}

// Authenticate validates basic auth credentials and rejects the request with
// a WWW-Authenticate challenge otherwise.
func (m *AdminAuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			m.challenge(w, r)
			return
		}

		// Constant-time username comparison; bcrypt handles the password.
		usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(m.username)) == 1
		if !usernameMatch || m.verifier.Compare(m.passwordHash, password) != nil {
			m.challenge(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AdminAuthMiddleware) challenge(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="briefing admin"`)
	shared.RespondWithError(w, r, http.StatusUnauthorized, "Unauthorized")
}
