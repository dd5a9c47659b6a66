package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Header names the print client may use to present its API key.
var apiKeyHeaders = []string{"X-API-Key", "X-Print-Key", "Authorization"}

// APIKeyAuth guards the print-client routes with a shared API key. Any of the
// accepted header names works, with an optional "Bearer " prefix. When
// keyHash (a bcrypt hash) is set it takes precedence over the plain key, so
// deployments can avoid keeping the key itself in the environment.
func APIKeyAuth(key, keyHash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := presentedKey(r)
			if presented == "" {
				logger.Warn("auth: missing api key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "api key required")
				return
			}

			if !keyMatches(presented, key, keyHash) {
				logger.Warn("auth: invalid api key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func presentedKey(r *http.Request) string {
	for _, h := range apiKeyHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(v, "Bearer "); ok {
			v = strings.TrimSpace(rest)
		}
		if v != "" {
			return v
		}
	}
	return ""
}

func keyMatches(presented, key, keyHash string) bool {
	if keyHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(presented)) == nil
	}
	if key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(key)) == 1
}
