package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// GatewayAuth admits only requests carrying the chat gateway's shared secret
// as a bearer token. The actor inside an event is trusted only because the
// gateway vouches for it, so an empty secret rejects everything.
func GatewayAuth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	want := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				unauthorized(w, "event webhook is disabled")
				return
			}

			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
				logger.Warn("gateway request rejected",
					zap.String("path", r.URL.Path),
					zap.String("remote", r.RemoteAddr),
				)
				unauthorized(w, "missing or invalid gateway token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
