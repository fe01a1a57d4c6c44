package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized", "message": msg})
}

// AdminAuth accepts only HS256 bearer tokens signed with secret whose
// subject is the admin's chat id. An empty secret rejects everything.
func AdminAuth(secret string, adminID int64, logger *zap.Logger) func(http.Handler) http.Handler {
	subject := strconv.FormatInt(adminID, 10)
	keyFunc := func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				unauthorized(w, "admin API is disabled")
				return
			}

			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || scheme != "Bearer" || token == "" {
				unauthorized(w, "expected 'Bearer <token>'")
				return
			}

			claims := &jwt.RegisteredClaims{}
			_, err := jwt.ParseWithClaims(token, claims, keyFunc,
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithExpirationRequired(),
			)
			if err != nil {
				if !errors.Is(err, jwt.ErrTokenExpired) {
					logger.Warn("admin token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				}
				unauthorized(w, "invalid or expired token")
				return
			}
			if claims.Subject != subject {
				logger.Warn("admin token for wrong subject", zap.String("subject", claims.Subject))
				unauthorized(w, "token subject is not the admin")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
