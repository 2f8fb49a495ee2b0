package httpserver

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const adminContextKey contextKey = "admin_id"

const webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// requireWebhookSecret rejects updates that do not carry the secret
// registered with setWebhook
func (s *Server) requireWebhookSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.WebhookSecret != "" {
			got := r.Header.Get(webhookSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.opts.WebhookSecret)) != 1 {
				s.log.Warn("webhook request with bad secret", "remote", r.RemoteAddr)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requireToken rejects requests without a valid bearer token and stores the
// admin ID in the request context
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if header == "" || tokenString == header {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		claims, err := ParseToken(s.opts.APISecret, tokenString)
		if err != nil {
			s.log.Warn("invalid api token", "remote", r.RemoteAddr, "error", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), adminContextKey, claims.AdminID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func adminFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(adminContextKey).(int64)
	return id
}
