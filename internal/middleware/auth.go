package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/store"
)

const tokenScheme = "Token "

// Authenticate resolves an "Authorization: Token <key>" header into an
// AuthContext. Requests without the header pass through anonymously; a
// header with an unknown key is rejected with 401.
func Authenticate(tokens *store.TokenStore, users *store.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := strings.CutPrefix(header, tokenScheme)
			key = strings.TrimSpace(key)
			if !ok || key == "" {
				writeDetail(w, http.StatusUnauthorized, "Invalid token header.")
				return
			}

			tok, err := tokens.GetByKey(key)
			if err != nil {
				logger.Error("look up token", "error", err)
				writeDetail(w, http.StatusInternalServerError, "internal error")
				return
			}
			if tok == nil {
				writeDetail(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			user, err := users.GetByID(tok.UserID)
			if err != nil {
				logger.Error("look up token owner", "error", err)
				writeDetail(w, http.StatusInternalServerError, "internal error")
				return
			}
			if user == nil {
				writeDetail(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID:  user.ID,
				TokenID: tok.ID,
				IsStaff: user.IsStaff,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
