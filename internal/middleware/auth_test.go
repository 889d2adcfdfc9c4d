package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/foodgram/internal/auth"
	"github.com/dukerupert/foodgram/internal/database"
	"github.com/dukerupert/foodgram/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.TokenStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewTokenStore(db), store.NewUserStore(db)
}

func authChain(ts *store.TokenStore, us *store.UserStore, h http.Handler) http.Handler {
	return Authenticate(ts, us, slog.Default())(h)
}

func TestAuthenticateAnonymous(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)

	reached := false
	handler := authChain(ts, us, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if auth.IsAuthenticated(r.Context()) {
			t.Error("request without header should be anonymous")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("anonymous request should reach handler")
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)

	handler := authChain(ts, us, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	for _, header := range []string{"Token deadbeef", "Bearer abc", "Token "} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%q: status = %d, want %d", header, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestAuthenticateValidToken(t *testing.T) {
	ts, us := setupAuthMiddlewareDB(t)

	u, err := us.Create("alice@example.com", "alice", "Alice", "Smith", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	tok, err := ts.GetOrCreate(u.ID)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	var gotAC auth.AuthContext
	handler := authChain(ts, us, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Token "+tok.Key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %d, want %d", gotAC.UserID, u.ID)
	}
	if gotAC.TokenID != tok.ID {
		t.Errorf("TokenID = %d, want %d", gotAC.TokenID, tok.ID)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{UserID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("authenticated: status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}
