package guard_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekit/pkg/guard"
	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("allowed request reaches handler with identity", func(t *testing.T) {
		t.Parallel()

		g := newTestGuard(t, guard.Config{RequireAuth: true})
		token, err := g.GenerateToken("user-9", []string{"member"}, nil)
		require.NoError(t, err)

		router := chi.NewRouter()
		router.Use(g.Middleware())
		router.Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
			auth, ok := guard.AuthFromContext(r.Context())
			require.True(t, ok)
			_, _ = w.Write([]byte(auth.UserID))
		})

		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r.RemoteAddr = "10.9.0.1:1234"
		r.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-9", rec.Body.String())
	})

	t.Run("denied request is answered with json error", func(t *testing.T) {
		t.Parallel()

		g := newTestGuard(t, guard.Config{RequireAuth: true})

		router := chi.NewRouter()
		router.Use(g.Middleware())
		router.Get("/api/me", func(w http.ResponseWriter, r *http.Request) {
			t.Error("handler must not run for denied requests")
		})

		r := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		r.RemoteAddr = "10.9.0.2:1234"

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, r)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, guard.ReasonUnauthorized, body["error"])
	})

	t.Run("rate limited response carries limiter headers", func(t *testing.T) {
		t.Parallel()

		g := newTestGuard(t, guard.Config{
			RateLimit: ratelimit.Config{MaxRequests: 1, Window: time.Minute},
		})

		router := chi.NewRouter()
		router.Use(g.Middleware())
		router.Get("/api/data", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		send := func() *httptest.ResponseRecorder {
			r := httptest.NewRequest(http.MethodGet, "/api/data", nil)
			r.RemoteAddr = "10.9.0.3:1234"
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, r)
			return rec
		}

		require.Equal(t, http.StatusOK, send().Code)

		rec := send()
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	})
}
