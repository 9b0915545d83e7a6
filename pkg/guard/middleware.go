package guard

import (
	"encoding/json"
	"net/http"
)

// Middleware wraps an http.Handler with the guard pipeline. Denied
// requests are answered directly with the verdict's status, headers, and a
// JSON body; allowed requests proceed with the authentication context
// attached to the request context.
func (g *Guard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			verdict := g.Guard(r)
			if !verdict.Allowed {
				writeVerdict(w, verdict)
				return
			}

			if verdict.Auth != nil {
				r = r.WithContext(WithAuthContext(r.Context(), verdict.Auth))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeVerdict(w http.ResponseWriter, v Verdict) {
	for key, value := range v.Headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(v.StatusCode)

	body := v.Body
	if body == nil {
		body = map[string]any{"error": v.Reason}
	}
	_ = json.NewEncoder(w).Encode(body)
}
