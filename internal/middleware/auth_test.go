package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

// ---------- UserFromCtx ----------

func TestUserFromCtx(t *testing.T) {
	t.Run("returns user when present", func(t *testing.T) {
		ctx := WithUser(context.Background(), "user-42")
		if got := UserFromCtx(ctx); got != "user-42" {
			t.Errorf("UserFromCtx: got %q, want %q", got, "user-42")
		}
	})

	t.Run("returns empty without user", func(t *testing.T) {
		if got := UserFromCtx(context.Background()); got != "" {
			t.Errorf("UserFromCtx: got %q, want empty", got)
		}
	})

	t.Run("ignores wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserKey, 42)
		if got := UserFromCtx(ctx); got != "" {
			t.Errorf("UserFromCtx: got %q, want empty", got)
		}
	})
}

// ---------- RequireUser ----------

func TestRequireUser(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid id", "user-42", http.StatusOK},
		{"uuid", "3f2504e0-4f89-11d3-9a0c-0305e82c3301", http.StatusOK},
		{"trimmed", "  user-42 ", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"contains colon", "a:b", http.StatusUnauthorized},
		{"contains slash", "a/b", http.StatusUnauthorized},
		{"contains space", "a b", http.StatusUnauthorized},
		{"too long", strings.Repeat("x", maxUserIDLen+1), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = UserFromCtx(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/api/carousel", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			RequireUser(inner).ServeHTTP(rr, req)

			if rr.Code != tt.want {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.want)
			}
			if tt.want == http.StatusOK && got != strings.TrimSpace(tt.header) {
				t.Errorf("user: got %q", got)
			}
		})
	}
}

func TestRequireUserBlocksHandler(t *testing.T) {
	next, called := okHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/carousel/generate", nil)
	rr := httptest.NewRecorder()

	RequireUser(next).ServeHTTP(rr, req)

	if *called {
		t.Error("next handler should not have been called")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, `"error":"missing or invalid user id"`) {
		t.Errorf("body: got %q, want a JSON error", body)
	}
}
