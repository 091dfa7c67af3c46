package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// captureLogs routes the default logger into a buffer for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// requestLine decodes the single "http request" record in buf.
func requestLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		if err := json.Unmarshal(line, &rec); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if rec["msg"] == "http request" {
			return rec
		}
	}
	t.Fatalf("no request log in %q", buf.String())
	return nil
}

func TestLogger_Fields(t *testing.T) {
	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"ok", http.StatusOK, "INFO"},
		{"client error", http.StatusNotFound, "WARN"},
		{"server error", http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("12345"))
			}))

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/carousel/export", nil))

			if rr.Code != tt.status {
				t.Errorf("status: got %d, want %d", rr.Code, tt.status)
			}
			rec := requestLine(t, logs)
			if rec["level"] != tt.level {
				t.Errorf("level: got %v, want %s", rec["level"], tt.level)
			}
			if rec["status"] != float64(tt.status) || rec["bytes"] != float64(5) {
				t.Errorf("status/bytes: got %v/%v", rec["status"], rec["bytes"])
			}
			if rec["method"] != http.MethodPost || rec["path"] != "/api/carousel/export" {
				t.Errorf("method/path: got %v %v", rec["method"], rec["path"])
			}
			if _, ok := rec["user_id"]; ok {
				t.Error("user_id logged for an anonymous request")
			}
		})
	}
}

func TestLogger_RecordsUserAndRequestID(t *testing.T) {
	logs := captureLogs(t)
	var seen string
	handler := chimw.RequestID(Logger(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromCtx(r.Context())
		w.WriteHeader(http.StatusOK)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/carousel", nil)
	req.Header.Set(UserHeader, "user-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "user-42" {
		t.Errorf("handler saw user %q", seen)
	}
	rec := requestLine(t, logs)
	if rec["user_id"] != "user-42" {
		t.Errorf("user_id: got %v, want user-42", rec["user_id"])
	}
	if id, _ := rec["request_id"].(string); id == "" {
		t.Error("request_id missing")
	}
}

func TestLogger_RejectedUserIsNotRecorded(t *testing.T) {
	logs := captureLogs(t)
	handler := Logger(RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a user")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/carousel", nil)
	req.Header.Set(UserHeader, "a:b")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	rec := requestLine(t, logs)
	if rec["status"] != float64(http.StatusUnauthorized) || rec["level"] != "WARN" {
		t.Errorf("status/level: got %v/%v", rec["status"], rec["level"])
	}
	if _, ok := rec["user_id"]; ok {
		t.Errorf("user_id logged for a rejected id: %v", rec["user_id"])
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("first WriteHeader wins", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)
		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode: got %d, want 404", rw.statusCode)
		}
	})

	t.Run("Write defaults to 200 and counts bytes", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusTeapot}
		rw.Write([]byte("test"))
		rw.Write([]byte("ing"))
		if rw.statusCode != http.StatusOK || rw.bytes != 7 {
			t.Errorf("got %d/%d bytes, want 200/7", rw.statusCode, rw.bytes)
		}
	})
}
