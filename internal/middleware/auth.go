// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// UserKey is the context key for the caller's user id.
	UserKey contextKey = "user"

	// UserHeader carries the user id set by the identity provider in
	// front of the API.
	UserHeader = "X-User-ID"
)

// maxUserIDLen bounds the header value; it becomes part of storage keys.
const maxUserIDLen = 128

// RequireUser reads the user id from UserHeader and stores it in the
// request context. Requests without a usable id get 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(UserHeader))
		if !validUserID(id) {
			errorJSON(w, http.StatusUnauthorized, "missing or invalid user id")
			return
		}
		noteUser(r.Context(), id)

		ctx := context.WithValue(r.Context(), UserKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromCtx returns the user id stored by RequireUser, or "".
func UserFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(UserKey).(string)
	return id
}

// WithUser returns ctx carrying id, as RequireUser would.
func WithUser(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, UserKey, id)
}

// validUserID accepts printable ASCII without separators used in keys.
func validUserID(id string) bool {
	if id == "" || len(id) > maxUserIDLen {
		return false
	}
	for _, c := range id {
		if c <= ' ' || c > '~' || c == ':' || c == '/' {
			return false
		}
	}
	return true
}
