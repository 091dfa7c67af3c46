// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// previewCSP allows what the HTML preview needs: inline styles and
// data: or https media. Nothing may frame the API or run script.
const previewCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src data: https:; media-src data: https:; frame-ancestors 'none'; base-uri 'none'; form-action 'none'"

// SecureHeaders sets the response headers for a private JSON API.
// Responses carry per-user data, so nothing is cached.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", previewCSP)
		h.Set("Cache-Control", "no-store")

		next.ServeHTTP(w, r)
	})
}
