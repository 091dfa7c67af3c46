// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug turns carousel titles into file and object-key names.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// nonAlnum matches every character that isn't an ASCII letter or digit.
	nonAlnum = regexp.MustCompile(`[^a-z0-9]`)
)

// Generate creates a hyphenated slug, used for object-storage keys.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// Compact lowercases s and strips every character that is not an ASCII
// letter or digit. It returns fallback when nothing is left.
// Example: "10 Tips: Go!" → "10tipsgo"
func Compact(s, fallback string) string {
	result := nonAlnum.ReplaceAllString(strings.ToLower(s), "")
	if result == "" {
		return fallback
	}
	return result
}
