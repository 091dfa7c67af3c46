// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package media handles slide visual payloads: data URIs produced by the
// generators or uploads, and remote links. It decodes them to bytes and
// works out their real media type from content rather than trusting the
// declared one.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/h2non/filetype"
)

var (
	// ErrMalformedDataURI is returned for data URIs that cannot be decoded.
	ErrMalformedDataURI = errors.New("malformed data URI")
	// ErrUnsupportedScheme is returned for visuals that are neither data
	// URIs nor http(s) links.
	ErrUnsupportedScheme = errors.New("unsupported visual scheme")
	// ErrTooLarge is returned when a payload exceeds the fetch limit.
	ErrTooLarge = errors.New("visual payload too large")
)

// Payload is a decoded visual.
type Payload struct {
	MediaType string
	Data      []byte
}

// IsVideo reports whether the payload holds video, by content when
// recognisable and by declared type otherwise.
func (p Payload) IsVideo() bool {
	if kind, err := filetype.Match(p.Data); err == nil && kind != filetype.Unknown {
		return strings.HasPrefix(kind.MIME.Value, "video/")
	}
	return strings.HasPrefix(p.MediaType, "video/")
}

// Extension returns the file extension for the payload without a dot.
// It prefers the sniffed type, then the declared subtype, then fallback.
func (p Payload) Extension(fallback string) string {
	if kind, err := filetype.Match(p.Data); err == nil && kind != filetype.Unknown {
		return kind.Extension
	}
	if _, sub, ok := strings.Cut(p.MediaType, "/"); ok {
		sub, _, _ = strings.Cut(sub, ";")
		sub, _, _ = strings.Cut(sub, "+")
		if sub = strings.TrimSpace(sub); sub != "" {
			return sub
		}
	}
	return fallback
}

// ParseDataURI decodes an RFC 2397 data URI.
func ParseDataURI(uri string) (Payload, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Payload{}, ErrMalformedDataURI
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return Payload{}, ErrMalformedDataURI
	}

	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		meta, isBase64 = m, true
	}
	mediaType := "text/plain"
	if meta != "" {
		mt, _, err := mime.ParseMediaType(meta)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
		}
		mediaType = mt
	}

	var raw []byte
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			// Some encoders drop padding.
			b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
			if err != nil {
				return Payload{}, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
			}
		}
		raw = b
	} else {
		s, err := url.PathUnescape(data)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrMalformedDataURI, err)
		}
		raw = []byte(s)
	}
	return Payload{MediaType: mediaType, Data: raw}, nil
}

// EncodeDataURI encodes data as a base64 data URI. An empty media type
// is replaced by the sniffed one.
func EncodeDataURI(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = Sniff(data)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Sniff returns the media type detected from content, falling back to
// net/http's detection.
func Sniff(data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return mt
}

// Fetcher loads visuals from data URIs and http(s) links.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
}

// DefaultMaxBytes bounds remote downloads.
const DefaultMaxBytes = 64 << 20

// NewFetcher creates a Fetcher with the given timeout for remote links.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: DefaultMaxBytes,
	}
}

// Load decodes or downloads the visual.
func (f *Fetcher) Load(ctx context.Context, uri string) (Payload, error) {
	switch {
	case strings.HasPrefix(uri, "data:"):
		return ParseDataURI(uri)
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return f.get(ctx, uri)
	}
	return Payload{}, ErrUnsupportedScheme
}

func (f *Fetcher) get(ctx context.Context, uri string) (Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("fetch visual: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("fetch visual: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Payload{}, fmt.Errorf("read visual: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return Payload{}, ErrTooLarge
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = Sniff(data)
	}
	return Payload{MediaType: mediaType, Data: data}, nil
}
