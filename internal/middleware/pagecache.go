// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"encoding/gob"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"storefront-go/internal/cache"
)

// PageCachePrefix namespaces cached page responses within the cache
// backend. Invalidation deletes everything under this prefix.
const PageCachePrefix = "page:"

// cachedResponse is the serialized form of a cached page.
type cachedResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

// cacheableStatus reports whether a response status may be cached.
// Not-found pages are as stable as listings, so they cache too; other
// non-200 responses pass through uncached.
func cacheableStatus(status int) bool {
	return status == http.StatusOK || status == http.StatusNotFound
}

// PageCacheConfig holds configuration for the page cache middleware.
type PageCacheConfig struct {
	Cache cache.Cache
	TTL   time.Duration

	// Sessions is used to bypass the cache for authenticated users so
	// admins always see fresh listings.
	Sessions *scs.SessionManager
}

// PageCache returns middleware that caches GET responses, including
// not-found pages. Only GET requests by unauthenticated clients are
// served from or stored in the cache; every other request passes
// straight through.
func PageCache(cfg PageCacheConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Cache == nil || r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			if cfg.Sessions != nil && IsAuthenticated(cfg.Sessions, r) {
				next.ServeHTTP(w, r)
				return
			}

			key := PageCacheKey(r)

			if data, err := cfg.Cache.Get(r.Context(), key); err == nil {
				var resp cachedResponse
				if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&resp); err == nil {
					if resp.ContentType != "" {
						w.Header().Set("Content-Type", resp.ContentType)
					}
					w.Header().Set("X-Cache", "HIT")
					if resp.Status != 0 && resp.Status != http.StatusOK {
						w.WriteHeader(resp.Status)
					}
					_, _ = w.Write(resp.Body)
					return
				}
				// Corrupt entry: drop it and fall through to the handler
				_ = cfg.Cache.Delete(r.Context(), key)
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			w.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(rec, r)

			if !cacheableStatus(rec.status) {
				return
			}

			var buf bytes.Buffer
			resp := cachedResponse{
				Status:      rec.status,
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := gob.NewEncoder(&buf).Encode(resp); err != nil {
				slog.Error("encoding cached page", "key", key, "error", err)
				return
			}
			if err := cfg.Cache.Set(r.Context(), key, buf.Bytes(), cfg.TTL); err != nil {
				slog.Error("storing cached page", "key", key, "error", err)
			}
		})
	}
}

// PageCacheKey builds the cache key for a request. The full request URI
// is included so each page of a paginated listing caches separately.
func PageCacheKey(r *http.Request) string {
	return PageCachePrefix + r.URL.RequestURI()
}

// InvalidatePages removes all cached page responses. Called after any
// content mutation so listings never serve stale data.
func InvalidatePages(r *http.Request, c cache.Cache) {
	if c == nil {
		return
	}
	if err := c.DeleteByPrefix(r.Context(), PageCachePrefix); err != nil {
		slog.Error("invalidating page cache", "error", err)
	}
}

// responseRecorder captures the response so it can be cached while
// still streaming it to the client.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	body        bytes.Buffer
	wroteHeader bool
}

func (rec *responseRecorder) WriteHeader(status int) {
	if rec.wroteHeader {
		return
	}
	rec.wroteHeader = true
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *responseRecorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	if cacheableStatus(rec.status) {
		rec.body.Write(b)
	}
	return rec.ResponseWriter.Write(b)
}
