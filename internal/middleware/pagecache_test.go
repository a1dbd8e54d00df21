package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-go/internal/cache"
)

func newTestPageCache(t *testing.T) cache.Cache {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestPageCache_ServesFromCache(t *testing.T) {
	c := newTestPageCache(t)

	calls := 0
	handler := PageCache(PageCacheConfig{Cache: c, TTL: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<h1>Catalog</h1>"))
		}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))
		body, _ := io.ReadAll(rec.Result().Body)
		if string(body) != "<h1>Catalog</h1>" {
			t.Fatalf("request %d: body = %q", i+1, body)
		}
	}

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestPageCache_DistinctPagesCacheSeparately(t *testing.T) {
	c := newTestPageCache(t)

	handler := PageCache(PageCacheConfig{Cache: c, TTL: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(r.URL.RequestURI()))
		}))

	get := func(uri string) string {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, uri, nil))
		return rec.Body.String()
	}

	if got := get("/catalog?page=1"); got != "/catalog?page=1" {
		t.Errorf("page 1 body = %q", got)
	}
	if got := get("/catalog?page=2"); got != "/catalog?page=2" {
		t.Errorf("page 2 body = %q", got)
	}
	// Both must now be cached hits with their own content.
	if got := get("/catalog?page=1"); got != "/catalog?page=1" {
		t.Errorf("cached page 1 body = %q", got)
	}
}

func TestPageCache_SkipsNonGET(t *testing.T) {
	c := newTestPageCache(t)

	calls := 0
	handler := PageCache(PageCacheConfig{Cache: c, TTL: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusOK)
		}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/catalog", nil))
	}

	if calls != 2 {
		t.Errorf("handler called %d times for POST, want 2", calls)
	}
}

func TestPageCache_CachesNotFound(t *testing.T) {
	c := newTestPageCache(t)

	calls := 0
	handler := PageCache(PageCacheConfig{Cache: c, TTL: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("<h1>Page not found</h1>"))
		}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("request %d: status = %d, want 404", i+1, rec.Code)
		}
		if rec.Body.String() != "<h1>Page not found</h1>" {
			t.Fatalf("request %d: body = %q", i+1, rec.Body.String())
		}
	}

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestPageCache_SkipsErrorResponses(t *testing.T) {
	c := newTestPageCache(t)

	calls := 0
	handler := PageCache(PageCacheConfig{Cache: c, TTL: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	}

	if calls != 2 {
		t.Errorf("handler called %d times, want 2 (errors must not cache)", calls)
	}
}

func TestInvalidatePages(t *testing.T) {
	c := newTestPageCache(t)

	calls := 0
	handler := PageCache(PageCacheConfig{Cache: c, TTL: time.Minute})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			_, _ = w.Write([]byte("listing"))
		}))

	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if calls != 1 {
		t.Fatalf("handler called %d times before invalidation, want 1", calls)
	}

	InvalidatePages(req, c)

	handler.ServeHTTP(httptest.NewRecorder(), req)
	if calls != 2 {
		t.Errorf("handler called %d times after invalidation, want 2", calls)
	}
}
