package handler

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"storefront-go/internal/cache"
	"storefront-go/internal/middleware"
	"storefront-go/internal/render"
	"storefront-go/internal/service"
	"storefront-go/internal/store"
	"storefront-go/internal/testutil"
	"storefront-go/web"
)

type testEnv struct {
	db        *sql.DB
	queries   *store.Queries
	sm        *scs.SessionManager
	renderer  *render.Renderer
	pageCache *cache.MemoryCache
	server    *httptest.Server
	client    *http.Client
}

// newTestEnv builds a server with the full public and admin routes,
// backed by a real database and in-memory sessions.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	sm := scs.New()
	sm.Lifetime = time.Hour

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub templates fs: %v", err)
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sm,
		Currency:       "EUR",
		IsDev:          true,
	})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	pageCache := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = pageCache.Close() })

	uploads := service.NewUploadService(t.TempDir())
	content := service.NewContentService(db, uploads)
	events := service.NewEventService(db)
	lp := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	public := NewPublicHandler(db, renderer, sm, 9)
	admin := NewAdminHandler(db, renderer, content, uploads, pageCache)
	authH := NewAuthHandler(db, renderer, sm, lp, events)

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)

	r.Get(RouteRoot, public.Home)
	r.Get(RouteCatalog, public.Catalog)
	r.Get(RouteCatalog+"/{category:[0-9]+}", public.Catalog)
	r.Get(RouteNews, public.News)
	r.Get("/health", NewHealthHandler(db, sm).Health)
	r.NotFound(public.NotFound)

	r.Route("/admin", func(r chi.Router) {
		r.Get(RouteLogin, authH.LoginForm)
		r.Post(RouteLogin, authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sm))
			r.Get(RouteRoot, admin.Menu)
			r.Post(RouteLogout, authH.Logout)
			r.Get(RouteItemsAdd, admin.AddItemForm)
			r.Post(RouteItemsAdd, admin.AddItem)
			r.Post(RouteItemsDelete, admin.DeleteItem)
			r.Get(RouteArticlesAdd, admin.AddArticleForm)
			r.Post(RouteArticlesAdd, admin.AddArticle)
			r.Post(RouteArticlesDelete, admin.DeleteArticle)
		})
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("creating cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{
		db:        db,
		queries:   store.New(db),
		sm:        sm,
		renderer:  renderer,
		pageCache: pageCache,
		server:    server,
		client:    client,
	}
}

func (e *testEnv) seedAdmin(t *testing.T) {
	t.Helper()
	if err := store.Seed(context.Background(), e.db, "admin", "test-password-123"); err != nil {
		t.Fatalf("seeding admin: %v", err)
	}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	resp := e.postForm(t, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"test-password-123"},
	})
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/admin" {
		t.Fatalf("login redirect = %q, want /admin", loc)
	}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

// postMultipart submits a multipart form without a file attachment.
func (e *testEnv) postMultipart(t *testing.T, path string, fields map[string]string) *http.Response {
	t.Helper()

	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	resp, err := e.client.Post(e.server.URL+path, mw.FormDataContentType(), body)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/catalog", "/news"} {
		resp := env.get(t, path)
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
		if !strings.Contains(body, "</html>") {
			t.Errorf("GET %s did not render a full page", path)
		}
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/no-such-page")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, "Page not found") {
		t.Error("404 page does not contain the not-found message")
	}
}

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.login(t)

	// Session cookie grants access to the admin menu
	resp := env.get(t, "/admin")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin menu status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Administration") {
		t.Error("admin menu page missing heading")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	resp := env.postForm(t, "/admin/login", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	})
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/admin/login" {
		t.Errorf("redirect = %q, want /admin/login", loc)
	}

	// Still unauthenticated
	resp = env.get(t, "/admin")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("admin menu status = %d, want 303 redirect to login", resp.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.login(t)

	resp := env.postForm(t, "/admin/logout", url.Values{})
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout status = %d, want 303", resp.StatusCode)
	}

	resp = env.get(t, "/admin")
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("admin menu after logout = %d, want 303 redirect", resp.StatusCode)
	}
}

func TestUnauthenticatedWritesAreRejected(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)

	item, err := store.New(env.db).CreateItem(context.Background(), store.CreateItemParams{
		Name:      "Keep me",
		Price:     1000,
		Category:  1,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	resp := env.postForm(t, "/admin/items/delete", url.Values{"id": {"1"}})
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 redirect to login", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/admin/login" {
		t.Errorf("redirect = %q, want /admin/login", loc)
	}

	// The item must still exist
	if _, err := env.queries.GetItem(context.Background(), item.ID); err != nil {
		t.Errorf("item was deleted by an unauthenticated request: %v", err)
	}
}

func TestAddItem(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.login(t)

	resp := env.postMultipart(t, "/admin/items/add", map[string]string{
		"name":        "Walnut table",
		"description": "Solid walnut dining table",
		"price":       "249.99",
		"category":    "2",
	})
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/catalog" {
		t.Errorf("redirect = %q, want /catalog", loc)
	}

	items, err := env.queries.ListItems(context.Background(), store.ListItemsParams{Limit: 10})
	if err != nil {
		t.Fatalf("listing items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Name != "Walnut table" {
		t.Errorf("Name = %q", items[0].Name)
	}
	if items[0].Price != 24999 {
		t.Errorf("Price = %d, want 24999 minor units", items[0].Price)
	}
	if items[0].Category != 2 {
		t.Errorf("Category = %d, want 2", items[0].Category)
	}
}

func TestAddItem_InvalidPrice(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.login(t)

	resp := env.postMultipart(t, "/admin/items/add", map[string]string{
		"name":  "Bad price",
		"price": "not-a-number",
	})
	_ = readBody(t, resp)
	if loc := resp.Header.Get("Location"); loc != "/admin/items/add" {
		t.Errorf("redirect = %q, want back to the form", loc)
	}

	total, err := env.queries.CountItems(context.Background(), sql.NullInt64{})
	if err != nil {
		t.Fatalf("counting items: %v", err)
	}
	if total != 0 {
		t.Errorf("item was stored despite invalid price")
	}
}

func TestDeleteItem_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.login(t)

	item, err := env.queries.CreateItem(context.Background(), store.CreateItemParams{
		Name:      "Short lived",
		Price:     500,
		Category:  1,
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	form := url.Values{"id": {itoa(item.ID)}}

	resp := env.postForm(t, "/admin/items/delete", form)
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("first delete status = %d, want 303", resp.StatusCode)
	}

	// The first delete confirms with a flash on the next page
	resp = env.get(t, "/catalog")
	body := readBody(t, resp)
	if !strings.Contains(body, "Item deleted") {
		t.Error("first delete did not confirm")
	}

	// Second delete of the same ID is a no-op, not an error
	resp = env.postForm(t, "/admin/items/delete", form)
	_ = readBody(t, resp)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("second delete status = %d, want 303", resp.StatusCode)
	}

	// The no-op is silent: the next page carries no message at all
	resp = env.get(t, "/catalog")
	body = readBody(t, resp)
	if strings.Contains(body, `class="flash`) {
		t.Error("deleting a missing ID surfaced a message")
	}
}

func TestAddArticleAndNewsListing(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	env.login(t)

	resp := env.postMultipart(t, "/admin/articles/add", map[string]string{
		"name": "Grand opening",
		"body": "We are **open** now.",
	})
	_ = readBody(t, resp)
	if loc := resp.Header.Get("Location"); loc != "/news" {
		t.Fatalf("redirect = %q, want /news", loc)
	}

	resp = env.get(t, "/news")
	body := readBody(t, resp)
	if !strings.Contains(body, "Grand opening") {
		t.Error("news page missing the new article")
	}
	// Markdown is rendered, not shown raw
	if !strings.Contains(body, "<strong>open</strong>") {
		t.Error("article body was not rendered as markdown")
	}
	if strings.Contains(body, "**open**") {
		t.Error("raw markdown leaked into the page")
	}
}

func TestCatalogPagination(t *testing.T) {
	env := newTestEnv(t)
	q := env.queries

	for i := 0; i < 12; i++ {
		_, err := q.CreateItem(context.Background(), store.CreateItemParams{
			Name:      "Item " + itoa(int64(i+1)),
			Price:     int64(100 * (i + 1)),
			Category:  1,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("creating item %d: %v", i, err)
		}
	}

	// Page size is 9, so 12 items span two pages
	resp := env.get(t, "/catalog")
	body := readBody(t, resp)
	if !strings.Contains(body, "Item 12") {
		t.Error("first page missing the newest item")
	}
	if strings.Contains(body, ">Item 1<") {
		t.Error("first page should not contain the oldest item")
	}
	if !strings.Contains(body, "/catalog?page=2") {
		t.Error("first page missing link to page 2")
	}

	resp = env.get(t, "/catalog?page=2")
	body = readBody(t, resp)
	if !strings.Contains(body, ">Item 1<") {
		t.Error("second page missing the oldest item")
	}

	// Out-of-range page clamps to the last page instead of erroring
	resp = env.get(t, "/catalog?page=99")
	body = readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("out-of-range page status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, ">Item 1<") {
		t.Error("clamped page should show the last page of items")
	}
}

func TestCatalogCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	q := env.queries

	for i, cat := range []int64{1, 2, 2} {
		_, err := q.CreateItem(context.Background(), store.CreateItemParams{
			Name:      "Filtered " + itoa(int64(i+1)),
			Price:     100,
			Category:  cat,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("creating item: %v", err)
		}
	}

	for _, path := range []string{"/catalog?category=2", "/catalog/2"} {
		resp := env.get(t, path)
		body := readBody(t, resp)
		if strings.Contains(body, "Filtered 1") {
			t.Errorf("GET %s leaked an item from another category", path)
		}
		if !strings.Contains(body, "Filtered 2") || !strings.Contains(body, "Filtered 3") {
			t.Errorf("GET %s dropped matching items", path)
		}
	}

	// A filter with no matches renders an empty page, not an error
	resp := env.get(t, "/catalog/99")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("empty category status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "No items") {
		t.Error("empty category page missing the empty-state message")
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/health")
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `"status":"healthy"`) {
		t.Errorf("body = %q, want healthy status", body)
	}
	// Unauthenticated callers get the minimal payload
	if strings.Contains(body, "uptime") {
		t.Error("health detail leaked to an unauthenticated caller")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
