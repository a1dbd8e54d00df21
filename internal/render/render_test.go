package render

import (
	"io/fs"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront-go/web"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		t.Fatalf("sub templates fs: %v", err)
	}

	r, err := New(Config{
		TemplatesFS: templatesFS,
		Currency:    "EUR",
		IsDev:       true,
	})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}
	return r
}

func TestNew_ParsesAllTemplates(t *testing.T) {
	r := newTestRenderer(t)

	for _, name := range []string{
		"public/home",
		"public/catalog",
		"public/news",
		"public/notfound",
		"auth/login",
		"admin/menu",
		"admin/add_item",
		"admin/add_article",
	} {
		if _, ok := r.templates[name]; !ok {
			t.Errorf("template %s was not parsed", name)
		}
	}
}

func TestRender(t *testing.T) {
	r := newTestRenderer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	if err := r.Render(w, req, "public/notfound", TemplateData{Title: "Not Found"}); err != nil {
		t.Fatalf("render: %v", err)
	}

	body := w.Body.String()
	if !strings.Contains(body, "Page not found") {
		t.Error("rendered page missing content block")
	}
	if !strings.Contains(body, "</html>") {
		t.Error("rendered page missing base layout")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)

	if err := r.Render(w, req, "public/bogus", TemplateData{}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRenderStatus(t *testing.T) {
	r := newTestRenderer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/missing", nil)

	if err := r.RenderStatus(w, req, 404, "public/notfound", TemplateData{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestFormatPrice(t *testing.T) {
	r := newTestRenderer(t)

	got := r.FormatPrice(249999)
	if !strings.Contains(got, "2,499.99") {
		t.Errorf("FormatPrice(249999) = %q, want a formatted euro amount", got)
	}

	if got := r.FormatPrice(0); !strings.Contains(got, "0.00") {
		t.Errorf("FormatPrice(0) = %q", got)
	}
}

func TestMarkdown(t *testing.T) {
	r := newTestRenderer(t)

	out := string(r.Markdown("Hello **world**"))
	if !strings.Contains(out, "<strong>world</strong>") {
		t.Errorf("markdown not converted: %q", out)
	}

	// Script tags are stripped by the sanitizer
	out = string(r.Markdown("safe <script>alert(1)</script> text"))
	if strings.Contains(out, "<script>") {
		t.Errorf("sanitizer let a script tag through: %q", out)
	}
}

func TestTemplateFuncs_Truncate(t *testing.T) {
	r := newTestRenderer(t)
	funcs := r.templateFuncs()

	truncate := funcs["truncate"].(func(string, int) string)
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short, 10) = %q", got)
	}
	if got := truncate("a long description here", 6); got != "a long..." {
		t.Errorf("truncate = %q", got)
	}
}

func TestFormatDateUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	templatesFS, _ := fs.Sub(web.Templates, "templates")
	r, err := New(Config{TemplatesFS: templatesFS, Location: loc, Currency: "USD"})
	if err != nil {
		t.Fatalf("creating renderer: %v", err)
	}

	funcs := r.templateFuncs()
	formatDate := funcs["formatDate"].(func(time.Time) string)

	// Midnight UTC on Jan 2 is still Jan 1 in New York
	utc := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := formatDate(utc); got != "Jan 1, 2026" {
		t.Errorf("formatDate = %q, want Jan 1, 2026", got)
	}
}
