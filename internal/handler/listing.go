// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"storefront-go/internal/middleware"
	"storefront-go/internal/model"
	"storefront-go/internal/render"
	"storefront-go/internal/store"
)

// homeItemCount is how many latest items the home page shows.
const homeItemCount = 6

// PublicHandler serves the public listing pages.
type PublicHandler struct {
	queries        *store.Queries
	renderer       *render.Renderer
	sessionManager *scs.SessionManager
	pageSize       int
}

// NewPublicHandler creates a new public handler.
func NewPublicHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager, pageSize int) *PublicHandler {
	return &PublicHandler{
		queries:        store.New(db),
		renderer:       renderer,
		sessionManager: sm,
		pageSize:       pageSize,
	}
}

// Home displays the landing page with the latest catalog items.
func (h *PublicHandler) Home(w http.ResponseWriter, r *http.Request) {
	items, err := h.queries.ListItems(r.Context(), store.ListItemsParams{
		Limit: homeItemCount,
	})
	if err != nil {
		logAndInternalError(w, r, "failed to list items for home page", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "public/home", render.TemplateData{
		Title: "Home",
		Data: map[string]any{
			"Items": items,
		},
	}); err != nil {
		logAndInternalError(w, r, "failed to render home page", "error", err)
	}
}

// catalogData is the template payload for the catalog page.
type catalogData struct {
	Items      []model.Item
	Category   int64
	IsAdmin    bool
	Pagination Pagination
}

// Catalog displays a paginated catalog listing with an optional
// category filter, given either as a path segment (/catalog/2) or a
// query parameter (?category=2).
func (h *PublicHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)
	category := parseCategory(r)

	total, err := h.queries.CountItems(r.Context(), category)
	if err != nil {
		logAndInternalError(w, r, "failed to count items", "error", err)
		return
	}

	baseURL := RouteCatalog
	if category.Valid {
		if chi.URLParam(r, "category") != "" {
			baseURL += "/" + strconv.FormatInt(category.Int64, 10)
		} else {
			baseURL += "?category=" + strconv.FormatInt(category.Int64, 10)
		}
	}
	pag := NewPagination(page, h.pageSize, total, baseURL)

	items, err := h.queries.ListItems(r.Context(), store.ListItemsParams{
		Category: category,
		Limit:    int64(h.pageSize),
		Offset:   pag.Offset(),
	})
	if err != nil {
		logAndInternalError(w, r, "failed to list items", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "public/catalog", render.TemplateData{
		Title: "Catalog",
		Data: catalogData{
			Items:      items,
			Category:   category.Int64,
			IsAdmin:    middleware.IsAuthenticated(h.sessionManager, r),
			Pagination: pag,
		},
	}); err != nil {
		logAndInternalError(w, r, "failed to render catalog", "error", err)
	}
}

// newsData is the template payload for the news page.
type newsData struct {
	Articles   []model.Article
	IsAdmin    bool
	Pagination Pagination
}

// News displays a paginated news listing, newest first.
func (h *PublicHandler) News(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)

	total, err := h.queries.CountArticles(r.Context())
	if err != nil {
		logAndInternalError(w, r, "failed to count articles", "error", err)
		return
	}

	pag := NewPagination(page, h.pageSize, total, RouteNews)

	articles, err := h.queries.ListArticles(r.Context(), store.ListArticlesParams{
		Limit:  int64(h.pageSize),
		Offset: pag.Offset(),
	})
	if err != nil {
		logAndInternalError(w, r, "failed to list articles", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "public/news", render.TemplateData{
		Title: "News",
		Data: newsData{
			Articles:   articles,
			IsAdmin:    middleware.IsAuthenticated(h.sessionManager, r),
			Pagination: pag,
		},
	}); err != nil {
		logAndInternalError(w, r, "failed to render news", "error", err)
	}
}

// NotFound renders the 404 page.
func (h *PublicHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.RenderStatus(w, r, http.StatusNotFound, "public/notfound", render.TemplateData{
		Title: "Not Found",
	}); err != nil {
		http.NotFound(w, r)
	}
}

// parseCategory extracts the optional category filter from the URL path
// or, failing that, the query string.
func parseCategory(r *http.Request) sql.NullInt64 {
	raw := chi.URLParam(r, "category")
	if raw == "" {
		raw = r.URL.Query().Get("category")
	}
	if raw == "" {
		return sql.NullInt64{}
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 1 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
