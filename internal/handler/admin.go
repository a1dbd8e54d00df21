// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"storefront-go/internal/cache"
	"storefront-go/internal/middleware"
	"storefront-go/internal/render"
	"storefront-go/internal/service"
	"storefront-go/internal/store"
)

// AdminHandler serves the admin menu and content management forms.
type AdminHandler struct {
	queries   *store.Queries
	renderer  *render.Renderer
	content   *service.ContentService
	uploads   *service.UploadService
	pageCache cache.Cache
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(db *sql.DB, renderer *render.Renderer, content *service.ContentService, uploads *service.UploadService, pageCache cache.Cache) *AdminHandler {
	return &AdminHandler{
		queries:   store.New(db),
		renderer:  renderer,
		content:   content,
		uploads:   uploads,
		pageCache: pageCache,
	}
}

// Menu displays the admin landing page with content counts.
func (h *AdminHandler) Menu(w http.ResponseWriter, r *http.Request) {
	itemCount, err := h.queries.CountItems(r.Context(), sql.NullInt64{})
	if err != nil {
		logAndInternalError(w, r, "failed to count items", "error", err)
		return
	}
	articleCount, err := h.queries.CountArticles(r.Context())
	if err != nil {
		logAndInternalError(w, r, "failed to count articles", "error", err)
		return
	}

	if err := h.renderer.Render(w, r, "admin/menu", render.TemplateData{
		Title: "Administration",
		Data: map[string]any{
			"ItemCount":    itemCount,
			"ArticleCount": articleCount,
		},
	}); err != nil {
		logAndInternalError(w, r, "failed to render admin menu", "error", err)
	}
}

// AddItemForm displays the add-item form.
func (h *AdminHandler) AddItemForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/add_item", render.TemplateData{
		Title: "Add Item",
	}); err != nil {
		logAndInternalError(w, r, "failed to render add item form", "error", err)
	}
}

// AddItem processes the add-item form submission.
func (h *AdminHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		flashError(w, r, h.renderer, redirectItemsAdd, "Invalid form data or file too large")
		return
	}

	price, err := parsePrice(r.FormValue("price"))
	if err != nil {
		flashError(w, r, h.renderer, redirectItemsAdd, "Invalid price")
		return
	}

	category := int64(1)
	if raw := r.FormValue("category"); raw != "" {
		category, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || category < 1 {
			flashError(w, r, h.renderer, redirectItemsAdd, "Invalid category")
			return
		}
	}

	photo, ok := h.savePhotoIfPresent(w, r, redirectItemsAdd)
	if !ok {
		return
	}

	item, err := h.content.AddItem(r.Context(), service.AddItemParams{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       price,
		Category:    category,
		Photo:       photo,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to add item", "error", err)
		flashError(w, r, h.renderer, redirectItemsAdd, "Could not add item: "+err.Error())
		return
	}

	h.invalidatePages(r)
	flashSuccess(w, r, h.renderer, redirectCatalog, "Item \""+item.Name+"\" added")
}

// AddArticleForm displays the add-article form.
func (h *AdminHandler) AddArticleForm(w http.ResponseWriter, r *http.Request) {
	if err := h.renderer.Render(w, r, "admin/add_article", render.TemplateData{
		Title: "Add Article",
	}); err != nil {
		logAndInternalError(w, r, "failed to render add article form", "error", err)
	}
}

// AddArticle processes the add-article form submission.
func (h *AdminHandler) AddArticle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		flashError(w, r, h.renderer, redirectArticlesAdd, "Invalid form data or file too large")
		return
	}

	photo, ok := h.savePhotoIfPresent(w, r, redirectArticlesAdd)
	if !ok {
		return
	}

	article, err := h.content.AddArticle(r.Context(), service.AddArticleParams{
		Name:        r.FormValue("name"),
		Body:        r.FormValue("body"),
		Photo:       photo,
		PublishedAt: time.Now(),
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to add article", "error", err)
		flashError(w, r, h.renderer, redirectArticlesAdd, "Could not add article: "+err.Error())
		return
	}

	h.invalidatePages(r)
	flashSuccess(w, r, h.renderer, redirectNews, "Article \""+article.Name+"\" published")
}

// DeleteItem processes an item deletion. Deleting an item that no longer
// exists is a silent no-op: the admin is redirected back with no message.
func (h *AdminHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDeleteID(w, r, redirectCatalog)
	if !ok {
		return
	}

	deleted, err := h.content.DeleteItem(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to delete item", "error", err, "item_id", id)
		flashError(w, r, h.renderer, redirectCatalog, "Could not delete item")
		return
	}
	if !deleted {
		http.Redirect(w, r, redirectCatalog, http.StatusSeeOther)
		return
	}

	h.invalidatePages(r)
	flashSuccess(w, r, h.renderer, redirectCatalog, "Item deleted")
}

// DeleteArticle processes an article deletion.
func (h *AdminHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseDeleteID(w, r, redirectNews)
	if !ok {
		return
	}

	deleted, err := h.content.DeleteArticle(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to delete article", "error", err, "article_id", id)
		flashError(w, r, h.renderer, redirectNews, "Could not delete article")
		return
	}
	if !deleted {
		http.Redirect(w, r, redirectNews, http.StatusSeeOther)
		return
	}

	h.invalidatePages(r)
	flashSuccess(w, r, h.renderer, redirectNews, "Article deleted")
}

// parseDeleteID extracts the "id" form value for delete handlers.
func (h *AdminHandler) parseDeleteID(w http.ResponseWriter, r *http.Request, redirectURL string) (int64, bool) {
	if !parseFormOrRedirect(w, r, h.renderer, redirectURL) {
		return 0, false
	}
	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil || id < 1 {
		flashError(w, r, h.renderer, redirectURL, "Invalid ID")
		return 0, false
	}
	return id, true
}

// savePhotoIfPresent stores an uploaded photo when the form included one.
// Returns the stored filename (empty when no file was uploaded) and
// whether the caller should proceed.
func (h *AdminHandler) savePhotoIfPresent(w http.ResponseWriter, r *http.Request, redirectURL string) (string, bool) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		flashError(w, r, h.renderer, redirectURL, "Could not read uploaded file")
		return "", false
	}
	defer func() { _ = file.Close() }()

	filename, err := h.uploads.SavePhoto(file, header)
	if err != nil {
		slog.WarnContext(r.Context(), "photo upload rejected", "error", err, "filename", header.Filename)
		flashError(w, r, h.renderer, redirectURL, "Could not save photo: "+err.Error())
		return "", false
	}
	return filename, true
}

// invalidatePages drops all cached listing pages after a content change.
func (h *AdminHandler) invalidatePages(r *http.Request) {
	if h.pageCache != nil {
		middleware.InvalidatePages(r, h.pageCache)
	}
}

// parsePrice converts a decimal price string ("12.50") to minor
// currency units.
func parsePrice(raw string) (int64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f > math.MaxInt64/100 {
		return 0, errors.New("price out of range")
	}
	return int64(math.Round(f * 100)), nil
}
