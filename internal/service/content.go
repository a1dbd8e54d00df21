// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"storefront-go/internal/model"
	"storefront-go/internal/store"
)

// ContentService handles catalog item and news article mutations.
type ContentService struct {
	db      *sql.DB
	queries *store.Queries
	uploads *UploadService
}

// NewContentService creates a new content service.
func NewContentService(db *sql.DB, uploads *UploadService) *ContentService {
	return &ContentService{
		db:      db,
		queries: store.New(db),
		uploads: uploads,
	}
}

// AddItemParams holds input for AddItem.
type AddItemParams struct {
	Name        string
	Description string
	Price       int64 // Minor currency units
	Category    int64
	Photo       string // Stored filename, empty when no photo was uploaded
}

// AddItem validates and stores a new catalog item.
func (s *ContentService) AddItem(ctx context.Context, arg AddItemParams) (model.Item, error) {
	if arg.Name == "" {
		return model.Item{}, fmt.Errorf("item name is required")
	}
	if arg.Price < 0 {
		return model.Item{}, fmt.Errorf("item price cannot be negative")
	}
	if arg.Category <= 0 {
		arg.Category = 1
	}

	item, err := s.queries.CreateItem(ctx, store.CreateItemParams{
		Name:        arg.Name,
		Description: arg.Description,
		Price:       arg.Price,
		Category:    arg.Category,
		Photo:       nullString(arg.Photo),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		// The photo is already on disk; remove it so a failed insert
		// leaves no orphan.
		if arg.Photo != "" && s.uploads != nil {
			_ = s.uploads.DeletePhoto(arg.Photo)
		}
		return model.Item{}, fmt.Errorf("creating item: %w", err)
	}

	slog.Info("item added", "category", model.EventCategoryCatalog, "id", item.ID, "name", item.Name)
	return item, nil
}

// AddArticleParams holds input for AddArticle.
type AddArticleParams struct {
	Name        string
	Body        string // Markdown source
	Photo       string
	PublishedAt time.Time
}

// AddArticle validates and stores a new news article.
func (s *ContentService) AddArticle(ctx context.Context, arg AddArticleParams) (model.Article, error) {
	if arg.Name == "" {
		return model.Article{}, fmt.Errorf("article name is required")
	}
	if arg.PublishedAt.IsZero() {
		arg.PublishedAt = time.Now()
	}

	article, err := s.queries.CreateArticle(ctx, store.CreateArticleParams{
		Name:        arg.Name,
		Body:        arg.Body,
		Photo:       nullString(arg.Photo),
		PublishedAt: arg.PublishedAt,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		if arg.Photo != "" && s.uploads != nil {
			_ = s.uploads.DeletePhoto(arg.Photo)
		}
		return model.Article{}, fmt.Errorf("creating article: %w", err)
	}

	slog.Info("article added", "category", model.EventCategoryNews, "id", article.ID, "name", article.Name)
	return article, nil
}

// DeleteItem removes a catalog item and its photo files.
// Returns false with a nil error when the item did not exist; deleting
// a missing item is a no-op, not a failure. The lookup and delete run
// in one transaction so the photo cleanup below always matches the
// row that was removed.
func (s *ContentService) DeleteItem(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	item, err := qtx.GetItem(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("loading item %d: %w", id, err)
	}

	n, err := qtx.DeleteItem(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting item %d: %w", id, err)
	}
	if n == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing item delete: %w", err)
	}

	if item.HasPhoto() && s.uploads != nil {
		if err := s.uploads.DeletePhoto(item.Photo.String); err != nil {
			slog.Warn("deleting item photo failed", "id", id, "photo", item.Photo.String, "error", err)
		}
	}

	slog.Info("item deleted", "category", model.EventCategoryCatalog, "id", id)
	return true, nil
}

// DeleteArticle removes a news article and its photo files.
// Returns false with a nil error when the article did not exist.
func (s *ContentService) DeleteArticle(ctx context.Context, id int64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	article, err := qtx.GetArticle(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("loading article %d: %w", id, err)
	}

	n, err := qtx.DeleteArticle(ctx, id)
	if err != nil {
		return false, fmt.Errorf("deleting article %d: %w", id, err)
	}
	if n == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing article delete: %w", err)
	}

	if article.HasPhoto() && s.uploads != nil {
		if err := s.uploads.DeletePhoto(article.Photo.String); err != nil {
			slog.Warn("deleting article photo failed", "id", id, "photo", article.Photo.String, "error", err)
		}
	}

	slog.Info("article deleted", "category", model.EventCategoryNews, "id", id)
	return true, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
