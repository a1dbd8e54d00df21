// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Article represents a news entry. Body holds markdown source which is
// rendered and sanitized at display time.
type Article struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Body        string         `json:"body"`
	Photo       sql.NullString `json:"photo,omitempty"`
	PublishedAt time.Time      `json:"published_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HasPhoto returns true if the article has an uploaded photo.
func (a *Article) HasPhoto() bool {
	return a.Photo.Valid && a.Photo.String != ""
}
