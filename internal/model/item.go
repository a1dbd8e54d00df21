// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// Item represents a catalog product. Price is stored in currency minor
// units (cents); Category is an integer category code.
type Item struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Price       int64          `json:"price"`
	Category    int64          `json:"category"`
	Photo       sql.NullString `json:"photo,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// HasPhoto returns true if the item has an uploaded photo.
func (i *Item) HasPhoto() bool {
	return i.Photo.Valid && i.Photo.String != ""
}
