// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"
)

// paginationWindow is how many page links are shown around the current page.
const paginationWindow = 5

// Pagination holds computed pagination state for listing templates.
// Pages contains the page numbers to link to, with 0 marking an ellipsis.
type Pagination struct {
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
	HasPrev    bool
	HasNext    bool
	PrevPage   int
	NextPage   int
	Pages      []int
	BaseURL    string
}

// Offset returns the SQL offset for the current page.
func (p Pagination) Offset() int64 {
	return int64(p.Page-1) * int64(p.PageSize)
}

// URL returns the link target for a page number, preserving any query
// parameters already present in the base URL.
func (p Pagination) URL(page int) string {
	sep := "?"
	if strings.Contains(p.BaseURL, "?") {
		sep = "&"
	}
	return p.BaseURL + sep + "page=" + strconv.Itoa(page)
}

// ParsePage extracts the "page" query parameter, defaulting to 1.
// Non-numeric or non-positive values fall back to 1.
func ParsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// NewPagination computes pagination state for a listing. A requested page
// beyond the last page is clamped to the last page, so stale links keep
// working after records are deleted. An empty listing reports TotalPages 0
// and serves page 1 empty.
func NewPagination(page, pageSize int, totalItems int64, baseURL string) Pagination {
	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if page < 1 {
		page = 1
	}
	if totalPages > 0 && page > totalPages {
		page = totalPages
	}

	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		PrevPage:   page - 1,
		NextPage:   page + 1,
		Pages:      pageNumbers(page, totalPages),
		BaseURL:    baseURL,
	}
}

// pageNumbers builds the list of page links: a window around the current
// page plus the first and last page, with 0 entries where pages are elided.
func pageNumbers(page, totalPages int) []int {
	start := page - paginationWindow/2
	if start < 1 {
		start = 1
	}
	end := start + paginationWindow - 1
	if end > totalPages {
		end = totalPages
		start = end - paginationWindow + 1
		if start < 1 {
			start = 1
		}
	}

	var pages []int
	if start > 1 {
		pages = append(pages, 1)
		if start > 2 {
			pages = append(pages, 0)
		}
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	if end < totalPages {
		if end < totalPages-1 {
			pages = append(pages, 0)
		}
		pages = append(pages, totalPages)
	}
	return pages
}
