// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"storefront-go/internal/imaging"
	"storefront-go/internal/model"
	"storefront-go/internal/util"
)

// Upload limits
const (
	MaxUploadSize    = 20 * 1024 * 1024 // 20MB
	DefaultUploadDir = "./uploads"
)

// UploadService handles photo uploads for items and articles.
type UploadService struct {
	processor *imaging.Processor
	uploadDir string
}

// NewUploadService creates a new upload service.
func NewUploadService(uploadDir string) *UploadService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	return &UploadService{
		processor: imaging.NewProcessor(uploadDir),
		uploadDir: uploadDir,
	}
}

// SavePhoto validates, processes and stores an uploaded photo.
// Returns the stored filename, which is unique per upload.
func (s *UploadService) SavePhoto(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxUploadSize {
		return "", fmt.Errorf("file size exceeds maximum allowed (%d bytes)", MaxUploadSize)
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimeTypeFromExtension(header.Filename)
	}
	if !s.processor.IsImage(mimeType) {
		return "", fmt.Errorf("file type %s is not allowed", mimeType)
	}

	// Prefix with a UUID so concurrent uploads of the same filename
	// never collide.
	filename := uuid.New().String() + "_" + sanitizeFilename(header.Filename)

	result, err := s.processor.ProcessImage(file, filename)
	if err != nil {
		return "", fmt.Errorf("processing image: %w", err)
	}

	if _, err := s.processor.CreateThumbnail(result.FilePath, filename); err != nil {
		// The original is already stored; a missing thumbnail only
		// degrades listings, so log and continue.
		slog.Warn("creating thumbnail failed", "filename", filename, "error", err)
	}

	return filename, nil
}

// DeletePhoto removes a stored photo and its thumbnail.
func (s *UploadService) DeletePhoto(filename string) error {
	return s.processor.DeletePhotoFiles(filename)
}

// UploadDir returns the configured upload directory.
func (s *UploadService) UploadDir() string {
	return s.uploadDir
}

// sanitizeFilename strips path components and problematic characters.
func sanitizeFilename(filename string) string {
	// Remove path separators
	filename, err := util.SanitizeFilename(filename)
	if err != nil {
		filename = "upload"
	}

	replacer := strings.NewReplacer(
		" ", "-",
		"'", "",
		"\"", "",
		"<", "",
		">", "",
		"&", "",
		"#", "",
		"?", "",
		"%", "",
	)
	filename = replacer.Replace(filename)

	// Ensure we have an extension
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}

	return filename
}

// mimeTypeFromExtension guesses a MIME type when the browser sent none.
func mimeTypeFromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return model.MimeTypeJPEG
	case ".png":
		return model.MimeTypePNG
	case ".gif":
		return model.MimeTypeGIF
	case ".webp":
		return model.MimeTypeWebP
	default:
		return "application/octet-stream"
	}
}
