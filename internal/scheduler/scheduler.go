// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic maintenance jobs: pruning old event
// log entries and removing uploaded photos that no record references.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"storefront-go/internal/imaging"
	"storefront-go/internal/service"
	"storefront-go/internal/store"
)

// eventRetention is how long event log entries are kept.
const eventRetention = 90 * 24 * time.Hour

// orphanGracePeriod protects very recent uploads from the orphan sweep.
// A photo saved while its form submission is still in flight is not yet
// referenced by any record.
const orphanGracePeriod = time.Hour

// Scheduler handles periodic maintenance tasks.
type Scheduler struct {
	db        *sql.DB
	events    *service.EventService
	uploadDir string
	cron      *cron.Cron
	logger    *slog.Logger
}

// New creates a new scheduler instance.
func New(db *sql.DB, events *service.EventService, uploadDir string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:        db,
		events:    events,
		uploadDir: uploadDir,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start registers the maintenance jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Prune old events daily at 03:10
	if _, err := s.cron.AddFunc("10 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	}); err != nil {
		return err
	}

	// Sweep orphaned uploads daily at 03:30
	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		if err := s.sweepOrphanedUploads(); err != nil {
			s.logger.Error("failed to sweep orphaned uploads", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	deleted, err := s.events.DeleteOldEvents(context.Background(), eventRetention)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("pruned old events", "deleted", deleted)
	}
	return nil
}

// sweepOrphanedUploads removes files in the upload directory that no
// item or article references.
func (s *Scheduler) sweepOrphanedUploads() error {
	ctx := context.Background()

	referenced, err := store.New(s.db).ListPhotoFilenames(ctx)
	if err != nil {
		return err
	}
	keep := make(map[string]struct{}, len(referenced))
	for _, name := range referenced {
		keep[name] = struct{}{}
	}

	entries, err := os.ReadDir(s.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	processor := imaging.NewProcessor(s.uploadDir)
	cutoff := time.Now().Add(-orphanGracePeriod)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if _, ok := keep[name]; ok {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := processor.DeletePhotoFiles(name); err != nil {
			s.logger.Warn("failed to remove orphaned upload",
				"file", filepath.Join(s.uploadDir, name), "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("removed orphaned uploads", "count", removed)
	}
	return nil
}
