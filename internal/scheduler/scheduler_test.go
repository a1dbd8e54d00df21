package scheduler

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront-go/internal/service"
	"storefront-go/internal/store"
	"storefront-go/internal/testutil"
)

func newTestScheduler(t *testing.T) (*Scheduler, *sql.DB, string) {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	uploadDir := t.TempDir()
	s := New(db, service.NewEventService(db), uploadDir, testutil.TestLoggerSilent())
	return s, db, uploadDir
}

func writeUpload(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("photo bytes"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("setting mtime: %v", err)
	}
	return path
}

func TestSweepOrphanedUploads(t *testing.T) {
	s, db, uploadDir := newTestScheduler(t)
	ctx := context.Background()

	// Referenced photo must survive the sweep
	_, err := store.New(db).CreateItem(ctx, store.CreateItemParams{
		Name:      "With photo",
		Price:     100,
		Category:  1,
		Photo:     sql.NullString{String: "kept.jpg", Valid: true},
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}

	kept := writeUpload(t, uploadDir, "kept.jpg", 48*time.Hour)
	orphan := writeUpload(t, uploadDir, "orphan.jpg", 48*time.Hour)
	fresh := writeUpload(t, uploadDir, "fresh.jpg", time.Minute)

	if err := s.sweepOrphanedUploads(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if _, err := os.Stat(kept); err != nil {
		t.Error("referenced photo was removed")
	}
	if _, err := os.Stat(orphan); !os.IsNotExist(err) {
		t.Error("orphaned photo was not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("recent upload was removed before the grace period")
	}
}

func TestSweepOrphanedUploads_MissingDir(t *testing.T) {
	s, _, uploadDir := newTestScheduler(t)
	if err := os.RemoveAll(uploadDir); err != nil {
		t.Fatalf("removing dir: %v", err)
	}

	if err := s.sweepOrphanedUploads(); err != nil {
		t.Errorf("sweep over missing dir should be a no-op, got %v", err)
	}
}

func TestPruneEvents(t *testing.T) {
	s, db, _ := newTestScheduler(t)
	ctx := context.Background()
	q := store.New(db)

	old := store.CreateEventParams{
		Level:     "info",
		Category:  "system",
		Message:   "ancient",
		Metadata:  "{}",
		CreatedAt: time.Now().Add(-120 * 24 * time.Hour),
	}
	recent := old
	recent.Message = "recent"
	recent.CreatedAt = time.Now()

	if err := q.CreateEvent(ctx, old); err != nil {
		t.Fatalf("creating event: %v", err)
	}
	if err := q.CreateEvent(ctx, recent); err != nil {
		t.Fatalf("creating event: %v", err)
	}

	if err := s.pruneEvents(); err != nil {
		t.Fatalf("prune: %v", err)
	}

	n, err := q.CountEvents(ctx)
	if err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d events after prune, want 1", n)
	}
}

func TestStartStop(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}
