package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"storefront-go/internal/service"
	"storefront-go/internal/store"
	"storefront-go/internal/testutil"
)

func newContentService(t *testing.T) (*service.ContentService, *store.Queries) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	uploads := service.NewUploadService(t.TempDir())
	return service.NewContentService(db, uploads), store.New(db)
}

func TestAddItem(t *testing.T) {
	svc, q := newContentService(t)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, service.AddItemParams{
		Name:        "Widget",
		Description: "A fine widget",
		Price:       2599,
		Category:    2,
	})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("AddItem returned zero ID")
	}

	got, err := q.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Price != 2599 || got.Category != 2 {
		t.Errorf("stored item = %+v", got)
	}
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, service.AddItemParams{Name: "", Price: 100}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := svc.AddItem(ctx, service.AddItemParams{Name: "Bad", Price: -1}); err == nil {
		t.Error("expected error for negative price")
	}

	// Missing category falls back to the default category.
	item, err := svc.AddItem(ctx, service.AddItemParams{Name: "Default cat", Price: 100})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if item.Category != 1 {
		t.Errorf("default category = %d, want 1", item.Category)
	}
}

func TestAddItem_DistinctIDs(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	seen := make(map[int64]bool)
	for i := 0; i < 5; i++ {
		item, err := svc.AddItem(ctx, service.AddItemParams{Name: "Item", Price: 100})
		if err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if seen[item.ID] {
			t.Fatalf("duplicate item ID %d", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestDeleteItem_Idempotent(t *testing.T) {
	svc, q := newContentService(t)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, service.AddItemParams{Name: "Widget", Price: 100})
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	deleted, err := svc.DeleteItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if !deleted {
		t.Error("first delete should report true")
	}

	// The delete transaction committed: the row is gone
	if _, err := q.GetItem(ctx, item.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetItem after delete = %v, want sql.ErrNoRows", err)
	}

	deleted, err = svc.DeleteItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("second DeleteItem: %v", err)
	}
	if deleted {
		t.Error("second delete should report false (no-op)")
	}

	// Deleting an ID that never existed is also a no-op.
	deleted, err = svc.DeleteItem(ctx, 99999)
	if err != nil {
		t.Fatalf("DeleteItem(missing): %v", err)
	}
	if deleted {
		t.Error("delete of missing ID should report false")
	}
}

func TestAddArticle(t *testing.T) {
	svc, q := newContentService(t)
	ctx := context.Background()

	pub := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	article, err := svc.AddArticle(ctx, service.AddArticleParams{
		Name:        "Launch",
		Body:        "We **launched**.",
		PublishedAt: pub,
	})
	if err != nil {
		t.Fatalf("AddArticle: %v", err)
	}

	got, err := q.GetArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if !got.PublishedAt.Equal(pub) {
		t.Errorf("PublishedAt = %v, want %v", got.PublishedAt, pub)
	}

	if _, err := svc.AddArticle(ctx, service.AddArticleParams{Name: ""}); err == nil {
		t.Error("expected error for empty article name")
	}
}

func TestDeleteArticle_Idempotent(t *testing.T) {
	svc, _ := newContentService(t)
	ctx := context.Background()

	article, err := svc.AddArticle(ctx, service.AddArticleParams{Name: "Old news"})
	if err != nil {
		t.Fatalf("AddArticle: %v", err)
	}

	deleted, err := svc.DeleteArticle(ctx, article.ID)
	if err != nil || !deleted {
		t.Fatalf("DeleteArticle = (%v, %v), want (true, nil)", deleted, err)
	}

	deleted, err = svc.DeleteArticle(ctx, article.ID)
	if err != nil {
		t.Fatalf("second DeleteArticle: %v", err)
	}
	if deleted {
		t.Error("second delete should report false")
	}
}
