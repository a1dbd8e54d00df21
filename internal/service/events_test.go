package service_test

import (
	"context"
	"testing"
	"time"

	"storefront-go/internal/model"
	"storefront-go/internal/service"
	"storefront-go/internal/store"
	"storefront-go/internal/testutil"
)

func TestEventService_LogAndPrune(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	svc := service.NewEventService(db)
	q := store.New(db)
	ctx := context.Background()

	userID := int64(7)
	if err := svc.LogAuthEvent(ctx, model.EventLevelWarning, "failed login", &userID, "192.0.2.1", map[string]any{"username": "admin"}); err != nil {
		t.Fatalf("LogAuthEvent: %v", err)
	}
	if err := svc.LogInfo(ctx, model.EventCategoryCatalog, "item added", nil, "", nil); err != nil {
		t.Fatalf("LogInfo: %v", err)
	}

	events, err := q.ListEvents(ctx, store.ListEventsParams{Limit: 10})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	var authEvent *model.Event
	for i := range events {
		if events[i].Category == model.EventCategoryAuth {
			authEvent = &events[i]
		}
	}
	if authEvent == nil {
		t.Fatal("auth event not stored")
	}
	if !authEvent.UserID.Valid || authEvent.UserID.Int64 != 7 {
		t.Errorf("UserID = %+v, want 7", authEvent.UserID)
	}
	if authEvent.IPAddress != "192.0.2.1" {
		t.Errorf("IPAddress = %q", authEvent.IPAddress)
	}

	// Nothing is old enough to prune yet.
	n, err := svc.DeleteOldEvents(ctx, time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents: %v", err)
	}
	if n != 0 {
		t.Errorf("DeleteOldEvents removed %d, want 0", n)
	}
}
