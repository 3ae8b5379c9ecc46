//go:build !integration

package usecase_test

import (
	"context"
	"testing"
	"time"

	"lms-access-billing/internal/domain/model"
	"lms-access-billing/internal/domain/ports/repository"
	"lms-access-billing/internal/usecase"
)

func seedActiveWindow(t *testing.T, records *MockAccessRecordRepo, ownerID string) *model.AccessRecord {
	t.Helper()
	start := time.Now().Add(-24 * time.Hour)
	end := start.Add(30 * 24 * time.Hour)
	granted := start
	rec := &model.AccessRecord{
		ID:        "rec-1",
		OrderID:   "order-1",
		OwnerID:   &ownerID,
		ProductID: strPtr("product-1"),
		StartAt:   start,
		EndAt:     &end,
		GrantedAt: &granted,
	}
	if err := records.Save(context.Background(), repository.NoTX, rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func strPtr(s string) *string { return &s }

func TestWindowUseCase_HasActiveSubscription(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("miss loads from the store and fills the cache", func(t *testing.T) {
		// --- Arrange ---
		records := NewMockAccessRecordRepo()
		cache := NewMockCache()
		seedActiveWindow(t, records, "owner-1")
		uc := usecase.NewWindowUseCase(records, NewMockRecurringRepo(), cache, logger)

		// --- Act ---
		active, err := uc.HasActiveSubscription(ctx, "owner-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !active {
			t.Error("expected an active subscription")
		}
		if cached, ok := cache.GetActive(ctx, "owner-1"); !ok || !cached {
			t.Error("expected the answer cached")
		}
	})

	t.Run("hit skips the store", func(t *testing.T) {
		// --- Arrange ---
		records := NewMockAccessRecordRepo()
		records.HasActiveAccessFunc = func(ctx context.Context, tx repository.Tx, ownerID string, kind model.ProductKind, at time.Time) (bool, error) {
			t.Fatal("store must not be queried on a cache hit")
			return false, nil
		}
		cache := NewMockCache()
		if err := cache.SetActive(ctx, "owner-1", true); err != nil {
			t.Fatal(err)
		}
		uc := usecase.NewWindowUseCase(records, NewMockRecurringRepo(), cache, logger)

		// --- Act ---
		active, err := uc.HasActiveSubscription(ctx, "owner-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !active {
			t.Error("expected the cached answer")
		}
	})

	t.Run("nil cache goes straight to the store", func(t *testing.T) {
		// --- Arrange ---
		records := NewMockAccessRecordRepo()
		seedActiveWindow(t, records, "owner-1")
		uc := usecase.NewWindowUseCase(records, NewMockRecurringRepo(), nil, logger)

		// --- Act ---
		active, err := uc.HasActiveSubscription(ctx, "owner-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !active {
			t.Error("expected an active subscription without a cache")
		}
	})
}

func TestWindowUseCase_Boundaries(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	t.Run("returns and caches the current window", func(t *testing.T) {
		// --- Arrange ---
		records := NewMockAccessRecordRepo()
		cache := NewMockCache()
		rec := seedActiveWindow(t, records, "owner-1")
		uc := usecase.NewWindowUseCase(records, NewMockRecurringRepo(), cache, logger)

		// --- Act ---
		w, err := uc.Boundaries(ctx, "owner-1")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if !w.Found {
			t.Fatal("expected a window")
		}
		if w.StartAt == nil || !w.StartAt.Equal(rec.StartAt) {
			t.Error("expected the stored start")
		}
		if w.EndAt == nil || !w.EndAt.Equal(*rec.EndAt) {
			t.Error("expected the stored end")
		}
		if _, ok := cache.GetWindow(ctx, "owner-1"); !ok {
			t.Error("expected the window cached")
		}
	})

	t.Run("no window answers Found=false, not an error", func(t *testing.T) {
		// --- Arrange ---
		records := NewMockAccessRecordRepo()
		uc := usecase.NewWindowUseCase(records, NewMockRecurringRepo(), NewMockCache(), logger)

		// --- Act ---
		w, err := uc.Boundaries(ctx, "owner-none")

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if w.Found {
			t.Error("expected Found=false")
		}
	})
}

func TestWindowUseCase_AnyBoundaries(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()

	// --- Arrange ---
	records := NewMockAccessRecordRepo()
	ownerID := "owner-1"
	start := time.Now().Add(-90 * 24 * time.Hour)
	end := start.Add(30 * 24 * time.Hour)
	granted := start
	expired := &model.AccessRecord{
		ID:        "rec-old",
		OrderID:   "order-old",
		OwnerID:   &ownerID,
		ProductID: strPtr("product-1"),
		StartAt:   start,
		EndAt:     &end,
		GrantedAt: &granted,
	}
	if err := records.Save(ctx, repository.NoTX, expired); err != nil {
		t.Fatal(err)
	}
	uc := usecase.NewWindowUseCase(records, NewMockRecurringRepo(), nil, logger)

	// --- Act ---
	w, err := uc.AnyBoundaries(ctx, "owner-1")

	// --- Assert ---
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !w.Found {
		t.Fatal("expected the expired window reported")
	}
	if w.EndAt == nil || !w.EndAt.Equal(end) {
		t.Error("expected the expired window end")
	}
}
