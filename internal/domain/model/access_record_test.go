//go:build !integration

package model_test

import (
	"testing"
	"time"

	"lms-access-billing/internal/domain/model"
)

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func TestAccessRecord_ShouldApply(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		granted   *time.Time
		revoked   *time.Time
		eventTime time.Time
		want      bool
	}{
		{
			name:      "empty record accepts anything",
			eventTime: base,
			want:      true,
		},
		{
			name:      "newer event applies",
			granted:   timePtr(base),
			eventTime: base.Add(time.Minute),
			want:      true,
		},
		{
			name:      "older event is rejected",
			granted:   timePtr(base),
			eventTime: base.Add(-time.Minute),
			want:      false,
		},
		{
			name:      "equal timestamp is rejected",
			granted:   timePtr(base),
			eventTime: base,
			want:      false,
		},
		{
			name:      "equal to revocation is rejected",
			granted:   timePtr(base.Add(-time.Hour)),
			revoked:   timePtr(base),
			eventTime: base,
			want:      false,
		},
		{
			name:      "must be newer than both timestamps",
			granted:   timePtr(base.Add(time.Hour)),
			revoked:   timePtr(base),
			eventTime: base.Add(30 * time.Minute),
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &model.AccessRecord{GrantedAt: tc.granted, RevokedAt: tc.revoked}
			if got := rec.ShouldApply(tc.eventTime); got != tc.want {
				t.Errorf("ShouldApply(%v) = %v, want %v", tc.eventTime, got, tc.want)
			}
		})
	}
}

func TestAccessRecord_State(t *testing.T) {
	placeholder := &model.AccessRecord{OrderID: "order-1"}
	if placeholder.State() != model.AccessStatePlaceholder {
		t.Errorf("expected placeholder, got %s", placeholder.State())
	}
	resolved := &model.AccessRecord{OrderID: "order-1", OwnerID: strPtr("o"), ProductID: strPtr("p")}
	if resolved.State() != model.AccessStateResolved {
		t.Errorf("expected resolved, got %s", resolved.State())
	}
}

func TestAccessRecord_ActiveAt(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := base.Add(30 * 24 * time.Hour)

	rec := &model.AccessRecord{StartAt: base, EndAt: &end}
	if !rec.ActiveAt(base.Add(time.Hour)) {
		t.Error("expected active inside the window")
	}
	if rec.ActiveAt(base.Add(-time.Hour)) {
		t.Error("expected inactive before the start")
	}
	if rec.ActiveAt(end.Add(time.Hour)) {
		t.Error("expected inactive after the end")
	}

	revoked := &model.AccessRecord{StartAt: base, EndAt: &end, RevokedAt: timePtr(base.Add(time.Hour))}
	if revoked.ActiveAt(base.Add(2 * time.Hour)) {
		t.Error("expected a revoked record to be inactive")
	}

	unbounded := &model.AccessRecord{StartAt: base}
	if !unbounded.ActiveAt(base.Add(365 * 24 * time.Hour)) {
		t.Error("expected an unbounded record to stay active")
	}
}
