package aisummary

import (
	"testing"
	"time"

	"github.com/promptdeck/promptdeck/pkg/analytics"
)

func TestRatingValueOmitsAbsent(t *testing.T) {
	if v := ratingValue(analytics.PromptStats{}); v != nil {
		t.Errorf("absent rating should be nil, got %v", v)
	}
	if v := ratingValue(analytics.PromptStats{AvgRating: 3.2, RatingCount: 4}); v != 3.2 {
		t.Errorf("expected 3.2, got %v", v)
	}
}

func TestLastUsedValueOmitsZeroTime(t *testing.T) {
	if v := lastUsedValue(analytics.PromptStats{}); v != nil {
		t.Errorf("zero LastUsed should be nil, got %v", v)
	}
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if v := lastUsedValue(analytics.PromptStats{LastUsed: ts}); v != "2026-08-30T12:00:00Z" {
		t.Errorf("unexpected last_used %v", v)
	}
}

func TestOrUnknown(t *testing.T) {
	if orUnknown("") != "Unknown" || orUnknown("web") != "web" {
		t.Error("orUnknown mapping wrong")
	}
}
