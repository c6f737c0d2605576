package analytics

import "testing"

func TestClassifyHealth(t *testing.T) {
	cases := []struct {
		name  string
		stats PromptStats
		want  Health
	}{
		{"never used, never edited", PromptStats{}, HealthNew},
		{"never used, edited", PromptStats{EditCount: 3}, HealthUnused},
		{"rated at great boundary", PromptStats{TimesUsed: 5, AvgRating: 3.5, RatingCount: 2}, HealthGreat},
		{"rated just below great", PromptStats{TimesUsed: 5, AvgRating: 3.49, RatingCount: 2}, HealthGood},
		{"rated at good boundary", PromptStats{TimesUsed: 5, AvgRating: 2.5, RatingCount: 2}, HealthGood},
		{"rated just below good", PromptStats{TimesUsed: 5, AvgRating: 2.49, RatingCount: 2}, HealthNeedsAttention},
		{"rated low", PromptStats{TimesUsed: 1, AvgRating: 1.0, RatingCount: 1}, HealthNeedsAttention},
		{"unrated, heavy rework", PromptStats{TimesUsed: 2, EditCount: 5}, HealthNeedsAttention},
		{"unrated, rework at ratio", PromptStats{TimesUsed: 3, EditCount: 5}, HealthGood},
		{"unrated, light rework", PromptStats{TimesUsed: 4, EditCount: 1}, HealthGood},
		// A low rating outranks the edit heuristic; unused outranks both.
		{"rating beats edit ratio", PromptStats{TimesUsed: 1, EditCount: 10, AvgRating: 4.0, RatingCount: 1}, HealthGreat},
		{"unused even with ratings", PromptStats{TimesUsed: 0, EditCount: 2, AvgRating: 4.0, RatingCount: 1}, HealthUnused},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifyHealth(tc.stats); got != tc.want {
				t.Errorf("ClassifyHealth(%+v) = %s, want %s", tc.stats, got, tc.want)
			}
		})
	}
}

func TestHealthPolicyConfigurable(t *testing.T) {
	strict := HealthPolicy{GreatRating: 4.0, GoodRating: 3.0, ReworkRatio: 1}

	stats := PromptStats{TimesUsed: 5, AvgRating: 3.5, RatingCount: 2}
	if got := strict.Classify(stats); got != HealthGood {
		t.Errorf("strict policy: expected good, got %s", got)
	}

	rework := PromptStats{TimesUsed: 3, EditCount: 4}
	if got := strict.Classify(rework); got != HealthNeedsAttention {
		t.Errorf("strict policy: expected needs_attention, got %s", got)
	}
	if got := DefaultHealthPolicy.Classify(rework); got != HealthGood {
		t.Errorf("default policy: expected good, got %s", got)
	}
}
