package analytics

// Health is the discrete classification of a prompt's real-world
// effectiveness.
type Health string

const (
	HealthGreat          Health = "great"
	HealthGood           Health = "good"
	HealthNeedsAttention Health = "needs_attention"
	HealthUnused         Health = "unused"
	HealthNew            Health = "new"
)

// HealthPolicy holds the classification thresholds. The defaults match
// observed product behavior; they are policy constants, not invariants.
type HealthPolicy struct {
	// GreatRating is the minimum average rating for "great" (inclusive).
	GreatRating float64
	// GoodRating is the minimum average rating for "good" (inclusive).
	GoodRating float64
	// ReworkRatio flags an unrated prompt as needing attention when
	// edit_count > ReworkRatio * times_used.
	ReworkRatio int
}

// DefaultHealthPolicy is the policy used by ClassifyHealth.
var DefaultHealthPolicy = HealthPolicy{
	GreatRating: 3.5,
	GoodRating:  2.5,
	ReworkRatio: 2,
}

// Classify maps prompt stats to a health label. Pure function of its input.
//
// Order matters: unused prompts are labelled before ratings are considered,
// and ratings take precedence over the edit-ratio heuristic. Boundary values
// are inclusive: an average of exactly GreatRating is "great", exactly
// GoodRating is "good".
func (p HealthPolicy) Classify(stats PromptStats) Health {
	if stats.TimesUsed == 0 {
		if stats.EditCount > 0 {
			return HealthUnused
		}
		return HealthNew
	}

	if stats.HasRating() {
		switch {
		case stats.AvgRating >= p.GreatRating:
			return HealthGreat
		case stats.AvgRating >= p.GoodRating:
			return HealthGood
		default:
			return HealthNeedsAttention
		}
	}

	// Used but never rated: heavy rework relative to adoption is a warning
	// signal.
	if stats.EditCount > p.ReworkRatio*stats.TimesUsed {
		return HealthNeedsAttention
	}
	return HealthGood
}

// ClassifyHealth classifies stats under DefaultHealthPolicy.
func ClassifyHealth(stats PromptStats) Health {
	return DefaultHealthPolicy.Classify(stats)
}
