package scoring

// Tier orders score bands from best (0) to worst (4). It doubles as the
// display tier clients map to colors.
type Tier int

const (
	TierBest Tier = iota
	TierBalanced
	TierRisky
	TierImmoral
	TierInvalid
)

func (t Tier) String() string {
	switch t {
	case TierBest:
		return "best"
	case TierBalanced:
		return "balanced"
	case TierRisky:
		return "risky"
	case TierImmoral:
		return "immoral"
	default:
		return "invalid"
	}
}

// Rating is the classification of a single score.
type Rating struct {
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
}

// Classify maps a score on the 0-100 scale to its band. Total over all finite
// inputs; boundary values belong to the higher band (inclusive lower bound).
func Classify(score float64) Rating {
	switch {
	case score >= 100:
		return Rating{Label: "Best Ethical Decision", Tier: TierBest}
	case score >= 75:
		return Rating{Label: "Balanced Decision", Tier: TierBalanced}
	case score >= 50:
		return Rating{Label: "Risky Decision", Tier: TierRisky}
	case score >= 10:
		return Rating{Label: "Immoral Decision", Tier: TierImmoral}
	default:
		return Rating{Label: "Invalid Decision", Tier: TierInvalid}
	}
}

// LetterScore maps an answer letter to its canonical band score: A is the
// best ethical decision, D the worst. Unknown or empty answers score zero.
// Only history bookkeeping uses this; gameplay scores come from the dilemma
// payload itself.
func LetterScore(selected string) float64 {
	if selected == "" {
		return 0
	}
	switch selected[0] {
	case 'A', 'a':
		return 100
	case 'B', 'b':
		return 75
	case 'C', 'c':
		return 50
	case 'D', 'd':
		return 10
	default:
		return 0
	}
}

// Explanation is the verdict sentence stored with history submissions,
// matching the band of the given score.
func Explanation(score float64) string {
	switch {
	case score >= 100:
		return "Best Ethical Decision! You made the most morally sound choice."
	case score >= 75:
		return "Balanced Decision. You considered multiple perspectives."
	case score >= 50:
		return "Risky Decision. This choice could have ethical implications."
	case score >= 10:
		return "Immoral Decision. This choice raises serious ethical concerns."
	default:
		return "Invalid Decision. Please try again."
	}
}
