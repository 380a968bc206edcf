package domain

// NeutralSubScore substitutes a missing sub-score. A midpoint, not zero:
// partial data must not sink an otherwise good candidate.
const NeutralSubScore = 50

// Sub-score weights. Sum to 1.
const (
	weightContentRelevance = 0.35
	weightEducationalValue = 0.30
	weightAudioClarity     = 0.20
	weightVisualQuality    = 0.15
)

// SubScores carries the per-dimension ratings a composite quality score is
// built from. Nil means the rater did not produce that dimension.
type SubScores struct {
	ContentRelevance *int `json:"content_relevance"`
	AudioClarity     *int `json:"audio_clarity"`
	VisualQuality    *int `json:"visual_quality"`
	EducationalValue *int `json:"educational_value"`
}

// CompositeScore folds sub-scores into a single [0,100] quality score.
func CompositeScore(s SubScores) int {
	sum := weightContentRelevance*subScore(s.ContentRelevance) +
		weightAudioClarity*subScore(s.AudioClarity) +
		weightVisualQuality*subScore(s.VisualQuality) +
		weightEducationalValue*subScore(s.EducationalValue)

	score := int(sum + 0.5)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func subScore(v *int) float64 {
	if v == nil {
		return NeutralSubScore
	}
	n := *v
	if n < 0 {
		n = 0
	}
	if n > 100 {
		n = 100
	}
	return float64(n)
}
