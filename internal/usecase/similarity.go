package usecase

import (
	"math"
	"strings"

	"github.com/fliphawk/backend/internal/domain"
	logx "github.com/fliphawk/backend/pkg/logger"
)

// Confidence weights. Title similarity dominates, profit plausibility and
// condition agreement contribute the rest, a shared model number adds a bonus.
const (
	titleWeight      = 80.0
	profitWeight     = 10.0
	conditionWeight  = 10.0
	modelMatchBonus  = 10.0
	shortTitleCap    = 50.0
	minTitleTokens   = 3
	substringBase    = 0.8
	substringScale   = 0.2
	jaccardWeight    = 0.7
	sequenceWeight   = 0.3
	plausibleROIMin  = 5.0
	plausibleROIMax  = 200.0
	implausibleROI   = 500.0
	defaultThreshold = 0.70
)

// MatchDetails explains a similarity score
type MatchDetails struct {
	TitleSimilarity float64
	ConditionScore  float64
	ModelMatch      bool
	ShortTitle      bool
}

// ScorerConfig holds configuration for the similarity scorer
type ScorerConfig struct {
	MinSimilarity      float64
	EnableDebugLogging bool
}

// SimilarityScorer decides how likely two listings describe the same item
type SimilarityScorer struct {
	minSimilarity      float64
	enableDebugLogging bool
}

// NewSimilarityScorer creates a scorer with the given configuration
func NewSimilarityScorer(config ScorerConfig) *SimilarityScorer {
	threshold := config.MinSimilarity
	if threshold <= 0 || threshold > 1 {
		threshold = defaultThreshold
	}

	return &SimilarityScorer{
		minSimilarity:      threshold,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// MinSimilarity returns the threshold below which pairs are discarded
func (s *SimilarityScorer) MinSimilarity() float64 {
	return s.minSimilarity
}

// Score compares two listings. The result is symmetric in its arguments.
func (s *SimilarityScorer) Score(a, b domain.Listing) (float64, MatchDetails) {
	normA := NormalizeTitle(a.Title)
	normB := NormalizeTitle(b.Title)
	tokensA := tokenize(normA)
	tokensB := tokenize(normB)

	details := MatchDetails{
		TitleSimilarity: TitleSimilarity(normA, normB),
		ConditionScore:  conditionAgreement(a.Condition, b.Condition),
		ModelMatch:      a.ModelNumber != "" && strings.EqualFold(a.ModelNumber, b.ModelNumber),
		ShortTitle:      len(tokensA) < minTitleTokens || len(tokensB) < minTitleTokens,
	}

	if s.enableDebugLogging {
		logx.Debug().
			Str("a", normA).
			Str("b", normB).
			Float64("similarity", details.TitleSimilarity).
			Bool("modelMatch", details.ModelMatch).
			Bool("shortTitle", details.ShortTitle).
			Msg("[MATCH] scored pair")
	}

	return details.TitleSimilarity, details
}

// Confidence turns match details and the pair's ROI into a 0-100 score
func (s *SimilarityScorer) Confidence(details MatchDetails, roiPercent float64) int {
	score := details.TitleSimilarity*titleWeight +
		profitPlausibility(roiPercent)*profitWeight +
		details.ConditionScore*conditionWeight

	if details.ModelMatch {
		score += modelMatchBonus
	}
	if details.ShortTitle {
		score = math.Min(score, shortTitleCap)
	}

	return int(math.Round(clamp(score, 0, 100)))
}

// TitleSimilarity compares two normalized titles. When one contains the other
// the score rewards the length ratio, otherwise it blends token overlap with a
// character sequence ratio. Empty titles score 0.
func TitleSimilarity(normA, normB string) float64 {
	if normA == "" || normB == "" {
		return 0
	}
	if normA == normB {
		return 1
	}

	if strings.Contains(normA, normB) || strings.Contains(normB, normA) {
		shorter, longer := len([]rune(normA)), len([]rune(normB))
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return substringBase + substringScale*float64(shorter)/float64(longer)
	}

	tokensA := tokenize(normA)
	tokensB := tokenize(normB)
	jaccard := 0.0
	if union := findUnion(tokensA, tokensB); union > 0 {
		jaccard = float64(findIntersection(tokensA, tokensB)) / float64(union)
	}

	return clamp(jaccard*jaccardWeight+sequenceRatio(normA, normB)*sequenceWeight, 0, 1)
}

// conditionAgreement is 1 for equal conditions, 0.5 when either is unknown
func conditionAgreement(a, b domain.Condition) float64 {
	if a == domain.ConditionUnknown || b == domain.ConditionUnknown || a == "" || b == "" {
		return 0.5
	}
	if a == b {
		return 1
	}
	return 0
}

// profitPlausibility rates an ROI in [0, 1]. Very thin and very fat margins
// are both signs of a mismatched pair.
func profitPlausibility(roi float64) float64 {
	switch {
	case roi <= 0:
		return 0
	case roi < plausibleROIMin:
		return roi / plausibleROIMin
	case roi <= plausibleROIMax:
		return 1
	case roi >= implausibleROI:
		return 0
	default:
		return 1 - (roi-plausibleROIMax)/(implausibleROI-plausibleROIMax)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
