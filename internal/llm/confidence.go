package llm

import "regexp"

// Scorer estimates answer quality from the response text alone.
type Scorer interface {
	Score(text string) float64
}

// HeuristicScorer is a coarse text-shape proxy for quality, not a
// calibrated probability. It starts from a base of 0.5 and adds a fixed
// increment per detected feature class, capped at 1.0.
type HeuristicScorer struct{}

var (
	reReferences   = regexp.MustCompile(`(?i)references?|sources?|studies?|evidence`)
	reSpecifics    = regexp.MustCompile(`(?i)\d+%|\d+\.\d+|\d+ mg|\d+ ml|\d+ mg/kg`)
	reStructure    = regexp.MustCompile(`(?i)•|\*|\d+\.|\[|\]|Primary|Secondary|Key Points`)
	reMedicalTerms = regexp.MustCompile(`(?i)diagnosis|treatment|symptoms|pathophysiology|etiology`)
	reSafetyInfo   = regexp.MustCompile(`(?i)consult|professional|immediate|emergency|warning`)
)

func (HeuristicScorer) Score(text string) float64 {
	confidence := 0.5

	if reReferences.MatchString(text) {
		confidence += 0.15
	}
	if reSpecifics.MatchString(text) {
		confidence += 0.15
	}
	if reStructure.MatchString(text) {
		confidence += 0.15
	}
	if reMedicalTerms.MatchString(text) {
		confidence += 0.1
	}
	if reSafetyInfo.MatchString(text) {
		confidence += 0.1
	}

	if confidence > 1.0 {
		return 1.0
	}
	return confidence
}
