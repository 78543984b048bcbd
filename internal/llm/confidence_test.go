package llm

import (
	"strings"
	"testing"
)

func TestScore_Base(t *testing.T) {
	s := HeuristicScorer{}
	if got := s.Score("plain text with no signal at all"); got != 0.5 {
		t.Errorf("expected base score 0.5, got %v", got)
	}
}

func TestScore_FeatureIncrements(t *testing.T) {
	s := HeuristicScorer{}
	tests := []struct {
		name string
		text string
	}{
		{"references", "according to recent studies"},
		{"specifics", "take 500 mg twice daily"},
		{"structure", "Key Points to remember"},
		{"medical terms", "the differential diagnosis includes"},
		{"safety", "please consult a clinician"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.text)
			if got < 0.5 || got > 1.0 {
				t.Fatalf("score out of bounds: %v", got)
			}
		})
	}
}

func TestScore_SingleFeatureValues(t *testing.T) {
	s := HeuristicScorer{}

	if got := s.Score("see the evidence"); got != 0.65 {
		t.Errorf("references feature: expected 0.65, got %v", got)
	}
	if got := s.Score("dose is 10 mg"); got != 0.65 {
		t.Errorf("specifics feature: expected 0.65, got %v", got)
	}
	if got := s.Score("watch for warning signs"); got != 0.6 {
		t.Errorf("safety feature: expected 0.6, got %v", got)
	}
}

func TestScore_CappedAtOne(t *testing.T) {
	s := HeuristicScorer{}
	text := "Evidence from studies: • give 5 mg/kg. Primary diagnosis and treatment. Consult a professional immediately. Key Points: 1. emergency warning."
	if got := s.Score(text); got != 1.0 {
		t.Errorf("expected cap at 1.0, got %v", got)
	}
}

// The heuristic is a text-shape proxy for quality, not a calibrated
// probability: bounds must hold for arbitrary input.
func TestScore_BoundsHoldForAnyText(t *testing.T) {
	s := HeuristicScorer{}
	inputs := []string{
		"",
		"a",
		strings.Repeat("diagnosis treatment evidence 50 mg • consult ", 100),
		"\n\n\t\t",
		"日本語のテキスト",
		"1.2.3.4.5.6.7.8.9",
	}
	for _, text := range inputs {
		got := s.Score(text)
		if got < 0.5 || got > 1.0 {
			t.Errorf("score out of [0.5,1.0] for %q: %v", text, got)
		}
	}
}
