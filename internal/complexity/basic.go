package complexity

import (
	"strings"
)

// basicThreshold is the fraction of signals that marks a goal as complex
const basicThreshold = 0.5

// BasicAnalyzer is the lightweight heuristic: four yes/no signals and one
// threshold. It reports resources and actions but never infers tools.
type BasicAnalyzer struct{}

// NewBasicAnalyzer creates the four-signal fallback analyzer
func NewBasicAnalyzer() *BasicAnalyzer {
	return &BasicAnalyzer{}
}

// Name implements Analyzer
func (b *BasicAnalyzer) Name() string { return ModeBasic }

// Analyze implements Analyzer
func (b *BasicAnalyzer) Analyze(goal string) *ComplexityResult {
	lower := strings.ToLower(goal)
	resources := ExtractResources(goal)
	actions := DetectActions(lower)

	factors := ComplexityFactors{
		Questions:         strings.Count(goal, "?"),
		SequentialTasks:   countWords(lower, sequentialPatterns),
		Actions:           len(actions),
		DataProcessing:    countWords(lower, dataPatterns),
		ExternalResources: len(resources),
	}

	signals := []bool{
		factors.Questions > 1,
		factors.SequentialTasks > 0,
		factors.Actions > 1,
		factors.ExternalResources > 0,
	}
	hits := 0
	for _, s := range signals {
		if s {
			hits++
		}
	}

	score := float64(hits) / float64(len(signals))
	isComplex := score >= basicThreshold
	subTasks := MinSubTasks
	if isComplex {
		subTasks = clampSubTasks(1 + hits)
	}

	return &ComplexityResult{
		IsComplex:             isComplex,
		EstimatedSubTasks:     subTasks,
		RequiresDecomposition: isComplex,
		Confidence:            clampUnit(score),
		Tools:                 []ToolIndicator{},
		Resources:             nonNil(resources),
		Actions:               nonNil(actions),
		Factors:               factors,
	}
}
