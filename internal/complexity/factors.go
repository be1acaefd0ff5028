package complexity

import (
	"math"
	"strings"

	"github.com/samber/lo"
)

const (
	// ExternalConfidence is the confidence above which a tool counts as an external resource
	ExternalConfidence = 0.5
	// SubTaskToolConfidence is the confidence above which a tool adds to the sub-task estimate
	SubTaskToolConfidence = 0.6

	// ComplexThreshold is the minimum confidence for a goal to be labelled complex
	ComplexThreshold = 0.4
	// DecompositionThreshold is the minimum confidence that forces decomposition
	DecompositionThreshold = 0.5
	// DecompositionSubTasks is the sub-task count above which decomposition is required
	DecompositionSubTasks = 2

	MinSubTasks = 1
	MaxSubTasks = 15

	perToolSubTasks     = 1.5
	perResourceSubTasks = 1.5
	actionPriorityFloor = 2
)

// scoreComponent is one normalized, weighted term of the complexity score
type scoreComponent struct {
	value       int
	denominator float64
	weight      float64
}

// ComputeFactors reduces the detector outputs and simple text counts into
// the six complexity factors. lower must be the lower-cased form of text.
func ComputeFactors(text, lower string, tools []ToolIndicator, resources []ResourceReference, actions []ActionPattern) ComplexityFactors {
	highConfidence := lo.CountBy(tools, func(t ToolIndicator) bool {
		return t.Confidence > ExternalConfidence
	})
	return ComplexityFactors{
		Questions:         strings.Count(text, "?"),
		SequentialTasks:   countWords(lower, sequentialPatterns),
		Actions:           len(actions),
		Tools:             len(tools),
		DataProcessing:    countWords(lower, dataPatterns),
		ExternalResources: len(resources) + highConfidence,
	}
}

// EstimateSubTasks derives the number of sub-tasks a goal likely needs.
// The first question mark is the goal itself; each further one adds a task.
func EstimateSubTasks(f ComplexityFactors, tools []ToolIndicator, resources []ResourceReference, actions []ActionPattern) int {
	total := float64(MinSubTasks)
	total += float64(max(f.Questions-1, 0))
	total += math.Ceil(float64(f.SequentialTasks) / 2)

	strongTools := lo.CountBy(tools, func(t ToolIndicator) bool {
		return t.Confidence > SubTaskToolConfidence
	})
	total += perToolSubTasks * float64(strongTools)
	total += perResourceSubTasks * float64(len(resources))

	total += float64(lo.SumBy(actions, func(a ActionPattern) int {
		if a.Priority <= actionPriorityFloor {
			return 0
		}
		return int(math.Ceil(float64(a.Priority) / 2))
	}))
	total += math.Ceil(float64(f.DataProcessing) / 2)

	return clampSubTasks(int(math.Ceil(total)))
}

// Score combines the factors into a weighted confidence in [0,1]
func Score(f ComplexityFactors) float64 {
	components := []scoreComponent{
		{value: f.Questions, denominator: 3, weight: 0.15},
		{value: f.SequentialTasks, denominator: 5, weight: 0.20},
		{value: f.Actions, denominator: 5, weight: 0.15},
		{value: f.Tools, denominator: 4, weight: 0.25},
		{value: f.DataProcessing, denominator: 4, weight: 0.15},
		{value: f.ExternalResources, denominator: 3, weight: 0.10},
	}
	score := 0.0
	for _, c := range components {
		score += math.Min(float64(c.value)/c.denominator, 1.0) * c.weight
	}
	return clampUnit(score)
}

// Decide applies the decision rules. The two flags are independent.
func Decide(confidence float64, subTasks int) (isComplex, requiresDecomposition bool) {
	isComplex = confidence >= ComplexThreshold
	requiresDecomposition = subTasks > DecompositionSubTasks || confidence >= DecompositionThreshold
	return isComplex, requiresDecomposition
}

func clampSubTasks(n int) int {
	if n < MinSubTasks {
		return MinSubTasks
	}
	if n > MaxSubTasks {
		return MaxSubTasks
	}
	return n
}
