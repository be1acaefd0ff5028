// Package complexity scores free-form goal text to decide whether a goal
// should be decomposed into several sub-tasks before execution.
//
// Analysis is a pure function of the input: keyword and verb tables are
// compiled once at package init and never mutated, so analyzers are safe for
// concurrent use without locking.
package complexity

import (
	"errors"
	"fmt"
	"strings"
)

// Analyzer implementation names
const (
	ModeAdvanced = "advanced"
	ModeBasic    = "basic"
)

// ErrUnknownAnalyzer is returned by New for an unsupported mode
var ErrUnknownAnalyzer = errors.New("unknown analyzer")

// AdvancedAnalyzer runs the full detector pipeline
type AdvancedAnalyzer struct{}

// NewAdvancedAnalyzer creates the full keyword/pattern analyzer
func NewAdvancedAnalyzer() *AdvancedAnalyzer {
	return &AdvancedAnalyzer{}
}

// Name implements Analyzer
func (a *AdvancedAnalyzer) Name() string { return ModeAdvanced }

// Analyze implements Analyzer
func (a *AdvancedAnalyzer) Analyze(goal string) *ComplexityResult {
	lower := strings.ToLower(goal)

	tools := DetectTools(goal)
	resources := ExtractResources(goal)
	actions := DetectActions(lower)

	factors := ComputeFactors(goal, lower, tools, resources, actions)
	subTasks := EstimateSubTasks(factors, tools, resources, actions)
	confidence := Score(factors)
	isComplex, decompose := Decide(confidence, subTasks)

	return &ComplexityResult{
		IsComplex:             isComplex,
		EstimatedSubTasks:     subTasks,
		RequiresDecomposition: decompose,
		Confidence:            confidence,
		Tools:                 nonNil(tools),
		Resources:             nonNil(resources),
		Actions:               nonNil(actions),
		Factors:               factors,
	}
}

var defaultAnalyzer = NewAdvancedAnalyzer()

// Analyze assesses goal with the advanced analyzer
func Analyze(goal string) *ComplexityResult {
	return defaultAnalyzer.Analyze(goal)
}

// New returns the analyzer registered under mode. An empty mode selects the
// advanced analyzer.
func New(mode string) (Analyzer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAdvanced:
		return NewAdvancedAnalyzer(), nil
	case ModeBasic:
		return NewBasicAnalyzer(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalyzer, mode)
	}
}

// Modes lists the supported analyzer modes
func Modes() []string {
	return []string{ModeAdvanced, ModeBasic}
}

// nonNil keeps empty lists as [] rather than null in JSON output
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
