package formatting

import (
	"fmt"
	"strings"

	"github.com/Kocoro-lab/Shannon/go/goalanalyzer/internal/complexity"
)

// maxListed caps the tool and action sections
const maxListed = 5

// FormatComplexityReport renders a ComplexityResult as a multi-section,
// human-readable summary. The output is for logs and operators only and is
// never parsed back.
//
// Sections, in order:
//  1. Headline: COMPLEX/SIMPLE with the confidence percentage
//  2. Sub-task estimate and the decomposition flag
//  3. Resources with kind and suggested action
//  4. Up to five tools by confidence
//  5. Up to five actions by priority
func FormatComplexityReport(r *complexity.ComplexityResult) string {
	if r == nil {
		return ""
	}

	var b strings.Builder
	label := "SIMPLE"
	if r.IsComplex {
		label = "COMPLEX"
	}
	b.WriteString("## Complexity Analysis\n")
	fmt.Fprintf(&b, "Status: %s (%s confidence)\n", label, percent(r.Confidence))
	fmt.Fprintf(&b, "Estimated sub-tasks: %d\n", r.EstimatedSubTasks)
	fmt.Fprintf(&b, "Requires decomposition: %s\n", yesNo(r.RequiresDecomposition))

	b.WriteString("\n## Resources\n")
	if len(r.Resources) == 0 {
		b.WriteString("- none\n")
	}
	for _, res := range r.Resources {
		fmt.Fprintf(&b, "- [%s] %s -> %s\n", res.Kind, res.Reference, res.SuggestedAction)
	}

	b.WriteString("\n## Tools\n")
	if len(r.Tools) == 0 {
		b.WriteString("- none\n")
	}
	for _, t := range r.Tools[:min(len(r.Tools), maxListed)] {
		fmt.Fprintf(&b, "- %s %s", t.Category, percent(t.Confidence))
		if len(t.SuggestedTools) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(t.SuggestedTools, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n## Actions\n")
	if len(r.Actions) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range r.Actions[:min(len(r.Actions), maxListed)] {
		fmt.Fprintf(&b, "- %s (%s) x%d, priority %d\n", a.Verb, a.Category, a.Occurrences, a.Priority)
	}

	return strings.TrimRight(b.String(), "\n")
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
